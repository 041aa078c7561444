package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/detect"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/ledger"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/metrics"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/normalize"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/risk"
)

// ChainSource is the node feed the scanner observes.
type ChainSource interface {
	GetLatestBlock(ctx context.Context) (uint64, error)
	GetBlockTransactions(ctx context.Context, blockNumber uint64) ([]*domain.PendingTransaction, error)
	GetPendingTransactions(ctx context.Context) ([]*domain.PendingTransaction, error)
}

// Config holds scanner configuration.
type Config struct {
	ScanInterval time.Duration `yaml:"scan_interval"`
	WindowBlocks uint64        `yaml:"window_blocks"`
	Concurrency  int           `yaml:"concurrency"`
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ScanInterval == 0 {
		out.ScanInterval = 3 * time.Second
	}
	if out.WindowBlocks == 0 {
		out.WindowBlocks = 2
	}
	if out.Concurrency == 0 {
		out.Concurrency = 8
	}
	return out
}

// Scanner drives the streaming analysis loop: rebuild the observation
// window on each new head, run every pending transaction through the
// detection engine, and record the verdicts.
type Scanner struct {
	cfg    Config
	chain  ChainSource
	engine *detect.Engine
	scorer *risk.Scorer
	ledger *ledger.Ledger
	log    *slog.Logger

	running  atomic.Bool
	stop     chan struct{}
	window   atomic.Value // *detect.Window
	lastHead atomic.Uint64
}

func NewScanner(
	cfg Config,
	chain ChainSource,
	engine *detect.Engine,
	scorer *risk.Scorer,
	l *ledger.Ledger,
	log *slog.Logger,
) *Scanner {
	s := &Scanner{
		cfg:    cfg.withDefaults(),
		chain:  chain,
		engine: engine,
		scorer: scorer,
		ledger: l,
		log:    log.With("component", "scanner"),
		stop:   make(chan struct{}),
	}
	s.window.Store(detect.NewWindow(0, nil, nil))
	return s
}

// Start begins the scan loop and blocks until ctx is cancelled or Stop is
// called.
func (s *Scanner) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scanner already running")
	}
	defer s.running.Store(false)

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			if err := s.cycle(ctx); err != nil {
				s.log.Warn("scan cycle failed", "error", err)
			}
		}
	}
}

// Stop stops the scan loop.
func (s *Scanner) Stop() error {
	if s.running.Load() {
		close(s.stop)
	}
	return nil
}

// cycle executes one step of the loop. A node outage degrades this cycle,
// never the process.
func (s *Scanner) cycle(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.CycleDuration.Observe(time.Since(start).Seconds()) }()

	head, err := s.chain.GetLatestBlock(ctx)
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}

	w, degraded, err := s.buildWindow(ctx, head)
	if err != nil {
		return err
	}
	s.window.Store(w)
	s.lastHead.Store(head)
	metrics.WindowSize.Set(float64(w.Len()))

	return s.analyzePending(ctx, w, degraded)
}

// buildWindow assembles the immutable snapshot for this cycle: the last
// WindowBlocks finalized blocks in committed order, then the pending set.
// A block fetch failure shrinks the window and marks the cycle degraded
// rather than aborting it.
func (s *Scanner) buildWindow(ctx context.Context, head uint64) (*detect.Window, bool, error) {
	degraded := false

	var txs []*domain.PendingTransaction
	from := uint64(0)
	if head > s.cfg.WindowBlocks {
		from = head - s.cfg.WindowBlocks + 1
	}
	for n := from; n <= head; n++ {
		blockTxs, err := s.chain.GetBlockTransactions(ctx, n)
		if err != nil {
			s.log.Warn("block fetch failed, window degraded", "block", n, "error", err)
			degraded = true
			continue
		}
		txs = append(txs, blockTxs...)
	}

	pending, err := s.chain.GetPendingTransactions(ctx)
	if err != nil {
		s.log.Warn("pending fetch failed, window degraded", "error", err)
		degraded = true
	}
	txs = append(txs, pending...)

	intents := make([]*domain.SwapIntent, len(txs))
	for i, tx := range txs {
		intents[i] = normalize.Normalize(tx)
	}
	return detect.NewWindow(head, txs, intents), degraded, nil
}

// analyzePending scores every pending transaction of the window against
// the full snapshot.
func (s *Scanner) analyzePending(ctx context.Context, w *detect.Window, degraded bool) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, entry := range w.Entries() {
		if !entry.Tx.Pending {
			continue
		}
		g.Go(func() error {
			s.analyzeOne(ctx, entry, w, degraded)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scanner) analyzeOne(ctx context.Context, entry detect.Entry, w *detect.Window, degraded bool) {
	start := time.Now()
	findings, skipped := s.engine.Analyze(ctx, entry, w)
	assessment := s.scorer.Score(entry.Tx, findings, skipped, degraded)
	metrics.AnalyzeLatency.Observe(time.Since(start).Seconds())
	metrics.TransactionsAnalyzed.Inc()

	if err := s.ledger.Record(ctx, assessment); err != nil {
		s.log.Error("record assessment failed", "tx", entry.Tx.Hash, "error", err)
		return
	}
	if len(findings) > 0 {
		s.log.Info("threats detected",
			"tx", entry.Tx.Hash,
			"findings", len(findings),
			"score", assessment.Score,
			"action", assessment.Action)
	}
}

// Analyze assesses a single transaction on demand against the current
// window snapshot. Used by the HTTP API for client-submitted transactions
// that are not (yet) part of the observed mempool.
func (s *Scanner) Analyze(ctx context.Context, tx *domain.PendingTransaction) (*domain.RiskAssessment, error) {
	current := s.window.Load().(*detect.Window)

	entry := detect.Entry{Tx: tx, Intent: normalize.Normalize(tx)}
	w := current
	if pos := current.Position(tx.Hash); pos >= 0 {
		entry = current.Entries()[pos]
	} else {
		// Append the subject to a copy of the snapshot so bracket
		// detectors can see it relative to the observed flow.
		txs := make([]*domain.PendingTransaction, 0, current.Len()+1)
		intents := make([]*domain.SwapIntent, 0, current.Len()+1)
		for _, e := range current.Entries() {
			txs = append(txs, e.Tx)
			intents = append(intents, e.Intent)
		}
		txs = append(txs, tx)
		intents = append(intents, entry.Intent)
		w = detect.NewWindow(current.HeadBlock, txs, intents)
		entry = w.Entries()[w.Len()-1]
	}

	findings, skipped := s.engine.Analyze(ctx, entry, w)
	assessment := s.scorer.Score(tx, findings, skipped, false)
	metrics.TransactionsAnalyzed.Inc()

	if err := s.ledger.Record(ctx, assessment); err != nil {
		return nil, fmt.Errorf("record assessment: %w", err)
	}
	return assessment, nil
}

// SandwichSuspected reports whether the current window shows a sandwich
// bracket around a swap matching the revealed parameters. It backs the
// reveal-time guard of the protected execution machine.
func (s *Scanner) SandwichSuspected(owner string, params *domain.SwapParams) bool {
	current := s.window.Load().(*detect.Window)

	probe := &domain.PendingTransaction{
		Hash:       "reveal-probe",
		From:       owner,
		Pending:    true,
		Index:      -1,
		ObservedAt: time.Now().UTC(),
	}
	intent := &domain.SwapIntent{
		TxHash:       probe.Hash,
		Kind:         domain.OpSwap,
		TokenIn:      params.TokenIn,
		TokenOut:     params.TokenOut,
		AmountIn:     params.AmountIn,
		MinAmountOut: params.MinAmountOut,
	}

	txs := make([]*domain.PendingTransaction, 0, current.Len()+1)
	intents := make([]*domain.SwapIntent, 0, current.Len()+1)
	inserted := false
	for _, e := range current.Entries() {
		// Place the probe ahead of the pending tail so both bracket
		// legs stay visible around it.
		if !inserted && e.Tx.Pending {
			txs = append(txs, probe)
			intents = append(intents, intent)
			inserted = true
		}
		txs = append(txs, e.Tx)
		intents = append(intents, e.Intent)
	}
	if !inserted {
		txs = append(txs, probe)
		intents = append(intents, intent)
	}

	w := detect.NewWindow(current.HeadBlock, txs, intents)
	pos := w.Position(probe.Hash)
	findings := s.engine.SandwichProbe(w.Entries()[pos], w)
	return len(findings) > 0
}

// Head returns the last observed chain head.
func (s *Scanner) Head() uint64 {
	return s.lastHead.Load()
}
