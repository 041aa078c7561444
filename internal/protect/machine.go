// Package protect implements the commit-reveal execution protocol: commit a
// hidden swap, wait out a block delay, reveal and execute. The reveal-time
// price check is the terminal safety net — execution either completes at
// the committed bound or does not happen at all.
package protect

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/storage"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/metrics"
)

// HeadSource reports the current chain head.
type HeadSource interface {
	GetLatestBlock(ctx context.Context) (uint64, error)
}

// PriceSource quotes the currently observable output of a swap. Used by the
// reveal-time abort check; a quote error always aborts (fail closed).
type PriceSource interface {
	Quote(ctx context.Context, tokenIn, tokenOut string, amountIn *big.Int) (*big.Int, error)
}

// Executor performs the underlying swap once all reveal checks pass.
type Executor interface {
	ExecuteSwap(ctx context.Context, p *domain.SwapParams) (realizedOut *big.Int, err error)
}

// RevealGuard re-runs a narrow slice of the detection engine against the
// current pending window at reveal time. Optional; a nil guard skips the
// probe (the price check still applies).
type RevealGuard interface {
	SandwichSuspected(owner string, p *domain.SwapParams) bool
}

// Config holds the protocol parameters.
type Config struct {
	CommitDelayBlocks  uint64        `yaml:"commit_delay_blocks"`
	SlippageCeilingBps int64         `yaml:"slippage_ceiling_bps"`
	MaxDeadline        time.Duration `yaml:"max_deadline"`
}

// DefaultConfig mirrors the protocol defaults: two blocks of delay, 1%
// slippage ceiling, 10 minute deadline cap.
func DefaultConfig() Config {
	return Config{CommitDelayBlocks: 2, SlippageCeilingBps: 100, MaxDeadline: 10 * time.Minute}
}

// Machine is the protected-execution state machine. Commitments are
// independent of each other; transitions on one hash are serialized by a
// per-key lock, not a global one.
type Machine struct {
	cfg   Config
	repo  storage.CommitmentRepository
	head  HeadSource
	price PriceSource
	exec  Executor
	guard RevealGuard
	now   func() time.Time
	log   *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMachine(cfg Config, repo storage.CommitmentRepository, head HeadSource, price PriceSource, exec Executor, guard RevealGuard, log *slog.Logger) *Machine {
	if cfg.CommitDelayBlocks == 0 {
		cfg.CommitDelayBlocks = 2
	}
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		cfg:   cfg,
		repo:  repo,
		head:  head,
		price: price,
		exec:  exec,
		guard: guard,
		now:   time.Now,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}
}

// keyLock returns the mutex serializing transitions for one commitment hash.
func (m *Machine) keyLock(hash string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[hash]
	if !ok {
		l = &sync.Mutex{}
		m.locks[hash] = l
	}
	return l
}

// Commit registers a new commitment hash. The swap parameters stay hidden;
// only their hash, the owner and the deadline are recorded. Fails with
// ErrDuplicateCommitment if the hash already exists.
func (m *Machine) Commit(ctx context.Context, hash, owner string, deadline time.Time) (*domain.ProtectedSwapCommitment, error) {
	lock := m.keyLock(hash)
	lock.Lock()
	defer lock.Unlock()

	headBlock, err := m.head.GetLatestBlock(ctx)
	if err != nil {
		metrics.Commitments.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve chain head: %w", err)
	}

	maxDeadline := m.now().Add(m.cfg.MaxDeadline)
	if m.cfg.MaxDeadline > 0 && deadline.After(maxDeadline) {
		deadline = maxDeadline
	}

	c := &domain.ProtectedSwapCommitment{
		Hash:          hash,
		Owner:         owner,
		CreatedBlock:  headBlock,
		EarliestBlock: headBlock + m.cfg.CommitDelayBlocks,
		Deadline:      deadline,
		CreatedAt:     m.now().UTC(),
	}

	created, err := m.repo.Create(ctx, c)
	if err != nil {
		metrics.Commitments.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store commitment: %w", err)
	}
	if !created {
		metrics.Commitments.WithLabelValues("duplicate").Inc()
		return nil, ErrDuplicateCommitment
	}

	metrics.Commitments.WithLabelValues("ok").Inc()
	m.log.Info("commitment created", "hash", hash, "owner", owner, "earliest_block", c.EarliestBlock)
	return c, nil
}

// RevealAndExecute verifies the revealed parameters against the commitment
// and, if every check passes, performs the swap and marks the commitment
// executed. All failures leave the commitment unchanged.
func (m *Machine) RevealAndExecute(ctx context.Context, hash string, params *domain.SwapParams) (*domain.ProtectedSwapCommitment, error) {
	lock := m.keyLock(hash)
	lock.Lock()
	defer lock.Unlock()

	fail := func(result string, err error) (*domain.ProtectedSwapCommitment, error) {
		metrics.Reveals.WithLabelValues(result).Inc()
		return nil, err
	}

	if CommitmentHash(params) != hash {
		return fail("invalid", ErrInvalidCommitment)
	}

	c, err := m.repo.Get(ctx, hash)
	if err != nil {
		return fail("error", fmt.Errorf("load commitment: %w", err))
	}
	if c == nil || c.Owner != params.Sender {
		return fail("invalid", ErrInvalidCommitment)
	}

	headBlock, err := m.head.GetLatestBlock(ctx)
	if err != nil {
		// Without a head we cannot prove the delay has passed.
		return fail("aborted", fmt.Errorf("%w: chain head unavailable: %v", ErrAbortedMEVDetected, err))
	}
	if headBlock < c.EarliestBlock {
		return fail("too_early", ErrTooEarly)
	}
	if c.Executed {
		return fail("already_executed", ErrAlreadyExecuted)
	}
	if m.now().After(c.Deadline) {
		return fail("expired", ErrDeadlineExpired)
	}

	// Reveal-time abort check: quote the swap at the current spot price
	// and compare against the committed minimum output. Provider failure
	// aborts — never execute without a price.
	quoted, err := m.price.Quote(ctx, params.TokenIn, params.TokenOut, params.AmountIn)
	if err != nil {
		return fail("aborted", fmt.Errorf("%w: price unavailable: %v", ErrAbortedMEVDetected, err))
	}
	if deviatesBeyondCeiling(quoted, params.MinAmountOut, m.cfg.SlippageCeilingBps) {
		m.log.Warn("reveal aborted on price deviation",
			"hash", hash, "quoted", quoted.String(), "min_out", params.MinAmountOut.String())
		return fail("aborted", ErrAbortedMEVDetected)
	}

	if m.guard != nil && m.guard.SandwichSuspected(c.Owner, params) {
		m.log.Warn("reveal aborted on pending-window sandwich pattern", "hash", hash)
		return fail("aborted", ErrAbortedMEVDetected)
	}

	realized, err := m.exec.ExecuteSwap(ctx, params)
	if err != nil {
		// Execution failure is not a protocol violation; the commitment
		// stays revealed-less and cancellable.
		return fail("error", fmt.Errorf("execute swap: %w", err))
	}

	c.Revealed = params
	c.Executed = true
	c.RealizedOut = realized
	if err := m.repo.Update(ctx, c); err != nil {
		return fail("error", fmt.Errorf("persist execution: %w", err))
	}

	metrics.Reveals.WithLabelValues("ok").Inc()
	m.log.Info("protected swap executed",
		"hash", hash, "owner", c.Owner, "realized_out", realized.String())
	return c, nil
}

// Cancel deletes an unexecuted commitment and refunds any escrowed input.
// Only the owner may cancel, and only before execution.
func (m *Machine) Cancel(ctx context.Context, hash, owner string) error {
	lock := m.keyLock(hash)
	lock.Lock()
	defer lock.Unlock()

	c, err := m.repo.Get(ctx, hash)
	if err != nil {
		metrics.Cancels.WithLabelValues("error").Inc()
		return fmt.Errorf("load commitment: %w", err)
	}
	if c == nil || c.Owner != owner {
		metrics.Cancels.WithLabelValues("invalid").Inc()
		return ErrInvalidCommitment
	}
	if c.Executed {
		metrics.Cancels.WithLabelValues("already_executed").Inc()
		return ErrAlreadyExecuted
	}

	if err := m.repo.Delete(ctx, hash); err != nil {
		metrics.Cancels.WithLabelValues("error").Inc()
		return fmt.Errorf("delete commitment: %w", err)
	}

	metrics.Cancels.WithLabelValues("ok").Inc()
	m.log.Info("commitment cancelled", "hash", hash, "owner", owner)
	return nil
}

// Get returns the commitment for hash, nil when absent.
func (m *Machine) Get(ctx context.Context, hash string) (*domain.ProtectedSwapCommitment, error) {
	return m.repo.Get(ctx, hash)
}

// deviatesBeyondCeiling reports quoted < minOut * (10000 - ceilingBps) / 10000.
func deviatesBeyondCeiling(quoted, minOut *big.Int, ceilingBps int64) bool {
	if minOut == nil || minOut.Sign() == 0 {
		return false
	}
	if quoted == nil {
		return true
	}
	floor := new(big.Int).Mul(minOut, big.NewInt(10000-ceilingBps))
	lhs := new(big.Int).Mul(quoted, big.NewInt(10000))
	return lhs.Cmp(floor) < 0
}
