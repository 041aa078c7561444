// Package detect implements the streaming pattern-detection engine. Each
// detector is a pure function of a subject transaction and an immutable
// window of surrounding transactions; the engine fans the detectors out
// concurrently, enforces a per-detector latency budget, and unions whatever
// findings arrive in time.
package detect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/metrics"
)

// Detector classifies one subject transaction against the window. A
// detector that cannot evaluate the subject returns an empty slice, never
// an error.
type Detector interface {
	Name() string
	Detect(subject Entry, w *Window) []domain.ThreatFinding
}

// Priors are the fixed per-kind confidence values attached to findings.
// They are configuration, not runtime-learned state.
type Priors struct {
	Sandwich float64 `yaml:"sandwich"`
	FrontRun float64 `yaml:"front_run"`
	BackRun  float64 `yaml:"back_run"`
	JIT      float64 `yaml:"jit_liquidity"`
}

// DefaultPriors returns the empirical defaults.
func DefaultPriors() Priors {
	return Priors{Sandwich: 0.85, FrontRun: 0.75, BackRun: 0.60, JIT: 0.65}
}

// Engine runs a fixed set of detectors over subjects.
type Engine struct {
	detectors []Detector
	timeout   time.Duration
	log       *slog.Logger
}

// NewEngine creates an engine with the standard four detectors.
func NewEngine(priors Priors, timeout time.Duration, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		detectors: []Detector{
			NewSandwichDetector(priors.Sandwich),
			NewFrontRunDetector(priors.FrontRun),
			NewBackRunDetector(priors.BackRun),
			NewJITDetector(priors.JIT),
		},
		timeout: timeout,
		log:     log,
	}
}

// Analyze runs every detector concurrently over the subject and unions their
// findings. A detector exceeding the latency budget is skipped for this
// cycle; its name is returned so callers can mark the result incomplete.
func (e *Engine) Analyze(ctx context.Context, subject Entry, w *Window) (findings []domain.ThreatFinding, skipped []string) {
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, d := range e.detectors {
		d := d
		g.Go(func() error {
			done := make(chan []domain.ThreatFinding, 1)
			go func() {
				done <- d.Detect(subject, w)
			}()

			timer := time.NewTimer(e.timeout)
			defer timer.Stop()

			select {
			case out := <-done:
				mu.Lock()
				findings = append(findings, out...)
				mu.Unlock()
			case <-timer.C:
				metrics.DetectorTimeouts.WithLabelValues(d.Name()).Inc()
				e.log.Warn("detector exceeded latency budget, skipping", "detector", d.Name(), "tx", subject.Tx.Hash)
				mu.Lock()
				skipped = append(skipped, d.Name())
				mu.Unlock()
			case <-ctx.Done():
				mu.Lock()
				skipped = append(skipped, d.Name())
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range findings {
		metrics.FindingsTotal.WithLabelValues(string(f.Kind)).Inc()
	}
	return findings, skipped
}

// SandwichProbe runs only the sandwich detector over the window. The
// protected-execution state machine uses it at reveal time as the narrow
// second line of defense.
func (e *Engine) SandwichProbe(subject Entry, w *Window) []domain.ThreatFinding {
	for _, d := range e.detectors {
		if d.Name() == "sandwich" {
			return d.Detect(subject, w)
		}
	}
	return nil
}
