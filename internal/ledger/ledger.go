package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/storage"
)

// Cache is an optional read-through layer in front of the assessment store.
type Cache interface {
	GetAssessment(ctx context.Context, txHash, paramsHash string) (*domain.RiskAssessment, error)
	SetAssessment(ctx context.Context, a *domain.RiskAssessment) error
}

// FeedPublisher pushes findings to external subscribers.
type FeedPublisher interface {
	PublishFinding(ctx context.Context, f *domain.ThreatFinding) error
}

// Ledger is the append-only record of assessments and findings. Writes go
// to durable storage first; the cache and feed are best-effort and their
// failures never fail a Record.
type Ledger struct {
	assessments storage.AssessmentRepository
	findings    storage.FindingRepository
	cache       Cache
	feed        FeedPublisher
	log         *slog.Logger
}

// New creates a Ledger. cache and feed may be nil.
func New(
	assessments storage.AssessmentRepository,
	findings storage.FindingRepository,
	cache Cache,
	feed FeedPublisher,
	log *slog.Logger,
) *Ledger {
	return &Ledger{
		assessments: assessments,
		findings:    findings,
		cache:       cache,
		feed:        feed,
		log:         log.With("component", "ledger"),
	}
}

// Record persists an assessment and its findings, then fans out to the
// cache and the threat feed.
func (l *Ledger) Record(ctx context.Context, a *domain.RiskAssessment) error {
	if err := l.assessments.Append(ctx, a); err != nil {
		return fmt.Errorf("append assessment: %w", err)
	}
	for i := range a.Findings {
		f := &a.Findings[i]
		if err := l.findings.Append(ctx, f); err != nil {
			return fmt.Errorf("append finding %s: %w", f.ID, err)
		}
	}

	if l.cache != nil {
		if err := l.cache.SetAssessment(ctx, a); err != nil {
			l.log.Warn("assessment cache write failed", "tx", a.TxHash, "error", err)
		}
	}
	if l.feed != nil {
		for i := range a.Findings {
			if err := l.feed.PublishFinding(ctx, &a.Findings[i]); err != nil {
				l.log.Warn("threat feed publish failed", "finding", a.Findings[i].ID, "error", err)
			}
		}
	}
	return nil
}

// Lookup returns the assessment for (txHash, paramsHash), consulting the
// cache before durable storage. A cache error degrades to a store read.
func (l *Ledger) Lookup(ctx context.Context, txHash, paramsHash string) (*domain.RiskAssessment, error) {
	if l.cache != nil {
		a, err := l.cache.GetAssessment(ctx, txHash, paramsHash)
		if err != nil {
			l.log.Warn("assessment cache read failed", "tx", txHash, "error", err)
		} else if a != nil {
			return a, nil
		}
	}
	return l.assessments.Get(ctx, txHash, paramsHash)
}

// FindingsFor returns every recorded finding naming txHash as subject.
func (l *Ledger) FindingsFor(ctx context.Context, txHash string) ([]*domain.ThreatFinding, error) {
	return l.findings.ListBySubject(ctx, txHash)
}

// RecentFindings returns the newest findings, most recent first.
func (l *Ledger) RecentFindings(ctx context.Context, limit int) ([]*domain.ThreatFinding, error) {
	return l.findings.ListRecent(ctx, limit)
}
