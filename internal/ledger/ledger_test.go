package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/storage/memory"
)

type fakeCache struct {
	byKey map[string]*domain.RiskAssessment
	err   error
}

func (c *fakeCache) GetAssessment(ctx context.Context, txHash, paramsHash string) (*domain.RiskAssessment, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.byKey[txHash+":"+paramsHash], nil
}

func (c *fakeCache) SetAssessment(ctx context.Context, a *domain.RiskAssessment) error {
	if c.err != nil {
		return c.err
	}
	c.byKey[a.TxHash+":"+a.ParamsHash] = a
	return nil
}

type fakeFeed struct {
	published []string
	err       error
}

func (f *fakeFeed) PublishFinding(ctx context.Context, finding *domain.ThreatFinding) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, finding.ID)
	return nil
}

func sampleAssessment() *domain.RiskAssessment {
	return &domain.RiskAssessment{
		ID:         "a-1",
		TxHash:     "0xvictim",
		ParamsHash: "0xparams",
		Score:      85,
		Action:     domain.ActionStrongProtection,
		Strategies: []domain.Strategy{domain.StrategyCommitReveal, domain.StrategyPrivateSubmission},
		Findings: []domain.ThreatFinding{
			{
				ID:            "f-1",
				Kind:          domain.ThreatSandwich,
				Severity:      domain.SeverityHigh,
				Confidence:    0.85,
				SubjectTxHash: "0xvictim",
				DetectedAt:    time.Now().UTC(),
			},
		},
		EvaluatedAt: time.Now().UTC(),
	}
}

func TestRecordPersistsAndFansOut(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryStorage()
	cache := &fakeCache{byKey: map[string]*domain.RiskAssessment{}}
	feed := &fakeFeed{}
	l := New(memory.NewAssessmentRepo(store), memory.NewFindingRepo(store), cache, feed, slog.Default())

	a := sampleAssessment()
	if err := l.Record(ctx, a); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := l.Lookup(ctx, "0xvictim", "0xparams")
	if err != nil || got == nil || got.Score != 85 {
		t.Fatalf("lookup = (%+v, %v)", got, err)
	}

	findings, err := l.FindingsFor(ctx, "0xvictim")
	if err != nil || len(findings) != 1 || findings[0].Kind != domain.ThreatSandwich {
		t.Fatalf("findings = (%v, %v)", findings, err)
	}

	if len(feed.published) != 1 || feed.published[0] != "f-1" {
		t.Errorf("feed published = %v, want [f-1]", feed.published)
	}
	if cache.byKey["0xvictim:0xparams"] == nil {
		t.Error("assessment not cached")
	}
}

func TestRecordSurvivesCacheAndFeedFailures(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryStorage()
	l := New(
		memory.NewAssessmentRepo(store),
		memory.NewFindingRepo(store),
		&fakeCache{err: errors.New("redis down")},
		&fakeFeed{err: errors.New("redis down")},
		slog.Default(),
	)

	if err := l.Record(ctx, sampleAssessment()); err != nil {
		t.Fatalf("record must tolerate cache/feed outage, got %v", err)
	}

	// Lookup degrades past the broken cache to durable storage.
	got, err := l.Lookup(ctx, "0xvictim", "0xparams")
	if err != nil || got == nil {
		t.Fatalf("lookup = (%+v, %v)", got, err)
	}
}

func TestLedgerWithoutCacheOrFeed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryStorage()
	l := New(memory.NewAssessmentRepo(store), memory.NewFindingRepo(store), nil, nil, slog.Default())

	if err := l.Record(ctx, sampleAssessment()); err != nil {
		t.Fatalf("record: %v", err)
	}
	recent, err := l.RecentFindings(ctx, 10)
	if err != nil || len(recent) != 1 {
		t.Fatalf("recent = (%d, %v)", len(recent), err)
	}
}
