package memory

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

func TestCommitmentRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewCommitmentRepo(NewMemoryStorage())

	c := &domain.ProtectedSwapCommitment{
		Hash:          "0xabc",
		Owner:         "0x01",
		CreatedBlock:  100,
		EarliestBlock: 102,
		Deadline:      time.Now().Add(time.Minute),
	}
	created, err := repo.Create(ctx, c)
	if err != nil || !created {
		t.Fatalf("create = (%v, %v), want (true, nil)", created, err)
	}

	created, err = repo.Create(ctx, c)
	if err != nil || created {
		t.Fatalf("duplicate create = (%v, %v), want (false, nil)", created, err)
	}

	got, err := repo.Get(ctx, "0xabc")
	if err != nil || got == nil || got.EarliestBlock != 102 {
		t.Fatalf("get = (%+v, %v)", got, err)
	}

	// Mutating a returned copy must not leak into the store.
	got.Executed = true
	again, _ := repo.Get(ctx, "0xabc")
	if again.Executed {
		t.Error("returned commitment aliases stored state")
	}

	got.Executed = true
	got.RealizedOut = big.NewInt(7)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, _ = repo.Get(ctx, "0xabc")
	if !again.Executed || again.RealizedOut.Cmp(big.NewInt(7)) != 0 {
		t.Errorf("update lost: %+v", again)
	}

	if err := repo.Delete(ctx, "0xabc"); err != nil {
		t.Fatal(err)
	}
	if gone, _ := repo.Get(ctx, "0xabc"); gone != nil {
		t.Error("commitment survived delete")
	}
}

func TestCommitmentRepoGetMissing(t *testing.T) {
	repo := NewCommitmentRepo(NewMemoryStorage())
	got, err := repo.Get(context.Background(), "0xnope")
	if err != nil || got != nil {
		t.Fatalf("get missing = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestFindingRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewFindingRepo(NewMemoryStorage())

	base := time.Now().UTC()
	for i, subject := range []string{"0xa", "0xb", "0xa"} {
		f := &domain.ThreatFinding{
			ID:            string(rune('1' + i)),
			Kind:          domain.ThreatSandwich,
			Severity:      domain.SeverityHigh,
			Confidence:    0.85,
			SubjectTxHash: subject,
			DetectedAt:    base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Append(ctx, f); err != nil {
			t.Fatal(err)
		}
	}

	bySubject, err := repo.ListBySubject(ctx, "0xa")
	if err != nil || len(bySubject) != 2 {
		t.Fatalf("ListBySubject = (%d, %v), want 2", len(bySubject), err)
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil || len(recent) != 2 {
		t.Fatalf("ListRecent = (%d, %v), want 2", len(recent), err)
	}
	if !recent[0].DetectedAt.After(recent[1].DetectedAt) {
		t.Error("ListRecent not ordered newest first")
	}
}

func TestAssessmentRepoKeyedByTxAndParams(t *testing.T) {
	ctx := context.Background()
	repo := NewAssessmentRepo(NewMemoryStorage())

	a := &domain.RiskAssessment{TxHash: "0xt", ParamsHash: "0xp1", Score: 50}
	b := &domain.RiskAssessment{TxHash: "0xt", ParamsHash: "0xp2", Score: 90}
	if err := repo.Append(ctx, a); err != nil {
		t.Fatal(err)
	}
	if err := repo.Append(ctx, b); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, "0xt", "0xp1")
	if err != nil || got == nil || got.Score != 50 {
		t.Fatalf("get p1 = (%+v, %v)", got, err)
	}
	got, _ = repo.Get(ctx, "0xt", "0xp2")
	if got == nil || got.Score != 90 {
		t.Fatalf("same tx with different params must be a distinct assessment: %+v", got)
	}
	if missing, _ := repo.Get(ctx, "0xt", "0xp3"); missing != nil {
		t.Error("unknown params hash returned an assessment")
	}
}
