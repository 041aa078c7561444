package risk

import (
	"math/big"
	"testing"
	"time"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

const knownRouter = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"

func etherAmount(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func gweiAmount(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1_000_000_000))
}

// The reference scenario: value=150, gas=60 gwei, known router, outside any
// high-activity window => 40+30+20+0 = 90 => StrongProtection.
func TestDeterministicScoring(t *testing.T) {
	s := NewScorer([]string{knownRouter}, nil)
	tx := &domain.PendingTransaction{
		Hash:       "0x1",
		To:         knownRouter,
		Value:      etherAmount(150),
		GasPrice:   gweiAmount(60),
		ObservedAt: time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC),
	}

	a := s.Score(tx, nil, nil, false)
	if a.Score != 90 {
		t.Fatalf("score = %d, want 90", a.Score)
	}
	if a.Action != domain.ActionStrongProtection {
		t.Errorf("action = %s, want strong", a.Action)
	}
	if a.Incomplete {
		t.Errorf("assessment should be complete")
	}
}

func TestFactorBoundaries(t *testing.T) {
	s := NewScorer(nil, nil)
	cases := []struct {
		name  string
		value *big.Int
		gas   *big.Int
		want  int
	}{
		{"exactly 1 ether is not >1", etherAmount(1), gweiAmount(1), 0},
		{"just above 1 ether", new(big.Int).Add(etherAmount(1), big.NewInt(1)), gweiAmount(1), 10},
		{"11 ether", etherAmount(11), gweiAmount(1), 25},
		{"101 ether", etherAmount(101), gweiAmount(1), 40},
		{"21 gwei", big.NewInt(0), gweiAmount(21), 10},
		{"31 gwei", big.NewInt(0), gweiAmount(31), 20},
		{"51 gwei", big.NewInt(0), gweiAmount(51), 30},
		{"exactly 50 gwei is not >50", big.NewInt(0), gweiAmount(50), 20},
		{"nil values", nil, nil, 0},
	}
	for _, tc := range cases {
		tx := &domain.PendingTransaction{Hash: "0x1", Value: tc.value, GasPrice: tc.gas}
		if got := s.Score(tx, nil, nil, false).Score; got != tc.want {
			t.Errorf("%s: score = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestTemporalFactor(t *testing.T) {
	s := NewScorer(nil, []HourWindow{{Start: 13, End: 17}})
	tx := &domain.PendingTransaction{
		Hash:       "0x1",
		Value:      big.NewInt(0),
		GasPrice:   big.NewInt(0),
		ObservedAt: time.Date(2026, 1, 1, 14, 30, 0, 0, time.UTC),
	}
	if got := s.Score(tx, nil, nil, false).Score; got != 10 {
		t.Errorf("in-window score = %d, want 10", got)
	}

	tx.ObservedAt = time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)
	if got := s.Score(tx, nil, nil, false).Score; got != 0 {
		t.Errorf("out-of-window score = %d, want 0", got)
	}
}

func TestRecommendMapping(t *testing.T) {
	high := []domain.ThreatFinding{{Kind: domain.ThreatSandwich, Severity: domain.SeverityHigh}}
	low := []domain.ThreatFinding{{Kind: domain.ThreatBackRun, Severity: domain.SeverityLow}}

	cases := []struct {
		score    int
		findings []domain.ThreatFinding
		want     domain.Action
	}{
		{0, nil, domain.ActionProceed},
		{40, nil, domain.ActionProceed},
		{41, nil, domain.ActionBasicProtection},
		{70, nil, domain.ActionBasicProtection},
		{71, nil, domain.ActionStrongProtection},
		{100, nil, domain.ActionStrongProtection},
		{0, low, domain.ActionBasicProtection},
		{0, high, domain.ActionStrongProtection},
	}
	for _, tc := range cases {
		action, strategies := Recommend(tc.score, tc.findings)
		if action != tc.want {
			t.Errorf("score %d findings %d: action = %s, want %s", tc.score, len(tc.findings), action, tc.want)
		}
		if action == domain.ActionProceed && len(strategies) != 0 {
			t.Errorf("proceed must carry no strategies")
		}
		if action == domain.ActionStrongProtection {
			if len(strategies) != 2 || strategies[0] != domain.StrategyCommitReveal {
				t.Errorf("strong protection strategies = %v", strategies)
			}
		}
	}
}

func TestIncompleteNeverProceeds(t *testing.T) {
	s := NewScorer(nil, nil)
	tx := &domain.PendingTransaction{Hash: "0x1", Value: big.NewInt(0), GasPrice: big.NewInt(0)}

	a := s.Score(tx, nil, []string{"sandwich"}, false)
	if !a.Incomplete {
		t.Fatalf("skipped detector should mark assessment incomplete")
	}
	if a.Action == domain.ActionProceed {
		t.Errorf("incomplete assessment must not recommend proceed")
	}

	a = s.Score(tx, nil, nil, true)
	if !a.Incomplete || a.Action == domain.ActionProceed {
		t.Errorf("degraded assessment must not recommend proceed")
	}
}

func TestParamsHashDistinguishesReobservation(t *testing.T) {
	tx := &domain.PendingTransaction{Hash: "0x1", Value: big.NewInt(5), GasPrice: big.NewInt(7), Input: []byte{1, 2}}
	h1 := ParamsHash(tx)

	bumped := *tx
	bumped.GasPrice = big.NewInt(8)
	if ParamsHash(&bumped) == h1 {
		t.Errorf("gas price change must change the params hash")
	}

	same := *tx
	if ParamsHash(&same) != h1 {
		t.Errorf("identical parameters must hash identically")
	}
}
