// Package risk aggregates detector findings and transaction attributes into
// a bounded composite score and a protection recommendation. Scoring is
// deterministic and total: every input maps to exactly one recommendation.
package risk

import (
	"encoding/hex"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

const maxScore = 100

var (
	ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	gwei  = big.NewInt(1_000_000_000)
)

// HourWindow is a [Start,End) UTC hour range of elevated mempool activity.
type HourWindow struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

func (h HourWindow) contains(t time.Time) bool {
	hour := t.UTC().Hour()
	if h.Start <= h.End {
		return hour >= h.Start && hour < h.End
	}
	// Wraps midnight.
	return hour >= h.Start || hour < h.End
}

// Scorer computes risk assessments.
type Scorer struct {
	routers      map[string]struct{}
	highActivity []HourWindow
}

func NewScorer(routers []string, highActivity []HourWindow) *Scorer {
	set := make(map[string]struct{}, len(routers))
	for _, r := range routers {
		set[strings.ToLower(r)] = struct{}{}
	}
	return &Scorer{routers: set, highActivity: highActivity}
}

// Score builds the assessment for one transaction. skipped names detectors
// that were skipped this cycle; degraded marks collaborator unavailability.
// Either condition floors the recommendation at BasicProtection.
func (s *Scorer) Score(tx *domain.PendingTransaction, findings []domain.ThreatFinding, skipped []string, degraded bool) *domain.RiskAssessment {
	score := s.valueFactor(tx.Value) +
		s.gasFactor(tx.GasPrice) +
		s.targetFactor(tx.To) +
		s.temporalFactor(tx.ObservedAt)
	if score > maxScore {
		score = maxScore
	}

	incomplete := degraded || len(skipped) > 0
	action, strategies := Recommend(score, findings)
	if incomplete && action == domain.ActionProceed {
		// Fail safe: never recommend proceeding on partial information.
		action = domain.ActionBasicProtection
		strategies = []domain.Strategy{domain.StrategyTimeDelay, domain.StrategyPrivateSubmission}
	}

	return &domain.RiskAssessment{
		ID:          uuid.New().String(),
		TxHash:      tx.Hash,
		ParamsHash:  ParamsHash(tx),
		Score:       score,
		Findings:    findings,
		Action:      action,
		Strategies:  strategies,
		Incomplete:  incomplete,
		Skipped:     skipped,
		EvaluatedAt: time.Now().UTC(),
	}
}

func (s *Scorer) valueFactor(value *big.Int) int {
	if value == nil {
		return 0
	}
	switch {
	case value.Cmp(new(big.Int).Mul(big.NewInt(100), ether)) > 0:
		return 40
	case value.Cmp(new(big.Int).Mul(big.NewInt(10), ether)) > 0:
		return 25
	case value.Cmp(ether) > 0:
		return 10
	default:
		return 0
	}
}

func (s *Scorer) gasFactor(gasPrice *big.Int) int {
	if gasPrice == nil {
		return 0
	}
	switch {
	case gasPrice.Cmp(new(big.Int).Mul(big.NewInt(50), gwei)) > 0:
		return 30
	case gasPrice.Cmp(new(big.Int).Mul(big.NewInt(30), gwei)) > 0:
		return 20
	case gasPrice.Cmp(new(big.Int).Mul(big.NewInt(20), gwei)) > 0:
		return 10
	default:
		return 0
	}
}

func (s *Scorer) targetFactor(to string) int {
	if _, ok := s.routers[strings.ToLower(to)]; ok {
		return 20
	}
	return 0
}

func (s *Scorer) temporalFactor(observed time.Time) int {
	for _, w := range s.highActivity {
		if w.contains(observed) {
			return 10
		}
	}
	return 0
}

// ParamsHash fingerprints the parameters of an observed transaction so a
// re-observation with different value, gas price or call data produces a
// distinct assessment key.
func ParamsHash(tx *domain.PendingTransaction) string {
	h := sha3.NewLegacyKeccak256()
	if tx.Value != nil {
		h.Write(tx.Value.Bytes())
	}
	h.Write([]byte{0})
	if tx.GasPrice != nil {
		h.Write(tx.GasPrice.Bytes())
	}
	h.Write([]byte{0})
	h.Write(tx.Input)
	var out [32]byte
	h.Sum(out[:0])
	return "0x" + hex.EncodeToString(out[:])
}
