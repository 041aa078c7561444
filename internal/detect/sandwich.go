package detect

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// SandwichDetector looks for a (front, subject, back) triple where front and
// back share a sender, bracket the subject in execution order, and trade the
// subject's pair in opposite directions.
type SandwichDetector struct {
	confidence float64
}

func NewSandwichDetector(confidence float64) *SandwichDetector {
	return &SandwichDetector{confidence: confidence}
}

func (d *SandwichDetector) Name() string { return "sandwich" }

func (d *SandwichDetector) Detect(subject Entry, w *Window) []domain.ThreatFinding {
	intent := subject.Intent
	if intent == nil || intent.Kind != domain.OpSwap {
		return nil
	}

	pos := subject.Ordinal
	entries := w.Entries()

	// Pick the tightest bracket: the smallest index span is the
	// economically tightest and most likely real attack.
	var front, back *Entry
	bestSpan := -1

	for i := range entries {
		a := &entries[i]
		if a.Ordinal >= pos || a.Intent == nil || a.Intent.Kind != domain.OpSwap {
			continue
		}
		if a.Tx.From == subject.Tx.From || !a.Intent.SamePair(intent) {
			continue
		}
		for j := range entries {
			b := &entries[j]
			if b.Ordinal <= pos || b.Intent == nil || b.Intent.Kind != domain.OpSwap {
				continue
			}
			if b.Tx.From != a.Tx.From || !b.Intent.InversePair(intent) {
				continue
			}
			span := b.Ordinal - a.Ordinal
			if bestSpan == -1 || span < bestSpan {
				bestSpan = span
				front, back = a, b
			}
		}
	}

	if front == nil || back == nil {
		return nil
	}

	return []domain.ThreatFinding{{
		ID:            uuid.New().String(),
		Kind:          domain.ThreatSandwich,
		Severity:      domain.SeverityHigh,
		Confidence:    d.confidence,
		EstimatedLoss: estimateSandwichLoss(intent.AmountIn, front.Intent.AmountIn),
		SubjectTxHash: subject.Tx.Hash,
		RelatedTxes:   []string{front.Tx.Hash, back.Tx.Hash},
		DetectedAt:    time.Now().UTC(),
	}}
}

// estimateSandwichLoss approximates the victim's loss as the share of price
// impact the attacker's front-run adds on top of the victim's own trade:
// loss ≈ amountIn * front / (front + amountIn). Deterministic; returns nil
// when either side is unknown.
func estimateSandwichLoss(victimIn, attackerIn *big.Int) *big.Int {
	if victimIn == nil || attackerIn == nil || victimIn.Sign() <= 0 || attackerIn.Sign() <= 0 {
		return nil
	}
	num := new(big.Int).Mul(victimIn, attackerIn)
	den := new(big.Int).Add(victimIn, attackerIn)
	return num.Quo(num, den)
}
