package detect

import (
	"time"

	"github.com/google/uuid"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// JITDetector flags just-in-time liquidity insertion: the same sender adds
// liquidity on the subject's pair right before the subject swap and removes
// it right after, capturing the fee without bearing inventory risk.
type JITDetector struct {
	confidence float64
}

func NewJITDetector(confidence float64) *JITDetector {
	return &JITDetector{confidence: confidence}
}

func (d *JITDetector) Name() string { return "jit_liquidity" }

func (d *JITDetector) Detect(subject Entry, w *Window) []domain.ThreatFinding {
	intent := subject.Intent
	if intent == nil || intent.Kind != domain.OpSwap {
		return nil
	}

	var findings []domain.ThreatFinding
	for i := range w.Entries() {
		add := &w.Entries()[i]
		if add.Ordinal >= subject.Ordinal || add.Intent == nil || add.Intent.Kind != domain.OpAddLiquidity {
			continue
		}
		if add.Tx.From == subject.Tx.From || !onPair(add.Intent, intent) {
			continue
		}
		for j := range w.Entries() {
			rem := &w.Entries()[j]
			if rem.Ordinal <= subject.Ordinal || rem.Intent == nil || rem.Intent.Kind != domain.OpRemoveLiquidity {
				continue
			}
			if rem.Tx.From != add.Tx.From || !onPair(rem.Intent, intent) {
				continue
			}
			findings = append(findings, domain.ThreatFinding{
				ID:            uuid.New().String(),
				Kind:          domain.ThreatJITLiquidity,
				Severity:      domain.SeverityMedium,
				Confidence:    d.confidence,
				SubjectTxHash: subject.Tx.Hash,
				RelatedTxes:   []string{add.Tx.Hash, rem.Tx.Hash},
				DetectedAt:    time.Now().UTC(),
			})
			return findings
		}
	}
	return findings
}

// onPair reports whether a liquidity operation touches either token of the
// subject's pair.
func onPair(liq, swap *domain.SwapIntent) bool {
	return liq.TokenIn == swap.TokenIn || liq.TokenIn == swap.TokenOut ||
		liq.TokenOut == swap.TokenIn || liq.TokenOut == swap.TokenOut
}
