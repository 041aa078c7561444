package detect

import (
	"bytes"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// gasPremiumNum/Den encode the 1.5x gas-price threshold without floats.
const (
	gasPremiumNum = 3
	gasPremiumDen = 2
)

// FrontRunDetector flags transactions from a different sender targeting the
// same contract with a significant gas premium and similar call data (same
// selector, overlapping token pair).
type FrontRunDetector struct {
	confidence float64
}

func NewFrontRunDetector(confidence float64) *FrontRunDetector {
	return &FrontRunDetector{confidence: confidence}
}

func (d *FrontRunDetector) Name() string { return "front_run" }

func (d *FrontRunDetector) Detect(subject Entry, w *Window) []domain.ThreatFinding {
	if subject.Tx.GasPrice == nil {
		return nil
	}
	sel := subject.Tx.Selector()

	var findings []domain.ThreatFinding
	for i := range w.Entries() {
		e := &w.Entries()[i]
		if e.Tx.Hash == subject.Tx.Hash || e.Tx.From == subject.Tx.From {
			continue
		}
		if e.Tx.To != subject.Tx.To || e.Tx.GasPrice == nil {
			continue
		}
		if !exceedsPremium(e.Tx.GasPrice, subject.Tx.GasPrice) {
			continue
		}
		if !similarCallData(sel, subject.Intent, e) {
			continue
		}

		findings = append(findings, domain.ThreatFinding{
			ID:            uuid.New().String(),
			Kind:          domain.ThreatFrontRun,
			Severity:      domain.SeverityMedium,
			Confidence:    d.confidence,
			SubjectTxHash: subject.Tx.Hash,
			RelatedTxes:   []string{e.Tx.Hash},
			DetectedAt:    time.Now().UTC(),
		})
	}
	return findings
}

// exceedsPremium reports candidate >= 1.5 * subject.
func exceedsPremium(candidate, subject *big.Int) bool {
	lhs := new(big.Int).Mul(candidate, big.NewInt(gasPremiumDen))
	rhs := new(big.Int).Mul(subject, big.NewInt(gasPremiumNum))
	return lhs.Cmp(rhs) >= 0
}

// similarCallData checks selector equality and, when both sides decoded,
// token-pair overlap.
func similarCallData(subjectSel []byte, subjectIntent *domain.SwapIntent, e *Entry) bool {
	otherSel := e.Tx.Selector()
	if subjectSel == nil || otherSel == nil || !bytes.Equal(subjectSel, otherSel) {
		return false
	}
	if subjectIntent == nil || subjectIntent.Kind == domain.OpUnknown ||
		e.Intent == nil || e.Intent.Kind == domain.OpUnknown {
		// Selector match alone is enough when intents are opaque.
		return true
	}
	return pairOverlap(subjectIntent, e.Intent)
}

func pairOverlap(a, b *domain.SwapIntent) bool {
	return a.TokenIn == b.TokenIn || a.TokenIn == b.TokenOut ||
		a.TokenOut == b.TokenIn || a.TokenOut == b.TokenOut
}
