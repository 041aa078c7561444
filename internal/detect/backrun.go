package detect

import (
	"time"

	"github.com/google/uuid"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// BackRunDetector flags trailing arbitrage extraction: a swap from another
// sender, placed immediately after the subject, trading the subject's pair
// in the opposite direction without a matching front leg (that case is the
// sandwich detector's).
type BackRunDetector struct {
	confidence float64
}

func NewBackRunDetector(confidence float64) *BackRunDetector {
	return &BackRunDetector{confidence: confidence}
}

func (d *BackRunDetector) Name() string { return "back_run" }

func (d *BackRunDetector) Detect(subject Entry, w *Window) []domain.ThreatFinding {
	intent := subject.Intent
	if intent == nil || intent.Kind != domain.OpSwap {
		return nil
	}

	var findings []domain.ThreatFinding
	for i := range w.Entries() {
		e := &w.Entries()[i]
		if e.Ordinal <= subject.Ordinal || e.Tx.From == subject.Tx.From {
			continue
		}
		if e.Intent == nil || e.Intent.Kind != domain.OpSwap || !e.Intent.InversePair(intent) {
			continue
		}
		if hasFrontLeg(subject, e, w) {
			continue
		}

		findings = append(findings, domain.ThreatFinding{
			ID:            uuid.New().String(),
			Kind:          domain.ThreatBackRun,
			Severity:      domain.SeverityLow,
			Confidence:    d.confidence,
			SubjectTxHash: subject.Tx.Hash,
			RelatedTxes:   []string{e.Tx.Hash},
			DetectedAt:    time.Now().UTC(),
		})
	}
	return findings
}

// hasFrontLeg reports whether the back-run candidate's sender also placed a
// same-direction swap before the subject, i.e. the pattern is really a
// sandwich.
func hasFrontLeg(subject Entry, back *Entry, w *Window) bool {
	for i := range w.Entries() {
		e := &w.Entries()[i]
		if e.Ordinal >= subject.Ordinal || e.Tx.From != back.Tx.From {
			continue
		}
		if e.Intent != nil && e.Intent.Kind == domain.OpSwap && e.Intent.SamePair(subject.Intent) {
			return true
		}
	}
	return false
}
