package risk

import "github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"

// Recommend maps a composite score and the finding set to a protection
// tier. Pure and order-independent: only score, the presence of findings,
// and the presence of a high-severity finding matter.
func Recommend(score int, findings []domain.ThreatFinding) (domain.Action, []domain.Strategy) {
	anyHigh := false
	for _, f := range findings {
		if f.Severity == domain.SeverityHigh {
			anyHigh = true
			break
		}
	}

	switch {
	case score > 70 || anyHigh:
		return domain.ActionStrongProtection, []domain.Strategy{
			domain.StrategyCommitReveal,
			domain.StrategyPrivateSubmission,
		}
	case score > 40 || len(findings) > 0:
		return domain.ActionBasicProtection, []domain.Strategy{
			domain.StrategyTimeDelay,
			domain.StrategyPrivateSubmission,
		}
	default:
		return domain.ActionProceed, nil
	}
}
