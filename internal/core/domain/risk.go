package domain

import "time"

// Action is the protection recommendation tier.
type Action string

const (
	ActionProceed          Action = "proceed"
	ActionBasicProtection  Action = "basic_protection"
	ActionStrongProtection Action = "strong_protection"
)

// Strategy names a concrete protection mechanism a client can apply.
type Strategy string

const (
	StrategyPrivateSubmission Strategy = "private_submission"
	StrategyCommitReveal      Strategy = "commit_reveal"
	StrategyTimeDelay         Strategy = "time_delay"
)

// RiskAssessment is the scored verdict for one observed transaction.
// Assessments are written once; a re-observation of the same hash with
// different parameters yields a new assessment under a new ParamsHash.
type RiskAssessment struct {
	ID         string          `json:"id"`
	TxHash     string          `json:"tx_hash"`
	ParamsHash string          `json:"params_hash"`
	Score      int             `json:"score"` // 0..100
	Findings   []ThreatFinding `json:"findings"`
	Action     Action          `json:"action"`
	Strategies []Strategy      `json:"strategies"`

	// Incomplete marks an assessment produced while one or more detectors
	// were skipped (timeout) or a collaborator was unreachable. Incomplete
	// assessments never recommend ActionProceed.
	Incomplete  bool      `json:"incomplete"`
	Skipped     []string  `json:"skipped,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}
