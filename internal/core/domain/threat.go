package domain

import (
	"math/big"
	"time"
)

// ThreatKind is the closed set of attack shapes the detection engine can
// report. Consumers switch exhaustively over it; adding a kind is a
// compile-visible change, not a new string key.
type ThreatKind string

const (
	ThreatSandwich     ThreatKind = "sandwich"
	ThreatFrontRun     ThreatKind = "front_run"
	ThreatBackRun      ThreatKind = "back_run"
	ThreatJITLiquidity ThreatKind = "jit_liquidity"
	ThreatLiquidation  ThreatKind = "liquidation"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ThreatFinding is a single detector verdict. Created by exactly one
// detector and never mutated afterwards. Confidence is the detector's fixed
// empirical prior, not a runtime-learned value.
type ThreatFinding struct {
	ID            string     `json:"id"`
	Kind          ThreatKind `json:"kind"`
	Severity      Severity   `json:"severity"`
	Confidence    float64    `json:"confidence"`
	EstimatedLoss *big.Int   `json:"estimated_loss"` // in the chain's native unit, nil when not computable
	SubjectTxHash string     `json:"subject_tx_hash"`
	RelatedTxes   []string   `json:"related_txes"`
	DetectedAt    time.Time  `json:"detected_at"`
}
