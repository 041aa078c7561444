package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// AssessmentRepo implements storage.AssessmentRepository using PostgreSQL.
type AssessmentRepo struct {
	db *DB
}

// NewAssessmentRepo creates a new PostgreSQL assessment repository.
func NewAssessmentRepo(db *DB) *AssessmentRepo {
	return &AssessmentRepo{db: db}
}

type assessmentRow struct {
	ID          string    `db:"id"`
	TxHash      string    `db:"tx_hash"`
	ParamsHash  string    `db:"params_hash"`
	Score       int       `db:"score"`
	Findings    []byte    `db:"findings"`
	Action      string    `db:"action"`
	Strategies  []byte    `db:"strategies"`
	Incomplete  bool      `db:"incomplete"`
	Skipped     []byte    `db:"skipped"`
	EvaluatedAt time.Time `db:"evaluated_at"`
}

// Append stores an assessment. Re-observing the same (tx_hash, params_hash)
// replaces the previous verdict.
func (r *AssessmentRepo) Append(ctx context.Context, a *domain.RiskAssessment) error {
	findings, err := json.Marshal(a.Findings)
	if err != nil {
		return fmt.Errorf("encode findings: %w", err)
	}
	strategies, err := json.Marshal(a.Strategies)
	if err != nil {
		return fmt.Errorf("encode strategies: %w", err)
	}
	skipped, err := json.Marshal(a.Skipped)
	if err != nil {
		return fmt.Errorf("encode skipped: %w", err)
	}

	query := `
		INSERT INTO risk_assessments (id, tx_hash, params_hash, score, findings, action, strategies, incomplete, skipped, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tx_hash, params_hash) DO UPDATE SET
			id = EXCLUDED.id,
			score = EXCLUDED.score,
			findings = EXCLUDED.findings,
			action = EXCLUDED.action,
			strategies = EXCLUDED.strategies,
			incomplete = EXCLUDED.incomplete,
			skipped = EXCLUDED.skipped,
			evaluated_at = EXCLUDED.evaluated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		a.TxHash,
		a.ParamsHash,
		a.Score,
		findings,
		string(a.Action),
		strategies,
		a.Incomplete,
		skipped,
		a.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append assessment: %w", err)
	}
	return nil
}

// Get returns the assessment for (txHash, paramsHash), nil when absent.
func (r *AssessmentRepo) Get(ctx context.Context, txHash, paramsHash string) (*domain.RiskAssessment, error) {
	query := `
		SELECT id, tx_hash, params_hash, score, findings, action, strategies, incomplete, skipped, evaluated_at
		FROM risk_assessments
		WHERE tx_hash = $1 AND params_hash = $2
	`
	var row assessmentRow
	if err := r.db.GetContext(ctx, &row, query, txHash, paramsHash); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	a := &domain.RiskAssessment{
		ID:          row.ID,
		TxHash:      row.TxHash,
		ParamsHash:  row.ParamsHash,
		Score:       row.Score,
		Action:      domain.Action(row.Action),
		Incomplete:  row.Incomplete,
		EvaluatedAt: row.EvaluatedAt,
	}
	if len(row.Findings) > 0 {
		if err := json.Unmarshal(row.Findings, &a.Findings); err != nil {
			return nil, fmt.Errorf("decode findings: %w", err)
		}
	}
	if len(row.Strategies) > 0 {
		if err := json.Unmarshal(row.Strategies, &a.Strategies); err != nil {
			return nil, fmt.Errorf("decode strategies: %w", err)
		}
	}
	if len(row.Skipped) > 0 {
		if err := json.Unmarshal(row.Skipped, &a.Skipped); err != nil {
			return nil, fmt.Errorf("decode skipped: %w", err)
		}
	}
	return a, nil
}
