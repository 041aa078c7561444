package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// FindingRepo implements storage.FindingRepository using PostgreSQL.
type FindingRepo struct {
	db *DB
}

// NewFindingRepo creates a new PostgreSQL finding repository.
func NewFindingRepo(db *DB) *FindingRepo {
	return &FindingRepo{db: db}
}

type findingRow struct {
	ID            string         `db:"id"`
	Kind          string         `db:"kind"`
	Severity      string         `db:"severity"`
	Confidence    float64        `db:"confidence"`
	EstimatedLoss sql.NullString `db:"estimated_loss"`
	SubjectTxHash string         `db:"subject_tx_hash"`
	RelatedTxes   []byte         `db:"related_txes"`
	DetectedAt    time.Time      `db:"detected_at"`
}

// Append inserts a finding. Findings are immutable; duplicates by ID are
// ignored so replayed analysis cycles stay idempotent.
func (r *FindingRepo) Append(ctx context.Context, f *domain.ThreatFinding) error {
	related, err := json.Marshal(f.RelatedTxes)
	if err != nil {
		return fmt.Errorf("encode related txes: %w", err)
	}
	var loss sql.NullString
	if f.EstimatedLoss != nil {
		loss = sql.NullString{String: f.EstimatedLoss.String(), Valid: true}
	}

	query := `
		INSERT INTO threat_findings (id, kind, severity, confidence, estimated_loss, subject_tx_hash, related_txes, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		f.ID,
		string(f.Kind),
		string(f.Severity),
		f.Confidence,
		loss,
		f.SubjectTxHash,
		related,
		f.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append finding: %w", err)
	}
	return nil
}

// ListBySubject returns every finding naming txHash as subject.
func (r *FindingRepo) ListBySubject(ctx context.Context, txHash string) ([]*domain.ThreatFinding, error) {
	query := `
		SELECT id, kind, severity, confidence, estimated_loss, subject_tx_hash, related_txes, detected_at
		FROM threat_findings
		WHERE subject_tx_hash = $1
		ORDER BY detected_at
	`
	var rows []findingRow
	if err := r.db.SelectContext(ctx, &rows, query, txHash); err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	return rowsToFindings(rows)
}

// ListRecent returns the newest findings, most recent first.
func (r *FindingRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ThreatFinding, error) {
	query := `
		SELECT id, kind, severity, confidence, estimated_loss, subject_tx_hash, related_txes, detected_at
		FROM threat_findings
		ORDER BY detected_at DESC
		LIMIT $1
	`
	var rows []findingRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent findings: %w", err)
	}
	return rowsToFindings(rows)
}

func rowsToFindings(rows []findingRow) ([]*domain.ThreatFinding, error) {
	out := make([]*domain.ThreatFinding, 0, len(rows))
	for i := range rows {
		f, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (row *findingRow) toDomain() (*domain.ThreatFinding, error) {
	f := &domain.ThreatFinding{
		ID:            row.ID,
		Kind:          domain.ThreatKind(row.Kind),
		Severity:      domain.Severity(row.Severity),
		Confidence:    row.Confidence,
		SubjectTxHash: row.SubjectTxHash,
		DetectedAt:    row.DetectedAt,
	}
	if len(row.RelatedTxes) > 0 {
		if err := json.Unmarshal(row.RelatedTxes, &f.RelatedTxes); err != nil {
			return nil, fmt.Errorf("decode related txes: %w", err)
		}
	}
	if row.EstimatedLoss.Valid {
		loss, ok := new(big.Int).SetString(row.EstimatedLoss.String, 10)
		if !ok {
			return nil, fmt.Errorf("invalid estimated_loss: %q", row.EstimatedLoss.String)
		}
		f.EstimatedLoss = loss
	}
	return f, nil
}
