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

// CommitmentRepo implements storage.CommitmentRepository using PostgreSQL.
type CommitmentRepo struct {
	db *DB
}

// NewCommitmentRepo creates a new PostgreSQL commitment repository.
func NewCommitmentRepo(db *DB) *CommitmentRepo {
	return &CommitmentRepo{db: db}
}

type commitmentRow struct {
	Hash          string         `db:"hash"`
	Owner         string         `db:"owner"`
	CreatedBlock  int64          `db:"created_block"`
	EarliestBlock int64          `db:"earliest_block"`
	Deadline      time.Time      `db:"deadline"`
	Revealed      []byte         `db:"revealed"`
	Executed      bool           `db:"executed"`
	RealizedOut   sql.NullString `db:"realized_out"`
	CreatedAt     time.Time      `db:"created_at"`
}

// Create inserts a commitment. Returns false when the hash already exists;
// the existing row is never touched.
func (r *CommitmentRepo) Create(ctx context.Context, c *domain.ProtectedSwapCommitment) (bool, error) {
	query := `
		INSERT INTO commitments (hash, owner, created_block, earliest_block, deadline, executed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (hash) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		c.Hash,
		c.Owner,
		int64(c.CreatedBlock),
		int64(c.EarliestBlock),
		c.Deadline,
		c.Executed,
		c.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create commitment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Get returns the commitment for hash, nil when absent.
func (r *CommitmentRepo) Get(ctx context.Context, hash string) (*domain.ProtectedSwapCommitment, error) {
	query := `
		SELECT hash, owner, created_block, earliest_block, deadline, revealed, executed, realized_out, created_at
		FROM commitments
		WHERE hash = $1
	`
	var row commitmentRow
	if err := r.db.GetContext(ctx, &row, query, hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get commitment: %w", err)
	}
	return row.toDomain()
}

// Update overwrites the mutable fields of an existing commitment.
func (r *CommitmentRepo) Update(ctx context.Context, c *domain.ProtectedSwapCommitment) error {
	var revealed []byte
	if c.Revealed != nil {
		var err error
		revealed, err = json.Marshal(c.Revealed)
		if err != nil {
			return fmt.Errorf("encode revealed params: %w", err)
		}
	}
	var realizedOut sql.NullString
	if c.RealizedOut != nil {
		realizedOut = sql.NullString{String: c.RealizedOut.String(), Valid: true}
	}

	query := `
		UPDATE commitments
		SET revealed = $2, executed = $3, realized_out = $4
		WHERE hash = $1
	`
	if _, err := r.db.ExecContext(ctx, query, c.Hash, revealed, c.Executed, realizedOut); err != nil {
		return fmt.Errorf("failed to update commitment: %w", err)
	}
	return nil
}

// Delete removes a commitment.
func (r *CommitmentRepo) Delete(ctx context.Context, hash string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM commitments WHERE hash = $1`, hash); err != nil {
		return fmt.Errorf("failed to delete commitment: %w", err)
	}
	return nil
}

func (row *commitmentRow) toDomain() (*domain.ProtectedSwapCommitment, error) {
	c := &domain.ProtectedSwapCommitment{
		Hash:          row.Hash,
		Owner:         row.Owner,
		CreatedBlock:  uint64(row.CreatedBlock),
		EarliestBlock: uint64(row.EarliestBlock),
		Deadline:      row.Deadline,
		Executed:      row.Executed,
		CreatedAt:     row.CreatedAt,
	}
	if len(row.Revealed) > 0 {
		var params domain.SwapParams
		if err := json.Unmarshal(row.Revealed, &params); err != nil {
			return nil, fmt.Errorf("decode revealed params: %w", err)
		}
		c.Revealed = &params
	}
	if row.RealizedOut.Valid {
		out, ok := new(big.Int).SetString(row.RealizedOut.String, 10)
		if !ok {
			return nil, fmt.Errorf("invalid realized_out: %q", row.RealizedOut.String)
		}
		c.RealizedOut = out
	}
	return c, nil
}
