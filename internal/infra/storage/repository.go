package storage

import (
	"context"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// CommitmentRepository handles the commit-reveal table. Implementations
// must make Create fail (created=false) on an existing hash rather than
// overwrite, and must never resurrect a deleted entry.
type CommitmentRepository interface {
	// Create stores a new commitment. Returns created=false when the hash
	// already exists; the stored entry is left untouched in that case.
	Create(ctx context.Context, c *domain.ProtectedSwapCommitment) (created bool, err error)

	// Get retrieves a commitment by hash, nil when absent.
	Get(ctx context.Context, hash string) (*domain.ProtectedSwapCommitment, error)

	// Update replaces the stored entry for c.Hash.
	Update(ctx context.Context, c *domain.ProtectedSwapCommitment) error

	// Delete removes the entry. Deleting an absent hash is not an error.
	Delete(ctx context.Context, hash string) error
}

// FindingRepository is the append-only store behind the threat ledger.
type FindingRepository interface {
	// Append stores a finding. Findings are never updated or deleted here.
	Append(ctx context.Context, f *domain.ThreatFinding) error

	// ListBySubject retrieves all findings for a subject transaction.
	ListBySubject(ctx context.Context, txHash string) ([]*domain.ThreatFinding, error)

	// ListRecent retrieves the most recent findings, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.ThreatFinding, error)
}

// AssessmentRepository stores risk assessments keyed by (tx hash, params hash).
type AssessmentRepository interface {
	// Append stores an assessment. A re-observation with different
	// parameters is a new row, never an update.
	Append(ctx context.Context, a *domain.RiskAssessment) error

	// Get retrieves an assessment by its composite key, nil when absent.
	Get(ctx context.Context, txHash, paramsHash string) (*domain.RiskAssessment, error)
}
