package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

// MemoryStorage backs all repositories for DB-less runs and tests.
type MemoryStorage struct {
	commitments map[string]*domain.ProtectedSwapCommitment
	findings    []*domain.ThreatFinding
	assessments map[string]*domain.RiskAssessment
	mu          sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		commitments: make(map[string]*domain.ProtectedSwapCommitment),
		assessments: make(map[string]*domain.RiskAssessment),
	}
}

// -----------------------------------------------------------------------------
// Commitment Repository
// -----------------------------------------------------------------------------

type CommitmentRepo struct {
	store *MemoryStorage
}

func NewCommitmentRepo(store *MemoryStorage) *CommitmentRepo {
	return &CommitmentRepo{store: store}
}

func (r *CommitmentRepo) Create(ctx context.Context, c *domain.ProtectedSwapCommitment) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, exists := r.store.commitments[c.Hash]; exists {
		return false, nil
	}
	cp := *c
	r.store.commitments[c.Hash] = &cp
	return true, nil
}

func (r *CommitmentRepo) Get(ctx context.Context, hash string) (*domain.ProtectedSwapCommitment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	c, ok := r.store.commitments[hash]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CommitmentRepo) Update(ctx context.Context, c *domain.ProtectedSwapCommitment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *c
	r.store.commitments[c.Hash] = &cp
	return nil
}

func (r *CommitmentRepo) Delete(ctx context.Context, hash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.commitments, hash)
	return nil
}

// -----------------------------------------------------------------------------
// Finding Repository
// -----------------------------------------------------------------------------

type FindingRepo struct {
	store *MemoryStorage
}

func NewFindingRepo(store *MemoryStorage) *FindingRepo {
	return &FindingRepo{store: store}
}

func (r *FindingRepo) Append(ctx context.Context, f *domain.ThreatFinding) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *f
	r.store.findings = append(r.store.findings, &cp)
	return nil
}

func (r *FindingRepo) ListBySubject(ctx context.Context, txHash string) ([]*domain.ThreatFinding, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.ThreatFinding
	for _, f := range r.store.findings {
		if f.SubjectTxHash == txHash {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *FindingRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ThreatFinding, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*domain.ThreatFinding, 0, limit)
	for _, f := range r.store.findings {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Assessment Repository
// -----------------------------------------------------------------------------

type AssessmentRepo struct {
	store *MemoryStorage
}

func NewAssessmentRepo(store *MemoryStorage) *AssessmentRepo {
	return &AssessmentRepo{store: store}
}

func assessmentKey(txHash, paramsHash string) string {
	return txHash + ":" + paramsHash
}

func (r *AssessmentRepo) Append(ctx context.Context, a *domain.RiskAssessment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *a
	r.store.assessments[assessmentKey(a.TxHash, a.ParamsHash)] = &cp
	return nil
}

func (r *AssessmentRepo) Get(ctx context.Context, txHash, paramsHash string) (*domain.RiskAssessment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a, ok := r.store.assessments[assessmentKey(txHash, paramsHash)]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}
