package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/protect"
)

// Analyzer assesses a single transaction on demand.
type Analyzer interface {
	Analyze(ctx context.Context, tx *domain.PendingTransaction) (*domain.RiskAssessment, error)
}

// Protector is the commit-reveal surface the API exposes.
type Protector interface {
	Commit(ctx context.Context, hash, owner string, deadline time.Time) (*domain.ProtectedSwapCommitment, error)
	RevealAndExecute(ctx context.Context, hash string, params *domain.SwapParams) (*domain.ProtectedSwapCommitment, error)
	Cancel(ctx context.Context, hash, owner string) error
	Get(ctx context.Context, hash string) (*domain.ProtectedSwapCommitment, error)
}

// FindingSource serves recorded threat findings.
type FindingSource interface {
	RecentFindings(ctx context.Context, limit int) ([]*domain.ThreatFinding, error)
	FindingsFor(ctx context.Context, txHash string) ([]*domain.ThreatFinding, error)
}

// HealthFunc reports collaborator health; an error marks the service
// degraded.
type HealthFunc func(ctx context.Context) error

// Server provides the HTTP API.
type Server struct {
	analyzer Analyzer
	prot     Protector
	findings FindingSource
	health   HealthFunc
	log      *slog.Logger
	server   *http.Server
}

// NewServer creates the API server on port.
func NewServer(
	port int,
	analyzer Analyzer,
	prot Protector,
	findings FindingSource,
	health HealthFunc,
	log *slog.Logger,
) *Server {
	mux := http.NewServeMux()
	s := &Server{
		analyzer: analyzer,
		prot:     prot,
		findings: findings,
		health:   health,
		log:      log.With("component", "api"),
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("POST /v1/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /v1/commit", s.handleCommit)
	mux.HandleFunc("POST /v1/reveal", s.handleReveal)
	mux.HandleFunc("POST /v1/cancel", s.handleCancel)
	mux.HandleFunc("GET /v1/commitments/{hash}", s.handleGetCommitment)
	mux.HandleFunc("GET /v1/findings", s.handleRecentFindings)
	mux.HandleFunc("GET /v1/findings/{hash}", s.handleFindingsFor)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

type analyzeRequest struct {
	Hash     string `json:"hash"`
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value"`
	GasPrice string `json:"gas_price"`
	GasLimit uint64 `json:"gas_limit"`
	Input    string `json:"input"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Hash == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "hash is required")
		return
	}

	tx := &domain.PendingTransaction{
		Hash:       strings.ToLower(req.Hash),
		From:       strings.ToLower(req.From),
		To:         strings.ToLower(req.To),
		Value:      decString(req.Value),
		GasPrice:   decString(req.GasPrice),
		GasLimit:   req.GasLimit,
		Input:      hexBytes(req.Input),
		Pending:    true,
		Index:      -1,
		ObservedAt: time.Now().UTC(),
	}

	assessment, err := s.analyzer.Analyze(r.Context(), tx)
	if err != nil {
		s.log.Error("analyze failed", "tx", tx.Hash, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

type commitRequest struct {
	Hash     string    `json:"hash"`
	Owner    string    `json:"owner"`
	Deadline time.Time `json:"deadline"`
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Hash == "" || req.Owner == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "hash and owner are required")
		return
	}

	c, err := s.prot.Commit(r.Context(), req.Hash, req.Owner, req.Deadline)
	if err != nil {
		s.writeProtocolError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type swapParamsDTO struct {
	Sender       string `json:"sender"`
	TokenIn      string `json:"token_in"`
	TokenOut     string `json:"token_out"`
	AmountIn     string `json:"amount_in"`
	MinAmountOut string `json:"min_amount_out"`
	Deadline     int64  `json:"deadline"`
	Nonce        uint64 `json:"nonce"`
}

func (p *swapParamsDTO) toDomain() *domain.SwapParams {
	return &domain.SwapParams{
		Sender:       p.Sender,
		TokenIn:      p.TokenIn,
		TokenOut:     p.TokenOut,
		AmountIn:     decString(p.AmountIn),
		MinAmountOut: decString(p.MinAmountOut),
		Deadline:     p.Deadline,
		Nonce:        p.Nonce,
	}
}

type revealRequest struct {
	Hash   string        `json:"hash"`
	Params swapParamsDTO `json:"params"`
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req revealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Hash == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "hash is required")
		return
	}

	c, err := s.prot.RevealAndExecute(r.Context(), req.Hash, req.Params.toDomain())
	if err != nil {
		s.writeProtocolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type cancelRequest struct {
	Hash  string `json:"hash"`
	Owner string `json:"owner"`
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	if err := s.prot.Cancel(r.Context(), req.Hash, req.Owner); err != nil {
		s.writeProtocolError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleGetCommitment(w http.ResponseWriter, r *http.Request) {
	c, err := s.prot.Get(r.Context(), r.PathValue("hash"))
	if err != nil {
		s.log.Error("get commitment failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "lookup failed")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "not_found", "no such commitment")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRecentFindings(w http.ResponseWriter, r *http.Request) {
	findings, err := s.findings.RecentFindings(r.Context(), 100)
	if err != nil {
		s.log.Error("list findings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, findings)
}

func (s *Server) handleFindingsFor(w http.ResponseWriter, r *http.Request) {
	findings, err := s.findings.FindingsFor(r.Context(), r.PathValue("hash"))
	if err != nil {
		s.log.Error("list findings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "listing failed")
		return
	}
	writeJSON(w, http.StatusOK, findings)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// writeProtocolError maps commit-reveal sentinel errors onto structured
// HTTP responses so clients can branch on the kind.
func (s *Server) writeProtocolError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, protect.ErrDuplicateCommitment):
		writeError(w, http.StatusConflict, "duplicate_commitment", err.Error())
	case errors.Is(err, protect.ErrInvalidCommitment):
		writeError(w, http.StatusBadRequest, "invalid_commitment", err.Error())
	case errors.Is(err, protect.ErrTooEarly):
		writeError(w, http.StatusConflict, "too_early", err.Error())
	case errors.Is(err, protect.ErrAlreadyExecuted):
		writeError(w, http.StatusConflict, "already_executed", err.Error())
	case errors.Is(err, protect.ErrDeadlineExpired):
		writeError(w, http.StatusGone, "deadline_expired", err.Error())
	case errors.Is(err, protect.ErrAbortedMEVDetected):
		writeError(w, http.StatusConflict, "aborted_mev_detected", err.Error())
	default:
		s.log.Error("protocol operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "operation failed")
	}
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, kind, message string) {
	writeJSON(w, code, errorResponse{Kind: kind, Message: message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// decString parses a decimal amount, treating empty or malformed input as
// zero so analyze stays total over client payloads.
func decString(s string) *big.Int {
	n := new(big.Int)
	if s == "" {
		return n
	}
	if _, ok := n.SetString(s, 10); !ok {
		return new(big.Int)
	}
	return n
}

func hexBytes(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
