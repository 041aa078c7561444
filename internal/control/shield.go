package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/api"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/config"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/detect"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/chain/evm"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/price"
	redisclient "github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/redis"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/rpc"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/storage"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/storage/memory"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/storage/postgres"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/ledger"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/protect"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/risk"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/scan"
)

// Shield wires the scanner, the detection engine, the commit-reveal machine
// and the HTTP API together and manages their lifecycle.
type Shield struct {
	cfg     *config.AppConfig
	scanner *scan.Scanner
	machine *protect.Machine
	server  *api.Server
	db      *postgres.DB
	redis   *redisclient.Client
	log     *slog.Logger
}

// NewShield creates a Shield with all dependencies initialized. Without a
// database URL it falls back to in-memory storage; without a Redis URL the
// cache and threat feed are disabled.
func NewShield(cfg *config.AppConfig) (*Shield, error) {
	log := slog.Default()

	// 1. Storage
	var (
		commitmentRepo storage.CommitmentRepository
		findingRepo    storage.FindingRepository
		assessmentRepo storage.AssessmentRepository
		db             *postgres.DB
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		commitmentRepo = postgres.NewCommitmentRepo(db)
		findingRepo = postgres.NewFindingRepo(db)
		assessmentRepo = postgres.NewAssessmentRepo(db)
		log.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		commitmentRepo = memory.NewCommitmentRepo(store)
		findingRepo = memory.NewFindingRepo(store)
		assessmentRepo = memory.NewAssessmentRepo(store)
		log.Info("Using Memory storage")
	}

	// 2. Redis cache and threat feed (optional)
	var (
		redisClient *redisclient.Client
		cache       ledger.Cache
		feed        ledger.FeedPublisher
	)
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, cache and feed disabled", "error", err)
		} else {
			cache = redisClient
			feed = redisClient
		}
	}

	threatLedger := ledger.New(assessmentRepo, findingRepo, cache, feed, log)

	// 3. Chain feed
	rpcClient := rpc.NewClient(cfg.Chain.Name, cfg.Chain.RPCURL, cfg.Chain.RPCTimeout)
	adapter := evm.NewAdapter(rpcClient)

	// 4. Detection and scoring
	engine := detect.NewEngine(cfg.Detection.Priors, cfg.Detection.DetectorTimeout, log)
	scorer := risk.NewScorer(cfg.Risk.Routers, cfg.Risk.HighActivity)
	scanner := scan.NewScanner(cfg.Scan, adapter, engine, scorer, threatLedger, log)

	// 5. Protected execution
	priceClient := price.NewClient(cfg.Price)
	executor := protect.NewQuoteExecutor(priceClient, log)
	machine := protect.NewMachine(cfg.Protection, commitmentRepo, adapter, priceClient, executor, scanner, log)

	// 6. HTTP API
	var health api.HealthFunc
	if db != nil {
		health = db.Health
	}
	server := api.NewServer(cfg.Server.Port, scanner, machine, threatLedger, health, log)

	return &Shield{
		cfg:     cfg,
		scanner: scanner,
		machine: machine,
		server:  server,
		db:      db,
		redis:   redisClient,
		log:     log,
	}, nil
}

// Start launches the API server and the scan loop.
func (s *Shield) Start(ctx context.Context) error {
	go func() {
		s.log.Info("API server listening", "port", s.cfg.Server.Port)
		if err := s.server.Start(); err != nil {
			s.log.Error("API server failed", "error", err)
		}
	}()

	if s.db != nil {
		s.db.StartMetricsCollector(ctx)
	}

	go func() {
		if err := s.scanner.Start(ctx); err != nil {
			s.log.Error("Scanner failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts everything down.
func (s *Shield) Stop(ctx context.Context) error {
	s.log.Info("Stopping Shield...")

	if err := s.scanner.Stop(); err != nil {
		s.log.Warn("Failed to stop scanner", "error", err)
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("Failed to close database", "error", err)
		}
	}
	return s.server.Stop(ctx)
}
