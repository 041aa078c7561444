package config

import (
	"time"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/detect"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/price"
	redisclient "github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/redis"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/storage/postgres"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/protect"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/risk"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/scan"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	Chain      ChainConfig        `yaml:"chain"`
	Scan       scan.Config        `yaml:"scan"`
	Detection  DetectionConfig    `yaml:"detection"`
	Risk       RiskConfig         `yaml:"risk"`
	Protection protect.Config     `yaml:"protection"`
	Price      price.Config       `yaml:"price"`
	Redis      redisclient.Config `yaml:"redis"`
	Database   postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ChainConfig holds settings for the observed chain.
type ChainConfig struct {
	Name       string        `yaml:"name"`
	RPCURL     string        `yaml:"rpc_url"`
	RPCTimeout time.Duration `yaml:"rpc_timeout"`
}

// DetectionConfig holds detection engine settings.
type DetectionConfig struct {
	DetectorTimeout time.Duration `yaml:"detector_timeout"`
	Priors          detect.Priors `yaml:"priors"`
}

// RiskConfig holds scoring inputs.
type RiskConfig struct {
	Routers      []string          `yaml:"routers"`
	HighActivity []risk.HourWindow `yaml:"high_activity"`
}
