package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/detect"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/protect"
)

// knownRouters are the V2-style routers scored as high-risk targets when
// the config names none.
var knownRouters = []string{
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d", // Uniswap V2
	"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f", // SushiSwap
	"0x10ed43c718714eb63d5aa57b78b54704e256024e", // PancakeSwap V2
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Chain.RPCTimeout == 0 {
		cfg.Chain.RPCTimeout = 10 * time.Second
	}
	if cfg.Detection.DetectorTimeout == 0 {
		cfg.Detection.DetectorTimeout = 500 * time.Millisecond
	}
	defaults := detect.DefaultPriors()
	if cfg.Detection.Priors.Sandwich == 0 {
		cfg.Detection.Priors.Sandwich = defaults.Sandwich
	}
	if cfg.Detection.Priors.FrontRun == 0 {
		cfg.Detection.Priors.FrontRun = defaults.FrontRun
	}
	if cfg.Detection.Priors.BackRun == 0 {
		cfg.Detection.Priors.BackRun = defaults.BackRun
	}
	if cfg.Detection.Priors.JIT == 0 {
		cfg.Detection.Priors.JIT = defaults.JIT
	}
	if len(cfg.Risk.Routers) == 0 {
		cfg.Risk.Routers = knownRouters
	}
	protocol := protect.DefaultConfig()
	if cfg.Protection.CommitDelayBlocks == 0 {
		cfg.Protection.CommitDelayBlocks = protocol.CommitDelayBlocks
	}
	if cfg.Protection.SlippageCeilingBps == 0 {
		cfg.Protection.SlippageCeilingBps = protocol.SlippageCeilingBps
	}
	if cfg.Protection.MaxDeadline == 0 {
		cfg.Protection.MaxDeadline = protocol.MaxDeadline
	}
}
