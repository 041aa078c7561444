package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
)

const (
	assessmentTTL = 5 * time.Minute
	feedStream    = "threat_feed"
	feedMaxLen    = 10000
)

// Client wraps Redis for the assessment cache and the threat feed stream.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client and verifies connectivity.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func assessmentKey(txHash, paramsHash string) string {
	return fmt.Sprintf("assessment:%s:%s", txHash, paramsHash)
}

// GetAssessment returns the cached assessment for (txHash, paramsHash),
// nil when absent or expired.
func (c *Client) GetAssessment(ctx context.Context, txHash, paramsHash string) (*domain.RiskAssessment, error) {
	val, err := c.rdb.Get(ctx, assessmentKey(txHash, paramsHash)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	var a domain.RiskAssessment
	if err := json.Unmarshal([]byte(val), &a); err != nil {
		return nil, fmt.Errorf("decode cached assessment: %w", err)
	}
	return &a, nil
}

// SetAssessment caches an assessment under its (tx hash, params hash) key.
func (c *Client) SetAssessment(ctx context.Context, a *domain.RiskAssessment) error {
	buf, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}
	key := assessmentKey(a.TxHash, a.ParamsHash)
	if err := c.rdb.Set(ctx, key, buf, assessmentTTL).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// PublishFinding appends a finding to the capped threat feed stream so
// external consumers (bots, dashboards) can subscribe with XREAD.
func (c *Client) PublishFinding(ctx context.Context, f *domain.ThreatFinding) error {
	values := map[string]interface{}{
		"id":         f.ID,
		"kind":       string(f.Kind),
		"severity":   string(f.Severity),
		"confidence": f.Confidence,
		"subject":    f.SubjectTxHash,
		"detected":   f.DetectedAt.UTC().Format(time.RFC3339Nano),
	}
	if f.EstimatedLoss != nil {
		values["estimated_loss"] = f.EstimatedLoss.String()
	}
	if len(f.RelatedTxes) > 0 {
		related, err := json.Marshal(f.RelatedTxes)
		if err != nil {
			return fmt.Errorf("encode related txes: %w", err)
		}
		values["related"] = string(related)
	}

	err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: feedStream,
		MaxLen: feedMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd failed: %w", err)
	}
	return nil
}
