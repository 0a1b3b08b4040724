// Package screening flags suspicious ordering patterns before they reach a
// human. Verdicts are advisory: a flagged order is annotated and logged,
// never blocked, so the core placement invariants stay untouched.
package screening

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"property-brokerage-system/internal/config"
	"property-brokerage-system/internal/core/domain"
)

// CachingRuleEngine implements the OrderScreener port using Redis for the
// stateful frequency rule.
type CachingRuleEngine struct {
	rdb    *redis.Client
	cfg    config.ScreeningConfig
	logger *slog.Logger
}

func NewCachingRuleEngine(rdb *redis.Client, cfg config.ScreeningConfig, logger *slog.Logger) *CachingRuleEngine {
	return &CachingRuleEngine{rdb: rdb, cfg: cfg, logger: logger}
}

// ScreenOrder applies the rules in order of cost. Redis failures degrade to
// a clean verdict: screening must never take the order path down with it.
func (e *CachingRuleEngine) ScreenOrder(ctx context.Context, buyerID uuid.UUID, amount float64) domain.ScreeningResult {
	// Rule 1: order amount beyond the configured threshold.
	if e.cfg.AmountThreshold > 0 && amount > e.cfg.AmountThreshold {
		return domain.ScreeningResult{Flagged: true, Reason: "amount exceeds threshold"}
	}

	// Rule 2: too many orders from one buyer inside the window.
	key := fmt.Sprintf("buyer_order_count:%s", buyerID)
	count, err := e.rdb.Incr(ctx, key).Result()
	if err != nil {
		e.logger.Warn("screening: redis INCR failed", "error", err)
		return domain.ScreeningResult{}
	}
	if count == 1 {
		ttl := time.Duration(e.cfg.FrequencyWindowSeconds) * time.Second
		if err := e.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			e.logger.Warn("screening: redis EXPIRE failed", "error", err)
		}
	}
	if e.cfg.FrequencyThreshold > 0 && count > int64(e.cfg.FrequencyThreshold) {
		return domain.ScreeningResult{
			Flagged: true,
			Reason: fmt.Sprintf("high frequency: %d orders in %d seconds",
				count, e.cfg.FrequencyWindowSeconds),
		}
	}

	return domain.ScreeningResult{}
}

// NoopScreener satisfies the OrderScreener port where no Redis is wired,
// e.g. in tests.
type NoopScreener struct{}

func (NoopScreener) ScreenOrder(context.Context, uuid.UUID, float64) domain.ScreeningResult {
	return domain.ScreeningResult{}
}
