package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rada-network/launchpad/internal/engine"
	"github.com/rada-network/launchpad/internal/pool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const cacheTTL = 30 * time.Second

// PoolStats is the aggregate read surface of one pool's activity.
type PoolStats struct {
	PoolID           int64           `json:"pool_id"`
	TotalBid         int64           `json:"total_bid"`
	TotalBidQuantity int64           `json:"total_bid_quantity"`
	TotalBidAmount   decimal.Decimal `json:"total_bid_amount"`
	TotalSold        int64           `json:"total_sold"`
	TotalSoldAmount  decimal.Decimal `json:"total_sold_amount"`
	Remaining        int64           `json:"remaining"`
}

// Service assembles pool statistics with a short redis cache in front.
type Service interface {
	PoolStats(ctx context.Context, poolID int64) (*PoolStats, error)
	Invalidate(ctx context.Context, poolID int64)
}

type service struct {
	pools pool.Repository
	rdb   *redis.Client
}

// NewService creates the stats service. rdb may be nil; stats then read
// straight through.
func NewService(pools pool.Repository, rdb *redis.Client) Service {
	return &service{pools: pools, rdb: rdb}
}

func cacheKey(poolID int64) string {
	return fmt.Sprintf("launchpad:pool_stats:%d", poolID)
}

func (s *service) PoolStats(ctx context.Context, poolID int64) (*PoolStats, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey(poolID)).Result(); err == nil {
			var stats PoolStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	p, err := s.pools.GetByPoolID(poolID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, engine.ErrPoolNotFound
	}
	stats := &PoolStats{
		PoolID:           p.PoolID,
		TotalBid:         p.TotalBid,
		TotalBidQuantity: p.TotalBidQuantity,
		TotalBidAmount:   p.TotalBidAmount,
		TotalSold:        p.TotalSold,
		TotalSoldAmount:  p.TotalSoldAmount,
		Remaining:        p.Remaining(),
	}

	if s.rdb != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := s.rdb.Set(ctx, cacheKey(poolID), data, cacheTTL).Err(); err != nil {
				logrus.WithError(err).WithField("pool_id", poolID).Warn("Failed to cache pool stats")
			}
		}
	}
	return stats, nil
}

func (s *service) Invalidate(ctx context.Context, poolID int64) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cacheKey(poolID)).Err(); err != nil {
		logrus.WithError(err).WithField("pool_id", poolID).Warn("Failed to invalidate pool stats")
	}
}
