package repair

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CostSummary reports the persisted snapshot next to a fresh recomputation
// from the lines. The snapshot is what was agreed and what the API serves;
// drift should always be zero and a nonzero value indicates corrupt data.
type CostSummary struct {
	OrderID    int64        `json:"order_id"`
	Snapshot   CostSnapshot `json:"snapshot"`
	Recomputed CostSnapshot `json:"recomputed"`
	Drift      float64      `json:"drift"`
	ComputedAt time.Time    `json:"computed_at"`
}

// Summarizer serves cost summaries with a Redis cache. Concurrent misses for
// the same order collapse into one recomputation via singleflight.
type Summarizer struct {
	logger *slog.Logger
	repo   Repository
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSummarizer constructs the summarizer. A nil client disables caching.
func NewSummarizer(logger *slog.Logger, repo Repository, client *redis.Client, ttl time.Duration) *Summarizer {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Summarizer{logger: logger, repo: repo, client: client, ttl: ttl}
}

func summaryKey(orderID int64) string {
	return "drydock:cost_summary:" + strconv.FormatInt(orderID, 10)
}

// Summary returns the cached summary or recomputes it from the lines.
func (s *Summarizer) Summary(ctx context.Context, orderID int64) (CostSummary, error) {
	key := summaryKey(orderID)
	if s.client != nil {
		raw, err := s.client.Get(ctx, key).Bytes()
		if err == nil {
			var cached CostSummary
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cost summary cache read", slog.Any("error", err))
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.compute(ctx, orderID)
	})
	if err != nil {
		return CostSummary{}, err
	}
	summary := v.(CostSummary)

	if s.client != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.logger.Warn("cost summary cache write", slog.Any("error", err))
			}
		}
	}
	return summary, nil
}

func (s *Summarizer) compute(ctx context.Context, orderID int64) (CostSummary, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return CostSummary{}, err
	}
	mats, labor, err := s.repo.Lines(ctx, orderID)
	if err != nil {
		return CostSummary{}, err
	}
	recomputed := ComputeCosts(mats, labor)

	var snapshot CostSnapshot
	if order.MaterialsCost != nil {
		snapshot.Materials = *order.MaterialsCost
	}
	if order.LaborCost != nil {
		snapshot.Labor = *order.LaborCost
	}
	if order.TotalCost != nil {
		snapshot.Total = *order.TotalCost
	} else {
		// Legacy rows without a snapshot fall back to the recomputation.
		snapshot = recomputed
	}

	return CostSummary{
		OrderID:    orderID,
		Snapshot:   snapshot,
		Recomputed: recomputed,
		Drift:      snapshot.Total - recomputed.Total,
		ComputedAt: time.Now(),
	}, nil
}

// Invalidate drops the cached summary after a mutation.
func (s *Summarizer) Invalidate(ctx context.Context, orderID int64) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, summaryKey(orderID)).Err(); err != nil {
		s.logger.Warn("cost summary cache invalidate", slog.Any("error", err))
	}
}
