// Package dashboard aggregates cross-entity statistics.
package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/trackhub/trackhub/internal/activity"
)

const (
	cacheKey = "dashboard:stats"
	cacheTTL = 30 * time.Second
)

// Stats is the dashboard aggregate.
type Stats struct {
	Bugs     map[string]int64 `json:"bugs"`
	Tasks    map[string]int64 `json:"tasks"`
	Projects int64            `json:"projects"`
	Activity activity.Stats   `json:"activity"`
}

// BugCounter aggregates bug counts per status.
type BugCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// TaskCounter aggregates task counts per status.
type TaskCounter interface {
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// ProjectCounter counts projects.
type ProjectCounter interface {
	Count(ctx context.Context) (int64, error)
}

// ActivityStats aggregates audit entry counts.
type ActivityStats interface {
	Stats(ctx context.Context) (activity.Stats, error)
}

// Service computes dashboard stats with a short Redis cache. Concurrent cache
// misses collapse into one upstream computation via singleflight.
type Service struct {
	bugs     BugCounter
	tasks    TaskCounter
	projects ProjectCounter
	activity ActivityStats
	redis    *redis.Client
	group    singleflight.Group
}

// NewService builds a Service instance. The Redis client is optional; without
// it every request recomputes (still deduplicated by singleflight).
func NewService(bugs BugCounter, tasks TaskCounter, projects ProjectCounter, activityStats ActivityStats, redisClient *redis.Client) *Service {
	return &Service{bugs: bugs, tasks: tasks, projects: projects, activity: activityStats, redis: redisClient}
}

// Stats returns the dashboard aggregate, served from cache when fresh.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if cached, ok := s.fromCache(ctx); ok {
		return cached, nil
	}

	resultChan := s.group.DoChan(cacheKey, func() (any, error) {
		return s.compute(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return Stats{}, res.Err
		}
		return res.Val.(Stats), nil
	}
}

func (s *Service) compute(ctx context.Context) (Stats, error) {
	bugCounts, err := s.bugs.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	taskCounts, err := s.tasks.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	projectCount, err := s.projects.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	activityStats, err := s.activity.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{
		Bugs:     bugCounts,
		Tasks:    taskCounts,
		Projects: projectCount,
		Activity: activityStats,
	}
	s.toCache(ctx, stats)
	return stats, nil
}

func (s *Service) fromCache(ctx context.Context) (Stats, bool) {
	if s.redis == nil {
		return Stats{}, false
	}
	raw, err := s.redis.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return Stats{}, false
	}
	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return Stats{}, false
	}
	return stats, true
}

func (s *Service) toCache(ctx context.Context, stats Stats) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	// Cache write failures degrade to recomputation.
	_ = s.redis.Set(ctx, cacheKey, raw, cacheTTL).Err()
}
