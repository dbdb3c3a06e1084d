package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	commonlog "inspection_server/server/common/log"
	"inspection_server/server/domain"
)

type DashboardService struct {
	tasks TaskStore
	items ChecklistStore
	stats *StatsCache
}

func NewDashboardService(tasks TaskStore, items ChecklistStore, stats *StatsCache) *DashboardService {
	return &DashboardService{tasks: tasks, items: items, stats: stats}
}

// Dashboard lists the active tasks due in the selected month, each
// annotated with checklist completion for (year, month).
func (s *DashboardService) Dashboard(ctx context.Context, year, month int, companyID *int64) ([]domain.DashboardTask, error) {
	if err := validateYearMonth(year, month); err != nil {
		return nil, err
	}
	due, err := s.tasksDueInMonth(ctx, month, companyID)
	if err != nil {
		return nil, err
	}
	result := make([]domain.DashboardTask, 0, len(due))
	for _, task := range due {
		annotated, err := annotateTask(ctx, s.items, task, year, month)
		if err != nil {
			return nil, err
		}
		result = append(result, annotated)
	}
	return result, nil
}

// MonthStats computes, for every month of the year, how many due tasks are
// fully completed versus due at all. A task with an empty checklist never
// counts as done. Results are cached briefly in Redis.
func (s *DashboardService) MonthStats(ctx context.Context, year int, companyID *int64) (map[int]domain.MonthStat, error) {
	if year < 1 {
		return nil, fmt.Errorf("%w: year is required", domain.ErrValidation)
	}
	if stats, ok := s.stats.Get(ctx, year, companyID); ok {
		return stats, nil
	}

	stats := make(map[int]domain.MonthStat, 12)
	for month := 1; month <= 12; month++ {
		due, err := s.tasksDueInMonth(ctx, month, companyID)
		if err != nil {
			return nil, err
		}
		stat := domain.MonthStat{Total: len(due)}
		for _, task := range due {
			annotated, err := annotateTask(ctx, s.items, task, year, month)
			if err != nil {
				return nil, err
			}
			if len(annotated.Items) > 0 && annotated.IncompleteCount == 0 {
				stat.Done++
			}
		}
		stats[month] = stat
	}

	s.stats.Set(ctx, year, companyID, stats)
	return stats, nil
}

func (s *DashboardService) tasksDueInMonth(ctx context.Context, month int, companyID *int64) ([]domain.Task, error) {
	active, err := s.tasks.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	due := make([]domain.Task, 0, len(active))
	for _, task := range active {
		if companyID != nil && task.CompanyID != *companyID {
			continue
		}
		if task.Schedule.DueInMonth(month) {
			due = append(due, task)
		}
	}
	return due, nil
}

// StatsCache memoizes month statistics in Redis. Invalidation bumps a
// version key instead of tracking every (year, company) key that may be
// cached. A nil cache or nil client disables caching entirely.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

const statsVersionKey = "dashboard:stats:version"

func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{rdb: rdb, ttl: ttl}
}

func (c *StatsCache) Get(ctx context.Context, year int, companyID *int64) (map[int]domain.MonthStat, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key(ctx, year, companyID)).Bytes()
	if err != nil {
		return nil, false
	}
	var stats map[int]domain.MonthStat
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return stats, true
}

func (c *StatsCache) Set(ctx context.Context, year int, companyID *int64, stats map[int]domain.MonthStat) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(ctx, year, companyID), raw, c.ttl).Err(); err != nil {
		commonlog.Warnf("cache month stats: %v", err)
	}
}

func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, statsVersionKey).Err(); err != nil {
		commonlog.Warnf("invalidate month stats cache: %v", err)
	}
}

func (c *StatsCache) key(ctx context.Context, year int, companyID *int64) string {
	version, err := c.rdb.Get(ctx, statsVersionKey).Int64()
	if err != nil {
		version = 0
	}
	company := int64(0)
	if companyID != nil {
		company = *companyID
	}
	return fmt.Sprintf("dashboard:stats:%d:%d:%d", version, year, company)
}
