package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/dateutil"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/metrics"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const metricsCacheKeyPrefix = "mes:metrics:station:"

// MetricsService 工位人工指标服务。
// 指标不增量维护，每次从工序日志整段重放，重算天然幂等。
type MetricsService struct {
	org     *repository.OrgRepository
	logs    *repository.StageLogRepository
	users   *repository.UserRepository
	metrics *repository.MetricsRepository
	rdb     *redis.Client
}

func NewMetricsService(org *repository.OrgRepository, logs *repository.StageLogRepository, users *repository.UserRepository, metricsRepo *repository.MetricsRepository, rdb *redis.Client) *MetricsService {
	return &MetricsService{org: org, logs: logs, users: users, metrics: metricsRepo, rdb: rdb}
}

// RecalculateStation 重算一个工位在[periodStart, periodEnd)内的人工指标。
// 窗口内没有任何有效工时（比如全是孤儿事件）时不落库，返回nil。
func (s *MetricsService) RecalculateStation(ctx context.Context, stationID string, periodStart, periodEnd time.Time) (*entity.StationMetrics, error) {
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("周期结束必须晚于周期开始")
	}
	if _, err := s.org.FindStationByID(ctx, stationID); err != nil {
		return nil, fmt.Errorf("工位不存在: %w", err)
	}

	logs, err := s.logs.ListByStationWindow(ctx, stationID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("查询工序日志失败: %w", err)
	}

	events := make([]metrics.Event, 0, len(logs))
	userIDSet := make(map[string]struct{})
	for _, log := range logs {
		events = append(events, metrics.Event{
			WorkOrderID: log.WorkOrderID,
			UserID:      log.UserID,
			Event:       log.Event,
			At:          log.CreatedAt,
		})
		userIDSet[log.UserID] = struct{}{}
	}
	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	rates, err := s.users.RatesByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("查询操作工时薪失败: %w", err)
	}

	result := metrics.Replay(events, rates)
	if result == nil {
		return nil, nil
	}

	m := &entity.StationMetrics{
		ID:                  uuid.New().String()[:32],
		StationID:           stationID,
		PeriodStart:         periodStart,
		PeriodEnd:           periodEnd,
		WeightedAverageRate: result.WeightedAverageRate,
		TotalHoursWorked:    result.TotalHoursWorked,
		TotalLaborCost:      result.TotalLaborCost,
		UniqueOperatorCount: result.UniqueOperatorCount,
		CalculatedAt:        time.Now().UTC(),
	}
	if err := s.metrics.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("写入指标失败: %w", err)
	}
	s.cacheResult(ctx, stationID, periodStart, m)
	return m, nil
}

// StationResult 批量重算里单个工位的结果
type StationResult struct {
	StationID string                 `json:"station_id"`
	Success   bool                   `json:"success"`
	Error     string                 `json:"error,omitempty"`
	Metrics   *entity.StationMetrics `json:"metrics,omitempty"`
}

// RecalculateAll 对所有启用工位逐个重算。
// 单个工位失败只记入结果，不中断其余工位。
func (s *MetricsService) RecalculateAll(ctx context.Context, periodStart, periodEnd time.Time) ([]StationResult, error) {
	stationIDs, err := s.org.ListActiveStationIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询启用工位失败: %w", err)
	}

	results := make([]StationResult, 0, len(stationIDs))
	for _, id := range stationIDs {
		m, err := s.RecalculateStation(ctx, id, periodStart, periodEnd)
		if err != nil {
			results = append(results, StationResult{StationID: id, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, StationResult{StationID: id, Success: true, Metrics: m})
	}
	return results, nil
}

// RecalculateDay 按自然日（UTC）重算一个工位
func (s *MetricsService) RecalculateDay(ctx context.Context, stationID string, day time.Time) (*entity.StationMetrics, error) {
	start := dateutil.Truncate(day)
	return s.RecalculateStation(ctx, stationID, start, start.AddDate(0, 0, 1))
}

func (s *MetricsService) Get(ctx context.Context, stationID string, periodStart time.Time) (*entity.StationMetrics, error) {
	if cached := s.cachedResult(ctx, stationID, periodStart); cached != nil {
		return cached, nil
	}
	m, err := s.metrics.Find(ctx, stationID, periodStart)
	if err != nil {
		return nil, err
	}
	s.cacheResult(ctx, stationID, periodStart, m)
	return m, nil
}

func (s *MetricsService) ListByStation(ctx context.Context, stationID string) ([]entity.StationMetrics, error) {
	return s.metrics.ListByStation(ctx, stationID)
}

func metricsCacheKey(stationID string, periodStart time.Time) string {
	return metricsCacheKeyPrefix + stationID + ":" + dateutil.Format(periodStart)
}

// 缓存只是读加速，写失败静默忽略，指标以数据库为准
func (s *MetricsService) cacheResult(ctx context.Context, stationID string, periodStart time.Time, m *entity.StationMetrics) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	s.rdb.Set(ctx, metricsCacheKey(stationID, periodStart), data, 10*time.Minute)
}

func (s *MetricsService) cachedResult(ctx context.Context, stationID string, periodStart time.Time) *entity.StationMetrics {
	if s.rdb == nil {
		return nil
	}
	data, err := s.rdb.Get(ctx, metricsCacheKey(stationID, periodStart)).Bytes()
	if err != nil {
		return nil
	}
	var m entity.StationMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return &m
}
