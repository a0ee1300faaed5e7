package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"gorm.io/gorm"
)

func setupMetricsTest(t *testing.T) (*gorm.DB, *MetricsService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewMetricsService(repos.Org, repos.StageLog, repos.User, repos.Metrics, nil)
	return db, svc
}

func seedStageLog(t *testing.T, db *gorm.DB, id, woID, stationID, userID, event string, at time.Time) {
	t.Helper()
	log := &entity.WOStageLog{
		ID: id, WorkOrderID: woID, StageSequence: 10, StageCode: "LAYUP",
		Event: event, StationID: stationID, UserID: userID,
	}
	if err := db.Create(log).Error; err != nil {
		t.Fatalf("seed stage log: %v", err)
	}
	// CreatedAt由gorm写当前时间，重放要的是事件时刻，直接改列
	if err := db.Model(&entity.WOStageLog{}).Where("id = ?", id).Update("created_at", at).Error; err != nil {
		t.Fatalf("set log time: %v", err)
	}
}

func TestRecalculateStation(t *testing.T) {
	db, svc := setupMetricsTest(t)
	ctx := context.Background()

	testutil.SeedStation(t, db, "st-m1", "STM1")
	testutil.SeedUser(t, db, "op-1", "操作工甲", entity.RoleOperator, 30)

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	seedStageLog(t, db, "log-1", "wo-m1", "st-m1", "op-1", "START", day.Add(8*time.Hour))
	seedStageLog(t, db, "log-2", "wo-m1", "st-m1", "op-1", "COMPLETE", day.Add(10*time.Hour))

	m, err := svc.RecalculateStation(ctx, "st-m1", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("RecalculateStation: %v", err)
	}
	if m == nil {
		t.Fatal("expected metrics, got nil")
	}
	if math.Abs(m.TotalHoursWorked-2) > 1e-9 {
		t.Errorf("hours = %v, want 2", m.TotalHoursWorked)
	}
	if math.Abs(m.TotalLaborCost-60) > 1e-9 {
		t.Errorf("cost = %v, want 60", m.TotalLaborCost)
	}
	if math.Abs(m.WeightedAverageRate-30) > 1e-9 {
		t.Errorf("rate = %v, want 30", m.WeightedAverageRate)
	}
	if m.UniqueOperatorCount != 1 {
		t.Errorf("operators = %d, want 1", m.UniqueOperatorCount)
	}

	// 重算是幂等的覆盖写，不是累加
	again, err := svc.RecalculateStation(ctx, "st-m1", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	if math.Abs(again.TotalHoursWorked-2) > 1e-9 {
		t.Errorf("hours after recalc = %v, want 2", again.TotalHoursWorked)
	}

	var count int64
	db.Model(&entity.StationMetrics{}).Where("station_id = ?", "st-m1").Count(&count)
	if count != 1 {
		t.Errorf("metrics rows = %d, want 1 (upsert)", count)
	}
}

func TestRecalculateStationWindowBoundary(t *testing.T) {
	db, svc := setupMetricsTest(t)
	ctx := context.Background()

	testutil.SeedStation(t, db, "st-m2", "STM2")
	testutil.SeedUser(t, db, "op-2", "操作工乙", entity.RoleOperator, 40)

	day := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	// 窗口内一段，窗口外一段
	seedStageLog(t, db, "log-in-1", "wo-in", "st-m2", "op-2", "START", day.Add(9*time.Hour))
	seedStageLog(t, db, "log-in-2", "wo-in", "st-m2", "op-2", "PAUSE", day.Add(10*time.Hour))
	seedStageLog(t, db, "log-out-1", "wo-out", "st-m2", "op-2", "START", day.AddDate(0, 0, 1).Add(9*time.Hour))
	seedStageLog(t, db, "log-out-2", "wo-out", "st-m2", "op-2", "COMPLETE", day.AddDate(0, 0, 1).Add(12*time.Hour))

	m, err := svc.RecalculateStation(ctx, "st-m2", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("RecalculateStation: %v", err)
	}
	if m == nil {
		t.Fatal("expected metrics, got nil")
	}
	if math.Abs(m.TotalHoursWorked-1) > 1e-9 {
		t.Errorf("hours = %v, want 1 (out-of-window session excluded)", m.TotalHoursWorked)
	}
}

func TestRecalculateStationNoValidHours(t *testing.T) {
	db, svc := setupMetricsTest(t)
	ctx := context.Background()

	testutil.SeedStation(t, db, "st-m3", "STM3")
	testutil.SeedUser(t, db, "op-3", "操作工丙", entity.RoleOperator, 25)

	day := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
	// 只有孤儿COMPLETE，没有有效会话
	seedStageLog(t, db, "log-orphan", "wo-orphan", "st-m3", "op-3", "COMPLETE", day.Add(9*time.Hour))

	m, err := svc.RecalculateStation(ctx, "st-m3", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("RecalculateStation: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil metrics, got %+v", m)
	}
}

func TestRecalculateStationUnknownStation(t *testing.T) {
	_, svc := setupMetricsTest(t)
	day := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)
	if _, err := svc.RecalculateStation(context.Background(), "no-such", day, day.AddDate(0, 0, 1)); err == nil {
		t.Error("expected error for unknown station")
	}
}

func TestRecalculateAllIsolatesStations(t *testing.T) {
	db, svc := setupMetricsTest(t)
	ctx := context.Background()

	testutil.SeedStation(t, db, "st-a", "STA")
	testutil.SeedStation(t, db, "st-b", "STB")
	testutil.SeedUser(t, db, "op-a", "操作工A", entity.RoleOperator, 20)

	day := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	// 只有st-a有日志，st-b空着
	seedStageLog(t, db, "log-a1", "wo-a", "st-a", "op-a", "START", day.Add(8*time.Hour))
	seedStageLog(t, db, "log-a2", "wo-a", "st-a", "op-a", "COMPLETE", day.Add(9*time.Hour))

	results, err := svc.RecalculateAll(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("result count = %d, want 2", len(results))
	}
	byStation := make(map[string]StationResult)
	for _, r := range results {
		byStation[r.StationID] = r
	}
	if r := byStation["st-a"]; !r.Success || r.Metrics == nil {
		t.Errorf("st-a result = %+v, want success with metrics", r)
	}
	if r := byStation["st-b"]; !r.Success || r.Metrics != nil {
		t.Errorf("st-b result = %+v, want success with nil metrics", r)
	}
}
