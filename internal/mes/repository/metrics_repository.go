package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MetricsRepository struct {
	db *gorm.DB
}

func NewMetricsRepository(db *gorm.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// Upsert 按(station_id, period_start)覆盖写。重算是覆盖，不是合并。
func (r *MetricsRepository) Upsert(ctx context.Context, m *entity.StationMetrics) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "station_id"}, {Name: "period_start"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"period_end",
			"weighted_average_rate",
			"total_hours_worked",
			"total_labor_cost",
			"unique_operator_count",
			"calculated_at",
		}),
	}).Create(m).Error
}

func (r *MetricsRepository) Find(ctx context.Context, stationID string, periodStart time.Time) (*entity.StationMetrics, error) {
	var m entity.StationMetrics
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND period_start = ?", stationID, periodStart).
		First(&m).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &m, nil
}

func (r *MetricsRepository) ListByStation(ctx context.Context, stationID string) ([]entity.StationMetrics, error) {
	var items []entity.StationMetrics
	err := r.db.WithContext(ctx).Where("station_id = ?", stationID).
		Order("period_start DESC").Find(&items).Error
	return items, err
}
