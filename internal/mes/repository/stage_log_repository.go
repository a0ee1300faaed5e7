package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// StageLogRepository 工序日志仓库。日志只追加不修改。
type StageLogRepository struct {
	db *gorm.DB
}

func NewStageLogRepository(db *gorm.DB) *StageLogRepository {
	return &StageLogRepository{db: db}
}

func (r *StageLogRepository) Create(ctx context.Context, log *entity.WOStageLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *StageLogRepository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]entity.WOStageLog, error) {
	var logs []entity.WOStageLog
	err := r.db.WithContext(ctx).Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").Find(&logs).Error
	return logs, err
}

// ListByStationWindow 一个工位在[start, end)窗口内的日志，时间升序，供指标重放
func (r *StageLogRepository) ListByStationWindow(ctx context.Context, stationID string, start, end time.Time) ([]entity.WOStageLog, error) {
	var logs []entity.WOStageLog
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND created_at >= ? AND created_at < ?", stationID, start, end).
		Order("created_at ASC").Find(&logs).Error
	return logs, err
}
