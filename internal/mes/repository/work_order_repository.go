package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

func (r *WorkOrderRepository) Create(ctx context.Context, wo *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Create(wo).Error
}

func (r *WorkOrderRepository) FindByID(ctx context.Context, id string) (*entity.WorkOrder, error) {
	var wo entity.WorkOrder
	err := r.db.WithContext(ctx).
		Preload("RoutingVersion.Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("id = ?", id).First(&wo).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &wo, nil
}

type WOListParams struct {
	Status  string
	HullID  string
	Keyword string
	Page    int
	Size    int
}

func (r *WorkOrderRepository) List(ctx context.Context, params WOListParams) ([]entity.WorkOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.WorkOrder{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.HullID != "" {
		query = query.Where("hull_id = ?", params.HullID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("wo_number ILIKE ? OR product_sku ILIKE ?", kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var wos []entity.WorkOrder
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&wos).Error
	return wos, total, err
}

func (r *WorkOrderRepository) Update(ctx context.Context, wo *entity.WorkOrder) error {
	return r.db.WithContext(ctx).Save(wo).Error
}

func (r *WorkOrderRepository) ListSnapshots(ctx context.Context, workOrderID string) ([]entity.WorkOrderSnapshot, error) {
	var snaps []entity.WorkOrderSnapshot
	err := r.db.WithContext(ctx).Where("work_order_id = ?", workOrderID).
		Order("created_at DESC").Find(&snaps).Error
	return snaps, err
}

// DB 返回底层db用于事务
func (r *WorkOrderRepository) DB() *gorm.DB {
	return r.db
}
