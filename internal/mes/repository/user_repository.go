package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Preload("Department").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &user, nil
}

// ListActive 获取所有在职用户
func (r *UserRepository) ListActive(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).Preload("Department").
		Where("is_active = true").Order("username").Find(&users).Error
	return users, err
}

// Search 按名字/邮箱模糊匹配
func (r *UserRepository) Search(ctx context.Context, query string) ([]entity.User, error) {
	var users []entity.User
	kw := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Where("name ILIKE ? OR email ILIKE ? OR username ILIKE ?", kw, kw, kw).
		Limit(20).Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// RatesByIDs 批量取操作工小时工资，供指标重放用
func (r *UserRepository) RatesByIDs(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}
	var rows []struct {
		ID         string
		HourlyRate float64
	}
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Select("id, hourly_rate").Where("id IN ?", ids).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	rates := make(map[string]float64, len(rows))
	for _, row := range rows {
		rates[row.ID] = row.HourlyRate
	}
	return rates, nil
}

// CountOpenStageLogs 用户在未完结工单里的工序日志数，用于停用前检查
func (r *UserRepository) CountOpenStageLogs(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.WOStageLog{}).
		Joins("JOIN mes_work_orders ON mes_work_orders.id = mes_wo_stage_logs.work_order_id").
		Where("mes_wo_stage_logs.user_id = ?", userID).
		Where("mes_work_orders.status IN ?", []string{
			entity.WOStatusReleased, entity.WOStatusInProgress, entity.WOStatusHold,
		}).
		Count(&count).Error
	return count, err
}
