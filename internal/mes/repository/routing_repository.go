package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type RoutingRepository struct {
	db *gorm.DB
}

func NewRoutingRepository(db *gorm.DB) *RoutingRepository {
	return &RoutingRepository{db: db}
}

// CreateVersion 在一个事务里落版本头和全部工序行
func (r *RoutingRepository) CreateVersion(ctx context.Context, version *entity.RoutingVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stages := version.Stages
		version.Stages = nil
		if err := tx.Create(version).Error; err != nil {
			return err
		}
		if len(stages) > 0 {
			for i := range stages {
				stages[i].RoutingVersionID = version.ID
			}
			if err := tx.Create(&stages).Error; err != nil {
				return err
			}
		}
		version.Stages = stages
		return nil
	})
}

func (r *RoutingRepository) FindVersionByID(ctx context.Context, id string) (*entity.RoutingVersion, error) {
	var version entity.RoutingVersion
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("id = ?", id).First(&version).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &version, nil
}

// FindActiveVersionByCode 取一个路线编码当前启用的版本
func (r *RoutingRepository) FindActiveVersionByCode(ctx context.Context, code string) (*entity.RoutingVersion, error) {
	var version entity.RoutingVersion
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Where("code = ? AND is_active = true", code).
		Order("revision DESC").First(&version).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &version, nil
}

func (r *RoutingRepository) ListVersions(ctx context.Context) ([]entity.RoutingVersion, error) {
	var versions []entity.RoutingVersion
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		Order("code, revision DESC").Find(&versions).Error
	return versions, err
}

// CountReferencingWorkOrders 引用该版本的工单数。
// 被引用的版本不可变，只能克隆出新版本。
func (r *RoutingRepository) CountReferencingWorkOrders(ctx context.Context, versionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.WorkOrder{}).
		Where("routing_version_id = ?", versionID).Count(&count).Error
	return count, err
}

// DeactivateVersion 停用版本（克隆出新版本后旧版本退役）
func (r *RoutingRepository) DeactivateVersion(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.RoutingVersion{}).
		Where("id = ?", id).Update("is_active", false).Error
}
