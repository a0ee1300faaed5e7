package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// OrgRepository 组织结构仓库：部门/工作中心/工位/设备
type OrgRepository struct {
	db *gorm.DB
}

func NewOrgRepository(db *gorm.DB) *OrgRepository {
	return &OrgRepository{db: db}
}

// ===== 部门 =====

func (r *OrgRepository) CreateDepartment(ctx context.Context, dept *entity.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *OrgRepository) FindDepartmentByID(ctx context.Context, id string) (*entity.Department, error) {
	var dept entity.Department
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &dept, nil
}

func (r *OrgRepository) ListDepartments(ctx context.Context, includeInactive bool) ([]entity.Department, error) {
	var depts []entity.Department
	query := r.db.WithContext(ctx).Order("code")
	if !includeInactive {
		query = query.Where("is_active = true")
	}
	err := query.Find(&depts).Error
	return depts, err
}

func (r *OrgRepository) UpdateDepartment(ctx context.Context, dept *entity.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

// CountActiveWorkCenters 部门下启用的工作中心数，停用前检查用
func (r *OrgRepository) CountActiveWorkCenters(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.WorkCenter{}).
		Where("department_id = ? AND is_active = true", departmentID).Count(&count).Error
	return count, err
}

// ===== 工作中心 =====

func (r *OrgRepository) CreateWorkCenter(ctx context.Context, wc *entity.WorkCenter) error {
	return r.db.WithContext(ctx).Create(wc).Error
}

func (r *OrgRepository) FindWorkCenterByID(ctx context.Context, id string) (*entity.WorkCenter, error) {
	var wc entity.WorkCenter
	err := r.db.WithContext(ctx).Preload("Stations").Where("id = ?", id).First(&wc).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &wc, nil
}

func (r *OrgRepository) ListWorkCenters(ctx context.Context, includeInactive bool) ([]entity.WorkCenter, error) {
	var wcs []entity.WorkCenter
	query := r.db.WithContext(ctx).Preload("Department").Order("code")
	if !includeInactive {
		query = query.Where("is_active = true")
	}
	err := query.Find(&wcs).Error
	return wcs, err
}

func (r *OrgRepository) UpdateWorkCenter(ctx context.Context, wc *entity.WorkCenter) error {
	return r.db.WithContext(ctx).Save(wc).Error
}

// ===== 工位 =====

func (r *OrgRepository) CreateStation(ctx context.Context, station *entity.Station) error {
	return r.db.WithContext(ctx).Create(station).Error
}

func (r *OrgRepository) FindStationByID(ctx context.Context, id string) (*entity.Station, error) {
	var station entity.Station
	err := r.db.WithContext(ctx).Preload("WorkCenter").Preload("Equipment").
		Where("id = ?", id).First(&station).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &station, nil
}

func (r *OrgRepository) ListStations(ctx context.Context, includeInactive bool) ([]entity.Station, error) {
	var stations []entity.Station
	query := r.db.WithContext(ctx).Preload("WorkCenter").Order("code")
	if !includeInactive {
		query = query.Where("is_active = true")
	}
	err := query.Find(&stations).Error
	return stations, err
}

// ListActiveStationIDs 启用工位ID列表，批量重算指标用
func (r *OrgRepository) ListActiveStationIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&entity.Station{}).
		Where("is_active = true").Order("code").Pluck("id", &ids).Error
	return ids, err
}

func (r *OrgRepository) UpdateStation(ctx context.Context, station *entity.Station) error {
	return r.db.WithContext(ctx).Save(station).Error
}

// ===== 设备 =====

func (r *OrgRepository) CreateEquipment(ctx context.Context, eq *entity.Equipment) error {
	return r.db.WithContext(ctx).Create(eq).Error
}

func (r *OrgRepository) FindEquipmentByID(ctx context.Context, id string) (*entity.Equipment, error) {
	var eq entity.Equipment
	err := r.db.WithContext(ctx).Preload("Station").Where("id = ?", id).First(&eq).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &eq, nil
}

func (r *OrgRepository) ListEquipment(ctx context.Context, stationID string, includeInactive bool) ([]entity.Equipment, error) {
	var items []entity.Equipment
	query := r.db.WithContext(ctx).Preload("Station").Order("code")
	if stationID != "" {
		query = query.Where("station_id = ?", stationID)
	}
	if !includeInactive {
		query = query.Where("is_active = true")
	}
	err := query.Find(&items).Error
	return items, err
}

func (r *OrgRepository) UpdateEquipment(ctx context.Context, eq *entity.Equipment) error {
	return r.db.WithContext(ctx).Save(eq).Error
}

// UnassignEquipment 把设备从工位上摘下来（station_id置空，显式的硬操作）
func (r *OrgRepository) UnassignEquipment(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&entity.Equipment{}).
		Where("id = ?", id).Update("station_id", nil).Error
}
