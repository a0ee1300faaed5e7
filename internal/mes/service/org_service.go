package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
)

// OrgService 组织结构服务：部门/工作中心/工位/设备。
// 删除一律走is_active软删除，唯一的硬操作是设备从工位上摘除。
type OrgService struct {
	repo *repository.OrgRepository
}

func NewOrgService(repo *repository.OrgRepository) *OrgService {
	return &OrgService{repo: repo}
}

// ===== 部门 =====

type CreateDepartmentRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func (s *OrgService) CreateDepartment(ctx context.Context, req *CreateDepartmentRequest) (*entity.Department, error) {
	dept := &entity.Department{
		ID:       uuid.New().String()[:32],
		Code:     req.Code,
		Name:     req.Name,
		IsActive: true,
	}
	if err := s.repo.CreateDepartment(ctx, dept); err != nil {
		return nil, fmt.Errorf("创建部门失败(编码可能已存在): %w", err)
	}
	return dept, nil
}

func (s *OrgService) ListDepartments(ctx context.Context, includeInactive bool) ([]entity.Department, error) {
	return s.repo.ListDepartments(ctx, includeInactive)
}

func (s *OrgService) GetDepartment(ctx context.Context, id string) (*entity.Department, error) {
	return s.repo.FindDepartmentByID(ctx, id)
}

type UpdateDepartmentRequest struct {
	Name *string `json:"name"`
}

func (s *OrgService) UpdateDepartment(ctx context.Context, id string, req *UpdateDepartmentRequest) (*entity.Department, error) {
	dept, err := s.repo.FindDepartmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		dept.Name = *req.Name
	}
	if err := s.repo.UpdateDepartment(ctx, dept); err != nil {
		return nil, fmt.Errorf("更新部门失败: %w", err)
	}
	return dept, nil
}

// DeactivateDepartment 停用部门。下面还挂着启用工作中心时拒绝。
func (s *OrgService) DeactivateDepartment(ctx context.Context, id string) error {
	dept, err := s.repo.FindDepartmentByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountActiveWorkCenters(ctx, id)
	if err != nil {
		return fmt.Errorf("检查部门引用失败: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("部门下还有%d个启用的工作中心，不能停用", count)
	}
	dept.IsActive = false
	return s.repo.UpdateDepartment(ctx, dept)
}

// ===== 工作中心 =====

type CreateWorkCenterRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	DepartmentID string `json:"department_id"`
}

func (s *OrgService) CreateWorkCenter(ctx context.Context, req *CreateWorkCenterRequest) (*entity.WorkCenter, error) {
	if req.DepartmentID != "" {
		if _, err := s.repo.FindDepartmentByID(ctx, req.DepartmentID); err != nil {
			return nil, fmt.Errorf("部门不存在")
		}
	}
	wc := &entity.WorkCenter{
		ID:           uuid.New().String()[:32],
		Code:         req.Code,
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		IsActive:     true,
	}
	if err := s.repo.CreateWorkCenter(ctx, wc); err != nil {
		return nil, fmt.Errorf("创建工作中心失败(编码可能已存在): %w", err)
	}
	return wc, nil
}

func (s *OrgService) ListWorkCenters(ctx context.Context, includeInactive bool) ([]entity.WorkCenter, error) {
	return s.repo.ListWorkCenters(ctx, includeInactive)
}

func (s *OrgService) GetWorkCenter(ctx context.Context, id string) (*entity.WorkCenter, error) {
	return s.repo.FindWorkCenterByID(ctx, id)
}

type UpdateWorkCenterRequest struct {
	Name         *string `json:"name"`
	DepartmentID *string `json:"department_id"`
}

func (s *OrgService) UpdateWorkCenter(ctx context.Context, id string, req *UpdateWorkCenterRequest) (*entity.WorkCenter, error) {
	wc, err := s.repo.FindWorkCenterByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		wc.Name = *req.Name
	}
	if req.DepartmentID != nil {
		wc.DepartmentID = *req.DepartmentID
	}
	if err := s.repo.UpdateWorkCenter(ctx, wc); err != nil {
		return nil, fmt.Errorf("更新工作中心失败: %w", err)
	}
	return wc, nil
}

func (s *OrgService) DeactivateWorkCenter(ctx context.Context, id string) error {
	wc, err := s.repo.FindWorkCenterByID(ctx, id)
	if err != nil {
		return err
	}
	wc.IsActive = false
	return s.repo.UpdateWorkCenter(ctx, wc)
}

// ===== 工位 =====

type CreateStationRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	WorkCenterID string `json:"work_center_id" binding:"required"`
}

func (s *OrgService) CreateStation(ctx context.Context, req *CreateStationRequest) (*entity.Station, error) {
	if _, err := s.repo.FindWorkCenterByID(ctx, req.WorkCenterID); err != nil {
		return nil, fmt.Errorf("工作中心不存在")
	}
	station := &entity.Station{
		ID:           uuid.New().String()[:32],
		Code:         req.Code,
		Name:         req.Name,
		WorkCenterID: req.WorkCenterID,
		IsActive:     true,
	}
	if err := s.repo.CreateStation(ctx, station); err != nil {
		return nil, fmt.Errorf("创建工位失败(编码可能已存在): %w", err)
	}
	return station, nil
}

func (s *OrgService) ListStations(ctx context.Context, includeInactive bool) ([]entity.Station, error) {
	return s.repo.ListStations(ctx, includeInactive)
}

func (s *OrgService) GetStation(ctx context.Context, id string) (*entity.Station, error) {
	return s.repo.FindStationByID(ctx, id)
}

type UpdateStationRequest struct {
	Name         *string `json:"name"`
	WorkCenterID *string `json:"work_center_id"`
}

func (s *OrgService) UpdateStation(ctx context.Context, id string, req *UpdateStationRequest) (*entity.Station, error) {
	station, err := s.repo.FindStationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		station.Name = *req.Name
	}
	if req.WorkCenterID != nil {
		station.WorkCenterID = *req.WorkCenterID
	}
	if err := s.repo.UpdateStation(ctx, station); err != nil {
		return nil, fmt.Errorf("更新工位失败: %w", err)
	}
	return station, nil
}

func (s *OrgService) DeactivateStation(ctx context.Context, id string) error {
	station, err := s.repo.FindStationByID(ctx, id)
	if err != nil {
		return err
	}
	station.IsActive = false
	return s.repo.UpdateStation(ctx, station)
}

// ===== 设备 =====

type CreateEquipmentRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	StationID string `json:"station_id"`
}

func (s *OrgService) CreateEquipment(ctx context.Context, req *CreateEquipmentRequest) (*entity.Equipment, error) {
	eq := &entity.Equipment{
		ID:       uuid.New().String()[:32],
		Code:     req.Code,
		Name:     req.Name,
		Status:   entity.EquipmentStatusAvailable,
		IsActive: true,
	}
	if req.StationID != "" {
		if _, err := s.repo.FindStationByID(ctx, req.StationID); err != nil {
			return nil, fmt.Errorf("工位不存在")
		}
		eq.StationID = &req.StationID
	}
	if err := s.repo.CreateEquipment(ctx, eq); err != nil {
		return nil, fmt.Errorf("创建设备失败(编码可能已存在): %w", err)
	}
	return eq, nil
}

func (s *OrgService) ListEquipment(ctx context.Context, stationID string, includeInactive bool) ([]entity.Equipment, error) {
	return s.repo.ListEquipment(ctx, stationID, includeInactive)
}

func (s *OrgService) GetEquipment(ctx context.Context, id string) (*entity.Equipment, error) {
	return s.repo.FindEquipmentByID(ctx, id)
}

type UpdateEquipmentRequest struct {
	Name      *string `json:"name"`
	Status    *string `json:"status"`
	StationID *string `json:"station_id"`
}

func (s *OrgService) UpdateEquipment(ctx context.Context, id string, req *UpdateEquipmentRequest) (*entity.Equipment, error) {
	eq, err := s.repo.FindEquipmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		eq.Name = *req.Name
	}
	if req.Status != nil {
		eq.Status = *req.Status
	}
	if req.StationID != nil {
		if *req.StationID == "" {
			eq.StationID = nil
		} else {
			if _, err := s.repo.FindStationByID(ctx, *req.StationID); err != nil {
				return nil, fmt.Errorf("工位不存在")
			}
			eq.StationID = req.StationID
		}
	}
	if err := s.repo.UpdateEquipment(ctx, eq); err != nil {
		return nil, fmt.Errorf("更新设备失败: %w", err)
	}
	return eq, nil
}

// UnassignEquipment 把设备从工位上摘除
func (s *OrgService) UnassignEquipment(ctx context.Context, id string) (*entity.Equipment, error) {
	eq, err := s.repo.FindEquipmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if eq.StationID == nil {
		return nil, fmt.Errorf("设备未分配到任何工位")
	}
	if err := s.repo.UnassignEquipment(ctx, id); err != nil {
		return nil, fmt.Errorf("摘除设备失败: %w", err)
	}
	eq.StationID = nil
	eq.Station = nil
	return eq, nil
}

func (s *OrgService) DeactivateEquipment(ctx context.Context, id string) error {
	eq, err := s.repo.FindEquipmentByID(ctx, id)
	if err != nil {
		return err
	}
	eq.IsActive = false
	return s.repo.UpdateEquipment(ctx, eq)
}
