package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
)

// RoutingService 工艺路线版本管理。
// 版本一旦被工单引用就冻结，改工序只能克隆出revision+1的新版本。
type RoutingService struct {
	repo *repository.RoutingRepository
}

func NewRoutingService(repo *repository.RoutingRepository) *RoutingService {
	return &RoutingService{repo: repo}
}

type StageInput struct {
	Sequence             int    `json:"sequence" binding:"required,min=1"`
	Code                 string `json:"code" binding:"required"`
	Name                 string `json:"name" binding:"required"`
	WorkCenterID         string `json:"work_center_id"`
	StandardStageSeconds int    `json:"standard_stage_seconds" binding:"min=0"`
	Enabled              *bool  `json:"enabled"`
}

type CreateRoutingVersionRequest struct {
	Code   string       `json:"code" binding:"required"`
	Name   string       `json:"name" binding:"required"`
	Stages []StageInput `json:"stages" binding:"required,min=1,dive"`
}

func (s *RoutingService) CreateVersion(ctx context.Context, userID string, req *CreateRoutingVersionRequest) (*entity.RoutingVersion, error) {
	if err := validateStages(req.Stages); err != nil {
		return nil, err
	}
	if existing, _ := s.repo.FindActiveVersionByCode(ctx, req.Code); existing != nil {
		return nil, fmt.Errorf("路线编码已有启用版本: %s，调整工序请克隆", req.Code)
	}
	version := &entity.RoutingVersion{
		ID:        uuid.New().String()[:32],
		Code:      req.Code,
		Name:      req.Name,
		Revision:  1,
		IsActive:  true,
		CreatedBy: userID,
		Stages:    buildStages(req.Stages),
	}
	if err := s.repo.CreateVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("创建工艺路线失败: %w", err)
	}
	return version, nil
}

func (s *RoutingService) Get(ctx context.Context, id string) (*entity.RoutingVersion, error) {
	return s.repo.FindVersionByID(ctx, id)
}

func (s *RoutingService) List(ctx context.Context) ([]entity.RoutingVersion, error) {
	return s.repo.ListVersions(ctx)
}

type CloneRoutingVersionRequest struct {
	Name   string       `json:"name"`
	Stages []StageInput `json:"stages" binding:"required,min=1,dive"`
}

// Clone 从现有版本克隆出revision+1的新启用版本。
// 源版本被工单引用时只停用不删除，历史工单照旧走老版本。
func (s *RoutingService) Clone(ctx context.Context, sourceID, userID string, req *CloneRoutingVersionRequest) (*entity.RoutingVersion, error) {
	source, err := s.repo.FindVersionByID(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("源版本不存在: %w", err)
	}
	if err := validateStages(req.Stages); err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = source.Name
	}
	version := &entity.RoutingVersion{
		ID:        uuid.New().String()[:32],
		Code:      source.Code,
		Name:      name,
		Revision:  source.Revision + 1,
		IsActive:  true,
		CreatedBy: userID,
		Stages:    buildStages(req.Stages),
	}
	if err := s.repo.CreateVersion(ctx, version); err != nil {
		return nil, fmt.Errorf("克隆工艺路线失败: %w", err)
	}
	if source.IsActive {
		if err := s.repo.DeactivateVersion(ctx, sourceID); err != nil {
			return nil, fmt.Errorf("停用源版本失败: %w", err)
		}
	}
	return version, nil
}

// Deactivate 停用版本。被工单引用的版本保留给历史工单查询，
// 返回仍引用该版本的工单数供前端提示。
func (s *RoutingService) Deactivate(ctx context.Context, id string) (int64, error) {
	if _, err := s.repo.FindVersionByID(ctx, id); err != nil {
		return 0, err
	}
	refs, err := s.repo.CountReferencingWorkOrders(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("统计引用工单失败: %w", err)
	}
	return refs, s.repo.DeactivateVersion(ctx, id)
}

func validateStages(inputs []StageInput) error {
	seen := make(map[int]bool, len(inputs))
	codes := make(map[string]bool, len(inputs))
	hasEnabled := false
	for _, in := range inputs {
		if seen[in.Sequence] {
			return fmt.Errorf("工序序号重复: %d", in.Sequence)
		}
		seen[in.Sequence] = true
		if codes[in.Code] {
			return fmt.Errorf("工序编码重复: %s", in.Code)
		}
		codes[in.Code] = true
		if in.Enabled == nil || *in.Enabled {
			hasEnabled = true
		}
	}
	if !hasEnabled {
		return fmt.Errorf("路线至少要有一道启用的工序")
	}
	return nil
}

func buildStages(inputs []StageInput) []entity.RoutingStage {
	stages := make([]entity.RoutingStage, 0, len(inputs))
	for _, in := range inputs {
		enabled := true
		if in.Enabled != nil {
			enabled = *in.Enabled
		}
		stages = append(stages, entity.RoutingStage{
			ID:                   uuid.New().String()[:32],
			Sequence:             in.Sequence,
			Code:                 in.Code,
			Name:                 in.Name,
			WorkCenterID:         in.WorkCenterID,
			StandardStageSeconds: in.StandardStageSeconds,
			Enabled:              enabled,
		})
	}
	return stages
}
