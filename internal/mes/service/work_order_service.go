package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/dateutil"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/snapshot"
	"github.com/bitfantasy/nimo-mes/internal/mes/sse"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkOrderService 工单服务：一条船体一张工单，沿版本化工艺路线流转。
// 工序事件日志只追加，工单进度与工时全部从日志推导。
type WorkOrderService struct {
	repo      *repository.WorkOrderRepository
	stageLogs *repository.StageLogRepository
	routings  *repository.RoutingRepository
}

func NewWorkOrderService(repo *repository.WorkOrderRepository, stageLogs *repository.StageLogRepository, routings *repository.RoutingRepository) *WorkOrderService {
	return &WorkOrderService{repo: repo, stageLogs: stageLogs, routings: routings}
}

type CreateWorkOrderRequest struct {
	WONumber          string         `json:"wo_number"`
	HullID            string         `json:"hull_id" binding:"required"`
	ProductSKU        string         `json:"product_sku" binding:"required"`
	Qty               int            `json:"qty" binding:"required,min=1"`
	Priority          int            `json:"priority" binding:"min=0,max=2"`
	PlannedStartDate  string         `json:"planned_start_date"`
	PlannedFinishDate string         `json:"planned_finish_date"`
	RoutingCode       string         `json:"routing_code" binding:"required"`
	SpecSnapshot      map[string]any `json:"spec_snapshot"`
}

// Create 创建工单。绑定路线编码当前启用版本的ID，
// 之后路线再怎么克隆演进都不影响这张工单。
func (s *WorkOrderService) Create(ctx context.Context, userID string, req *CreateWorkOrderRequest) (*entity.WorkOrder, error) {
	version, err := s.routings.FindActiveVersionByCode(ctx, req.RoutingCode)
	if err != nil {
		return nil, fmt.Errorf("工艺路线没有启用版本: %s", req.RoutingCode)
	}
	if len(version.EnabledStages()) == 0 {
		return nil, fmt.Errorf("工艺路线版本没有启用的工序: %s", req.RoutingCode)
	}

	startDate, err := dateutil.ParseDatePtr(req.PlannedStartDate)
	if err != nil {
		return nil, fmt.Errorf("计划开工日期格式错误: %w", err)
	}
	finishDate, err := dateutil.ParseDatePtr(req.PlannedFinishDate)
	if err != nil {
		return nil, fmt.Errorf("计划完工日期格式错误: %w", err)
	}
	if startDate != nil && finishDate != nil && finishDate.Before(*startDate) {
		return nil, fmt.Errorf("计划完工日期不能早于开工日期")
	}

	woNumber := req.WONumber
	if woNumber == "" {
		woNumber = generateWONumber()
	}

	wo := &entity.WorkOrder{
		ID:                uuid.New().String()[:32],
		WONumber:          woNumber,
		HullID:            req.HullID,
		ProductSKU:        req.ProductSKU,
		Qty:               req.Qty,
		Status:            entity.WOStatusPlanned,
		Priority:          req.Priority,
		PlannedStartDate:  startDate,
		PlannedFinishDate: finishDate,
		CurrentStageIndex: 0,
		SpecSnapshot:      entity.JSONB(req.SpecSnapshot),
		RoutingVersionID:  version.ID,
		CreatedBy:         userID,
	}
	if err := s.repo.Create(ctx, wo); err != nil {
		return nil, fmt.Errorf("创建工单失败(工单号可能重复): %w", err)
	}
	wo.RoutingVersion = version
	return wo, nil
}

func (s *WorkOrderService) Get(ctx context.Context, id string) (*entity.WorkOrder, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *WorkOrderService) List(ctx context.Context, params repository.WOListParams) ([]entity.WorkOrder, int64, error) {
	return s.repo.List(ctx, params)
}

// Release 下达工单，只有PLANNED可以下达
func (s *WorkOrderService) Release(ctx context.Context, id string) (*entity.WorkOrder, error) {
	wo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wo.Status != entity.WOStatusPlanned {
		return nil, fmt.Errorf("只有计划中的工单可以下达，当前状态: %s", wo.Status)
	}
	wo.Status = entity.WOStatusReleased
	if err := s.repo.Update(ctx, wo); err != nil {
		return nil, fmt.Errorf("下达工单失败: %w", err)
	}
	sse.PublishWorkOrderUpdate(wo.ID, wo.Status, "release")
	return wo, nil
}

type HoldRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Hold 挂起工单。必须给原因；PLANNED还没动工、终态和已取消的不能挂，
// 也不能重复挂起。解挂时回到previous_status记住的状态。
func (s *WorkOrderService) Hold(ctx context.Context, id string, req *HoldRequest) (*entity.WorkOrder, error) {
	wo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch wo.Status {
	case entity.WOStatusReleased, entity.WOStatusInProgress:
		// 允许
	case entity.WOStatusHold:
		return nil, fmt.Errorf("工单已处于挂起状态")
	default:
		return nil, fmt.Errorf("当前状态不能挂起: %s", wo.Status)
	}
	wo.PreviousStatus = wo.Status
	wo.Status = entity.WOStatusHold
	wo.HoldReason = req.Reason
	if err := s.repo.Update(ctx, wo); err != nil {
		return nil, fmt.Errorf("挂起工单失败: %w", err)
	}
	sse.PublishWorkOrderUpdate(wo.ID, wo.Status, "hold")
	return wo, nil
}

// Unhold 解除挂起，回到挂起前的状态
func (s *WorkOrderService) Unhold(ctx context.Context, id string) (*entity.WorkOrder, error) {
	wo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wo.Status != entity.WOStatusHold {
		return nil, fmt.Errorf("工单未处于挂起状态: %s", wo.Status)
	}
	restored := wo.PreviousStatus
	if restored == "" {
		restored = entity.WOStatusReleased
	}
	wo.Status = restored
	wo.PreviousStatus = ""
	wo.HoldReason = ""
	if err := s.repo.Update(ctx, wo); err != nil {
		return nil, fmt.Errorf("解除挂起失败: %w", err)
	}
	sse.PublishWorkOrderUpdate(wo.ID, wo.Status, "unhold")
	return wo, nil
}

// Cancel 取消工单。终态不可取消；取消前先落一条快照备查。
func (s *WorkOrderService) Cancel(ctx context.Context, id, userID string) (*entity.WorkOrder, error) {
	wo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.IsTerminalStatus(wo.Status) {
		return nil, fmt.Errorf("终态工单不能取消: %s", wo.Status)
	}
	if wo.Status == entity.WOStatusCancelled {
		return nil, fmt.Errorf("工单已取消")
	}

	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap := buildSnapshot(wo, entity.SnapshotReasonCancel, userID)
		if err := tx.Create(snap).Error; err != nil {
			return err
		}
		wo.PreviousStatus = wo.Status
		wo.Status = entity.WOStatusCancelled
		return tx.Save(wo).Error
	})
	if err != nil {
		return nil, fmt.Errorf("取消工单失败: %w", err)
	}
	sse.PublishWorkOrderUpdate(wo.ID, wo.Status, "cancel")
	return wo, nil
}

// Restore 恢复已取消的工单，回到PLANNED重新排产。
// 历史工序日志保留，劳动工时不丢。
func (s *WorkOrderService) Restore(ctx context.Context, id, userID string) (*entity.WorkOrder, error) {
	wo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wo.Status != entity.WOStatusCancelled {
		return nil, fmt.Errorf("只有已取消的工单可以恢复: %s", wo.Status)
	}

	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap := buildSnapshot(wo, entity.SnapshotReasonRestore, userID)
		if err := tx.Create(snap).Error; err != nil {
			return err
		}
		wo.Status = entity.WOStatusPlanned
		wo.PreviousStatus = ""
		return tx.Save(wo).Error
	})
	if err != nil {
		return nil, fmt.Errorf("恢复工单失败: %w", err)
	}
	sse.PublishWorkOrderUpdate(wo.ID, wo.Status, "restore")
	return wo, nil
}

// Close 关闭已完工的工单
func (s *WorkOrderService) Close(ctx context.Context, id string) (*entity.WorkOrder, error) {
	wo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wo.Status != entity.WOStatusCompleted {
		return nil, fmt.Errorf("只有已完工的工单可以关闭: %s", wo.Status)
	}
	wo.Status = entity.WOStatusClosed
	if err := s.repo.Update(ctx, wo); err != nil {
		return nil, fmt.Errorf("关闭工单失败: %w", err)
	}
	sse.PublishWorkOrderUpdate(wo.ID, wo.Status, "close")
	return wo, nil
}

type StageLogRequest struct {
	Event     string `json:"event" binding:"required,oneof=START PAUSE COMPLETE"`
	StationID string `json:"station_id" binding:"required"`
	GoodQty   int    `json:"good_qty" binding:"min=0"`
	ScrapQty  int    `json:"scrap_qty" binding:"min=0"`
	Note      string `json:"note"`
}

// RecordStageLog 对当前工序追加一条事件日志。
// START在RELEASED上把工单推进到IN_PROGRESS；
// COMPLETE推进current_stage_index，最后一道工序完成即COMPLETED。
// 整个流程在事务里走，日志和状态不会半落。
func (s *WorkOrderService) RecordStageLog(ctx context.Context, woID, userID string, req *StageLogRequest) (*entity.WOStageLog, *entity.WorkOrder, error) {
	wo, err := s.repo.FindByID(ctx, woID)
	if err != nil {
		return nil, nil, err
	}
	if wo.RoutingVersion == nil {
		return nil, nil, fmt.Errorf("工单没有关联的工艺路线版本")
	}

	switch wo.Status {
	case entity.WOStatusReleased:
		if req.Event != entity.StageEventStart {
			return nil, nil, fmt.Errorf("已下达未开工的工单只接受START事件")
		}
	case entity.WOStatusInProgress:
		// 所有事件都允许
	case entity.WOStatusHold:
		return nil, nil, fmt.Errorf("工单挂起中，不接受工序事件")
	default:
		return nil, nil, fmt.Errorf("当前状态不接受工序事件: %s", wo.Status)
	}

	stages := wo.RoutingVersion.EnabledStages()
	if wo.CurrentStageIndex >= len(stages) {
		return nil, nil, fmt.Errorf("工单所有工序已完成")
	}
	stage := stages[wo.CurrentStageIndex]

	log := &entity.WOStageLog{
		ID:            uuid.New().String()[:32],
		WorkOrderID:   wo.ID,
		StageSequence: stage.Sequence,
		StageCode:     stage.Code,
		Event:         req.Event,
		StationID:     req.StationID,
		UserID:        userID,
		GoodQty:       req.GoodQty,
		ScrapQty:      req.ScrapQty,
		Note:          req.Note,
	}

	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(log).Error; err != nil {
			return err
		}
		switch req.Event {
		case entity.StageEventStart:
			if wo.Status == entity.WOStatusReleased {
				wo.Status = entity.WOStatusInProgress
			}
		case entity.StageEventComplete:
			wo.CurrentStageIndex++
			if wo.CurrentStageIndex >= len(stages) {
				wo.Status = entity.WOStatusCompleted
			}
		}
		return tx.Save(wo).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("记录工序事件失败: %w", err)
	}

	sse.PublishStageUpdate(wo.ID, stage.Code, req.Event)
	if req.Event != entity.StageEventPause {
		sse.PublishWorkOrderUpdate(wo.ID, wo.Status, "stage_"+req.Event)
	}
	return log, wo, nil
}

func (s *WorkOrderService) ListStageLogs(ctx context.Context, woID string) ([]entity.WOStageLog, error) {
	if _, err := s.repo.FindByID(ctx, woID); err != nil {
		return nil, err
	}
	return s.stageLogs.ListByWorkOrder(ctx, woID)
}

// CurrentStage 当前工序与进度
type CurrentStageInfo struct {
	WorkOrderID       string               `json:"work_order_id"`
	Status            string               `json:"status"`
	CurrentStageIndex int                  `json:"current_stage_index"`
	TotalStages       int                  `json:"total_stages"`
	CurrentStage      *entity.RoutingStage `json:"current_stage,omitempty"`
}

func (s *WorkOrderService) CurrentStage(ctx context.Context, woID string) (*CurrentStageInfo, error) {
	wo, err := s.repo.FindByID(ctx, woID)
	if err != nil {
		return nil, err
	}
	info := &CurrentStageInfo{
		WorkOrderID:       wo.ID,
		Status:            wo.Status,
		CurrentStageIndex: wo.CurrentStageIndex,
	}
	if wo.RoutingVersion != nil {
		stages := wo.RoutingVersion.EnabledStages()
		info.TotalStages = len(stages)
		if wo.CurrentStageIndex < len(stages) {
			stage := stages[wo.CurrentStageIndex]
			info.CurrentStage = &stage
		}
	}
	return info, nil
}

func (s *WorkOrderService) ListSnapshots(ctx context.Context, woID string) ([]entity.WorkOrderSnapshot, error) {
	if _, err := s.repo.FindByID(ctx, woID); err != nil {
		return nil, err
	}
	return s.repo.ListSnapshots(ctx, woID)
}

// buildSnapshot 按固定字段集合抓一份工单快照
func buildSnapshot(wo *entity.WorkOrder, reason, userID string) *entity.WorkOrderSnapshot {
	payload := entity.JSONB{
		"wo_number":           wo.WONumber,
		"hull_id":             wo.HullID,
		"product_sku":         wo.ProductSKU,
		"qty":                 wo.Qty,
		"status":              wo.Status,
		"priority":            wo.Priority,
		"planned_start_date":  formatDatePtr(wo.PlannedStartDate),
		"planned_finish_date": formatDatePtr(wo.PlannedFinishDate),
		"current_stage_index": wo.CurrentStageIndex,
		"routing_version_id":  wo.RoutingVersionID,
		"spec_snapshot":       map[string]any(wo.SpecSnapshot),
	}
	return &entity.WorkOrderSnapshot{
		ID:            uuid.New().String()[:32],
		WorkOrderID:   wo.ID,
		Reason:        reason,
		SchemaVersion: snapshot.WorkOrderSnapshotVersion,
		SchemaHash:    snapshot.WorkOrderSnapshotSchemaHash,
		Payload:       payload,
		CreatedBy:     userID,
	}
}

func formatDatePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dateutil.Format(*t)
}

func generateWONumber() string {
	return fmt.Sprintf("WO-%s-%s", time.Now().Format("20060102"), uuid.New().String()[:6])
}
