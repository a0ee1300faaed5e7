package handler

import (
	"net/url"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type WorkOrderHandler struct {
	svc       *service.WorkOrderService
	exportSvc *service.ExportService
}

func NewWorkOrderHandler(svc *service.WorkOrderService, exportSvc *service.ExportService) *WorkOrderHandler {
	return &WorkOrderHandler{svc: svc, exportSvc: exportSvc}
}

// Create POST /work-orders
func (h *WorkOrderHandler) Create(c *gin.Context) {
	var req service.CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	wo, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, wo)
}

// List GET /work-orders?status=&hull_id=&q=&page=&page_size=
func (h *WorkOrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	params := repository.WOListParams{
		Status:  c.Query("status"),
		HullID:  c.Query("hull_id"),
		Keyword: c.Query("q"),
		Page:    page,
		Size:    pageSize,
	}
	wos, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "获取工单列表失败: "+err.Error())
		return
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	Success(c, ListResponse{
		Items: wos,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	})
}

// Get GET /work-orders/:id
func (h *WorkOrderHandler) Get(c *gin.Context) {
	wo, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取工单失败")
		return
	}
	Success(c, wo)
}

// Release POST /work-orders/:id/release
func (h *WorkOrderHandler) Release(c *gin.Context) {
	wo, err := h.svc.Release(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "下达工单失败")
		return
	}
	Success(c, wo)
}

// Hold POST /work-orders/:id/hold
func (h *WorkOrderHandler) Hold(c *gin.Context) {
	var req service.HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "挂起必须填写原因")
		return
	}
	wo, err := h.svc.Hold(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err, "挂起工单失败")
		return
	}
	Success(c, wo)
}

// Unhold POST /work-orders/:id/unhold
func (h *WorkOrderHandler) Unhold(c *gin.Context) {
	wo, err := h.svc.Unhold(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "解除挂起失败")
		return
	}
	Success(c, wo)
}

// Cancel POST /work-orders/:id/cancel
func (h *WorkOrderHandler) Cancel(c *gin.Context) {
	wo, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err, "取消工单失败")
		return
	}
	Success(c, wo)
}

// Restore POST /work-orders/:id/restore
func (h *WorkOrderHandler) Restore(c *gin.Context) {
	wo, err := h.svc.Restore(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err, "恢复工单失败")
		return
	}
	Success(c, wo)
}

// Close POST /work-orders/:id/close
func (h *WorkOrderHandler) Close(c *gin.Context) {
	wo, err := h.svc.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "关闭工单失败")
		return
	}
	Success(c, wo)
}

// RecordStageLog POST /work-orders/:id/stage-logs
func (h *WorkOrderHandler) RecordStageLog(c *gin.Context) {
	var req service.StageLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	log, wo, err := h.svc.RecordStageLog(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err, "记录工序事件失败")
		return
	}
	Created(c, gin.H{
		"log":        log,
		"work_order": wo,
	})
}

// ListStageLogs GET /work-orders/:id/stage-logs
func (h *WorkOrderHandler) ListStageLogs(c *gin.Context) {
	logs, err := h.svc.ListStageLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取工序日志失败")
		return
	}
	Success(c, gin.H{"items": logs})
}

// CurrentStage GET /work-orders/:id/current-stage
func (h *WorkOrderHandler) CurrentStage(c *gin.Context) {
	info, err := h.svc.CurrentStage(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取当前工序失败")
		return
	}
	Success(c, info)
}

// ListSnapshots GET /work-orders/:id/snapshots
func (h *WorkOrderHandler) ListSnapshots(c *gin.Context) {
	snaps, err := h.svc.ListSnapshots(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取工单快照失败")
		return
	}
	Success(c, gin.H{"items": snaps})
}

// Export GET /work-orders/export
func (h *WorkOrderHandler) Export(c *gin.Context) {
	params := repository.WOListParams{
		Status:  c.Query("status"),
		HullID:  c.Query("hull_id"),
		Keyword: c.Query("q"),
	}
	f, filename, err := h.exportSvc.ExportWorkOrders(c.Request.Context(), params)
	if err != nil {
		InternalError(c, "导出工单失败: "+err.Error())
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "写出文件失败: "+err.Error())
	}
}
