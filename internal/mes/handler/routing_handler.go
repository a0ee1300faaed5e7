package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type RoutingHandler struct {
	svc *service.RoutingService
}

func NewRoutingHandler(svc *service.RoutingService) *RoutingHandler {
	return &RoutingHandler{svc: svc}
}

// Create POST /routing-versions
func (h *RoutingHandler) Create(c *gin.Context) {
	var req service.CreateRoutingVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	version, err := h.svc.CreateVersion(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, version)
}

// List GET /routing-versions
func (h *RoutingHandler) List(c *gin.Context) {
	versions, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, "获取工艺路线列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": versions})
}

// Get GET /routing-versions/:id
func (h *RoutingHandler) Get(c *gin.Context) {
	version, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取工艺路线失败")
		return
	}
	Success(c, version)
}

// Clone POST /routing-versions/:id/clone
func (h *RoutingHandler) Clone(c *gin.Context) {
	var req service.CloneRoutingVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	version, err := h.svc.Clone(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err, "克隆工艺路线失败")
		return
	}
	Created(c, version)
}

// Deactivate DELETE /routing-versions/:id
func (h *RoutingHandler) Deactivate(c *gin.Context) {
	refs, err := h.svc.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "停用工艺路线失败")
		return
	}
	Success(c, gin.H{"message": "版本已停用", "referencing_work_orders": refs})
}
