package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// OrgHandler 组织结构接口：部门/工作中心/工位/设备
type OrgHandler struct {
	svc *service.OrgService
}

func NewOrgHandler(svc *service.OrgService) *OrgHandler {
	return &OrgHandler{svc: svc}
}

func includeInactive(c *gin.Context) bool {
	return c.Query("include_inactive") == "true"
}

// ===== 部门 =====

// CreateDepartment POST /departments
func (h *OrgHandler) CreateDepartment(c *gin.Context) {
	var req service.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	dept, err := h.svc.CreateDepartment(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, dept)
}

// ListDepartments GET /departments
func (h *OrgHandler) ListDepartments(c *gin.Context) {
	depts, err := h.svc.ListDepartments(c.Request.Context(), includeInactive(c))
	if err != nil {
		InternalError(c, "获取部门列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": depts})
}

// GetDepartment GET /departments/:id
func (h *OrgHandler) GetDepartment(c *gin.Context) {
	dept, err := h.svc.GetDepartment(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取部门失败")
		return
	}
	Success(c, dept)
}

// UpdateDepartment PUT /departments/:id
func (h *OrgHandler) UpdateDepartment(c *gin.Context) {
	var req service.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	dept, err := h.svc.UpdateDepartment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err, "更新部门失败")
		return
	}
	Success(c, dept)
}

// DeactivateDepartment DELETE /departments/:id
func (h *OrgHandler) DeactivateDepartment(c *gin.Context) {
	if err := h.svc.DeactivateDepartment(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err, "停用部门失败")
		return
	}
	Success(c, gin.H{"message": "部门已停用"})
}

// ===== 工作中心 =====

// CreateWorkCenter POST /work-centers
func (h *OrgHandler) CreateWorkCenter(c *gin.Context) {
	var req service.CreateWorkCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	wc, err := h.svc.CreateWorkCenter(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, wc)
}

// ListWorkCenters GET /work-centers
func (h *OrgHandler) ListWorkCenters(c *gin.Context) {
	wcs, err := h.svc.ListWorkCenters(c.Request.Context(), includeInactive(c))
	if err != nil {
		InternalError(c, "获取工作中心列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": wcs})
}

// GetWorkCenter GET /work-centers/:id
func (h *OrgHandler) GetWorkCenter(c *gin.Context) {
	wc, err := h.svc.GetWorkCenter(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取工作中心失败")
		return
	}
	Success(c, wc)
}

// UpdateWorkCenter PUT /work-centers/:id
func (h *OrgHandler) UpdateWorkCenter(c *gin.Context) {
	var req service.UpdateWorkCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	wc, err := h.svc.UpdateWorkCenter(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err, "更新工作中心失败")
		return
	}
	Success(c, wc)
}

// DeactivateWorkCenter DELETE /work-centers/:id
func (h *OrgHandler) DeactivateWorkCenter(c *gin.Context) {
	if err := h.svc.DeactivateWorkCenter(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err, "停用工作中心失败")
		return
	}
	Success(c, gin.H{"message": "工作中心已停用"})
}

// ===== 工位 =====

// CreateStation POST /stations
func (h *OrgHandler) CreateStation(c *gin.Context) {
	var req service.CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	station, err := h.svc.CreateStation(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, station)
}

// ListStations GET /stations
func (h *OrgHandler) ListStations(c *gin.Context) {
	stations, err := h.svc.ListStations(c.Request.Context(), includeInactive(c))
	if err != nil {
		InternalError(c, "获取工位列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": stations})
}

// GetStation GET /stations/:id
func (h *OrgHandler) GetStation(c *gin.Context) {
	station, err := h.svc.GetStation(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取工位失败")
		return
	}
	Success(c, station)
}

// UpdateStation PUT /stations/:id
func (h *OrgHandler) UpdateStation(c *gin.Context) {
	var req service.UpdateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	station, err := h.svc.UpdateStation(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err, "更新工位失败")
		return
	}
	Success(c, station)
}

// DeactivateStation DELETE /stations/:id
func (h *OrgHandler) DeactivateStation(c *gin.Context) {
	if err := h.svc.DeactivateStation(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err, "停用工位失败")
		return
	}
	Success(c, gin.H{"message": "工位已停用"})
}

// ===== 设备 =====

// CreateEquipment POST /equipment
func (h *OrgHandler) CreateEquipment(c *gin.Context) {
	var req service.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	eq, err := h.svc.CreateEquipment(c.Request.Context(), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, eq)
}

// ListEquipment GET /equipment?station_id=xxx
func (h *OrgHandler) ListEquipment(c *gin.Context) {
	items, err := h.svc.ListEquipment(c.Request.Context(), c.Query("station_id"), includeInactive(c))
	if err != nil {
		InternalError(c, "获取设备列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items})
}

// GetEquipment GET /equipment/:id
func (h *OrgHandler) GetEquipment(c *gin.Context) {
	eq, err := h.svc.GetEquipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取设备失败")
		return
	}
	Success(c, eq)
}

// UpdateEquipment PUT /equipment/:id
func (h *OrgHandler) UpdateEquipment(c *gin.Context) {
	var req service.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	eq, err := h.svc.UpdateEquipment(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err, "更新设备失败")
		return
	}
	Success(c, eq)
}

// UnassignEquipment POST /equipment/:id/unassign
func (h *OrgHandler) UnassignEquipment(c *gin.Context) {
	eq, err := h.svc.UnassignEquipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "摘除设备失败")
		return
	}
	Success(c, eq)
}

// DeactivateEquipment DELETE /equipment/:id
func (h *OrgHandler) DeactivateEquipment(c *gin.Context) {
	if err := h.svc.DeactivateEquipment(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err, "停用设备失败")
		return
	}
	Success(c, gin.H{"message": "设备已停用"})
}
