package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/dateutil"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	svc *service.MetricsService
}

func NewMetricsHandler(svc *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{svc: svc}
}

type recalculateRequest struct {
	// date 是整个自然日的简写，与period_start/period_end二选一
	Date        string `json:"date"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// Recalculate POST /stations/:id/metrics/recalculate
func (h *MetricsHandler) Recalculate(c *gin.Context) {
	var req recalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	var (
		m   *entity.StationMetrics
		err error
	)
	switch {
	case req.Date != "":
		day, perr := dateutil.ParseDate(req.Date)
		if perr != nil {
			BadRequest(c, perr.Error())
			return
		}
		m, err = h.svc.RecalculateDay(c.Request.Context(), c.Param("id"), day)
	case req.PeriodStart != "" && req.PeriodEnd != "":
		start, perr := dateutil.ParseDate(req.PeriodStart)
		if perr != nil {
			BadRequest(c, perr.Error())
			return
		}
		end, perr := dateutil.ParseDate(req.PeriodEnd)
		if perr != nil {
			BadRequest(c, perr.Error())
			return
		}
		m, err = h.svc.RecalculateStation(c.Request.Context(), c.Param("id"), start, end)
	default:
		BadRequest(c, "需要date或period_start+period_end")
		return
	}
	if err != nil {
		RespondError(c, err, "重算指标失败")
		return
	}
	if m == nil {
		Success(c, gin.H{"message": "周期内没有有效工时，未生成指标"})
		return
	}
	Success(c, m)
}

// RecalculateAll POST /metrics/recalculate-all
func (h *MetricsHandler) RecalculateAll(c *gin.Context) {
	var req recalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	start, err := dateutil.ParseDate(req.PeriodStart)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	end, err := dateutil.ParseDate(req.PeriodEnd)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	results, err := h.svc.RecalculateAll(c.Request.Context(), start, end)
	if err != nil {
		InternalError(c, "批量重算失败: "+err.Error())
		return
	}
	Success(c, gin.H{"results": results})
}

// Get GET /stations/:id/metrics?period_start=YYYY-MM-DD
func (h *MetricsHandler) Get(c *gin.Context) {
	periodStart := c.Query("period_start")
	if periodStart == "" {
		// 不带周期参数时返回该工位全部历史指标
		items, err := h.svc.ListByStation(c.Request.Context(), c.Param("id"))
		if err != nil {
			InternalError(c, "获取指标失败: "+err.Error())
			return
		}
		Success(c, gin.H{"items": items})
		return
	}
	start, err := dateutil.ParseDate(periodStart)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"), start)
	if err != nil {
		RespondError(c, err, "获取指标失败")
		return
	}
	Success(c, m)
}
