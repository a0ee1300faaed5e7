package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// NoteHandler 工单备注与附件
type NoteHandler struct {
	notes         *repository.NoteRepository
	attachmentSvc *service.AttachmentService
}

func NewNoteHandler(notes *repository.NoteRepository, attachmentSvc *service.AttachmentService) *NoteHandler {
	return &NoteHandler{notes: notes, attachmentSvc: attachmentSvc}
}

type createNoteRequest struct {
	Body string `json:"body" binding:"required"`
}

// CreateNote POST /work-orders/:id/notes
func (h *NoteHandler) CreateNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "备注内容不能为空")
		return
	}
	note := &entity.WONote{
		ID:          uuid.New().String()[:32],
		WorkOrderID: c.Param("id"),
		AuthorID:    GetUserID(c),
		Body:        req.Body,
	}
	if err := h.notes.Create(c.Request.Context(), note); err != nil {
		InternalError(c, "创建备注失败: "+err.Error())
		return
	}
	Created(c, note)
}

// ListNotes GET /work-orders/:id/notes
func (h *NoteHandler) ListNotes(c *gin.Context) {
	notes, err := h.notes.ListByWorkOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取备注列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": notes})
}

// PresignUpload POST /work-orders/:id/attachments/presign
func (h *NoteHandler) PresignUpload(c *gin.Context) {
	var req service.PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	result, err := h.attachmentSvc.PresignUpload(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Success(c, result)
}

// ConfirmAttachment POST /work-orders/:id/attachments
func (h *NoteHandler) ConfirmAttachment(c *gin.Context) {
	var req service.ConfirmAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	att, err := h.attachmentSvc.Confirm(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	Created(c, att)
}

// ListAttachments GET /work-orders/:id/attachments
func (h *NoteHandler) ListAttachments(c *gin.Context) {
	atts, err := h.attachmentSvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		InternalError(c, "获取附件列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": atts})
}

// AttachmentDownloadURL GET /attachments/:id/download-url
func (h *NoteHandler) AttachmentDownloadURL(c *gin.Context) {
	downloadURL, err := h.attachmentSvc.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err, "获取下载地址失败")
		return
	}
	Success(c, gin.H{"download_url": downloadURL})
}
