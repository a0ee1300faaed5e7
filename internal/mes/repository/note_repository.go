package repository

import (
	"context"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type NoteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *entity.WONote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *NoteRepository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]entity.WONote, error) {
	var notes []entity.WONote
	err := r.db.WithContext(ctx).Preload("Author").
		Where("work_order_id = ?", workOrderID).
		Order("created_at DESC").Find(&notes).Error
	return notes, err
}

type AttachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, att *entity.WOAttachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*entity.WOAttachment, error) {
	var att entity.WOAttachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&att).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &att, nil
}

func (r *AttachmentRepository) ListByWorkOrder(ctx context.Context, workOrderID string) ([]entity.WOAttachment, error) {
	var atts []entity.WOAttachment
	err := r.db.WithContext(ctx).Where("work_order_id = ?", workOrderID).
		Order("created_at DESC").Find(&atts).Error
	return atts, err
}
