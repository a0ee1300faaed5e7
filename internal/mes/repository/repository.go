package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 仓库集合
type Repositories struct {
	User       *UserRepository
	Org        *OrgRepository
	Routing    *RoutingRepository
	WorkOrder  *WorkOrderRepository
	StageLog   *StageLogRepository
	Metrics    *MetricsRepository
	Note       *NoteRepository
	Attachment *AttachmentRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Org:        NewOrgRepository(db),
		Routing:    NewRoutingRepository(db),
		WorkOrder:  NewWorkOrderRepository(db),
		StageLog:   NewStageLogRepository(db),
		Metrics:    NewMetricsRepository(db),
		Note:       NewNoteRepository(db),
		Attachment: NewAttachmentRepository(db),
	}
}

// wrapNotFound 把gorm的未找到错误翻译成仓库层错误
func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
