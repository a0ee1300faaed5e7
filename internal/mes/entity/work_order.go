package entity

import (
	"time"
)

// 工单状态
const (
	WOStatusPlanned    = "PLANNED"
	WOStatusReleased   = "RELEASED"
	WOStatusInProgress = "IN_PROGRESS"
	WOStatusHold       = "HOLD"
	WOStatusCompleted  = "COMPLETED"
	WOStatusClosed     = "CLOSED"
	WOStatusCancelled  = "CANCELLED"
)

// IsTerminalStatus 终态判定（终态工单不再参与任何状态流转）
func IsTerminalStatus(status string) bool {
	return status == WOStatusCompleted || status == WOStatusClosed
}

// WorkOrder 生产工单（一条船体一张工单）
type WorkOrder struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	WONumber          string     `json:"wo_number" gorm:"size:50;not null;uniqueIndex"`
	HullID            string     `json:"hull_id" gorm:"size:64;not null;index"`
	ProductSKU        string     `json:"product_sku" gorm:"size:64;not null"`
	Qty               int        `json:"qty" gorm:"not null;default:1"`
	Status            string     `json:"status" gorm:"size:20;not null;default:PLANNED"`
	PreviousStatus    string     `json:"previous_status" gorm:"size:20"` // HOLD解除后回到的状态
	HoldReason        string     `json:"hold_reason" gorm:"type:text"`
	Priority          int        `json:"priority" gorm:"default:0"` // 0=普通, 1=紧急, 2=特急
	PlannedStartDate  *time.Time `json:"planned_start_date"`
	PlannedFinishDate *time.Time `json:"planned_finish_date"`
	CurrentStageIndex int        `json:"current_stage_index" gorm:"not null;default:0"`
	SpecSnapshot      JSONB      `json:"spec_snapshot" gorm:"type:jsonb"`
	RoutingVersionID  string     `json:"routing_version_id" gorm:"size:32;not null;index"`
	CreatedBy         string     `json:"created_by" gorm:"size:32;not null"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// 关联
	RoutingVersion *RoutingVersion `json:"routing_version,omitempty" gorm:"foreignKey:RoutingVersionID"`
	StageLogs      []WOStageLog    `json:"stage_logs,omitempty" gorm:"foreignKey:WorkOrderID"`
}

func (WorkOrder) TableName() string {
	return "mes_work_orders"
}

// 工序事件
const (
	StageEventStart    = "START"
	StageEventPause    = "PAUSE"
	StageEventComplete = "COMPLETE"
)

// WOStageLog 工序事件日志，只追加不修改，是工时与进度的唯一事实来源。
type WOStageLog struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID   string    `json:"work_order_id" gorm:"size:32;not null;index"`
	StageSequence int       `json:"stage_sequence" gorm:"not null"`
	StageCode     string    `json:"stage_code" gorm:"size:32;not null"`
	Event         string    `json:"event" gorm:"size:16;not null"`
	StationID     string    `json:"station_id" gorm:"size:32;not null;index"`
	UserID        string    `json:"user_id" gorm:"size:32;not null;index"`
	GoodQty       int       `json:"good_qty" gorm:"default:0"`
	ScrapQty      int       `json:"scrap_qty" gorm:"default:0"`
	Note          string    `json:"note" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`
}

func (WOStageLog) TableName() string {
	return "mes_wo_stage_logs"
}

// 快照原因
const (
	SnapshotReasonCancel  = "cancel"
	SnapshotReasonRestore = "restore"
)

// WorkOrderSnapshot 工单版本快照（取消/恢复时落盘，带schema哈希便于消费方识别结构漂移）
type WorkOrderSnapshot struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID   string    `json:"work_order_id" gorm:"size:32;not null;index"`
	Reason        string    `json:"reason" gorm:"size:16;not null"`
	SchemaVersion int       `json:"schema_version" gorm:"not null"`
	SchemaHash    string    `json:"schema_hash" gorm:"size:64;not null"`
	Payload       JSONB     `json:"payload" gorm:"type:jsonb;not null"`
	CreatedBy     string    `json:"created_by" gorm:"size:32"`
	CreatedAt     time.Time `json:"created_at"`
}

func (WorkOrderSnapshot) TableName() string {
	return "mes_work_order_snapshots"
}

// WONote 工单备注
type WONote struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID string    `json:"work_order_id" gorm:"size:32;not null;index"`
	AuthorID    string    `json:"author_id" gorm:"size:32;not null"`
	Body        string    `json:"body" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at"`

	// 关联
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

func (WONote) TableName() string {
	return "mes_wo_notes"
}

// WOAttachment 工单附件（实际文件存MinIO，这里只记元数据）
type WOAttachment struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	WorkOrderID string    `json:"work_order_id" gorm:"size:32;not null;index"`
	FileName    string    `json:"file_name" gorm:"size:256;not null"`
	ObjectKey   string    `json:"object_key" gorm:"size:512;not null"`
	FileSize    int64     `json:"file_size" gorm:"default:0"`
	ContentType string    `json:"content_type" gorm:"size:128"`
	UploadedBy  string    `json:"uploaded_by" gorm:"size:32;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (WOAttachment) TableName() string {
	return "mes_wo_attachments"
}
