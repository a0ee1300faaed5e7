package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
)

// JSONB JSONB类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

// AutoMigrate 自动迁移所有MES表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 组织结构
		&Department{},
		&WorkCenter{},
		&Station{},
		&Equipment{},
		&User{},

		// 工艺路线
		&RoutingVersion{},
		&RoutingStage{},

		// 工单
		&WorkOrder{},
		&WOStageLog{},
		&WorkOrderSnapshot{},

		// 指标
		&StationMetrics{},

		// 备注与附件
		&WONote{},
		&WOAttachment{},
	)
}
