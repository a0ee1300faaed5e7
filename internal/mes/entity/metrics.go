package entity

import (
	"time"
)

// StationMetrics 工位人工指标，按(工位, 周期起点)唯一。
// 由工序日志重放得出，重算覆盖旧值而不是合并。
type StationMetrics struct {
	ID                  string    `json:"id" gorm:"primaryKey;size:32"`
	StationID           string    `json:"station_id" gorm:"size:32;not null;uniqueIndex:uk_station_period"`
	PeriodStart         time.Time `json:"period_start" gorm:"not null;uniqueIndex:uk_station_period"`
	PeriodEnd           time.Time `json:"period_end" gorm:"not null"`
	WeightedAverageRate float64   `json:"weighted_average_rate" gorm:"type:decimal(12,4);not null"`
	TotalHoursWorked    float64   `json:"total_hours_worked" gorm:"type:decimal(12,4);not null"`
	TotalLaborCost      float64   `json:"total_labor_cost" gorm:"type:decimal(14,4);not null"`
	UniqueOperatorCount int       `json:"unique_operator_count" gorm:"not null"`
	CalculatedAt        time.Time `json:"calculated_at" gorm:"not null"`
}

func (StationMetrics) TableName() string {
	return "mes_station_metrics"
}
