package entity

import (
	"time"
)

// Department 部门实体
type Department struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Department) TableName() string {
	return "mes_departments"
}

// WorkCenter 工作中心（船体工段：备料/层压/装配/检验/发运等）
type WorkCenter struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	Code         string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	DepartmentID string    `json:"department_id" gorm:"size:32;index"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 关联
	Department *Department `json:"department,omitempty" gorm:"foreignKey:DepartmentID"`
	Stations   []Station   `json:"stations,omitempty" gorm:"foreignKey:WorkCenterID"`
}

func (WorkCenter) TableName() string {
	return "mes_work_centers"
}

// Station 工位
type Station struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	Code         string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	WorkCenterID string    `json:"work_center_id" gorm:"size:32;not null;index"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 关联
	WorkCenter *WorkCenter `json:"work_center,omitempty" gorm:"foreignKey:WorkCenterID"`
	Equipment  []Equipment `json:"equipment,omitempty" gorm:"foreignKey:StationID"`
}

func (Station) TableName() string {
	return "mes_stations"
}

// 设备状态
const (
	EquipmentStatusAvailable   = "available"
	EquipmentStatusInUse       = "in_use"
	EquipmentStatusMaintenance = "maintenance"
)

// Equipment 设备（StationID为空表示未分配到工位）
type Equipment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	StationID *string   `json:"station_id" gorm:"size:32;index"`
	Status    string    `json:"status" gorm:"size:20;not null;default:available"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Station *Station `json:"station,omitempty" gorm:"foreignKey:StationID"`
}

func (Equipment) TableName() string {
	return "mes_equipment"
}
