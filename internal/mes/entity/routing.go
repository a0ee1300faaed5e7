package entity

import (
	"sort"
	"time"
)

// RoutingVersion 工艺路线版本。
// 一旦被任何工单引用即不可变，调整工序时克隆出新版本（revision+1）。
type RoutingVersion struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Code      string    `json:"code" gorm:"size:32;not null;index"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Revision  int       `json:"revision" gorm:"not null;default:1"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	Stages []RoutingStage `json:"stages,omitempty" gorm:"foreignKey:RoutingVersionID"`
}

func (RoutingVersion) TableName() string {
	return "mes_routing_versions"
}

// EnabledStages 返回启用的工序，按sequence升序。
// 工单的current_stage_index即该切片的下标。
func (v *RoutingVersion) EnabledStages() []RoutingStage {
	var stages []RoutingStage
	for _, s := range v.Stages {
		if s.Enabled {
			stages = append(stages, s)
		}
	}
	sort.Slice(stages, func(i, j int) bool {
		return stages[i].Sequence < stages[j].Sequence
	})
	return stages
}

// RoutingStage 工序（层压、合模、舾装等）
type RoutingStage struct {
	ID                   string    `json:"id" gorm:"primaryKey;size:32"`
	RoutingVersionID     string    `json:"routing_version_id" gorm:"size:32;not null;index"`
	Sequence             int       `json:"sequence" gorm:"not null"`
	Code                 string    `json:"code" gorm:"size:32;not null"`
	Name                 string    `json:"name" gorm:"size:128;not null"`
	WorkCenterID         string    `json:"work_center_id" gorm:"size:32;index"`
	StandardStageSeconds int       `json:"standard_stage_seconds" gorm:"default:0"`
	Enabled              bool      `json:"enabled" gorm:"not null;default:true"`
	CreatedAt            time.Time `json:"created_at"`
}

func (RoutingStage) TableName() string {
	return "mes_routing_stages"
}
