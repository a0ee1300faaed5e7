// Package snapshot 定义工单快照的字段集合与schema哈希。
// 快照消费方通过比对哈希识别快照结构是否发生过不兼容变更。
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// WorkOrderSnapshotVersion 快照schema版本，字段列表变更时递增。
const WorkOrderSnapshotVersion = 1

// WorkOrderSnapshotFields 快照捕获的字段，顺序固定。
// 只增不改：调整含义或删除字段必须同时递增版本号。
var WorkOrderSnapshotFields = []string{
	"wo_number",
	"hull_id",
	"product_sku",
	"qty",
	"status",
	"priority",
	"planned_start_date",
	"planned_finish_date",
	"current_stage_index",
	"routing_version_id",
	"spec_snapshot",
}

// WorkOrderSnapshotSchemaHash 进程加载时计算一次，
// 同一份字段列表与版本常量下跨进程稳定。
var WorkOrderSnapshotSchemaHash = computeSchemaHash(WorkOrderSnapshotVersion, WorkOrderSnapshotFields)

func computeSchemaHash(version int, fields []string) string {
	payload, _ := json.Marshal(struct {
		Version int      `json:"version"`
		Fields  []string `json:"fields"`
	}{Version: version, Fields: fields})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
