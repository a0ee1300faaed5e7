package snapshot

import (
	"encoding/hex"
	"testing"
)

func TestSchemaHashIsStable(t *testing.T) {
	// 同一份字段列表多次计算哈希必须一致
	first := computeSchemaHash(WorkOrderSnapshotVersion, WorkOrderSnapshotFields)
	for i := 0; i < 3; i++ {
		again := computeSchemaHash(WorkOrderSnapshotVersion, WorkOrderSnapshotFields)
		if again != first {
			t.Errorf("hash changed between computations: %s != %s", again, first)
		}
	}
	if WorkOrderSnapshotSchemaHash != first {
		t.Errorf("package-level hash %s != computed %s", WorkOrderSnapshotSchemaHash, first)
	}
}

func TestSchemaHashIsHexSHA256(t *testing.T) {
	if len(WorkOrderSnapshotSchemaHash) != 64 {
		t.Fatalf("hash length = %d, want 64", len(WorkOrderSnapshotSchemaHash))
	}
	if _, err := hex.DecodeString(WorkOrderSnapshotSchemaHash); err != nil {
		t.Errorf("hash is not valid hex: %v", err)
	}
}

func TestSchemaHashChangesWithFields(t *testing.T) {
	// 字段列表变了哈希必须跟着变，消费方据此识别结构漂移
	modified := append([]string{}, WorkOrderSnapshotFields...)
	modified = append(modified, "extra_field")
	if computeSchemaHash(WorkOrderSnapshotVersion, modified) == WorkOrderSnapshotSchemaHash {
		t.Error("hash did not change when fields changed")
	}
}

func TestSchemaHashChangesWithVersion(t *testing.T) {
	if computeSchemaHash(WorkOrderSnapshotVersion+1, WorkOrderSnapshotFields) == WorkOrderSnapshotSchemaHash {
		t.Error("hash did not change when version changed")
	}
}

func TestSchemaHashOrderSensitive(t *testing.T) {
	// 字段顺序参与哈希，顺序固定是约定的一部分
	if len(WorkOrderSnapshotFields) < 2 {
		t.Skip("need at least two fields")
	}
	swapped := append([]string{}, WorkOrderSnapshotFields...)
	swapped[0], swapped[1] = swapped[1], swapped[0]
	if computeSchemaHash(WorkOrderSnapshotVersion, swapped) == WorkOrderSnapshotSchemaHash {
		t.Error("hash did not change when field order changed")
	}
}
