package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/mes/snapshot"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

func setupWorkOrderTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	woSvc := service.NewWorkOrderService(repos.WorkOrder, repos.StageLog, repos.Routing)
	exportSvc := service.NewExportService(repos.WorkOrder)
	h := NewWorkOrderHandler(woSvc, exportSvc)

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/work-orders", h.Create)
	api.GET("/work-orders", h.List)
	api.GET("/work-orders/:id", h.Get)
	api.POST("/work-orders/:id/release", h.Release)
	api.POST("/work-orders/:id/hold", h.Hold)
	api.POST("/work-orders/:id/unhold", h.Unhold)
	api.POST("/work-orders/:id/cancel", h.Cancel)
	api.POST("/work-orders/:id/restore", h.Restore)
	api.POST("/work-orders/:id/stage-logs", h.RecordStageLog)
	api.GET("/work-orders/:id/stage-logs", h.ListStageLogs)
	api.GET("/work-orders/:id/current-stage", h.CurrentStage)
	api.GET("/work-orders/:id/snapshots", h.ListSnapshots)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func createTestWO(t *testing.T, env *testutil.TestEnv, token string) string {
	t.Helper()
	testutil.SeedRoutingVersion(t, env.DB, "rv-001", "HULL-STD", []string{"LAYUP", "ASSEMBLY", "QC"})
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders", map[string]interface{}{
		"hull_id":      "HULL-2025-001",
		"product_sku":  "BOAT-T7",
		"qty":          1,
		"routing_code": "HULL-STD",
		"spec_snapshot": map[string]interface{}{
			"color": "navy",
		},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create WO: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["status"] != entity.WOStatusPlanned {
		t.Fatalf("new WO status = %v, want PLANNED", data["status"])
	}
	return data["id"].(string)
}

func TestWorkOrderLifecycle(t *testing.T) {
	env := setupWorkOrderTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin, 0)
	testutil.SeedStation(t, env.DB, "st-001", "ST01")
	woID := createTestWO(t, env, token)

	// PLANNED → RELEASED
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/release", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("release: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 重复下达被拒
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/release", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("double release: expected 400, got %d", w.Code)
	}

	// START推进到IN_PROGRESS
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/stage-logs", map[string]interface{}{
		"event":      "START",
		"station_id": "st-001",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	wo := resp["data"].(map[string]interface{})["work_order"].(map[string]interface{})
	if wo["status"] != entity.WOStatusInProgress {
		t.Errorf("after START status = %v, want IN_PROGRESS", wo["status"])
	}

	// 三道工序逐个COMPLETE
	for i := 0; i < 3; i++ {
		w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/stage-logs", map[string]interface{}{
			"event":      "COMPLETE",
			"station_id": "st-001",
			"good_qty":   1,
		}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("complete stage %d: expected 201, got %d: %s", i, w.Code, w.Body.String())
		}
	}
	resp = testutil.ParseResponse(w)
	wo = resp["data"].(map[string]interface{})["work_order"].(map[string]interface{})
	if wo["status"] != entity.WOStatusCompleted {
		t.Errorf("after last COMPLETE status = %v, want COMPLETED", wo["status"])
	}
	if wo["current_stage_index"].(float64) != 3 {
		t.Errorf("current_stage_index = %v, want 3", wo["current_stage_index"])
	}

	// 完工后的工单不再接受工序事件
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/stage-logs", map[string]interface{}{
		"event":      "START",
		"station_id": "st-001",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("event on COMPLETED: expected 400, got %d", w.Code)
	}
}

func TestWorkOrderHoldRequiresReason(t *testing.T) {
	env := setupWorkOrderTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin, 0)
	woID := createTestWO(t, env, token)

	testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/release", nil, token)

	// 没有原因不给挂
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/hold", map[string]interface{}{}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("hold without reason: expected 400, got %d", w.Code)
	}

	// 带原因挂起
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/hold", map[string]interface{}{
		"reason": "缺料",
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("hold: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["status"] != entity.WOStatusHold {
		t.Errorf("status = %v, want HOLD", data["status"])
	}
	if data["hold_reason"] != "缺料" {
		t.Errorf("hold_reason = %v", data["hold_reason"])
	}

	// 挂起中不接受工序事件
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/stage-logs", map[string]interface{}{
		"event":      "START",
		"station_id": "st-hold",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("stage log on HOLD: expected 400, got %d", w.Code)
	}

	// 解挂回到RELEASED
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/unhold", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("unhold: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	data = resp["data"].(map[string]interface{})
	if data["status"] != entity.WOStatusReleased {
		t.Errorf("after unhold status = %v, want RELEASED", data["status"])
	}
}

func TestWorkOrderHoldIllegalStates(t *testing.T) {
	env := setupWorkOrderTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin, 0)
	woID := createTestWO(t, env, token)

	// PLANNED不能挂
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/hold", map[string]interface{}{
		"reason": "试一下",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("hold on PLANNED: expected 400, got %d", w.Code)
	}

	// 完工后不能挂
	env.DB.Model(&entity.WorkOrder{}).Where("id = ?", woID).Update("status", entity.WOStatusCompleted)
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/hold", map[string]interface{}{
		"reason": "太晚了",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("hold on COMPLETED: expected 400, got %d", w.Code)
	}
}

func TestWorkOrderCancelAndRestore(t *testing.T) {
	env := setupWorkOrderTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin, 0)
	woID := createTestWO(t, env, token)

	// 取消
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/cancel", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// 重复取消被拒
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/cancel", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("double cancel: expected 400, got %d", w.Code)
	}

	// 恢复回PLANNED
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/restore", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("restore: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["data"].(map[string]interface{})["status"] != entity.WOStatusPlanned {
		t.Errorf("after restore status = %v, want PLANNED", resp["data"].(map[string]interface{})["status"])
	}

	// 取消+恢复各落一条快照，schema_hash与当前进程常量一致
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/work-orders/"+woID+"/snapshots", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshots: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = testutil.ParseResponse(w)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("snapshot count = %d, want 2", len(items))
	}
	for _, it := range items {
		snap := it.(map[string]interface{})
		if snap["schema_hash"] != snapshot.WorkOrderSnapshotSchemaHash {
			t.Errorf("schema_hash = %v, want %v", snap["schema_hash"], snapshot.WorkOrderSnapshotSchemaHash)
		}
		if int(snap["schema_version"].(float64)) != snapshot.WorkOrderSnapshotVersion {
			t.Errorf("schema_version = %v, want %d", snap["schema_version"], snapshot.WorkOrderSnapshotVersion)
		}
		payload := snap["payload"].(map[string]interface{})
		if payload["hull_id"] != "HULL-2025-001" {
			t.Errorf("payload hull_id = %v", payload["hull_id"])
		}
	}

	// 完工工单不能取消
	env.DB.Model(&entity.WorkOrder{}).Where("id = ?", woID).Update("status", entity.WOStatusCompleted)
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/cancel", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("cancel on COMPLETED: expected 400, got %d", w.Code)
	}
}

func TestWorkOrderCurrentStage(t *testing.T) {
	env := setupWorkOrderTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin, 0)
	testutil.SeedStation(t, env.DB, "st-002", "ST02")
	woID := createTestWO(t, env, token)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/work-orders/"+woID+"/current-stage", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("current-stage: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["total_stages"].(float64) != 3 {
		t.Errorf("total_stages = %v, want 3", data["total_stages"])
	}
	stage := data["current_stage"].(map[string]interface{})
	if stage["code"] != "LAYUP" {
		t.Errorf("current stage code = %v, want LAYUP", stage["code"])
	}

	// 完成一道工序后指向下一道
	testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/release", nil, token)
	testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/stage-logs", map[string]interface{}{
		"event":      "START",
		"station_id": "st-002",
	}, token)
	testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/stage-logs", map[string]interface{}{
		"event":      "COMPLETE",
		"station_id": "st-002",
	}, token)

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/work-orders/"+woID+"/current-stage", nil, token)
	resp = testutil.ParseResponse(w)
	data = resp["data"].(map[string]interface{})
	stage = data["current_stage"].(map[string]interface{})
	if stage["code"] != "ASSEMBLY" {
		t.Errorf("after COMPLETE current stage = %v, want ASSEMBLY", stage["code"])
	}
}

func TestWorkOrderCreateRequiresActiveRouting(t *testing.T) {
	env := setupWorkOrderTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin, 0)

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders", map[string]interface{}{
		"hull_id":      "HULL-X",
		"product_sku":  "BOAT-X",
		"qty":          1,
		"routing_code": "NO-SUCH-ROUTE",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing routing, got %d", w.Code)
	}
}

func TestWorkOrderStageLogsAppendOnly(t *testing.T) {
	env := setupWorkOrderTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedUser(t, env.DB, "test-user-001", "Test Admin", entity.RoleAdmin, 0)
	testutil.SeedStation(t, env.DB, "st-003", "ST03")
	woID := createTestWO(t, env, token)

	testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/release", nil, token)
	testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/stage-logs", map[string]interface{}{
		"event": "START", "station_id": "st-003",
	}, token)
	testutil.DoRequest(env.Router, "POST", "/api/v1/work-orders/"+woID+"/stage-logs", map[string]interface{}{
		"event": "PAUSE", "station_id": "st-003", "note": "午休",
	}, token)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/work-orders/"+woID+"/stage-logs", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("list logs: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("log count = %d, want 2", len(items))
	}
	first := items[0].(map[string]interface{})
	if first["event"] != "START" || first["stage_code"] != "LAYUP" {
		t.Errorf("first log = %v", first)
	}
}
