package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

func setupRoutingTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	h := NewRoutingHandler(service.NewRoutingService(repos.Routing))

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/routing-versions", h.Create)
	api.GET("/routing-versions", h.List)
	api.GET("/routing-versions/:id", h.Get)
	api.POST("/routing-versions/:id/clone", h.Clone)
	api.DELETE("/routing-versions/:id", h.Deactivate)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestRoutingVersionCreate(t *testing.T) {
	env := setupRoutingTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/routing-versions", map[string]interface{}{
		"code": "HULL-STD",
		"name": "标准船体路线",
		"stages": []map[string]interface{}{
			{"sequence": 10, "code": "LAYUP", "name": "层压", "standard_stage_seconds": 28800},
			{"sequence": 20, "code": "QC", "name": "检验", "standard_stage_seconds": 3600},
		},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["revision"].(float64) != 1 {
		t.Errorf("revision = %v, want 1", data["revision"])
	}
	if data["is_active"] != true {
		t.Errorf("new version should be active")
	}

	// 同编码已有启用版本时再建被拒，只能克隆
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/routing-versions", map[string]interface{}{
		"code": "HULL-STD",
		"name": "另一条",
		"stages": []map[string]interface{}{
			{"sequence": 10, "code": "X", "name": "x"},
		},
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate active code: expected 400, got %d", w.Code)
	}
}

func TestRoutingVersionRejectsDuplicateSequence(t *testing.T) {
	env := setupRoutingTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/routing-versions", map[string]interface{}{
		"code": "DUP-SEQ",
		"name": "重复序号",
		"stages": []map[string]interface{}{
			{"sequence": 10, "code": "A", "name": "a"},
			{"sequence": 10, "code": "B", "name": "b"},
		},
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRoutingCloneKeepsSourceImmutable(t *testing.T) {
	env := setupRoutingTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedRoutingVersion(t, env.DB, "rv-clone-src", "HULL-V1", []string{"LAYUP", "QC"})

	// 一张工单引用了源版本
	wo := &entity.WorkOrder{
		ID: "wo-ref-001", WONumber: "WO-REF-001", HullID: "H1", ProductSKU: "S1",
		Qty: 1, Status: entity.WOStatusPlanned, RoutingVersionID: "rv-clone-src", CreatedBy: "u1",
	}
	if err := env.DB.Create(wo).Error; err != nil {
		t.Fatalf("seed WO: %v", err)
	}

	// 克隆出revision 2
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/routing-versions/rv-clone-src/clone", map[string]interface{}{
		"stages": []map[string]interface{}{
			{"sequence": 10, "code": "LAYUP", "name": "层压"},
			{"sequence": 15, "code": "MOLD", "name": "合模"},
			{"sequence": 20, "code": "QC", "name": "检验"},
		},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("clone: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["revision"].(float64) != 2 {
		t.Errorf("clone revision = %v, want 2", data["revision"])
	}
	if data["code"] != "HULL-V1" {
		t.Errorf("clone code = %v, want HULL-V1", data["code"])
	}
	stages := data["stages"].([]interface{})
	if len(stages) != 3 {
		t.Errorf("clone stage count = %d, want 3", len(stages))
	}

	// 源版本停用但工序原封不动，历史工单照旧
	var src entity.RoutingVersion
	if err := env.DB.Preload("Stages").Where("id = ?", "rv-clone-src").First(&src).Error; err != nil {
		t.Fatalf("reload source: %v", err)
	}
	if src.IsActive {
		t.Error("source version should be deactivated after clone")
	}
	if len(src.Stages) != 2 {
		t.Errorf("source stage count = %d, want 2 (unchanged)", len(src.Stages))
	}

	// 工单依然指向源版本
	var refreshed entity.WorkOrder
	env.DB.Where("id = ?", wo.ID).First(&refreshed)
	if refreshed.RoutingVersionID != "rv-clone-src" {
		t.Errorf("WO routing_version_id = %v, want rv-clone-src", refreshed.RoutingVersionID)
	}
}
