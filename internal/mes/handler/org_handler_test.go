package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
)

func setupOrgTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router := testutil.SetupRouter()

	repos := repository.NewRepositories(db)
	h := NewOrgHandler(service.NewOrgService(repos.Org))

	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/departments", h.CreateDepartment)
	api.GET("/departments", h.ListDepartments)
	api.DELETE("/departments/:id", h.DeactivateDepartment)
	api.POST("/work-centers", h.CreateWorkCenter)
	api.POST("/stations", h.CreateStation)
	api.POST("/equipment", h.CreateEquipment)
	api.GET("/equipment", h.ListEquipment)
	api.POST("/equipment/:id/unassign", h.UnassignEquipment)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestOrgHierarchyAndSoftDelete(t *testing.T) {
	env := setupOrgTest(t)
	token := testutil.DefaultTestToken()

	// 建部门
	w := testutil.DoRequest(env.Router, "POST", "/api/v1/departments", map[string]interface{}{
		"code": "PROD", "name": "生产部",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create department: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	deptID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// 部门编码唯一
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/departments", map[string]interface{}{
		"code": "PROD", "name": "另一个生产部",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate code: expected 400, got %d", w.Code)
	}

	// 挂工作中心
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/work-centers", map[string]interface{}{
		"code": "LAMIN", "name": "层压工段", "department_id": deptID,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create work center: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	// 下面还有启用工作中心，部门不能停用
	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/departments/"+deptID, nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("deactivate department with centers: expected 400, got %d", w.Code)
	}

	// 列表默认不含停用
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/departments", nil, token)
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Errorf("department count = %d, want 1", len(items))
	}
}

func TestEquipmentAssignAndUnassign(t *testing.T) {
	env := setupOrgTest(t)
	token := testutil.DefaultTestToken()
	station := testutil.SeedStation(t, env.DB, "st-eq", "STEQ")

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/equipment", map[string]interface{}{
		"code": "CRANE-01", "name": "行车一号", "station_id": station.ID,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("create equipment: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	eqID := data["id"].(string)
	if data["station_id"] != station.ID {
		t.Errorf("station_id = %v, want %v", data["station_id"], station.ID)
	}

	// 摘除
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/equipment/"+eqID+"/unassign", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("unassign: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["station_id"] != nil {
		t.Errorf("after unassign station_id = %v, want null", data["station_id"])
	}

	// 重复摘除被拒
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/equipment/"+eqID+"/unassign", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("double unassign: expected 400, got %d", w.Code)
	}

	// 挂到不存在的工位被拒
	w = testutil.DoRequest(env.Router, "POST", "/api/v1/equipment", map[string]interface{}{
		"code": "CRANE-02", "name": "行车二号", "station_id": "no-such-station",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad station: expected 400, got %d", w.Code)
	}
}
