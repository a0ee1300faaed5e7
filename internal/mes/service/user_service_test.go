package service

import (
	"context"
	"testing"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/testutil"
	"golang.org/x/crypto/bcrypt"
)

func TestUserCreateHashesPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	user, err := svc.Create(ctx, &CreateUserRequest{
		Username:   "zhangsan",
		Password:   "secret-pw",
		Name:       "张三",
		Email:      "zhangsan@test.com",
		Role:       entity.RoleOperator,
		HourlyRate: 28.5,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.PasswordHash == "secret-pw" {
		t.Error("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-pw")); err != nil {
		t.Errorf("hash does not verify: %v", err)
	}

	// 用户名唯一
	if _, err := svc.Create(ctx, &CreateUserRequest{
		Username: "zhangsan", Password: "another", Name: "李四",
		Email: "lisi@test.com", Role: entity.RoleOperator,
	}); err == nil {
		t.Error("expected error for duplicate username")
	}
}

func TestUserDeactivateBlockedByOpenWork(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	op := testutil.SeedUser(t, db, "op-busy", "忙碌操作工", entity.RoleOperator, 30)
	testutil.SeedRoutingVersion(t, db, "rv-u1", "R-U1", []string{"LAYUP"})

	// 进行中的工单里有这位操作工的日志
	wo := &entity.WorkOrder{
		ID: "wo-busy", WONumber: "WO-BUSY", HullID: "H", ProductSKU: "S", Qty: 1,
		Status: entity.WOStatusInProgress, RoutingVersionID: "rv-u1", CreatedBy: "x",
	}
	if err := db.Create(wo).Error; err != nil {
		t.Fatalf("seed WO: %v", err)
	}
	log := &entity.WOStageLog{
		ID: "log-busy", WorkOrderID: "wo-busy", StageSequence: 10, StageCode: "LAYUP",
		Event: "START", StationID: "st-x", UserID: op.ID,
	}
	if err := db.Create(log).Error; err != nil {
		t.Fatalf("seed log: %v", err)
	}

	if err := svc.Deactivate(ctx, op.ID); err == nil {
		t.Fatal("expected deactivate to be blocked")
	}

	// 工单完结后可以停用
	db.Model(&entity.WorkOrder{}).Where("id = ?", "wo-busy").Update("status", entity.WOStatusCompleted)
	if err := svc.Deactivate(ctx, op.ID); err != nil {
		t.Fatalf("deactivate after completion: %v", err)
	}

	var refreshed entity.User
	db.Where("id = ?", op.ID).First(&refreshed)
	if refreshed.IsActive {
		t.Error("user still active after deactivate")
	}
}

func TestUserUpdateRateDoesNotTouchHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	op := testutil.SeedUser(t, db, "op-rate", "调薪操作工", entity.RoleOperator, 20)

	newRate := 35.0
	updated, err := svc.Update(ctx, op.ID, &UpdateUserRequest{HourlyRate: &newRate})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.HourlyRate != 35 {
		t.Errorf("rate = %v, want 35", updated.HourlyRate)
	}

	negative := -1.0
	if _, err := svc.Update(ctx, op.ID, &UpdateUserRequest{HourlyRate: &negative}); err == nil {
		t.Error("expected error for negative rate")
	}
}
