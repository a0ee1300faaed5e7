package service

import (
	"context"
	"fmt"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

type CreateUserRequest struct {
	Username     string  `json:"username" binding:"required"`
	Password     string  `json:"password" binding:"required,min=6"`
	Name         string  `json:"name" binding:"required"`
	Email        string  `json:"email" binding:"required,email"`
	Role         string  `json:"role" binding:"required,oneof=admin supervisor operator"`
	DepartmentID string  `json:"department_id"`
	HourlyRate   float64 `json:"hourly_rate" binding:"min=0"`
}

func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	if existing, _ := s.repo.FindByUsername(ctx, req.Username); existing != nil {
		return nil, fmt.Errorf("用户名已存在: %s", req.Username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}
	user := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		HourlyRate:   req.HourlyRate,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, keyword string) ([]entity.User, error) {
	if keyword != "" {
		return s.repo.Search(ctx, keyword)
	}
	return s.repo.ListActive(ctx)
}

type UpdateUserRequest struct {
	Name         *string  `json:"name"`
	Email        *string  `json:"email"`
	Role         *string  `json:"role"`
	DepartmentID *string  `json:"department_id"`
	HourlyRate   *float64 `json:"hourly_rate"`
	Password     *string  `json:"password"`
}

// Update 更新用户。改小时工资只影响之后的指标重算，历史日志不回写。
func (s *UserService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		switch *req.Role {
		case entity.RoleAdmin, entity.RoleSupervisor, entity.RoleOperator:
			user.Role = *req.Role
		default:
			return nil, fmt.Errorf("无效的角色: %s", *req.Role)
		}
	}
	if req.DepartmentID != nil {
		user.DepartmentID = *req.DepartmentID
	}
	if req.HourlyRate != nil {
		if *req.HourlyRate < 0 {
			return nil, fmt.Errorf("小时工资不能为负数")
		}
		user.HourlyRate = *req.HourlyRate
	}
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("密码加密失败: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("更新用户失败: %w", err)
	}
	return user, nil
}

// Deactivate 停用用户。还在未完结工单里记过工的操作工不能直接停用。
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountOpenStageLogs(ctx, id)
	if err != nil {
		return fmt.Errorf("检查用户工序记录失败: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("用户在进行中的工单里还有%d条工序记录，不能停用", count)
	}
	user.IsActive = false
	return s.repo.Update(ctx, user)
}
