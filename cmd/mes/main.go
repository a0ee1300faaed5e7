package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/handler"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-mes service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	// AutoMigrate补不齐的部分用裸SQL补
	db.Exec("CREATE INDEX IF NOT EXISTS idx_wo_stage_logs_station_time ON mes_wo_stage_logs(station_id, created_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_work_orders_status ON mes_work_orders(status)")

	// 种子管理员，首次启动后应立即改密码
	seedAdminUser(db, zapLogger)

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb, cfg)
	handlers := handler.NewHandlers(services, repos, cfg)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// seedAdminUser 库里一个用户都没有时种一个admin/admin123
func seedAdminUser(db *gorm.DB, zapLogger *zap.Logger) {
	var count int64
	if err := db.Model(&entity.User{}).Count(&count).Error; err != nil || count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	admin := &entity.User{
		ID:           uuid.New().String()[:32],
		Username:     "admin",
		PasswordHash: string(hash),
		Name:         "系统管理员",
		Email:        "admin@example.com",
		Role:         entity.RoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(admin).Error; err != nil {
		zapLogger.Warn("Failed to seed admin user", zap.Error(err))
		return
	}
	zapLogger.Info("Seeded default admin user", zap.String("username", "admin"))
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// SSE 实时推送（需要认证，支持 query param token）
		events := v1.Group("/events")
		events.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			events.GET("/stream", h.SSE.Stream)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 当前用户
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户管理（仅管理员可写）
			users := authorized.Group("/users")
			{
				users.GET("", h.User.List)
				users.GET("/:id", h.User.Get)
				users.POST("", middleware.RequireRole(), h.User.Create)
				users.PUT("/:id", middleware.RequireRole(), h.User.Update)
				users.DELETE("/:id", middleware.RequireRole(), h.User.Deactivate)
			}

			// 组织结构（管理员维护，其他角色只读）
			adminOnly := middleware.RequireRole()

			departments := authorized.Group("/departments")
			{
				departments.GET("", h.Org.ListDepartments)
				departments.GET("/:id", h.Org.GetDepartment)
				departments.POST("", adminOnly, h.Org.CreateDepartment)
				departments.PUT("/:id", adminOnly, h.Org.UpdateDepartment)
				departments.DELETE("/:id", adminOnly, h.Org.DeactivateDepartment)
			}

			workCenters := authorized.Group("/work-centers")
			{
				workCenters.GET("", h.Org.ListWorkCenters)
				workCenters.GET("/:id", h.Org.GetWorkCenter)
				workCenters.POST("", adminOnly, h.Org.CreateWorkCenter)
				workCenters.PUT("/:id", adminOnly, h.Org.UpdateWorkCenter)
				workCenters.DELETE("/:id", adminOnly, h.Org.DeactivateWorkCenter)
			}

			stations := authorized.Group("/stations")
			{
				stations.GET("", h.Org.ListStations)
				stations.GET("/:id", h.Org.GetStation)
				stations.POST("", adminOnly, h.Org.CreateStation)
				stations.PUT("/:id", adminOnly, h.Org.UpdateStation)
				stations.DELETE("/:id", adminOnly, h.Org.DeactivateStation)

				// 工位人工指标
				stations.GET("/:id/metrics", h.Metrics.Get)
				stations.POST("/:id/metrics/recalculate", middleware.RequireRole("supervisor"), h.Metrics.Recalculate)
			}

			equipment := authorized.Group("/equipment")
			{
				equipment.GET("", h.Org.ListEquipment)
				equipment.GET("/:id", h.Org.GetEquipment)
				equipment.POST("", adminOnly, h.Org.CreateEquipment)
				equipment.PUT("/:id", adminOnly, h.Org.UpdateEquipment)
				equipment.POST("/:id/unassign", adminOnly, h.Org.UnassignEquipment)
				equipment.DELETE("/:id", adminOnly, h.Org.DeactivateEquipment)
			}

			// 工艺路线版本
			routings := authorized.Group("/routing-versions")
			{
				routings.GET("", h.Routing.List)
				routings.GET("/:id", h.Routing.Get)
				routings.POST("", middleware.RequireRole("supervisor"), h.Routing.Create)
				routings.POST("/:id/clone", middleware.RequireRole("supervisor"), h.Routing.Clone)
				routings.DELETE("/:id", adminOnly, h.Routing.Deactivate)
			}

			// 工单
			workOrders := authorized.Group("/work-orders")
			{
				workOrders.GET("", h.WorkOrder.List)
				workOrders.GET("/export", middleware.RequireRole("supervisor"), h.WorkOrder.Export)
				workOrders.GET("/:id", h.WorkOrder.Get)
				workOrders.POST("", middleware.RequireRole("supervisor"), h.WorkOrder.Create)

				// 状态流转（主管以上）
				workOrders.POST("/:id/release", middleware.RequireRole("supervisor"), h.WorkOrder.Release)
				workOrders.POST("/:id/hold", middleware.RequireRole("supervisor"), h.WorkOrder.Hold)
				workOrders.POST("/:id/unhold", middleware.RequireRole("supervisor"), h.WorkOrder.Unhold)
				workOrders.POST("/:id/cancel", middleware.RequireRole("supervisor"), h.WorkOrder.Cancel)
				workOrders.POST("/:id/restore", middleware.RequireRole("supervisor"), h.WorkOrder.Restore)
				workOrders.POST("/:id/close", middleware.RequireRole("supervisor"), h.WorkOrder.Close)

				// 工序事件（操作工在工位上打的）
				workOrders.POST("/:id/stage-logs", h.WorkOrder.RecordStageLog)
				workOrders.GET("/:id/stage-logs", h.WorkOrder.ListStageLogs)
				workOrders.GET("/:id/current-stage", h.WorkOrder.CurrentStage)
				workOrders.GET("/:id/snapshots", middleware.RequireRole("supervisor"), h.WorkOrder.ListSnapshots)

				// 备注与附件
				workOrders.POST("/:id/notes", h.Note.CreateNote)
				workOrders.GET("/:id/notes", h.Note.ListNotes)
				workOrders.POST("/:id/attachments/presign", h.Note.PresignUpload)
				workOrders.POST("/:id/attachments", h.Note.ConfirmAttachment)
				workOrders.GET("/:id/attachments", h.Note.ListAttachments)
			}

			// 附件下载
			authorized.GET("/attachments/:id/download-url", h.Note.AttachmentDownloadURL)

			// 批量指标重算
			authorized.POST("/metrics/recalculate-all", middleware.RequireRole("supervisor"), h.Metrics.RecalculateAll)
		}
	}
}
