package service

import (
	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// Services 服务集合
type Services struct {
	Auth       *AuthService
	User       *UserService
	Org        *OrgService
	Routing    *RoutingService
	WorkOrder  *WorkOrderService
	Metrics    *MetricsService
	Export     *ExportService
	Attachment *AttachmentService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			// MinIO不可用时附件功能降级，其余功能不受影响
			minioClient = nil
		}
	}

	workOrderSvc := NewWorkOrderService(repos.WorkOrder, repos.StageLog, repos.Routing)

	return &Services{
		Auth:       NewAuthService(repos.User, rdb, cfg),
		User:       NewUserService(repos.User),
		Org:        NewOrgService(repos.Org),
		Routing:    NewRoutingService(repos.Routing),
		WorkOrder:  workOrderSvc,
		Metrics:    NewMetricsService(repos.Org, repos.StageLog, repos.User, repos.Metrics, rdb),
		Export:     NewExportService(repos.WorkOrder),
		Attachment: NewAttachmentService(repos.Attachment, minioClient, cfg.MinIO.Bucket),
	}
}
