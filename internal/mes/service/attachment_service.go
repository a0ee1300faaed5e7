package service

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// 预签名URL有效期
const presignExpiry = 15 * time.Minute

// AttachmentService 工单附件。文件本体走MinIO预签名直传，
// 服务端只发URL和记元数据，不经手文件内容。
type AttachmentService struct {
	repo        *repository.AttachmentRepository
	minioClient *minio.Client
	bucket      string
}

func NewAttachmentService(repo *repository.AttachmentRepository, minioClient *minio.Client, bucket string) *AttachmentService {
	return &AttachmentService{repo: repo, minioClient: minioClient, bucket: bucket}
}

type PresignUploadRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size" binding:"min=0"`
}

type PresignUploadResult struct {
	ObjectKey string `json:"object_key"`
	UploadURL string `json:"upload_url"`
	ExpiresIn int    `json:"expires_in"`
}

// PresignUpload 生成直传MinIO的预签名PUT地址。
// 客户端拿到URL后自己PUT文件，上传完成再调Confirm登记元数据。
func (s *AttachmentService) PresignUpload(ctx context.Context, woID string, req *PresignUploadRequest) (*PresignUploadResult, error) {
	if s.minioClient == nil {
		return nil, fmt.Errorf("对象存储未配置，附件功能不可用")
	}

	objectKey := fmt.Sprintf("work-orders/%s/%s/%s%s",
		woID, time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(req.FileName))

	uploadURL, err := s.minioClient.PresignedPutObject(ctx, s.bucket, objectKey, presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("生成预签名上传地址失败: %w", err)
	}

	return &PresignUploadResult{
		ObjectKey: objectKey,
		UploadURL: uploadURL.String(),
		ExpiresIn: int(presignExpiry.Seconds()),
	}, nil
}

type ConfirmAttachmentRequest struct {
	ObjectKey   string `json:"object_key" binding:"required"`
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size" binding:"min=0"`
}

// Confirm 上传完成后登记附件元数据。先StatObject确认文件确实传上去了。
func (s *AttachmentService) Confirm(ctx context.Context, woID, userID string, req *ConfirmAttachmentRequest) (*entity.WOAttachment, error) {
	if s.minioClient == nil {
		return nil, fmt.Errorf("对象存储未配置，附件功能不可用")
	}
	if _, err := s.minioClient.StatObject(ctx, s.bucket, req.ObjectKey, minio.StatObjectOptions{}); err != nil {
		return nil, fmt.Errorf("对象不存在，请先完成上传: %w", err)
	}

	att := &entity.WOAttachment{
		ID:          uuid.New().String()[:32],
		WorkOrderID: woID,
		FileName:    req.FileName,
		ObjectKey:   req.ObjectKey,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
		UploadedBy:  userID,
	}
	if err := s.repo.Create(ctx, att); err != nil {
		return nil, fmt.Errorf("登记附件失败: %w", err)
	}
	return att, nil
}

// DownloadURL 生成预签名GET地址，带原始文件名的下载头
func (s *AttachmentService) DownloadURL(ctx context.Context, attachmentID string) (string, error) {
	if s.minioClient == nil {
		return "", fmt.Errorf("对象存储未配置，附件功能不可用")
	}
	att, err := s.repo.FindByID(ctx, attachmentID)
	if err != nil {
		return "", fmt.Errorf("附件不存在: %w", err)
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="%s"`, att.FileName))
	downloadURL, err := s.minioClient.PresignedGetObject(ctx, s.bucket, att.ObjectKey, presignExpiry, params)
	if err != nil {
		return "", fmt.Errorf("生成预签名下载地址失败: %w", err)
	}
	return downloadURL.String(), nil
}

func (s *AttachmentService) List(ctx context.Context, woID string) ([]entity.WOAttachment, error) {
	return s.repo.ListByWorkOrder(ctx, woID)
}
