package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"talent-bridge-go/internal/config"
	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/tracing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var minioTracer = otel.Tracer("talent-bridge-go/storage/minio")

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadFile 上传对象到指定存储桶
	UploadFile(ctx context.Context, bucket, objectKey string, reader io.Reader, size int64, contentType string) error
	// DownloadFile 下载对象，对象不存在时返回 ErrNotFound
	DownloadFile(ctx context.Context, bucket, objectKey string) ([]byte, error)
	// DeleteFile 删除对象
	DeleteFile(ctx context.Context, bucket, objectKey string) error
}

var _ ObjectStorage = (*MinIO)(nil)

// MinIO 简历原件与暂存文件的对象存储
type MinIO struct {
	client        *minio.Client
	cfg           *config.MinIOConfig
	cvBucket      string
	stagingBucket string
}

// NewMinIO 创建MinIO客户端并确保存储桶存在
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:        client,
		cfg:           cfg,
		cvBucket:      defaultString(cfg.CVBucket, "cvs"),
		stagingBucket: defaultString(cfg.StagingBucket, "cv-staging"),
	}

	ctx := context.Background()
	for _, bucket := range []string{m.cvBucket, m.stagingBucket} {
		if err := m.ensureBucketExists(ctx, bucket, cfg.Location); err != nil {
			return nil, err
		}
	}

	// 暂存文件按请求删除，生命周期规则只用于兜底清理
	if cfg.StagingExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.stagingBucket, "expire-staging", cfg.StagingExpireDays); err != nil {
			logger.Warn().Err(err).Str("bucket", m.stagingBucket).Msg("设置暂存存储桶生命周期失败")
		}
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("cv_bucket", m.cvBucket).Str("staging_bucket", m.stagingBucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// CVBucket 简历原件存储桶
func (m *MinIO) CVBucket() string {
	return m.cvBucket
}

// StagingBucket 临时文件存储桶
func (m *MinIO) StagingBucket() string {
	return m.stagingBucket
}

func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		logger.Debug().Str("bucket", bucketName).Msg("存储桶已存在")
		return nil
	}
	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	logger.Info().Str("bucket", bucketName).Msg("存储桶创建成功")
	return nil
}

func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, cfg)
}

func (m *MinIO) startSpan(ctx context.Context, op, bucket, objectKey string) (context.Context, trace.Span) {
	return minioTracer.Start(ctx, "minio."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("minio.bucket", bucket),
			attribute.String("minio.object", objectKey),
		))
}

// UploadFile 上传对象
func (m *MinIO) UploadFile(ctx context.Context, bucket, objectKey string, reader io.Reader, size int64, contentType string) error {
	ctx, span := m.startSpan(ctx, "put", bucket, objectKey)
	defer span.End()

	info, err := m.client.PutObject(ctx, bucket, objectKey, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return fmt.Errorf("上传对象 %s/%s 失败: %w", bucket, objectKey, err)
	}
	span.SetAttributes(attribute.Int64("minio.size", info.Size))
	logger.Ctx(ctx).Debug().Str("bucket", bucket).Str("object", objectKey).Int64("size", info.Size).Msg("对象上传成功")
	return nil
}

// DownloadFile 下载对象
func (m *MinIO) DownloadFile(ctx context.Context, bucket, objectKey string) ([]byte, error) {
	ctx, span := m.startSpan(ctx, "get", bucket, objectKey)
	defer span.End()

	obj, err := m.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucket, objectKey, err)
	}
	defer obj.Close()

	// GetObject 是惰性的，对象不存在要到读取时才暴露
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", bucket, objectKey, err)
	}
	span.SetAttributes(attribute.Int("minio.size", len(data)))
	return data, nil
}

// DeleteFile 删除对象
func (m *MinIO) DeleteFile(ctx context.Context, bucket, objectKey string) error {
	ctx, span := m.startSpan(ctx, "remove", bucket, objectKey)
	defer span.End()

	if err := m.client.RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return fmt.Errorf("删除对象 %s/%s 失败: %w", bucket, objectKey, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// GetContentType 根据扩展名推断Content-Type
func GetContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
