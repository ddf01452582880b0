package processor

import (
	"context"
	"io"

	"talent-bridge-go/internal/storage"
	"talent-bridge-go/internal/storage/models"
	"talent-bridge-go/internal/types"
)

//
// 文档解析相关接口
//

// TextDecoder 把文档载荷解码为纯文本，由 parser.Decoder 实现
type TextDecoder interface {
	Decode(ctx context.Context, payload []byte, format types.DocumentFormat) (string, error)
}

// ProfileExtractor 从纯文本中识别技能、经历与教育，由 parser.Extractor 实现
type ProfileExtractor interface {
	Extract(text string) types.ProfileFragment
}

//
// 存储相关接口
//

// ProfileStore 提供简历合并所需的事务边界，由 storage.MySQL 实现
type ProfileStore interface {
	WithinProfileTx(ctx context.Context, fn func(tx storage.ProfileTx) error) error
}

// EmployeeStore 简历上传与分析需要的员工读写
type EmployeeStore interface {
	GetEmployee(ctx context.Context, employeeID uint64) (*models.Employee, error)
	SetCVObjectKey(ctx context.Context, employeeID uint64, objectKey, filename string) error
}

// ObjectStore 对象存储，由 storage.MinIO 实现
type ObjectStore interface {
	UploadFile(ctx context.Context, bucket, objectKey string, reader io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, bucket, objectKey string) ([]byte, error)
	DeleteFile(ctx context.Context, bucket, objectKey string) error
}

// TemplateStore 模板与生成文档的持久化
type TemplateStore interface {
	CreateTemplate(ctx context.Context, tpl *models.Template) error
	ListActiveTemplates(ctx context.Context) ([]models.Template, error)
	GetTemplate(ctx context.Context, templateID uint64) (*models.Template, error)
	SaveGeneratedDocument(ctx context.Context, doc *models.GeneratedDocument, buildEvent func(doc *models.GeneratedDocument) (*models.OutboxMessage, error)) error
}

var (
	_ ProfileStore  = (*storage.MySQL)(nil)
	_ EmployeeStore = (*storage.MySQL)(nil)
	_ TemplateStore = (*storage.MySQL)(nil)
	_ ObjectStore   = (*storage.MinIO)(nil)
)
