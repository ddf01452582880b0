package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/parser"
	"talent-bridge-go/internal/storage"
	"talent-bridge-go/internal/tracing"
	"talent-bridge-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel/attribute"
)

// CVUploadResult 简历上传结果
type CVUploadResult struct {
	EmployeeID uint64 `json:"employee_id"`
	ObjectKey  string `json:"object_key"`
	Filename   string `json:"filename"`
}

// CVFile 下载的简历原件
type CVFile struct {
	Data        []byte
	Filename    string
	ContentType string
}

// AnalysisResult 简历分析结果
type AnalysisResult struct {
	Analysis types.ProfileFragment `json:"analysis"`
	Applied  types.ReconcileResult `json:"applied"`
}

// ProfileService 简历上传、解码、提取与合并的流水线
type ProfileService struct {
	employees  EmployeeStore
	objects    ObjectStore
	decoder    TextDecoder
	extractor  ProfileExtractor
	reconciler *Reconciler
	settings   Settings
}

// NewProfileService 创建简历流水线服务
func NewProfileService(employees EmployeeStore, objects ObjectStore, decoder TextDecoder, extractor ProfileExtractor, reconciler *Reconciler, opts ...SettingOpt) *ProfileService {
	return &ProfileService{
		employees:  employees,
		objects:    objects,
		decoder:    decoder,
		extractor:  extractor,
		reconciler: reconciler,
		settings:   applySettings(opts),
	}
}

// checkUpload 校验扩展名与大小，返回小写扩展名（带点）
func (s *ProfileService) checkUpload(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" || !s.settings.extensionAllowed(ext) {
		return "", &UnsupportedFormatError{Format: strings.TrimPrefix(ext, ".")}
	}
	if s.settings.MaxUploadBytes > 0 && size > s.settings.MaxUploadBytes {
		return "", NewValidationError("file", fmt.Sprintf("超过大小上限 %d 字节", s.settings.MaxUploadBytes))
	}
	return ext, nil
}

// readPayload 读取上传内容，超过上限时返回校验错误
func (s *ProfileService) readPayload(reader io.Reader) ([]byte, error) {
	if s.settings.MaxUploadBytes <= 0 {
		return io.ReadAll(reader)
	}
	data, err := io.ReadAll(io.LimitReader(reader, s.settings.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.settings.MaxUploadBytes {
		return nil, NewValidationError("file", fmt.Sprintf("超过大小上限 %d 字节", s.settings.MaxUploadBytes))
	}
	return data, nil
}

func (s *ProfileService) loadEmployeeCV(ctx context.Context, employeeID uint64) (objectKey, filename string, err error) {
	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", "", &EmployeeNotFoundError{EmployeeID: employeeID}
	}
	if err != nil {
		return "", "", fmt.Errorf("查询员工失败: %w", err)
	}
	if employee.CVObjectKey == nil || *employee.CVObjectKey == "" {
		return "", "", &CVNotFoundError{EmployeeID: employeeID}
	}
	filename = employee.CVFilename
	if filename == "" {
		filename = filepath.Base(*employee.CVObjectKey)
	}
	return *employee.CVObjectKey, filename, nil
}

// UploadCV 保存员工简历原件到对象存储，并记录对象位置。旧简历在新简历登记成功后删除。
func (s *ProfileService) UploadCV(ctx context.Context, employeeID uint64, filename string, reader io.Reader, size int64) (*CVUploadResult, error) {
	ctx, span := processorTracer.Start(ctx, "ProfileService.UploadCV")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("employee.id", int64(employeeID)),
		attribute.Int64("file.size", size),
		attribute.String("file.name", tracing.SafeAttributeValue("file.name", filename, tracing.DefaultMaxLength)),
	)

	ext, err := s.checkUpload(filename, size)
	if err != nil {
		return nil, err
	}

	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &EmployeeNotFoundError{EmployeeID: employeeID}
	}
	if err != nil {
		return nil, fmt.Errorf("查询员工失败: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成对象ID失败: %w", err)
	}
	objectKey := fmt.Sprintf("cv/%d/%s%s", employeeID, id.String(), ext)

	if err := s.objects.UploadFile(ctx, s.settings.CVBucket, objectKey, reader, size, storage.GetContentType(ext)); err != nil {
		return nil, err
	}

	if err := s.employees.SetCVObjectKey(ctx, employeeID, objectKey, filepath.Base(filename)); err != nil {
		if delErr := s.objects.DeleteFile(ctx, s.settings.CVBucket, objectKey); delErr != nil {
			logger.Ctx(ctx).Warn().Err(delErr).Str("object", objectKey).Msg("清理未登记的简历对象失败")
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &EmployeeNotFoundError{EmployeeID: employeeID}
		}
		return nil, err
	}

	if employee.CVObjectKey != nil && *employee.CVObjectKey != "" && *employee.CVObjectKey != objectKey {
		if err := s.objects.DeleteFile(ctx, s.settings.CVBucket, *employee.CVObjectKey); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("object", *employee.CVObjectKey).Msg("删除旧简历对象失败")
		}
	}

	logger.Ctx(ctx).Info().Uint64("employee_id", employeeID).Str("object", objectKey).Msg("简历上传成功")
	return &CVUploadResult{EmployeeID: employeeID, ObjectKey: objectKey, Filename: filepath.Base(filename)}, nil
}

// GetCV 下载员工简历原件
func (s *ProfileService) GetCV(ctx context.Context, employeeID uint64) (*CVFile, error) {
	objectKey, filename, err := s.loadEmployeeCV(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	data, err := s.objects.DownloadFile(ctx, s.settings.CVBucket, objectKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &CVNotFoundError{EmployeeID: employeeID}
	}
	if err != nil {
		return nil, err
	}
	return &CVFile{Data: data, Filename: filename, ContentType: storage.GetContentType(filepath.Ext(objectKey))}, nil
}

// AnalyzeCV 解码员工简历、提取档案信息并合并到员工档案
func (s *ProfileService) AnalyzeCV(ctx context.Context, employeeID uint64) (*AnalysisResult, error) {
	ctx, span := processorTracer.Start(ctx, "ProfileService.AnalyzeCV")
	defer span.End()
	span.SetAttributes(attribute.Int64("employee.id", int64(employeeID)))

	objectKey, _, err := s.loadEmployeeCV(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	format, err := parser.FormatFromFilename(objectKey)
	if err != nil {
		return nil, err
	}

	payload, err := s.objects.DownloadFile(ctx, s.settings.CVBucket, objectKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &CVNotFoundError{EmployeeID: employeeID}
	}
	if err != nil {
		return nil, err
	}

	text, err := s.decoder.Decode(ctx, payload, format)
	if err != nil {
		return nil, err
	}

	fragment := s.extractor.Extract(text)
	applied, err := s.reconciler.Reconcile(ctx, employeeID, fragment)
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{Analysis: fragment, Applied: *applied}, nil
}

// ExtractText 把上传的文档暂存到对象存储后解码为纯文本，暂存对象在任何退出路径上都会被删除
func (s *ProfileService) ExtractText(ctx context.Context, filename string, reader io.Reader, size int64) (string, error) {
	ctx, span := processorTracer.Start(ctx, "ProfileService.ExtractText")
	defer span.End()
	span.SetAttributes(attribute.String("file.name", tracing.SafeAttributeValue("file.name", filename, tracing.DefaultMaxLength)))

	format, err := parser.FormatFromFilename(filename)
	if err != nil {
		return "", err
	}
	ext, err := s.checkUpload(filename, size)
	if err != nil {
		return "", err
	}

	payload, err := s.readPayload(reader)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int("file.size", len(payload)))

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("生成对象ID失败: %w", err)
	}
	stagingKey := fmt.Sprintf("staging/%s%s", id.String(), ext)

	if err := s.objects.UploadFile(ctx, s.settings.StagingBucket, stagingKey, bytes.NewReader(payload), int64(len(payload)), storage.GetContentType(ext)); err != nil {
		return "", err
	}
	defer func() {
		// 请求可能已取消，删除使用独立的context
		if err := s.objects.DeleteFile(context.WithoutCancel(ctx), s.settings.StagingBucket, stagingKey); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("object", stagingKey).Msg("删除暂存文件失败")
		}
	}()

	return s.decoder.Decode(ctx, payload, format)
}

// ExtractProfile 只做模式识别，不落库
func (s *ProfileService) ExtractProfile(text string) types.ProfileFragment {
	return s.extractor.Extract(text)
}
