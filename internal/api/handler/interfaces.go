package handler

import (
	"context"
	"io"

	"talent-bridge-go/internal/processor"
	"talent-bridge-go/internal/storage/models"
	"talent-bridge-go/internal/types"
)

// ProfileService 简历相关的业务操作，由 processor.ProfileService 实现
type ProfileService interface {
	ExtractText(ctx context.Context, filename string, reader io.Reader, size int64) (string, error)
	ExtractProfile(text string) types.ProfileFragment
	UploadCV(ctx context.Context, employeeID uint64, filename string, reader io.Reader, size int64) (*processor.CVUploadResult, error)
	GetCV(ctx context.Context, employeeID uint64) (*processor.CVFile, error)
	AnalyzeCV(ctx context.Context, employeeID uint64) (*processor.AnalysisResult, error)
}

// EmployeeService 员工档案目录，由 processor.EmployeeService 实现
type EmployeeService interface {
	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployee(ctx context.Context, employeeID uint64) (*models.Employee, error)
	SearchBySkills(ctx context.Context, skills []string) ([]models.Employee, error)
	AdvancedSearch(ctx context.Context, criteria types.SearchCriteria) ([]models.Employee, error)
	ListSkills(ctx context.Context) ([]string, error)
	AddExperience(ctx context.Context, entry *models.ExperienceEntry) error
	AddTraining(ctx context.Context, entry *models.TrainingEntry) error
	AddEvaluation(ctx context.Context, entry *models.EvaluationEntry) error
}

// DocumentService 模板与文档生成，由 processor.DocumentService 实现
type DocumentService interface {
	CreateTemplate(ctx context.Context, req processor.CreateTemplateRequest) (*types.TemplateDefinition, error)
	ListTemplates(ctx context.Context) ([]types.TemplateDefinition, error)
	GenerateDocument(ctx context.Context, templateID uint64, values map[string]string, createdBy string) (*models.GeneratedDocument, error)
}

var (
	_ ProfileService  = (*processor.ProfileService)(nil)
	_ EmployeeService = (*processor.EmployeeService)(nil)
	_ DocumentService = (*processor.DocumentService)(nil)
)
