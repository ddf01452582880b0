package handler

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"talent-bridge-go/internal/processor"
	"talent-bridge-go/internal/storage/models"
	"talent-bridge-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

// newValidator 校验错误中的字段名使用JSON名称
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON 解析请求体并按 validate 标签校验
func decodeJSON(c *app.RequestContext, req interface{}) error {
	body := c.Request.Body()
	if len(body) == 0 {
		return processor.NewValidationError("body", "不能为空")
	}
	if err := json.Unmarshal(body, req); err != nil {
		return processor.NewValidationError("body", "不是合法的JSON")
	}
	if err := validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError 只报告第一个不合法的字段
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return processor.NewValidationError(fe.Field(), "不满足校验规则 "+fe.Tag())
	}
	return processor.NewValidationError("", err.Error())
}

func parseDate(value string) *datatypes.Date {
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return nil
	}
	d := datatypes.Date(t)
	return &d
}

// ExtractProfileRequest 对纯文本做档案提取
type ExtractProfileRequest struct {
	Text string `json:"text"`
}

// CreateEmployeeRequest 新建员工
type CreateEmployeeRequest struct {
	FirstName      string   `json:"first_name" validate:"required,max=100"`
	LastName       string   `json:"last_name" validate:"required,max=100"`
	Email          string   `json:"email" validate:"required,email"`
	Position       string   `json:"position" validate:"max=255"`
	DepartmentID   *uint64  `json:"department_id"`
	BirthDate      string   `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	EntryDate      string   `json:"entry_date" validate:"omitempty,datetime=2006-01-02"`
	EducationLevel *string  `json:"education_level"`
	Languages      []string `json:"languages"`
	Certificates   []string `json:"certificates"`
}

func (r *CreateEmployeeRequest) toModel() (*models.Employee, error) {
	languages, err := models.StringsToJSON(r.Languages)
	if err != nil {
		return nil, err
	}
	certificates, err := models.StringsToJSON(r.Certificates)
	if err != nil {
		return nil, err
	}
	return &models.Employee{
		FirstName:      strings.TrimSpace(r.FirstName),
		LastName:       strings.TrimSpace(r.LastName),
		Email:          strings.TrimSpace(r.Email),
		Position:       r.Position,
		DepartmentID:   r.DepartmentID,
		BirthDate:      parseDate(r.BirthDate),
		EntryDate:      parseDate(r.EntryDate),
		EducationLevel: r.EducationLevel,
		Languages:      languages,
		Certificates:   certificates,
	}, nil
}

// CreateProjectRequest 手工录入项目经历
type CreateProjectRequest struct {
	EmployeeID   uint64   `json:"employee_id" validate:"required"`
	ProjectName  string   `json:"project_name" validate:"required,max=255"`
	Role         string   `json:"role" validate:"max=255"`
	StartDate    string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

func (r *CreateProjectRequest) toModel() (*models.ExperienceEntry, error) {
	techs, err := models.StringsToJSON(r.Technologies)
	if err != nil {
		return nil, err
	}
	start := parseDate(r.StartDate)
	end := parseDate(r.EndDate)
	if end != nil && time.Time(*end).Before(time.Time(*start)) {
		return nil, processor.NewValidationError("end_date", "不能早于开始日期")
	}
	return &models.ExperienceEntry{
		EmployeeID:   r.EmployeeID,
		ProjectName:  r.ProjectName,
		Role:         r.Role,
		StartDate:    *start,
		EndDate:      end,
		Description:  r.Description,
		Technologies: techs,
	}, nil
}

// CreateTrainingRequest 新增培训记录
type CreateTrainingRequest struct {
	EmployeeID  uint64 `json:"employee_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=255"`
	Provider    string `json:"provider" validate:"max=255"`
	StartDate   string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Certificate string `json:"certificate" validate:"max=255"`
}

func (r *CreateTrainingRequest) toModel() *models.TrainingEntry {
	return &models.TrainingEntry{
		EmployeeID:  r.EmployeeID,
		Title:       r.Title,
		Provider:    r.Provider,
		StartDate:   parseDate(r.StartDate),
		EndDate:     parseDate(r.EndDate),
		Certificate: r.Certificate,
	}
}

// CreateEvaluationRequest 新增绩效评估
type CreateEvaluationRequest struct {
	EmployeeID  uint64 `json:"employee_id" validate:"required"`
	Evaluator   string `json:"evaluator" validate:"max=255"`
	EvaluatedOn string `json:"evaluated_on" validate:"required,datetime=2006-01-02"`
	Rating      int    `json:"rating" validate:"min=1,max=5"`
	Comment     string `json:"comment"`
}

func (r *CreateEvaluationRequest) toModel() *models.EvaluationEntry {
	return &models.EvaluationEntry{
		EmployeeID:  r.EmployeeID,
		Evaluator:   r.Evaluator,
		EvaluatedOn: *parseDate(r.EvaluatedOn),
		Rating:      r.Rating,
		Comment:     r.Comment,
	}
}

// TemplateVariableRequest 模板变量
type TemplateVariableRequest struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Required     bool    `json:"required"`
	DefaultValue *string `json:"default_value"`
	Description  string  `json:"description" validate:"max=255"`
}

// CreateTemplateRequest 新建模板
type CreateTemplateRequest struct {
	Name        string                    `json:"name" validate:"required,max=255"`
	Description string                    `json:"description"`
	Category    string                    `json:"category" validate:"max=100"`
	Content     string                    `json:"content" validate:"required"`
	CreatedBy   string                    `json:"created_by" validate:"max=255"`
	Variables   []TemplateVariableRequest `json:"variables" validate:"dive"`
}

func (r *CreateTemplateRequest) toServiceRequest() processor.CreateTemplateRequest {
	vars := make([]types.VariableSpec, 0, len(r.Variables))
	for _, v := range r.Variables {
		vars = append(vars, types.VariableSpec{
			Name:         v.Name,
			Required:     v.Required,
			DefaultValue: v.DefaultValue,
			Description:  v.Description,
		})
	}
	return processor.CreateTemplateRequest{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Body:        r.Content,
		CreatedBy:   r.CreatedBy,
		Variables:   vars,
	}
}

// GenerateDocumentRequest 生成文档，values 中多余的键会被忽略
type GenerateDocumentRequest struct {
	Values    map[string]string `json:"values"`
	CreatedBy string            `json:"created_by" validate:"max=255"`
}
