package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/parser"
	"talent-bridge-go/internal/storage"
	"talent-bridge-go/internal/storage/models"
	"talent-bridge-go/internal/tracing"
	"talent-bridge-go/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

const eventTypeDocumentGenerated = "document.generated"

// CreateTemplateRequest 新建模板的输入
type CreateTemplateRequest struct {
	Name        string
	Description string
	Category    string
	Body        string
	CreatedBy   string
	Variables   []types.VariableSpec
}

// DocumentService 模板管理与文档生成
type DocumentService struct {
	store    TemplateStore
	settings Settings
}

// NewDocumentService 创建文档服务
func NewDocumentService(store TemplateStore, opts ...SettingOpt) *DocumentService {
	return &DocumentService{store: store, settings: applySettings(opts)}
}

// CreateTemplate 校验并保存模板。正文中出现但未声明的占位符只记录警告，渲染时原样保留。
func (s *DocumentService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*types.TemplateDefinition, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, NewValidationError("name", "不能为空")
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, NewValidationError("content", "不能为空")
	}

	declared := make(map[string]bool, len(req.Variables))
	vars := make([]models.TemplateVariable, 0, len(req.Variables))
	for _, v := range req.Variables {
		name := strings.TrimSpace(v.Name)
		if name == "" || len(parser.Placeholders("{"+name+"}")) != 1 {
			return nil, NewValidationError("variables", fmt.Sprintf("变量名 %q 不合法", v.Name))
		}
		if declared[name] {
			return nil, NewValidationError("variables", fmt.Sprintf("变量 %q 重复声明", name))
		}
		declared[name] = true
		vars = append(vars, models.TemplateVariable{
			Name:         name,
			Required:     v.Required,
			DefaultValue: v.DefaultValue,
			Description:  v.Description,
		})
	}

	var undeclared []string
	for _, p := range parser.Placeholders(req.Body) {
		if !declared[p] {
			undeclared = append(undeclared, p)
		}
	}
	if len(undeclared) > 0 {
		logger.Ctx(ctx).Warn().Strs("placeholders", undeclared).Str("template", req.Name).Msg("模板正文包含未声明的占位符")
	}

	tpl := &models.Template{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Body:        req.Body,
		IsActive:    true,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   s.settings.Now(),
		Variables:   vars,
	}
	if err := s.store.CreateTemplate(ctx, tpl); err != nil {
		return nil, err
	}

	def := templateDefinitionFrom(tpl)
	return &def, nil
}

// ListTemplates 列出启用中的模板
func (s *DocumentService) ListTemplates(ctx context.Context) ([]types.TemplateDefinition, error) {
	templates, err := s.store.ListActiveTemplates(ctx)
	if err != nil {
		return nil, err
	}
	defs := make([]types.TemplateDefinition, 0, len(templates))
	for i := range templates {
		defs = append(defs, templateDefinitionFrom(&templates[i]))
	}
	return defs, nil
}

// GenerateDocument 渲染模板并保存生成的文档。校验失败时不会产生也不会保存任何内容。
func (s *DocumentService) GenerateDocument(ctx context.Context, templateID uint64, values map[string]string, createdBy string) (*models.GeneratedDocument, error) {
	ctx, span := processorTracer.Start(ctx, "DocumentService.GenerateDocument")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("template.id", int64(templateID)),
		attribute.Int("values.count", len(values)),
		attribute.String("document.created_by", tracing.SafeAttributeValue("creator_name", createdBy, tracing.DefaultMaxLength)),
	)

	tpl, err := s.store.GetTemplate(ctx, templateID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &TemplateNotFoundError{TemplateID: templateID}
	}
	if err != nil {
		return nil, err
	}

	content, err := parser.Render(templateDefinitionFrom(tpl), values)
	if err != nil {
		return nil, err
	}

	inputValues, err := models.StringMapToJSON(values)
	if err != nil {
		return nil, fmt.Errorf("序列化模板输入失败: %w", err)
	}

	doc := &models.GeneratedDocument{
		TemplateID:  tpl.ID,
		Content:     content,
		InputValues: inputValues,
		CreatedBy:   createdBy,
		CreatedAt:   s.settings.Now(),
	}
	if err := s.store.SaveGeneratedDocument(ctx, doc, s.generatedEvent); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().Uint64("template_id", tpl.ID).Uint64("document_id", doc.ID).Msg("文档生成成功")
	return doc, nil
}

func (s *DocumentService) generatedEvent(doc *models.GeneratedDocument) (*models.OutboxMessage, error) {
	payload, err := json.Marshal(types.DocumentGeneratedEvent{
		DocumentID:  doc.ID,
		TemplateID:  doc.TemplateID,
		CreatedBy:   doc.CreatedBy,
		GeneratedAt: doc.CreatedAt.UTC(),
	})
	if err != nil {
		return nil, err
	}
	return &models.OutboxMessage{
		AggregateID:      strconv.FormatUint(doc.ID, 10),
		EventType:        eventTypeDocumentGenerated,
		Payload:          string(payload),
		TargetExchange:   s.settings.Routing.Exchange,
		TargetRoutingKey: s.settings.Routing.DocGeneratedRoutingKey,
		Status:           models.OutboxStatusPending,
		CreatedAt:        s.settings.Now(),
	}, nil
}

// templateDefinitionFrom 持久化模型转为渲染用的定义，变量保持声明顺序
func templateDefinitionFrom(tpl *models.Template) types.TemplateDefinition {
	vars := make([]types.VariableSpec, 0, len(tpl.Variables))
	for _, v := range tpl.Variables {
		vars = append(vars, types.VariableSpec{
			Name:         v.Name,
			Required:     v.Required,
			DefaultValue: v.DefaultValue,
			Description:  v.Description,
		})
	}
	return types.TemplateDefinition{
		ID:          tpl.ID,
		Name:        tpl.Name,
		Description: tpl.Description,
		Category:    tpl.Category,
		Body:        tpl.Body,
		Variables:   vars,
	}
}
