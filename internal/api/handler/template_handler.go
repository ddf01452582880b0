package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// TemplateHandler 文档模板
type TemplateHandler struct {
	documents DocumentService
}

// NewTemplateHandler 创建模板处理器
func NewTemplateHandler(documents DocumentService) *TemplateHandler {
	return &TemplateHandler{documents: documents}
}

// HandleListTemplates GET /api/v1/templates
func (h *TemplateHandler) HandleListTemplates(ctx context.Context, c *app.RequestContext) {
	templates, err := h.documents.ListTemplates(ctx)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"data": templates})
}

// HandleCreateTemplate POST /api/v1/templates
func (h *TemplateHandler) HandleCreateTemplate(ctx context.Context, c *app.RequestContext) {
	var req CreateTemplateRequest
	if err := decodeJSON(c, &req); err != nil {
		respondError(ctx, c, err)
		return
	}
	def, err := h.documents.CreateTemplate(ctx, req.toServiceRequest())
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, def)
}

// HandleGenerateDocument POST /api/v1/templates/:id/generate
func (h *TemplateHandler) HandleGenerateDocument(ctx context.Context, c *app.RequestContext) {
	templateID, err := pathID(c, "id")
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	var req GenerateDocumentRequest
	if err := decodeJSON(c, &req); err != nil {
		respondError(ctx, c, err)
		return
	}
	if req.Values == nil {
		req.Values = map[string]string{}
	}

	doc, err := h.documents.GenerateDocument(ctx, templateID, req.Values, req.CreatedBy)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, utils.H{
		"message":     "文档生成成功",
		"document_id": doc.ID,
		"content":     doc.Content,
	})
}
