package handler

import (
	"context"
	"fmt"
	"mime/multipart"

	"talent-bridge-go/internal/processor"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ProfileHandler 文档解码、档案提取与员工简历
type ProfileHandler struct {
	profiles ProfileService
}

// NewProfileHandler 创建简历处理器
func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// formFile 读取 multipart 中的 file 字段
func formFile(c *app.RequestContext) (*multipart.FileHeader, multipart.File, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, nil, processor.NewValidationError("file", "文件未找到")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	return fileHeader, file, nil
}

// HandleExtractText 上传文档并返回纯文本
// POST /api/v1/documents/extract-text
func (h *ProfileHandler) HandleExtractText(ctx context.Context, c *app.RequestContext) {
	fileHeader, file, err := formFile(c)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	defer file.Close()

	text, err := h.profiles.ExtractText(ctx, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"text": text})
}

// HandleExtractProfile 从纯文本中提取技能、经历与教育，不落库
// POST /api/v1/profiles/extract
func (h *ProfileHandler) HandleExtractProfile(ctx context.Context, c *app.RequestContext) {
	var req ExtractProfileRequest
	if err := decodeJSON(c, &req); err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, h.profiles.ExtractProfile(req.Text))
}

// HandleUploadCV 上传员工简历原件
// POST /api/v1/employees/:id/cv
func (h *ProfileHandler) HandleUploadCV(ctx context.Context, c *app.RequestContext) {
	employeeID, err := pathID(c, "id")
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	fileHeader, file, err := formFile(c)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	defer file.Close()

	result, err := h.profiles.UploadCV(ctx, employeeID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusCreated, result)
}

// HandleGetCV 下载员工简历原件
// GET /api/v1/employees/:id/cv
func (h *ProfileHandler) HandleGetCV(ctx context.Context, c *app.RequestContext) {
	employeeID, err := pathID(c, "id")
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	cv, err := h.profiles.GetCV(ctx, employeeID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cv.Filename))
	c.Data(consts.StatusOK, cv.ContentType, cv.Data)
}

// HandleAnalyzeCV 解码员工简历、提取并合并到档案
// POST /api/v1/employees/:id/cv/analyze
func (h *ProfileHandler) HandleAnalyzeCV(ctx context.Context, c *app.RequestContext) {
	employeeID, err := pathID(c, "id")
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	result, err := h.profiles.AnalyzeCV(ctx, employeeID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"message":  "简历分析完成",
		"analysis": result.Analysis,
		"applied":  result.Applied,
	})
}
