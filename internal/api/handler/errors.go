package handler

import (
	"context"
	"errors"
	"strconv"

	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/processor"
	"talent-bridge-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"
)

// statusFor 把领域错误映射为HTTP状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, processor.ErrUnsupportedFormat),
		errors.Is(err, processor.ErrMissingVariable),
		errors.Is(err, processor.ErrValidation):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrEmployeeNotFound),
		errors.Is(err, processor.ErrTemplateNotFound),
		errors.Is(err, processor.ErrCVNotFound):
		return consts.StatusNotFound
	case errors.Is(err, processor.ErrDecode):
		return consts.StatusUnprocessableEntity
	default:
		return consts.StatusInternalServerError
	}
}

// respondError 写出 {"error": msg}。服务端错误不把内部细节返回给调用方。
func respondError(ctx context.Context, c *app.RequestContext, err error) {
	status := statusFor(err)
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)

	if status >= consts.StatusInternalServerError {
		logger.Ctx(ctx).Error().Err(err).Str("path", string(c.Path())).Msg("请求处理失败")
		c.JSON(status, utils.H{"error": "服务器内部错误"})
		return
	}
	logger.Ctx(ctx).Debug().Err(err).Int("status", status).Str("path", string(c.Path())).Msg("请求被拒绝")
	c.JSON(status, utils.H{"error": err.Error()})
}

// pathID 解析路径中的数字ID
func pathID(c *app.RequestContext, name string) (uint64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, processor.NewValidationError(name, "必须是正整数")
	}
	return id, nil
}
