package router

import (
	"context"
	"math"
	"strconv"
	"time"

	"talent-bridge-go/internal/api/handler"
	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/ratelimit"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/cors"
)

// HeaderRequestID 请求ID响应头
const HeaderRequestID = "X-Request-ID"

// Handlers 需要注册的全部处理器
type Handlers struct {
	Profile  *handler.ProfileHandler
	Employee *handler.EmployeeHandler
	Template *handler.TemplateHandler
}

// Options 路由级别的可选设置
type Options struct {
	CORSOrigins   []string
	DecodeLimiter *ratelimit.TokenBucket // nil 表示不限流
}

// RequestID 为每个请求生成请求ID，并把带请求ID的日志记录器放入上下文
func RequestID() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)

		l := logger.Logger.With().Str("request_id", id).Logger()
		c.Next(l.WithContext(ctx))
	}
}

// CORS 允许配置中的前端来源跨域访问，"*" 表示允许所有来源
func CORS(origins []string) app.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", HeaderRequestID},
		ExposeHeaders: []string{"Content-Disposition", HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}

// RateLimit 令牌不足时直接返回429，并通过 Retry-After 告知客户端等待秒数
func RateLimit(tb *ratelimit.TokenBucket) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if tb.Allow() {
			c.Next(ctx)
			return
		}
		wait := int(math.Ceil(tb.RetryAfter().Seconds()))
		if wait < 1 {
			wait = 1
		}
		logger.Ctx(ctx).Warn().Str("path", string(c.Path())).Int("retry_after", wait).Msg("解码请求被限流")
		c.Header("Retry-After", strconv.Itoa(wait))
		c.AbortWithStatusJSON(consts.StatusTooManyRequests, utils.H{"error": "请求过于频繁，请稍后再试"})
	}
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, handlers Handlers, opts Options) {
	h.Use(RequestID())
	if len(opts.CORSOrigins) > 0 {
		h.Use(CORS(opts.CORSOrigins))
	}

	// 会触发文档解码的接口共享同一个令牌桶
	var decodeGuard []app.HandlerFunc
	if opts.DecodeLimiter != nil {
		decodeGuard = append(decodeGuard, RateLimit(opts.DecodeLimiter))
	}
	guarded := func(fn app.HandlerFunc) []app.HandlerFunc {
		return append(append([]app.HandlerFunc{}, decodeGuard...), fn)
	}

	api := h.Group("/api/v1")

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api.POST("/documents/extract-text", guarded(handlers.Profile.HandleExtractText)...)
	api.POST("/profiles/extract", handlers.Profile.HandleExtractProfile)

	employees := api.Group("/employees")
	employees.POST("", handlers.Employee.HandleCreateEmployee)
	employees.GET("/search", handlers.Employee.HandleSearchBySkills)
	employees.GET("/search/advanced", handlers.Employee.HandleAdvancedSearch)
	employees.GET("/:id", handlers.Employee.HandleGetEmployee)
	employees.POST("/:id/cv", handlers.Profile.HandleUploadCV)
	employees.GET("/:id/cv", handlers.Profile.HandleGetCV)
	employees.POST("/:id/cv/analyze", guarded(handlers.Profile.HandleAnalyzeCV)...)

	api.GET("/skills", handlers.Employee.HandleListSkills)
	api.POST("/projects", handlers.Employee.HandleCreateProject)
	api.POST("/trainings", handlers.Employee.HandleCreateTraining)
	api.POST("/evaluations", handlers.Employee.HandleCreateEvaluation)

	api.GET("/templates", handlers.Template.HandleListTemplates)
	api.POST("/templates", handlers.Template.HandleCreateTemplate)
	api.POST("/templates/:id/generate", handlers.Template.HandleGenerateDocument)
}
