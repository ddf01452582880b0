package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talent-bridge-go/internal/api/handler"
	"talent-bridge-go/internal/api/router"
	"talent-bridge-go/internal/config"
	"talent-bridge-go/internal/logger"
	"talent-bridge-go/internal/outbox"
	"talent-bridge-go/internal/parser"
	"talent-bridge-go/internal/processor"
	"talent-bridge-go/internal/ratelimit"
	"talent-bridge-go/internal/storage"
	"talent-bridge-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时按默认路径查找")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		hlog.Fatalf("加载配置失败: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	}); err != nil {
		hlog.Fatalf("初始化日志失败: %v", err)
	}
	logger.Info().Str("address", cfg.Server.Address).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()
	logger.Info().Msg("存储服务初始化成功")

	var decoderOpts []parser.DecoderOption
	if storageManager.Redis != nil {
		decoderOpts = append(decoderOpts, parser.WithTextCache(storageManager.Redis))
	}
	decoder, err := parser.NewDecoder(ctx, decoderOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文档解码器失败")
	}
	extractor := parser.NewExtractor(parser.ExtractorConfigFrom(cfg.Extraction))

	settings := []processor.SettingOpt{
		processor.WithEventRouting(processor.EventRoutingFrom(cfg.RabbitMQ)),
		processor.WithBuckets(storageManager.MinIO.CVBucket(), storageManager.MinIO.StagingBucket()),
		processor.WithUploadLimits(cfg.Upload.AllowedExtensions, cfg.MaxUploadBytes()),
	}
	reconciler := processor.NewReconciler(storageManager.MySQL, settings...)
	profileService := processor.NewProfileService(storageManager.MySQL, storageManager.MinIO, decoder, extractor, reconciler, settings...)
	employeeService := processor.NewEmployeeService(storageManager.MySQL, settings...)
	documentService := processor.NewDocumentService(storageManager.MySQL, settings...)

	var messageRelay *outbox.MessageRelay
	if storageManager.RabbitMQ != nil {
		messageRelay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ,
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.RelayInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.RabbitMQ.RelayBatchSize),
		)
		messageRelay.Start()
		logger.Info().Msg("消息中继服务已启动")
	} else {
		logger.Warn().Msg("RabbitMQ不可用，outbox事件暂存在数据库中")
	}

	// multipart 包装会超出文件本身的大小，额外预留1MB
	maxBody := 64 << 20
	if n := cfg.MaxUploadBytes(); n > 0 {
		maxBody = int(n) + 1<<20
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithMaxRequestBodySize(maxBody),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)
		logger.Ctx(c).Info().
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", ctx.Response.StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("请求完成")
	})

	routeOpts := router.Options{CORSOrigins: cfg.Server.CORSOrigins}
	if cfg.Server.DecodeRateQPM > 0 {
		routeOpts.DecodeLimiter = ratelimit.NewTokenBucket(cfg.Server.DecodeRateQPM, cfg.Server.DecodeBurst)
	}
	router.RegisterRoutes(h, router.Handlers{
		Profile:  handler.NewProfileHandler(profileService),
		Employee: handler.NewEmployeeHandler(employeeService),
		Template: handler.NewTemplateHandler(documentService),
	}, routeOpts)
	logger.Info().Msg("HTTP路由注册成功")

	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	if messageRelay != nil {
		messageRelay.Stop()
		logger.Info().Msg("消息中继服务已停止")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("关闭链路追踪失败")
	}
	logger.Info().Msg("优雅退出完成")
}
