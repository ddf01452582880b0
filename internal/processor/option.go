package processor

import (
	"strings"
	"time"

	"talent-bridge-go/internal/config"
)

// EventRouting outbox事件的目标exchange与路由键
type EventRouting struct {
	Exchange               string
	CVAnalyzedRoutingKey   string
	DocGeneratedRoutingKey string
}

// EventRoutingFrom 从RabbitMQ配置读取事件路由，缺省项使用默认值
func EventRoutingFrom(cfg config.RabbitMQConfig) EventRouting {
	r := DefaultEventRouting()
	if cfg.ProfileEventsExchange != "" {
		r.Exchange = cfg.ProfileEventsExchange
	}
	if cfg.CVAnalyzedRoutingKey != "" {
		r.CVAnalyzedRoutingKey = cfg.CVAnalyzedRoutingKey
	}
	if cfg.DocGeneratedRoutingKey != "" {
		r.DocGeneratedRoutingKey = cfg.DocGeneratedRoutingKey
	}
	return r
}

// DefaultEventRouting 默认事件路由
func DefaultEventRouting() EventRouting {
	return EventRouting{
		Exchange:               "profile.events.exchange",
		CVAnalyzedRoutingKey:   "employee.cv.analyzed",
		DocGeneratedRoutingKey: "document.generated",
	}
}

// Settings 服务的可调参数
type Settings struct {
	Routing           EventRouting
	Now               func() time.Time
	CVBucket          string
	StagingBucket     string
	AllowedExtensions []string
	MaxUploadBytes    int64
}

func defaultSettings() Settings {
	return Settings{
		Routing:           DefaultEventRouting(),
		Now:               time.Now,
		CVBucket:          "cvs",
		StagingBucket:     "cv-staging",
		AllowedExtensions: []string{"pdf", "doc", "docx"},
		MaxUploadBytes:    20 << 20,
	}
}

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

func applySettings(opts []SettingOpt) Settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithEventRouting 设置outbox事件路由
func WithEventRouting(r EventRouting) SettingOpt {
	return func(s *Settings) {
		s.Routing = r
	}
}

// WithClock 设置时间来源
func WithClock(now func() time.Time) SettingOpt {
	return func(s *Settings) {
		if now != nil {
			s.Now = now
		}
	}
}

// WithBuckets 设置简历原件与暂存文件的存储桶
func WithBuckets(cvBucket, stagingBucket string) SettingOpt {
	return func(s *Settings) {
		if cvBucket != "" {
			s.CVBucket = cvBucket
		}
		if stagingBucket != "" {
			s.StagingBucket = stagingBucket
		}
	}
}

// WithUploadLimits 设置允许的扩展名与大小上限，maxBytes 为0表示不限制
func WithUploadLimits(allowedExtensions []string, maxBytes int64) SettingOpt {
	return func(s *Settings) {
		if len(allowedExtensions) > 0 {
			exts := make([]string, 0, len(allowedExtensions))
			for _, e := range allowedExtensions {
				exts = append(exts, strings.TrimPrefix(strings.ToLower(e), "."))
			}
			s.AllowedExtensions = exts
		}
		s.MaxUploadBytes = maxBytes
	}
}

func (s Settings) extensionAllowed(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, e := range s.AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
