package bootstrap

import (
	"context"
	"io"
	"os"

	"github.com/wyfcoding/bstlca/config"
	"github.com/wyfcoding/bstlca/engine"
	"github.com/wyfcoding/bstlca/idgen"
	"github.com/wyfcoding/bstlca/logging"
	"github.com/wyfcoding/bstlca/metrics"
	"github.com/wyfcoding/bstlca/tracing"
	"github.com/wyfcoding/bstlca/xerrors"
)

// Bootstrapper 处理通用基础设施的初始化
type Bootstrapper struct {
	ServiceName string
	Version     string
	Config      *config.Config
	Logger      *logging.Logger
	Metrics     *metrics.Metrics

	// LogOutput 日志输出目标，默认 os.Stderr，避免与命令结果混在一起。
	LogOutput io.Writer
}

// New 创建一个新的引导器实例
func New(serviceName, version string) *Bootstrapper {
	return &Bootstrapper{
		ServiceName: serviceName,
		Version:     version,
		LogOutput:   os.Stderr,
	}
}

// Initialize 加载配置文件并据此初始化日志、ID 生成器与指标。
// configPath 为空时使用 config.Default()。
func (b *Bootstrapper) Initialize(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		if err := config.Load(configPath, cfg); err != nil {
			return xerrors.Wrap(err, xerrors.ErrInvalidArg, "failed to load config").
				WithContext("path", configPath)
		}
	}
	if cfg.Version == "" || cfg.Version == "dev" {
		cfg.Version = b.Version
	}
	b.Config = cfg

	logging.InitLogger(logging.Config{
		Service:    b.ServiceName,
		Module:     "bootstrap",
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		Console:    cfg.Log.Console,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		Output:     b.LogOutput,
	})
	b.Logger = logging.Default()

	if err := idgen.Init(cfg.Snowflake); err != nil {
		b.Logger.Warn("id generator fallback to sequence", "error", err)
	}

	b.Metrics = metrics.NewMetrics(b.ServiceName)
	b.Metrics.RegisterBuildInfo(b.ServiceName, cfg.Version)

	if configPath != "" {
		config.RegisterReloadHook(b.onReload)
	}
	return nil
}

// onReload 配置热更新后记录脱敏的生效配置.
func (b *Bootstrapper) onReload(cfg *config.Config) {
	masked, err := config.Masked(cfg)
	if err != nil {
		b.Logger.Warn("failed to mask reloaded config", "error", err)
		return
	}
	b.Logger.Info("effective config reloaded", "config", masked)
}

// SetupTracing 初始化 OpenTelemetry 追踪器
func (b *Bootstrapper) SetupTracing() func() {
	shutdown, err := tracing.InitTracer(b.Config.Tracing)
	if err != nil {
		b.Logger.Error("failed to init tracer", "error", err)
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			b.Logger.Error("failed to shutdown tracer", "error", err)
		}
	}
}

// SetupMetrics 在配置开启时暴露指标端点，返回关闭函数。
func (b *Bootstrapper) SetupMetrics() func() {
	if !b.Config.Metrics.Enabled {
		return func() {}
	}
	b.Logger.Info("exposing metrics", "port", b.Config.Metrics.Port, "path", b.Config.Metrics.Path)
	return b.Metrics.ExposeHttp(b.Config.Metrics.Port, b.Config.Metrics.Path)
}

// Engine 使用已初始化的基础设施创建查询引擎。
func (b *Bootstrapper) Engine(opts ...engine.Option) (*engine.Engine, error) {
	base := []engine.Option{
		engine.WithLogger(b.Logger.Named("engine")),
		engine.WithMetrics(b.Metrics),
		engine.WithIDGenerator(idgen.Default()),
	}
	return engine.New(b.Config, append(base, opts...)...)
}
