// Package config 提供统一的配置加载与管理能力.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/bstlca/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局顶级配置结构.
type Config struct {
	Version    string           `mapstructure:"version"    toml:"version"`
	Log        LogConfig        `mapstructure:"log"        toml:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    toml:"metrics"`
	Tracing    TracingConfig    `mapstructure:"tracing"    toml:"tracing"`
	Snowflake  SnowflakeConfig  `mapstructure:"snowflake"  toml:"snowflake"`
	BigCache   BigCacheConfig   `mapstructure:"bigcache"   toml:"bigcache"`
	LCA        LCAConfig        `mapstructure:"lca"        toml:"lca"`
	Validation ValidationConfig `mapstructure:"validation" toml:"validation"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format"      toml:"format"      validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"        toml:"file"`
	Console    bool   `mapstructure:"console"     toml:"console"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"    validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"     validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Port    string `mapstructure:"port"    toml:"port"`
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// TracingConfig 链路追踪（OpenTelemetry）配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint" validate:"required_if=Enabled true"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" validate:"gte=0,lte=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// SnowflakeConfig 树 ID 生成器参数.
type SnowflakeConfig struct {
	StartTime string `mapstructure:"start_time" toml:"start_time"`
	Type      string `mapstructure:"type"       toml:"type"       validate:"omitempty,oneof=snowflake sonyflake"`
	MachineID int64  `mapstructure:"machine_id" toml:"machine_id" validate:"gte=0"`
}

// BigCacheConfig 共享记忆化缓存（bigcache）参数.
type BigCacheConfig struct {
	LifeWindow         time.Duration `mapstructure:"life_window"           toml:"life_window"`
	CleanWindow        time.Duration `mapstructure:"clean_window"          toml:"clean_window"`
	Shards             int           `mapstructure:"shards"                toml:"shards"                validate:"omitempty,gt=0"`
	MaxEntrySize       int           `mapstructure:"max_entry_size"        toml:"max_entry_size"        validate:"gte=0"`
	MaxEntriesInWindow int           `mapstructure:"max_entries_in_window" toml:"max_entries_in_window" validate:"gte=0"`
	HardMaxCacheSize   int           `mapstructure:"hard_max_cache_size"   toml:"hard_max_cache_size"   validate:"gte=0"`
	Verbose            bool          `mapstructure:"verbose"               toml:"verbose"`
}

// LCAConfig 选择参与计算的策略与记忆化后端.
type LCAConfig struct {
	Strategies  []string `mapstructure:"strategies"   toml:"strategies"   validate:"dive,oneof=memoized constructive bruteforce"`
	MemoBackend string   `mapstructure:"memo_backend" toml:"memo_backend" validate:"omitempty,oneof=map bigcache"`
}

// ValidationConfig 输入树校验策略.
type ValidationConfig struct {
	// RequireBST 为 true 时拒绝不满足严格 BST 有序性的树.
	RequireBST bool `mapstructure:"require_bst" toml:"require_bst"`
}

// Default 返回无需配置文件即可运行的默认配置.
func Default() *Config {
	return &Config{
		Version: "dev",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{Port: "9090", Path: "/metrics"},
		Tracing: TracingConfig{ServiceName: "bstlca", SamplerRatio: 1.0},
		Snowflake: SnowflakeConfig{
			StartTime: "2024-01-01",
			Type:      "snowflake",
			MachineID: 1,
		},
		BigCache: BigCacheConfig{
			LifeWindow:         10 * time.Minute,
			CleanWindow:        5 * time.Minute,
			Shards:             64,
			MaxEntrySize:       64,
			MaxEntriesInWindow: 4096,
			HardMaxCacheSize:   16,
		},
		LCA: LCAConfig{
			Strategies:  []string{"memoized", "constructive", "bruteforce"},
			MemoBackend: "map",
		},
		Validation: ValidationConfig{RequireBST: true},
	}
}

var (
	vInstance = viper.New()
	validate  = validator.New()

	hookMu   sync.Mutex
	onReload []func(*Config)
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	hookMu.Lock()
	onReload = append(onReload, hook)
	hookMu.Unlock()
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("version", d.Version)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.port", d.Metrics.Port)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sampler_ratio", d.Tracing.SamplerRatio)
	v.SetDefault("snowflake.start_time", d.Snowflake.StartTime)
	v.SetDefault("snowflake.type", d.Snowflake.Type)
	v.SetDefault("snowflake.machine_id", d.Snowflake.MachineID)
	v.SetDefault("bigcache.life_window", d.BigCache.LifeWindow)
	v.SetDefault("bigcache.clean_window", d.BigCache.CleanWindow)
	v.SetDefault("bigcache.shards", d.BigCache.Shards)
	v.SetDefault("bigcache.max_entry_size", d.BigCache.MaxEntrySize)
	v.SetDefault("bigcache.max_entries_in_window", d.BigCache.MaxEntriesInWindow)
	v.SetDefault("bigcache.hard_max_cache_size", d.BigCache.HardMaxCacheSize)
	v.SetDefault("lca.strategies", d.LCA.Strategies)
	v.SetDefault("lca.memo_backend", d.LCA.MemoBackend)
	v.SetDefault("validation.require_bst", d.Validation.RequireBST)
}

// Load 从 TOML 文件加载配置，支持 APP_ 前缀环境变量覆盖，并开启热更新.
func Load(path string, conf *Config) error {
	setDefaults(vInstance)
	vInstance.SetConfigFile(path)
	vInstance.SetConfigType("toml")

	vInstance.SetEnvPrefix("APP")
	vInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vInstance.AutomaticEnv()

	if err := vInstance.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}

	if err := vInstance.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	if err := Validate(conf); err != nil {
		return err
	}

	vInstance.WatchConfig()
	vInstance.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)
		reload(vInstance, conf)
	})

	return nil
}

// reload 重新解析并校验配置，成功后原地替换 conf 并依次调用热更新回调.
// 校验失败时保留旧配置。
func reload(v *viper.Viper, conf *Config) bool {
	next := Default()
	if err := v.Unmarshal(next); err != nil {
		slog.Error("reload config unmarshal failed", "error", err)
		return false
	}
	if err := Validate(next); err != nil {
		slog.Error("reload config validation failed", "error", err)
		return false
	}

	*conf = *next
	logging.SetLevel(conf.Log.Level)
	slog.Info("config hot-reloaded and validated successfully")

	hookMu.Lock()
	hooks := append([]func(*Config){}, onReload...)
	hookMu.Unlock()
	for _, hook := range hooks {
		hook(conf)
	}
	return true
}

// Validate 对配置执行结构体校验.
func Validate(conf *Config) error {
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// WriteMasked 将配置以缩进 JSON 写入 w，敏感字段以 ****** 替代.
func WriteMasked(w io.Writer, conf any) error {
	masked, err := Masked(conf)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, masked)
	return err
}

// Masked 返回脱敏后的配置 JSON.
func Masked(conf any) (string, error) {
	data, err := json.Marshal(conf)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		return "", fmt.Errorf("unmarshal config for masking: %w", err)
	}

	mask(configMap)

	out, err := json.MarshalIndent(configMap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal masked config: %w", err)
	}
	return string(out), nil
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}

		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}
