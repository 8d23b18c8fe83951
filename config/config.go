package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Cloak  CloakConfig  `yaml:"cloak"`
	Log    LogConfig    `yaml:"log"`
	Jobs   JobsConfig   `yaml:"jobs"`
	Source SourceConfig `yaml:"source"`
	Output OutputConfig `yaml:"output"`
	Remote RemoteConfig `yaml:"remote"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	MaxFrameBytes  int64    `yaml:"max_frame_bytes"` // websocket 单条消息上限
	AllowedOrigins []string `yaml:"allowed_origins"` // websocket 允许的来源，空表示只允许同源
}

type CloakConfig struct {
	Color        string `yaml:"color"`
	Backend      string `yaml:"backend"` // go | opencv
	KernelSize   int    `yaml:"kernel_size"`
	MaxFrameSize int    `yaml:"max_frame_size"` // 输入帧最长边，0 不缩放
	JPEGQuality  int    `yaml:"jpeg_quality"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

type JobsConfig struct {
	StatsSpec    string `yaml:"stats_spec"`    // 为空时不启用
	SnapshotSpec string `yaml:"snapshot_spec"` // 为空时不启用
	SnapshotDir  string `yaml:"snapshot_dir"`
}

type SourceConfig struct {
	Kind       string `yaml:"kind"` // image | video | camera
	Path       string `yaml:"path"` // 图片/视频路径或 URL，camera 时为设备号
	FPS        int    `yaml:"fps"`
	Background string `yaml:"background"` // 背景图片；为空时采集第一帧
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type RemoteConfig struct {
	URL string `yaml:"url"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":5000",
			MaxFrameBytes: 16 << 20,
		},
		Cloak: CloakConfig{
			Color:       "blue",
			Backend:     "go",
			KernelSize:  5,
			JPEGQuality: 85,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Jobs: JobsConfig{
			StatsSpec:   "@every 1m",
			SnapshotDir: "./output/snapshots",
		},
		Source: SourceConfig{
			Kind: "image",
			FPS:  10,
		},
		Output: OutputConfig{
			Dir: "./output",
		},
	}
}

// Load 在默认值基础上读取 YAML 文件（可为空路径）并应用环境变量
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv CLOAK_ADDR / CLOAK_COLOR / CLOAK_BACKEND / CLOAK_LOG_LEVEL / CLOAK_MAX_FRAME_SIZE
func (c *Config) ApplyEnv() {
	c.Server.Addr = GetEnv("CLOAK_ADDR", c.Server.Addr)
	c.Cloak.Color = GetEnv("CLOAK_COLOR", c.Cloak.Color)
	c.Cloak.Backend = GetEnv("CLOAK_BACKEND", c.Cloak.Backend)
	c.Log.Level = GetEnv("CLOAK_LOG_LEVEL", c.Log.Level)
	if v := GetEnv("CLOAK_MAX_FRAME_SIZE", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cloak.MaxFrameSize = n
		}
	}
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger 按配置创建 slog.Logger
func (l LogConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
