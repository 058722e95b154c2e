package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	xerrors "AssetGrid-Chain/internal/errors"
	"AssetGrid-Chain/pkg/logger"
)

// 配置文件路径与敏感字段的环境变量。
const (
	EnvConfigPath    = "ASSETGRID_CONFIG"
	EnvMySQLDSN      = "ASSETGRID_MYSQL_DSN"
	EnvRedisPassword = "ASSETGRID_REDIS_PASSWORD"
	EnvRabbitMQURL   = "ASSETGRID_RABBITMQ_URL"

	DefaultPath = "configs/assetgrid.yaml"
)

// 存储与队列驱动。
const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"

	QueueNone     = "none"
	QueueMemory   = "memory"
	QueueRedis    = "redis"
	QueueRabbitMQ = "rabbitmq"
)

// Config 描述 AssetGrid 守护进程启动时加载的配置。
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Logging    logger.Config    `json:"logging" yaml:"logging"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Automation AutomationConfig `json:"automation" yaml:"automation"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	Runtime    RuntimeConfig    `json:"runtime" yaml:"runtime"`
}

// ServerConfig 控制 API 服务的监听地址与超时。
type ServerConfig struct {
	Address                string `json:"address" yaml:"address"`
	ReadTimeoutSeconds     int    `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `json:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// ReadTimeout 返回读取超时。
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout 返回写入超时。
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout 返回优雅关闭的最长等待时间。
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// JournalConfig 描述动作记录的存储与队列。
type JournalConfig struct {
	Store StoreConfig `json:"store" yaml:"store"`
	Queue QueueConfig `json:"queue" yaml:"queue"`
}

// StoreConfig 选择记录存储，mysql 驱动需要 DSN。
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

// QueueConfig 选择记录分发队列。
type QueueConfig struct {
	Driver   string         `json:"driver" yaml:"driver"`
	Size     int            `json:"size" yaml:"size"`
	Workers  int            `json:"workers" yaml:"workers"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq" yaml:"rabbitmq"`
}

// RedisConfig 描述 Redis 队列连接。
type RedisConfig struct {
	Address          string `json:"address" yaml:"address"`
	Password         string `json:"password" yaml:"password"`
	DB               int    `json:"db" yaml:"db"`
	Queue            string `json:"queue" yaml:"queue"`
	BlockWaitSeconds int    `json:"block_wait_seconds" yaml:"block_wait_seconds"`
	RetryBackoffMS   int    `json:"retry_backoff_ms" yaml:"retry_backoff_ms"`
}

// RabbitMQConfig 描述 RabbitMQ 队列连接。
type RabbitMQConfig struct {
	URL      string `json:"url" yaml:"url"`
	Queue    string `json:"queue" yaml:"queue"`
	Prefetch int    `json:"prefetch" yaml:"prefetch"`
	Durable  bool   `json:"durable" yaml:"durable"`
}

// AutomationConfig 配置定时任务，表达式为空时对应任务不启用。
type AutomationConfig struct {
	OptimizeSchedule string   `json:"optimize_schedule" yaml:"optimize_schedule"`
	MonitorSchedule  string   `json:"monitor_schedule" yaml:"monitor_schedule"`
	WatchAddresses   []string `json:"watch_addresses" yaml:"watch_addresses"`
}

// MetricsConfig 控制 Prometheus 指标端点。
type MetricsConfig struct {
	Disabled bool   `json:"disabled" yaml:"disabled"`
	Path     string `json:"path" yaml:"path"`
}

// RuntimeConfig 用于放置运行时的通用参数。
type RuntimeConfig struct {
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// ResolvePath 返回配置文件路径，环境变量优先。
func ResolvePath() string {
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" {
		return path
	}
	return DefaultPath
}

// Default 返回仅包含默认值的配置。
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults(".")
	cfg.applyEnv()
	return cfg
}

// Load 解析配置文件。扩展名为 .yaml/.yml 时按 YAML 解析，否则按 JSON。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, xerrors.New(xerrors.CodeConfigFailure, "配置文件路径为空")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfigFailure, err, "读取配置文件失败")
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &cfg)
	default:
		err = json.Unmarshal(content, &cfg)
	}
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeConfigFailure, err, "解析配置失败",
			xerrors.WithMetadata("path", path))
	}

	cfg.applyDefaults(filepath.Dir(path))
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults 在用户未填写部分字段时设置默认值，相对路径以配置文件所在目录为基准。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = 15
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = 10
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	c.Journal.Store.Driver = strings.ToLower(strings.TrimSpace(c.Journal.Store.Driver))
	if c.Journal.Store.Driver == "" {
		c.Journal.Store.Driver = StoreMemory
	}
	c.Journal.Queue.Driver = strings.ToLower(strings.TrimSpace(c.Journal.Queue.Driver))
	if c.Journal.Queue.Driver == "" {
		c.Journal.Queue.Driver = QueueMemory
	}
	if c.Journal.Queue.Size <= 0 {
		c.Journal.Queue.Size = 1024
	}
	if c.Journal.Queue.Workers <= 0 {
		c.Journal.Queue.Workers = 1
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Runtime.DataDir == "" {
		c.Runtime.DataDir = filepath.Join(baseDir, "data")
	} else if !filepath.IsAbs(c.Runtime.DataDir) {
		c.Runtime.DataDir = filepath.Join(baseDir, c.Runtime.DataDir)
	}

	if c.Logging.Audit.Enabled {
		if c.Logging.Audit.Path == "" {
			c.Logging.Audit.Path = filepath.Join(c.Runtime.DataDir, "audit.log")
		} else if !filepath.IsAbs(c.Logging.Audit.Path) {
			c.Logging.Audit.Path = filepath.Join(baseDir, c.Logging.Audit.Path)
		}
	}
}

// applyEnv 用环境变量覆盖敏感字段。
func (c *Config) applyEnv() {
	if dsn := os.Getenv(EnvMySQLDSN); dsn != "" {
		c.Journal.Store.DSN = dsn
	}
	if password := os.Getenv(EnvRedisPassword); password != "" {
		c.Journal.Queue.Redis.Password = password
	}
	if url := os.Getenv(EnvRabbitMQURL); url != "" {
		c.Journal.Queue.RabbitMQ.URL = url
	}
}

// Validate 检查驱动取值与必填的连接参数。
func (c *Config) Validate() error {
	switch c.Journal.Store.Driver {
	case StoreMemory:
	case StoreMySQL:
		if strings.TrimSpace(c.Journal.Store.DSN) == "" {
			return xerrors.New(xerrors.CodeConfigFailure, "mysql 存储需要配置 dsn")
		}
	default:
		return xerrors.New(xerrors.CodeConfigFailure, fmt.Sprintf("不支持的存储驱动 %q", c.Journal.Store.Driver))
	}

	switch c.Journal.Queue.Driver {
	case QueueNone, QueueMemory:
	case QueueRedis:
		if c.Journal.Queue.Redis.Address == "" {
			return xerrors.New(xerrors.CodeConfigFailure, "redis 队列需要配置 address")
		}
	case QueueRabbitMQ:
		if c.Journal.Queue.RabbitMQ.URL == "" {
			return xerrors.New(xerrors.CodeConfigFailure, "rabbitmq 队列需要配置 url")
		}
	default:
		return xerrors.New(xerrors.CodeConfigFailure, fmt.Sprintf("不支持的队列驱动 %q", c.Journal.Queue.Driver))
	}
	return nil
}
