package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// 存储后端
const (
	BackendGdata    = "gdata"    // 跨平台用户数据目录（默认）
	BackendFile     = "file"     // 指定目录下的普通文件
	BackendMemory   = "memory"   // 仅内存（调试、模拟）
	BackendPostgres = "postgres" // PostgreSQL 表
)

// 存档格式
const (
	FormatYAML = "yaml" // 可读的 YAML（默认）
	FormatGob  = "gob"  // 紧凑的 gob 二进制
)

// AppConfig 应用级配置：存储后端和事件发布
type AppConfig struct {
	SaveSlot string        `yaml:"saveSlot"` // 存档槽位名，默认 "current"
	Storage  StorageConfig `yaml:"storage"`
	Events   EventsConfig  `yaml:"events"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Backend     string `yaml:"backend"`     // gdata / file / memory / postgres
	AppName     string `yaml:"appName"`     // gdata 应用名，默认 "astrorun"
	Dir         string `yaml:"dir"`         // file 后端目录，默认 "data/saves"
	Format      string `yaml:"format"`      // yaml / gob
	PostgresDSN string `yaml:"postgresDsn"` // 为空时从 PG* 环境变量拼接
}

// EventsConfig 运行事件发布配置
type EventsConfig struct {
	MQTTURL  string `yaml:"mqttUrl"`  // 为空表示不发布
	Topic    string `yaml:"topic"`    // 默认 "astrorun/events"
	ClientID string `yaml:"clientId"` // 默认 "astrorun"

	SocketIOURL       string `yaml:"socketIoUrl"`       // socket.io 看板地址，为空表示不推送
	SocketIONamespace string `yaml:"socketIoNamespace"` // 默认 "/"
	SocketIOEvent     string `yaml:"socketIoEvent"`     // 默认 "run_event"
}

// DefaultAppConfig 返回默认应用配置
func DefaultAppConfig() AppConfig {
	cfg := AppConfig{}
	applyAppDefaults(&cfg)
	return cfg
}

// LoadAppConfig 从YAML文件加载应用配置
func LoadAppConfig(filepath string) (*AppConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read app config file %s: %w", filepath, err)
	}

	cfg, err := ParseAppConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid app config in %s: %w", filepath, err)
	}
	return cfg, nil
}

// ParseAppConfig 从 YAML 数据解析应用配置
func ParseAppConfig(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse app config YAML: %w", err)
	}

	applyAppDefaults(&cfg)

	if err := validateAppConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyAppDefaults(cfg *AppConfig) {
	if cfg.SaveSlot == "" {
		cfg.SaveSlot = "current"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendGdata
	}
	if cfg.Storage.AppName == "" {
		cfg.Storage.AppName = "astrorun"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data/saves"
	}
	if cfg.Storage.Format == "" {
		cfg.Storage.Format = FormatYAML
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = "astrorun/events"
	}
	if cfg.Events.ClientID == "" {
		cfg.Events.ClientID = "astrorun"
	}
	if cfg.Events.SocketIONamespace == "" {
		cfg.Events.SocketIONamespace = "/"
	}
	if cfg.Events.SocketIOEvent == "" {
		cfg.Events.SocketIOEvent = "run_event"
	}
}

func validateAppConfig(cfg *AppConfig) error {
	validBackends := map[string]bool{
		BackendGdata:    true,
		BackendFile:     true,
		BackendMemory:   true,
		BackendPostgres: true,
	}
	if !validBackends[cfg.Storage.Backend] {
		return fmt.Errorf("storage.backend must be one of: gdata, file, memory, postgres, got %q", cfg.Storage.Backend)
	}

	if cfg.Storage.Format != FormatYAML && cfg.Storage.Format != FormatGob {
		return fmt.Errorf("storage.format must be one of: yaml, gob, got %q", cfg.Storage.Format)
	}

	return nil
}
