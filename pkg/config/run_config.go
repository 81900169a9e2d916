package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunConfig 一局游戏（run）的生成配置
// 定义关卡树的层数、难度、商店比例以及初始状态
type RunConfig struct {
	TierCount         int            `yaml:"tierCount"`         // 总层数（>= 2），包含起点层和 Boss 层，默认 6
	BaseDifficulty    float64        `yaml:"baseDifficulty"`    // 基础难度（> 0），默认 1.0
	IncludeBossLevels bool           `yaml:"includeBossLevels"` // 最后一层是否为 Boss 关，默认 true
	ShopRatio         float64        `yaml:"shopRatio"`         // 中间层商店比例 [0, 1]，默认 0.2
	Seed              uint64         `yaml:"seed"`              // 随机种子，0 表示由调用方决定（通常取当前时间）
	MinTierWidth      int            `yaml:"minTierWidth"`      // 中间层最小宽度（含），默认 2
	MaxTierWidth      int            `yaml:"maxTierWidth"`      // 中间层最大宽度（不含），默认 5
	StartingHealth    int            `yaml:"startingHealth"`    // 初始生命值，默认 3
	StartingResources map[string]int `yaml:"startingResources"` // 初始资源，如 {"scrap": 10}
}

// DefaultRunConfig 返回默认运行配置
func DefaultRunConfig() RunConfig {
	return RunConfig{
		TierCount:         6,
		BaseDifficulty:    1.0,
		IncludeBossLevels: true,
		ShopRatio:         0.2,
		MinTierWidth:      2,
		MaxTierWidth:      5,
		StartingHealth:    3,
		StartingResources: map[string]int{},
	}
}

// LoadRunConfig 从YAML文件加载运行配置
// 参数：
//
//	filepath - 配置文件的路径（相对或绝对路径）
//
// 返回：
//
//	*RunConfig - 解析后的配置对象
//	error - 如果文件读取、解析或校验失败，返回错误信息
func LoadRunConfig(filepath string) (*RunConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config file %s: %w", filepath, err)
	}

	cfg, err := ParseRunConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid run config in %s: %w", filepath, err)
	}
	return cfg, nil
}

// ParseRunConfig 从 YAML 数据解析运行配置
// 未出现的字段保持默认值
func ParseRunConfig(data []byte) (*RunConfig, error) {
	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config YAML: %w", err)
	}

	ApplyRunDefaults(&cfg)

	if err := ValidateRunConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyRunDefaults 为未设置（零值）的可选字段设置默认值
// 只给出层数、难度、Boss 开关和商店比例的配置也能直接用于开局
func ApplyRunDefaults(cfg *RunConfig) {
	if cfg.MinTierWidth == 0 {
		cfg.MinTierWidth = 2
	}
	if cfg.MaxTierWidth == 0 {
		cfg.MaxTierWidth = 5
	}
	if cfg.StartingHealth == 0 {
		cfg.StartingHealth = 3
	}
	if cfg.StartingResources == nil {
		cfg.StartingResources = map[string]int{}
	}
}

// ValidateRunConfig 验证运行配置的合法性
func ValidateRunConfig(cfg *RunConfig) error {
	if cfg.TierCount < 2 {
		return fmt.Errorf("tierCount must be at least 2, got %d", cfg.TierCount)
	}

	if cfg.BaseDifficulty <= 0 {
		return fmt.Errorf("baseDifficulty must be positive, got %v", cfg.BaseDifficulty)
	}

	if cfg.ShopRatio < 0 || cfg.ShopRatio > 1 {
		return fmt.Errorf("shopRatio must be between 0 and 1, got %v", cfg.ShopRatio)
	}

	if cfg.MinTierWidth < 1 {
		return fmt.Errorf("minTierWidth must be at least 1, got %d", cfg.MinTierWidth)
	}

	if cfg.MaxTierWidth <= cfg.MinTierWidth {
		return fmt.Errorf("maxTierWidth (%d) must be greater than minTierWidth (%d)", cfg.MaxTierWidth, cfg.MinTierWidth)
	}

	if cfg.StartingHealth < 1 {
		return fmt.Errorf("startingHealth must be at least 1, got %d", cfg.StartingHealth)
	}

	for kind, amount := range cfg.StartingResources {
		if amount < 0 {
			return fmt.Errorf("startingResources[%s] cannot be negative, got %d", kind, amount)
		}
	}

	return nil
}
