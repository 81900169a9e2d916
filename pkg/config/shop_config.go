package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ShopItem 商店商品
// 购买后扣除资源，并把属性修正累加到本局状态上
type ShopItem struct {
	ID        string             `yaml:"id"`        // 商品ID，如 "thruster_boost"
	Name      string             `yaml:"name"`      // 显示名称
	Cost      map[string]int     `yaml:"cost"`      // 价格，如 {"scrap": 15}
	Modifiers map[string]float64 `yaml:"modifiers"` // 属性修正，如 {"speed": 0.1}
	Heal      int                `yaml:"heal"`      // 回复生命值（可选）
}

// ShopConfig 商店商品目录
type ShopConfig struct {
	Items []ShopItem `yaml:"items"`
}

// LoadShopConfig 从YAML文件加载商店目录
func LoadShopConfig(filepath string) (*ShopConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read shop config file %s: %w", filepath, err)
	}

	cfg, err := ParseShopConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid shop config in %s: %w", filepath, err)
	}
	return cfg, nil
}

// ParseShopConfig 从 YAML 数据解析商店目录
func ParseShopConfig(data []byte) (*ShopConfig, error) {
	var cfg ShopConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse shop config YAML: %w", err)
	}

	if err := validateShopConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Find 按 ID 查找商品
func (c *ShopConfig) Find(id string) (ShopItem, bool) {
	if c == nil {
		return ShopItem{}, false
	}
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return ShopItem{}, false
}

// CheapestCost 返回所有商品中总价最低的价格，目录为空时返回 0
func (c *ShopConfig) CheapestCost() int {
	if c == nil || len(c.Items) == 0 {
		return 0
	}
	cheapest := -1
	for _, item := range c.Items {
		total := 0
		for _, amount := range item.Cost {
			total += amount
		}
		if cheapest < 0 || total < cheapest {
			cheapest = total
		}
	}
	return cheapest
}

func validateShopConfig(cfg *ShopConfig) error {
	seen := make(map[string]bool)
	for i, item := range cfg.Items {
		if item.ID == "" {
			return fmt.Errorf("items[%d]: id is required", i)
		}
		if seen[item.ID] {
			return fmt.Errorf("items[%d]: duplicate id %q", i, item.ID)
		}
		seen[item.ID] = true

		for kind, amount := range item.Cost {
			if amount < 0 {
				return fmt.Errorf("items[%d] (%s): cost[%s] cannot be negative, got %d", i, item.ID, kind, amount)
			}
		}

		if item.Heal < 0 {
			return fmt.Errorf("items[%d] (%s): heal cannot be negative, got %d", i, item.ID, item.Heal)
		}
	}
	return nil
}
