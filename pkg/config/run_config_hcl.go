package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclRunConfig run.hcl 的解码结构
// 所有属性都是可选的，未出现的字段保持默认值
type hclRunConfig struct {
	TierCount         *int      `hcl:"tier_count,optional"`
	BaseDifficulty    *float64  `hcl:"base_difficulty,optional"`
	IncludeBossLevels *bool     `hcl:"include_boss_levels,optional"`
	ShopRatio         *float64  `hcl:"shop_ratio,optional"`
	Seed              *uint64   `hcl:"seed,optional"`
	MinTierWidth      *int      `hcl:"min_tier_width,optional"`
	MaxTierWidth      *int      `hcl:"max_tier_width,optional"`
	StartingHealth    *int      `hcl:"starting_health,optional"`
	StartingResources cty.Value `hcl:"starting_resources,optional"`
}

// LoadRunConfigHCL 从 HCL 文件加载运行配置
func LoadRunConfigHCL(filepath string) (*RunConfig, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config file %s: %w", filepath, err)
	}
	return ParseRunConfigHCL(data, filepath)
}

// ParseRunConfigHCL 从 HCL 数据解析运行配置
//
// 示例：
//
//	tier_count      = 8
//	shop_ratio      = 0.25
//	starting_resources = {
//	  scrap = 10
//	}
//
// 参数：
//   - data: HCL 源码
//   - filename: 用于错误信息中的文件名
func ParseRunConfigHCL(data []byte, filename string) (*RunConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}

	var raw hclRunConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", filename, diags.Error())
	}

	cfg := DefaultRunConfig()
	if raw.TierCount != nil {
		cfg.TierCount = *raw.TierCount
	}
	if raw.BaseDifficulty != nil {
		cfg.BaseDifficulty = *raw.BaseDifficulty
	}
	if raw.IncludeBossLevels != nil {
		cfg.IncludeBossLevels = *raw.IncludeBossLevels
	}
	if raw.ShopRatio != nil {
		cfg.ShopRatio = *raw.ShopRatio
	}
	if raw.Seed != nil {
		cfg.Seed = *raw.Seed
	}
	if raw.MinTierWidth != nil {
		cfg.MinTierWidth = *raw.MinTierWidth
	}
	if raw.MaxTierWidth != nil {
		cfg.MaxTierWidth = *raw.MaxTierWidth
	}
	if raw.StartingHealth != nil {
		cfg.StartingHealth = *raw.StartingHealth
	}

	resources, err := decodeResources(raw.StartingResources)
	if err != nil {
		return nil, fmt.Errorf("invalid starting_resources in %s: %w", filename, err)
	}
	if resources != nil {
		cfg.StartingResources = resources
	}

	ApplyRunDefaults(&cfg)

	if err := ValidateRunConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decodeResources 将对象或映射字面量转换为 map[string]int
// 属性缺失时返回 nil；数量必须是整数
func decodeResources(val cty.Value) (map[string]int, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, nil
	}

	converted, err := convert.Convert(val, cty.Map(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("must be a map of numbers: %w", err)
	}

	resources := map[string]int{}
	if converted.LengthInt() == 0 {
		return resources, nil
	}
	if err := gocty.FromCtyValue(converted, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}
