package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseRunConfigHCL(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
		check   func(t *testing.T, cfg *RunConfig)
	}{
		{
			name: "完整配置",
			src: `
tier_count          = 8
base_difficulty     = 1.5
include_boss_levels = false
shop_ratio          = 0.25
seed                = 12345
min_tier_width      = 3
max_tier_width      = 6
starting_health     = 5
starting_resources = {
  scrap = 10
  fuel  = 2
}
`,
			check: func(t *testing.T, cfg *RunConfig) {
				if cfg.TierCount != 8 || cfg.BaseDifficulty != 1.5 || cfg.IncludeBossLevels {
					t.Errorf("unexpected core fields: %+v", cfg)
				}
				if cfg.ShopRatio != 0.25 || cfg.Seed != 12345 {
					t.Errorf("shopRatio=%v seed=%d", cfg.ShopRatio, cfg.Seed)
				}
				if cfg.MinTierWidth != 3 || cfg.MaxTierWidth != 6 || cfg.StartingHealth != 5 {
					t.Errorf("width=%d..%d health=%d", cfg.MinTierWidth, cfg.MaxTierWidth, cfg.StartingHealth)
				}
				if cfg.StartingResources["scrap"] != 10 || cfg.StartingResources["fuel"] != 2 {
					t.Errorf("StartingResources = %v", cfg.StartingResources)
				}
			},
		},
		{
			name: "空文件使用默认值",
			src:  "",
			check: func(t *testing.T, cfg *RunConfig) {
				def := DefaultRunConfig()
				if cfg.TierCount != def.TierCount || cfg.ShopRatio != def.ShopRatio || !cfg.IncludeBossLevels {
					t.Errorf("defaults not applied: %+v", cfg)
				}
				if cfg.StartingResources == nil {
					t.Error("StartingResources should not be nil")
				}
			},
		},
		{
			name: "空资源表",
			src:  "starting_resources = {}\n",
			check: func(t *testing.T, cfg *RunConfig) {
				if len(cfg.StartingResources) != 0 {
					t.Errorf("StartingResources = %v, want empty", cfg.StartingResources)
				}
			},
		},
		{name: "语法错误", src: "tier_count = ", wantErr: true},
		{name: "未知属性", src: "tiers = 4\n", wantErr: true},
		{name: "层数非法", src: "tier_count = 1\n", wantErr: true},
		{name: "资源不是整数", src: "starting_resources = { scrap = 1.5 }\n", wantErr: true},
		{name: "资源不是数字", src: "starting_resources = { scrap = \"lots\" }\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseRunConfigHCL([]byte(tt.src), "run.hcl")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRunConfigHCL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && err == nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadRunConfigHCL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.hcl")
	if err := os.WriteFile(path, []byte("tier_count = 4\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadRunConfigHCL(path)
	if err != nil {
		t.Fatalf("LoadRunConfigHCL failed: %v", err)
	}
	if cfg.TierCount != 4 {
		t.Errorf("TierCount = %d, want 4", cfg.TierCount)
	}

	if _, err := LoadRunConfigHCL(filepath.Join(dir, "missing.hcl")); err == nil {
		t.Error("expected error for missing file")
	}
}
