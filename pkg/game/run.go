package game

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/gonewx/astrorun/pkg/config"
	"github.com/gonewx/astrorun/pkg/level"
	"github.com/gonewx/astrorun/pkg/runtree"
)

// ResourceScrap 通关普通关卡获得的基础资源
const ResourceScrap = "scrap"

// ErrInsufficientResources 资源不足
var ErrInsufficientResources = errors.New("insufficient resources")

// Run 一局游戏的完整状态
//
// 包含关卡树以及随进度累积的元数据：资源、胜利点数、
// 购买记录带来的属性修正和生命值。开局时创建，结束后丢弃或存档。
type Run struct {
	ID     string           // 本局唯一标识
	Seed   uint64           // 生成种子（0 表示未指定）
	Config config.RunConfig // 生成时使用的配置快照
	Tree   *runtree.Tree    // 关卡树

	Resources     map[string]int     // 资源，如 {"scrap": 12}
	VictoryPoints int                // 胜利点数
	Modifiers     map[string]float64 // 属性修正，如 {"speed": 0.1}
	Purchases     []string           // 已购买商品ID（按购买顺序）
	Health        int                // 当前生命值
	MaxHealth     int                // 最大生命值
	LevelsCleared int                // 已通过的关卡数
}

// NewRun 创建新的一局
func NewRun(id string, cfg config.RunConfig, tree *runtree.Tree) *Run {
	resources := make(map[string]int, len(cfg.StartingResources))
	for kind, amount := range cfg.StartingResources {
		resources[kind] = amount
	}

	return &Run{
		ID:        id,
		Seed:      cfg.Seed,
		Config:    cfg,
		Tree:      tree,
		Resources: resources,
		Modifiers: map[string]float64{},
		Purchases: []string{},
		Health:    cfg.StartingHealth,
		MaxHealth: cfg.StartingHealth,
	}
}

// Resource 返回指定资源数量
func (r *Run) Resource(kind string) int {
	return r.Resources[kind]
}

// AddResources 增加资源，数量小于等于 0 时忽略
func (r *Run) AddResources(kind string, amount int) {
	if amount <= 0 {
		return
	}
	r.Resources[kind] += amount
}

// CanAfford 资源是否足以支付 cost
func (r *Run) CanAfford(cost map[string]int) bool {
	for kind, amount := range cost {
		if r.Resources[kind] < amount {
			return false
		}
	}
	return true
}

// SpendResources 扣除资源
// 任意一项不足时不扣除任何资源，返回 ErrInsufficientResources
func (r *Run) SpendResources(cost map[string]int) error {
	if !r.CanAfford(cost) {
		return fmt.Errorf("%w: need %v, have %v", ErrInsufficientResources, cost, r.Resources)
	}
	for kind, amount := range cost {
		r.Resources[kind] -= amount
	}
	return nil
}

// ApplyPurchase 购买商品：扣除价格、累加属性修正、回复生命并记录购买
func (r *Run) ApplyPurchase(item config.ShopItem) error {
	if err := r.SpendResources(item.Cost); err != nil {
		return err
	}

	for stat, delta := range item.Modifiers {
		r.Modifiers[stat] += delta
	}
	if item.Heal > 0 {
		r.Heal(item.Heal)
	}
	r.Purchases = append(r.Purchases, item.ID)
	return nil
}

// Modifier 返回指定属性的累计修正
func (r *Run) Modifier(stat string) float64 {
	return r.Modifiers[stat]
}

// ModifierNames 返回所有属性名（排序）
func (r *Run) ModifierNames() []string {
	names := make([]string, 0, len(r.Modifiers))
	for name := range r.Modifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyDamage 扣除生命值（不低于 0）
//
// 返回：
//   - bool: 生命值是否归零
func (r *Run) ApplyDamage(amount int) bool {
	if amount > 0 {
		r.Health -= amount
		if r.Health < 0 {
			r.Health = 0
		}
	}
	return r.Health == 0
}

// Heal 回复生命值（不超过最大值）
func (r *Run) Heal(amount int) {
	if amount <= 0 {
		return
	}
	r.Health += amount
	if r.Health > r.MaxHealth {
		r.Health = r.MaxHealth
	}
}

// Reward 通关奖励
type Reward struct {
	VictoryPoints int
	Resources     map[string]int
}

// LevelReward 计算关卡通关奖励
//
// 规则：
//   - 商店：无奖励
//   - Boss：50 × 难度倍率（四舍五入）胜利点数
//   - 其他：10 × 难度倍率胜利点数，外加 5 个 scrap
func LevelReward(lvl level.Level) Reward {
	switch lvl.Type {
	case level.TypeShop:
		return Reward{Resources: map[string]int{}}
	case level.TypeBoss:
		return Reward{
			VictoryPoints: int(math.Round(50 * lvl.DifficultyMultiplier)),
			Resources:     map[string]int{},
		}
	default:
		return Reward{
			VictoryPoints: int(math.Round(10 * lvl.DifficultyMultiplier)),
			Resources:     map[string]int{ResourceScrap: 5},
		}
	}
}

// applyReward 将奖励累加到本局状态
func (r *Run) applyReward(rw Reward) {
	r.VictoryPoints += rw.VictoryPoints
	for kind, amount := range rw.Resources {
		r.AddResources(kind, amount)
	}
}
