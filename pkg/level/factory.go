package level

import (
	"math"

	"github.com/gonewx/astrorun/pkg/random"
)

// 中间层宽度的默认取值区间 [DefaultMinTierWidth, DefaultMaxTierWidth)
const (
	DefaultMinTierWidth = 2
	DefaultMaxTierWidth = 5
)

// Factory 关卡工厂
//
// 职责：
//   - 按层号计算难度并创建关卡描述符
//   - 决定中间层的宽度，并抽样出商店节点
//
// 所有随机性都来自注入的 random.Source。
type Factory struct {
	rng            random.Source
	resolver       SceneResolver
	baseDifficulty float64
	minWidth       int
	maxWidth       int
	shopThreshold  *int
}

// NewFactory 创建关卡工厂
//
// 参数：
//   - rng: 随机数源
//   - baseDifficulty: 基础难度
//
// 返回：
//   - *Factory: 使用默认场景映射和默认层宽的工厂
func NewFactory(rng random.Source, baseDifficulty float64) *Factory {
	return &Factory{
		rng:            rng,
		resolver:       DefaultSceneResolver,
		baseDifficulty: baseDifficulty,
		minWidth:       DefaultMinTierWidth,
		maxWidth:       DefaultMaxTierWidth,
	}
}

// SetSceneResolver 设置场景映射函数，nil 恢复默认映射
func (f *Factory) SetSceneResolver(resolver SceneResolver) {
	if resolver == nil {
		resolver = DefaultSceneResolver
	}
	f.resolver = resolver
}

// SetTierWidth 设置中间层宽度区间 [min, max)
// 非法区间（min < 1 或 max <= min）会被忽略
func (f *Factory) SetTierWidth(min, max int) {
	if min < 1 || max <= min {
		return
	}
	f.minWidth = min
	f.maxWidth = max
}

// SetShopThreshold 设置商店节点的进入资源下限，nil 表示不设限
func (f *Factory) SetShopThreshold(threshold *int) {
	f.shopThreshold = threshold
}

// CreateLevel 创建指定类型和层号的关卡
//
// 参数：
//   - t: 关卡类型
//   - tier: 层号
//
// 返回：
//   - Level: 新关卡描述符
func (f *Factory) CreateLevel(t LevelType, tier int) Level {
	lvl := Level{
		Seed:                 int64(f.rng.NextInt(0, math.MaxInt32)),
		Type:                 t,
		DifficultyMultiplier: DifficultyMultiplier(f.baseDifficulty, tier),
		SceneID:              f.resolver(t),
	}

	switch t {
	case TypeSurvival:
		d := SurvivalDuration(tier)
		lvl.DurationLimit = &d
	case TypeShop:
		if f.shopThreshold != nil {
			v := *f.shopThreshold
			lvl.RequiredResourceThreshold = &v
		}
	}

	return lvl
}

// CreateRootLevel 创建第 0 层的唯一起始关卡
func (f *Factory) CreateRootLevel() Level {
	return f.CreateLevel(TypeAsteroids, 0)
}

// CreateBossLevel 创建最后一层的唯一关卡
//
// 参数：
//   - tier: 最后一层的层号
//   - bossesEnabled: 为 false 时生成普通陨石关
func (f *Factory) CreateBossLevel(tier int, bossesEnabled bool) Level {
	if !bossesEnabled {
		return f.CreateLevel(TypeAsteroids, tier)
	}
	return f.CreateLevel(TypeBoss, tier)
}

// CreateMiddleLevels 创建所有中间层的关卡
//
// 每层宽度取 NextInt(minWidth, maxWidth)；随后在全部中间关卡中
// 无放回地抽取 round(total * shopRatio) 个作为商店，其余为陨石关。
//
// 参数：
//   - middleTiers: 中间层数量（中间层层号从 1 开始）
//   - shopRatio: 商店比例，限制在 [0, 1]
//
// 返回：
//   - [][]Level: 按层排列的关卡，下标 0 对应第 1 层
func (f *Factory) CreateMiddleLevels(middleTiers int, shopRatio float64) [][]Level {
	if middleTiers <= 0 {
		return [][]Level{}
	}
	if shopRatio < 0 {
		shopRatio = 0
	}
	if shopRatio > 1 {
		shopRatio = 1
	}

	widths := make([]int, middleTiers)
	total := 0
	for i := range widths {
		widths[i] = f.rng.NextInt(f.minWidth, f.maxWidth)
		total += widths[i]
	}

	shopCount := int(math.Round(float64(total) * shopRatio))
	shops := make(map[int]bool, shopCount)
	for _, idx := range random.Sample(f.rng, total, shopCount) {
		shops[idx] = true
	}

	tiers := make([][]Level, middleTiers)
	flat := 0
	for i, width := range widths {
		tier := i + 1
		tiers[i] = make([]Level, width)
		for j := 0; j < width; j++ {
			t := TypeAsteroids
			if shops[flat] {
				t = TypeShop
			}
			tiers[i][j] = f.CreateLevel(t, tier)
			flat++
		}
	}

	return tiers
}
