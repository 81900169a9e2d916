package runtree

import (
	"errors"
	"fmt"
	"log"

	"github.com/gonewx/astrorun/pkg/level"
)

// ErrInvalidTierCount 层数小于 2
var ErrInvalidTierCount = errors.New("tier count must be at least 2")

// BuildConfig 建树参数
type BuildConfig struct {
	TierCount         int     // 总层数（>= 2），包含起点层和 Boss 层
	IncludeBossLevels bool    // 最后一层是否为 Boss
	ShopRatio         float64 // 中间层商店比例 [0, 1]
}

// Builder 关卡树构建器
//
// 依次生成起点层、中间层、Boss 层，用 Connector 连接所有相邻层，
// 最后执行 Validate。任何不变量违反都会中止构建。
type Builder struct {
	factory   *level.Factory
	connector *Connector
}

// NewBuilder 创建构建器
func NewBuilder(factory *level.Factory, connector *Connector) *Builder {
	return &Builder{factory: factory, connector: connector}
}

// Build 构建并校验一棵关卡树
//
// 参数：
//   - cfg: 建树参数
//
// 返回：
//   - *Tree: 光标未设置的新树
//   - ConnectStats: 连接统计
//   - error: 层数非法返回 ErrInvalidTierCount；校验失败返回包装了
//     ErrConstructionInvariant 的错误
func (b *Builder) Build(cfg BuildConfig) (*Tree, ConnectStats, error) {
	if cfg.TierCount < 2 {
		return nil, ConnectStats{}, fmt.Errorf("%w: got %d", ErrInvalidTierCount, cfg.TierCount)
	}

	tiers := make([][]*Node, 0, cfg.TierCount)
	tiers = append(tiers, []*Node{NewNode(0, 0, b.factory.CreateRootLevel())})

	for i, levels := range b.factory.CreateMiddleLevels(cfg.TierCount-2, cfg.ShopRatio) {
		tier := i + 1
		nodes := make([]*Node, len(levels))
		for pos, lvl := range levels {
			nodes[pos] = NewNode(tier, pos, lvl)
		}
		tiers = append(tiers, nodes)
	}

	last := cfg.TierCount - 1
	tiers = append(tiers, []*Node{NewNode(last, 0, b.factory.CreateBossLevel(last, cfg.IncludeBossLevels))})

	tree := NewTree(tiers)
	stats := b.connector.ConnectAll(tree)

	if err := tree.Validate(); err != nil {
		return nil, stats, fmt.Errorf("failed to build run tree: %w", err)
	}

	log.Printf("[RunTreeBuilder] Built tree: tiers=%d, nodes=%d, edges=%d, forcedCrossings=%d",
		tree.TierCount(), tree.NodeCount(), tree.EdgeCount(), stats.ForcedCrossings)

	return tree, stats, nil
}
