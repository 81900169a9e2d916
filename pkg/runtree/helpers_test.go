package runtree

import (
	"testing"

	"github.com/gonewx/astrorun/pkg/level"
)

// makeTree 按层宽创建没有边的树
func makeTree(widths ...int) *Tree {
	tiers := make([][]*Node, len(widths))
	for ti, w := range widths {
		tiers[ti] = make([]*Node, 0, w)
		for p := 0; p < w; p++ {
			tiers[ti] = append(tiers[ti], NewNode(ti, p, level.Level{Type: level.TypeAsteroids}))
		}
	}
	return NewTree(tiers)
}

// connect 添加边 {tier, src, dst}
func connect(t *testing.T, tree *Tree, edges ...[3]int) {
	t.Helper()
	for _, e := range edges {
		if err := tree.Connect(e[0], e[1], e[2]); err != nil {
			t.Fatalf("Connect(%v) failed: %v", e, err)
		}
	}
}

// nodeAt 返回指定位置的节点，不存在时终止测试
func nodeAt(t *testing.T, tree *Tree, tier, pos int) *Node {
	t.Helper()
	n, ok := tree.NodeAt(tier, pos)
	if !ok {
		t.Fatalf("node (%d,%d) not found", tier, pos)
	}
	return n
}

// diamond 返回 1-2-1 的合法菱形树
func diamond(t *testing.T) *Tree {
	tree := makeTree(1, 2, 1)
	connect(t, tree,
		[3]int{0, 0, 0}, [3]int{0, 0, 1},
		[3]int{1, 0, 0}, [3]int{1, 1, 0},
	)
	return tree
}
