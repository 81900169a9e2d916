package runtree

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeNotFound 节点 ID 不存在
	ErrNodeNotFound = errors.New("node not found")
	// ErrNotReachable 目标节点不能从当前光标位置到达
	ErrNotReachable = errors.New("node not reachable from cursor")
)

// Tree 分层关卡树
//
// 节点由各层的切片持有；id→节点的索引可以随时从层结构重建，
// 从来不是数据的来源。光标为空表示尚未选择起点（位于虚拟根）。
//
// Tree 不支持并发修改：生成完成后结构不再变化，只有光标移动。
type Tree struct {
	tiers     [][]*Node
	index     map[string]*Node
	currentID string
}

// NewTree 由按层排列的节点创建关卡树
//
// 节点的 Tier/Position 会被改写为其在切片中的实际下标，
// 已有的出边保持不变（调用方负责其合法性，Validate 会检查）。
func NewTree(tiers [][]*Node) *Tree {
	t := &Tree{tiers: tiers}
	for ti, nodes := range tiers {
		for pi, n := range nodes {
			n.Tier = ti
			n.Position = pi
		}
	}
	t.RebuildIndex()
	return t
}

// RebuildIndex 根据层结构重建 id→节点 索引
func (t *Tree) RebuildIndex() {
	t.index = make(map[string]*Node)
	for _, nodes := range t.tiers {
		for _, n := range nodes {
			t.index[n.ID] = n
		}
	}
}

// TierCount 返回层数
func (t *Tree) TierCount() int {
	return len(t.tiers)
}

// Tier 返回指定层的节点列表副本，越界返回 nil
func (t *Tree) Tier(i int) []*Node {
	if i < 0 || i >= len(t.tiers) {
		return nil
	}
	out := make([]*Node, len(t.tiers[i]))
	copy(out, t.tiers[i])
	return out
}

// TierWidth 返回指定层的节点数，越界返回 0
func (t *Tree) TierWidth(i int) int {
	if i < 0 || i >= len(t.tiers) {
		return 0
	}
	return len(t.tiers[i])
}

// NodeAt 按层号和位置查找节点
func (t *Tree) NodeAt(tier, position int) (*Node, bool) {
	if tier < 0 || tier >= len(t.tiers) {
		return nil, false
	}
	if position < 0 || position >= len(t.tiers[tier]) {
		return nil, false
	}
	return t.tiers[tier][position], true
}

// NodeByID 按 ID 查找节点
func (t *Tree) NodeByID(id string) (*Node, bool) {
	n, ok := t.index[id]
	return n, ok
}

// NodeCount 返回节点总数
func (t *Tree) NodeCount() int {
	count := 0
	for _, nodes := range t.tiers {
		count += len(nodes)
	}
	return count
}

// EdgeCount 返回边总数
func (t *Tree) EdgeCount() int {
	count := 0
	for _, nodes := range t.tiers {
		for _, n := range nodes {
			count += len(n.connections)
		}
	}
	return count
}

// Successors 返回节点的后继节点（按位置升序）
func (t *Tree) Successors(n *Node) []*Node {
	if n == nil || n.Tier+1 >= len(t.tiers) {
		return nil
	}
	next := t.tiers[n.Tier+1]
	out := make([]*Node, 0, len(n.connections))
	for _, p := range n.connections {
		if p >= 0 && p < len(next) {
			out = append(out, next[p])
		}
	}
	return out
}

// IncomingCount 返回指向该节点的入边数量
func (t *Tree) IncomingCount(n *Node) int {
	if n == nil || n.Tier == 0 || n.Tier >= len(t.tiers) {
		return 0
	}
	count := 0
	for _, src := range t.tiers[n.Tier-1] {
		if src.HasConnectionTo(n.Position) {
			count++
		}
	}
	return count
}

// Connect 在第 tier 层的 src 与第 tier+1 层的 dst 之间加一条边
//
// 返回：
//   - error: 位置越界时返回错误；重复边不视为错误
func (t *Tree) Connect(tier, src, dst int) error {
	from, ok := t.NodeAt(tier, src)
	if !ok {
		return fmt.Errorf("source node (%d,%d) out of range", tier, src)
	}
	if _, ok := t.NodeAt(tier+1, dst); !ok {
		return fmt.Errorf("target node (%d,%d) out of range", tier+1, dst)
	}
	from.addConnection(dst)
	return nil
}

// IsTerminal 节点是否为终点（最后一层且没有出边）
func (t *Tree) IsTerminal(n *Node) bool {
	return n != nil && n.Tier == len(t.tiers)-1 && len(n.connections) == 0
}

// Current 返回光标所在节点，未开始时返回 nil
func (t *Tree) Current() *Node {
	if t.currentID == "" {
		return nil
	}
	return t.index[t.currentID]
}

// IsComplete 光标是否停在终点
func (t *Tree) IsComplete() bool {
	return t.IsTerminal(t.Current())
}

// Selectable 返回当前可以选择的节点
// 光标为空时是第 0 层的全部节点，否则是当前节点的后继
func (t *Tree) Selectable() []*Node {
	cur := t.Current()
	if cur == nil {
		return t.Tier(0)
	}
	return t.Successors(cur)
}

// CanMoveTo 光标能否移动到指定节点
func (t *Tree) CanMoveTo(id string) bool {
	target, ok := t.index[id]
	if !ok {
		return false
	}
	cur := t.Current()
	if cur == nil {
		return target.Tier == 0
	}
	return target.Tier == cur.Tier+1 && cur.HasConnectionTo(target.Position)
}

// MoveTo 将光标移动到指定节点
//
// 返回：
//   - error: 节点不存在返回 ErrNodeNotFound，不可到达返回 ErrNotReachable；
//     出错时光标保持不变
func (t *Tree) MoveTo(id string) error {
	if _, ok := t.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if !t.CanMoveTo(id) {
		return fmt.Errorf("%w: %s", ErrNotReachable, id)
	}
	t.currentID = id
	return nil
}

// ResetCursor 将光标移回虚拟根
func (t *Tree) ResetCursor() {
	t.currentID = ""
}
