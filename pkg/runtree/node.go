// Package runtree 实现关卡地图（分层有向无环图）的生成、校验、遍历与序列化
//
// 树由若干层组成，每层是按位置排列的节点；边只从第 i 层指向第 i+1 层。
// 节点之间不保存指针：出边以“下一层中的位置”存储，节点 ID 只用于查找和存档。
package runtree

import (
	"sort"

	"github.com/google/uuid"

	"github.com/gonewx/astrorun/pkg/level"
)

// Node 关卡树中的一个节点
type Node struct {
	ID       string      // 稳定的唯一标识，生成后不再变化
	Tier     int         // 所在层号
	Position int         // 层内位置（从左到右）
	Level    level.Level // 节点拥有的关卡描述符

	connections []int // 出边：下一层中目标节点的位置，升序且无重复
}

// NewNode 创建新节点并分配唯一 ID
func NewNode(tier, position int, lvl level.Level) *Node {
	return &Node{
		ID:       uuid.NewString(),
		Tier:     tier,
		Position: position,
		Level:    lvl,
	}
}

// Connections 返回出边目标位置的副本（升序）
func (n *Node) Connections() []int {
	out := make([]int, len(n.connections))
	copy(out, n.connections)
	return out
}

// ConnectionCount 返回出边数量
func (n *Node) ConnectionCount() int {
	return len(n.connections)
}

// HasConnectionTo 是否存在指向下一层 position 的出边
func (n *Node) HasConnectionTo(position int) bool {
	i := sort.SearchInts(n.connections, position)
	return i < len(n.connections) && n.connections[i] == position
}

// addConnection 插入一条出边并保持升序，重复边被忽略
func (n *Node) addConnection(position int) bool {
	i := sort.SearchInts(n.connections, position)
	if i < len(n.connections) && n.connections[i] == position {
		return false
	}
	n.connections = append(n.connections, 0)
	copy(n.connections[i+1:], n.connections[i:])
	n.connections[i] = position
	return true
}

// setConnections 用给定位置集合替换出边（排序并去重）
func (n *Node) setConnections(positions []int) {
	n.connections = n.connections[:0]
	for _, p := range positions {
		n.addConnection(p)
	}
}

// targetRange 返回出边目标位置的最小值和最大值，没有出边时 ok 为 false
func (n *Node) targetRange() (lo, hi int, ok bool) {
	if len(n.connections) == 0 {
		return 0, 0, false
	}
	return n.connections[0], n.connections[len(n.connections)-1], true
}
