package runtree

import (
	"errors"
	"fmt"
	"log"

	"github.com/gonewx/astrorun/pkg/level"
)

// ErrCorruptTree 存档中的树结构无法恢复（空 ID 或重复 ID）
var ErrCorruptTree = errors.New("corrupt tree data")

// NodeData 节点的存档结构
// 出边以目标节点 ID 列表保存
type NodeData struct {
	ID          string      `yaml:"id"`
	Tier        int         `yaml:"tier"`
	Position    int         `yaml:"position"`
	Level       level.Level `yaml:"level"`
	Connections []string    `yaml:"connections"`
}

// TierData 一层节点的存档结构
type TierData struct {
	Nodes []NodeData `yaml:"nodes"`
}

// TreeData 整棵树的存档结构
type TreeData struct {
	Tiers         []TierData `yaml:"tiers"`
	CurrentNodeID string     `yaml:"currentNodeId,omitempty"`
}

// PrepForSerialization 将树转换为以 ID 表示出边的存档结构
func (t *Tree) PrepForSerialization() TreeData {
	data := TreeData{
		Tiers:         make([]TierData, len(t.tiers)),
		CurrentNodeID: t.currentID,
	}

	for ti, nodes := range t.tiers {
		tierData := TierData{Nodes: make([]NodeData, len(nodes))}
		for pi, n := range nodes {
			ids := make([]string, 0, len(n.connections))
			for _, succ := range t.Successors(n) {
				ids = append(ids, succ.ID)
			}
			tierData.Nodes[pi] = NodeData{
				ID:          n.ID,
				Tier:        n.Tier,
				Position:    n.Position,
				Level:       n.Level,
				Connections: ids,
			}
		}
		data.Tiers[ti] = tierData
	}

	return data
}

// DeserializeNodeTree 从存档结构重建关卡树
//
// 先按层重建节点和 id→节点 索引，再把每个节点的 ID 列表解析回出边。
// 宽松恢复策略：
//   - 索引中不存在的 ID 直接丢弃
//   - 指向非下一层节点的 ID 同样丢弃（边只能从第 i 层指向第 i+1 层）
//   - 光标 ID 不存在时光标回到虚拟根
//
// 节点的层号和位置以其在存档中的排列为准。
//
// 返回：
//   - *Tree: 重建的树（不做 Validate，由调用方决定）
//   - error: 节点 ID 为空或重复时返回 ErrCorruptTree
func DeserializeNodeTree(data TreeData) (*Tree, error) {
	tiers := make([][]*Node, len(data.Tiers))
	seen := make(map[string]bool)

	for ti, tierData := range data.Tiers {
		nodes := make([]*Node, len(tierData.Nodes))
		for pi, nd := range tierData.Nodes {
			if nd.ID == "" {
				return nil, fmt.Errorf("%w: node (%d,%d) has empty id", ErrCorruptTree, ti, pi)
			}
			if seen[nd.ID] {
				return nil, fmt.Errorf("%w: duplicate node id %s", ErrCorruptTree, nd.ID)
			}
			seen[nd.ID] = true
			nodes[pi] = &Node{ID: nd.ID, Tier: ti, Position: pi, Level: nd.Level}
		}
		tiers[ti] = nodes
	}

	tree := NewTree(tiers)

	dropped := 0
	for ti, tierData := range data.Tiers {
		for pi, nd := range tierData.Nodes {
			node := tiers[ti][pi]
			for _, id := range nd.Connections {
				target, ok := tree.index[id]
				if !ok || target.Tier != ti+1 {
					dropped++
					continue
				}
				node.addConnection(target.Position)
			}
		}
	}

	if data.CurrentNodeID != "" {
		if _, ok := tree.index[data.CurrentNodeID]; ok {
			tree.currentID = data.CurrentNodeID
		} else {
			dropped++
		}
	}

	if dropped > 0 && Verbose {
		log.Printf("[RunTree] Dropped %d dangling references while restoring tree", dropped)
	}

	return tree, nil
}
