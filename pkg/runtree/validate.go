package runtree

import (
	"errors"
	"fmt"
)

// ErrConstructionInvariant 关卡树违反构造不变量
//
// 正确的生成算法永远不应产生该错误；出现即视为算法缺陷，
// 调用方必须中止建树，不得静默恢复。
var ErrConstructionInvariant = errors.New("construction invariant violated")

// 不变量规则名
const (
	RuleEmptyTier      = "empty-tier"        // 某层没有节点
	RuleNoOutgoing     = "no-outgoing"       // 非最后一层节点没有出边
	RuleNoIncoming     = "no-incoming"       // 非第 0 层节点没有入边
	RuleCrossing       = "crossing"          // 兄弟节点的目标区间交叉
	RuleEdgeOutOfRange = "edge-out-of-range" // 出边指向下一层不存在的位置
	RuleTerminalEdges  = "terminal-edges"    // 最后一层节点存在出边
)

// InvariantViolation 描述一次不变量违反
type InvariantViolation struct {
	Rule     string // 违反的规则
	Tier     int    // 所在层
	Position int    // 层内位置
	Other    int    // 交叉规则中的另一个兄弟节点位置，其他规则为 -1
}

// Error 实现 error 接口
func (v *InvariantViolation) Error() string {
	if v.Rule == RuleCrossing {
		return fmt.Sprintf("%s: %s between nodes (%d,%d) and (%d,%d)",
			ErrConstructionInvariant, v.Rule, v.Tier, v.Position, v.Tier, v.Other)
	}
	return fmt.Sprintf("%s: %s at node (%d,%d)", ErrConstructionInvariant, v.Rule, v.Tier, v.Position)
}

// Unwrap 使 errors.Is(err, ErrConstructionInvariant) 成立
func (v *InvariantViolation) Unwrap() error {
	return ErrConstructionInvariant
}

func violation(rule string, tier, position int) *InvariantViolation {
	return &InvariantViolation{Rule: rule, Tier: tier, Position: position, Other: -1}
}

// Validate 校验整棵树的结构不变量
//
// 检查：
//   - 每层至少一个节点，最后一层节点没有出边
//   - 非最后一层的每个节点至少一条出边，且目标位置合法
//   - 非第 0 层的每个节点至少一条入边
//   - 同层兄弟节点的目标区间不以交叉方式重叠（aMin<bMin<aMax 或对称情况）
//
// 校验是纯函数，可重复调用。
//
// 返回：
//   - error: 第一个违反的不变量（*InvariantViolation），全部满足时返回 nil
func (t *Tree) Validate() error {
	last := len(t.tiers) - 1
	for ti, nodes := range t.tiers {
		if len(nodes) == 0 {
			return violation(RuleEmptyTier, ti, 0)
		}

		if ti == last {
			for _, n := range nodes {
				if len(n.connections) > 0 {
					return violation(RuleTerminalEdges, ti, n.Position)
				}
			}
			break
		}

		if err := t.validateOutgoing(ti); err != nil {
			return err
		}
		if err := t.validateIncoming(ti + 1); err != nil {
			return err
		}
		if err := t.validateSiblingRanges(ti); err != nil {
			return err
		}
	}
	return nil
}

// validateOutgoing 检查第 tier 层每个节点都有合法出边
func (t *Tree) validateOutgoing(tier int) error {
	width := len(t.tiers[tier+1])
	for _, n := range t.tiers[tier] {
		if len(n.connections) == 0 {
			return violation(RuleNoOutgoing, tier, n.Position)
		}
		for _, p := range n.connections {
			if p < 0 || p >= width {
				return violation(RuleEdgeOutOfRange, tier, n.Position)
			}
		}
	}
	return nil
}

// validateIncoming 检查第 tier 层每个节点都有入边
func (t *Tree) validateIncoming(tier int) error {
	covered := make([]bool, len(t.tiers[tier]))
	for _, src := range t.tiers[tier-1] {
		for _, p := range src.connections {
			covered[p] = true
		}
	}
	for pos, ok := range covered {
		if !ok {
			return violation(RuleNoIncoming, tier, pos)
		}
	}
	return nil
}

// validateSiblingRanges 检查第 tier 层兄弟节点的目标区间不交叉
func (t *Tree) validateSiblingRanges(tier int) error {
	nodes := t.tiers[tier]
	for a := 0; a < len(nodes); a++ {
		aMin, aMax, ok := nodes[a].targetRange()
		if !ok {
			continue
		}
		for b := a + 1; b < len(nodes); b++ {
			bMin, bMax, ok := nodes[b].targetRange()
			if !ok {
				continue
			}
			if (aMin < bMin && bMin < aMax) || (bMin < aMin && aMin < bMax) {
				return &InvariantViolation{Rule: RuleCrossing, Tier: tier, Position: a, Other: b}
			}
		}
	}
	return nil
}

// Crossing 一对存在逆序连线的兄弟节点
type Crossing struct {
	Tier  int // 源节点所在层
	Left  int // 位置较小的源
	Right int // 位置较大的源
}

// CrossingPairs 返回所有满足 max(targets(a)) > min(targets(b))（a<b）的兄弟节点对
//
// 这是比 Validate 更严格的逐边逆序检查，用于诊断强制交叉边。
// 正常生成的树应返回空列表。
func (t *Tree) CrossingPairs() []Crossing {
	var out []Crossing
	for ti, nodes := range t.tiers {
		for a := 0; a < len(nodes); a++ {
			_, aMax, ok := nodes[a].targetRange()
			if !ok {
				continue
			}
			for b := a + 1; b < len(nodes); b++ {
				bMin, _, ok := nodes[b].targetRange()
				if !ok {
					continue
				}
				if aMax > bMin {
					out = append(out, Crossing{Tier: ti, Left: a, Right: b})
				}
			}
		}
	}
	return out
}
