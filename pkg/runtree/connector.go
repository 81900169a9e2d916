package runtree

import (
	"log"
	"math"

	"github.com/gonewx/astrorun/pkg/random"
)

// Verbose 为 true 时输出每对相邻层的连接细节
var Verbose = false

// ConnectStats 连接统计
type ConnectStats struct {
	PrimaryFallbacks int // 主分配候选会交叉、改用回退搜索的次数
	ExtraEdges       int // 额外添加的分支边数量
	OrphansFixed     int // 为无入边目标补上的边数量
	ForcedCrossings  int // 为保证覆盖而强制接受的交叉边数量
}

// Add 累加另一份统计
func (s *ConnectStats) Add(o ConnectStats) {
	s.PrimaryFallbacks += o.PrimaryFallbacks
	s.ExtraEdges += o.ExtraEdges
	s.OrphansFixed += o.OrphansFixed
	s.ForcedCrossings += o.ForcedCrossings
}

// Connector 相邻层连接器
//
// 为每一对相邻层生成二部图边集，保证：
//   - 同层兄弟节点的连线互不交叉
//   - 每个源节点至少一条出边，每个目标节点至少一条入边
//
// 覆盖优先于不交叉：孤立目标找不到不交叉的源时，会强制接受交叉程度最小的边。
type Connector struct {
	rng random.Source
}

// NewConnector 创建连接器
func NewConnector(rng random.Source) *Connector {
	return &Connector{rng: rng}
}

// ConnectAll 为树中所有相邻层生成连接，原有出边会被替换
func (c *Connector) ConnectAll(t *Tree) ConnectStats {
	var stats ConnectStats
	for i := 0; i+1 < len(t.tiers); i++ {
		stats.Add(c.ConnectTiers(t.tiers[i], t.tiers[i+1]))
	}
	return stats
}

// ConnectTiers 为一对相邻层生成连接
//
// 参数：
//   - src: 第 i 层节点（按位置排列）
//   - dst: 第 i+1 层节点（按位置排列）
//
// 返回：
//   - ConnectStats: 本次连接的统计
func (c *Connector) ConnectTiers(src, dst []*Node) ConnectStats {
	var stats ConnectStats
	m, n := len(src), len(dst)
	if m == 0 || n == 0 {
		return stats
	}

	links := newLinkMatrix(m, n)
	c.assignPrimary(links, &stats)
	c.addExtraEdges(links, &stats)
	c.connectOrphans(links, &stats)

	for i, node := range src {
		node.setConnections(links.targets(i))
	}

	if Verbose {
		log.Printf("[TierConnector] tier %d (%d) -> tier %d (%d): fallbacks=%d extra=%d orphans=%d forced=%d",
			src[0].Tier, m, dst[0].Tier, n,
			stats.PrimaryFallbacks, stats.ExtraEdges, stats.OrphansFixed, stats.ForcedCrossings)
	}

	return stats
}

// assignPrimary 按源节点顺序为每个源分配一条主出边
//
// 候选目标从加权池中抽取：目标 k 在池中出现 n-k 次，
// 靠左的目标更容易被选中，使地图整体向左收拢。
func (c *Connector) assignPrimary(links *linkMatrix, stats *ConnectStats) {
	pool := weightedTargetPool(links.n)
	for i := 0; i < links.m; i++ {
		candidate := pool[c.rng.NextInt(0, len(pool))]
		if links.wouldCreateIntersection(i, candidate) {
			candidate = links.fallbackTarget(i)
			stats.PrimaryFallbacks++
		}
		links.set(i, candidate)
	}
}

// addExtraEdges 随机添加若干不交叉、不重复的分支边
// 目标数量取 [0, m*n/2)，尝试次数上限为目标数量的 3 倍
func (c *Connector) addExtraEdges(links *linkMatrix, stats *ConnectStats) {
	count := c.rng.NextInt(0, links.m*links.n/2)
	added := 0
	for attempts := 0; added < count && attempts < count*3; attempts++ {
		i := c.rng.NextInt(0, links.m)
		t := c.rng.NextInt(0, links.n)
		if links.has(i, t) || links.wouldCreateIntersection(i, t) {
			continue
		}
		links.set(i, t)
		added++
	}
	stats.ExtraEdges += added
}

// connectOrphans 为没有入边的目标补边
// 依次尝试每个源，接受第一个不交叉的；都不行时强制连接交叉程度最小的源
func (c *Connector) connectOrphans(links *linkMatrix, stats *ConnectStats) {
	for t := 0; t < links.n; t++ {
		if links.incoming(t) > 0 {
			continue
		}

		fixed := false
		for i := 0; i < links.m; i++ {
			if !links.wouldCreateIntersection(i, t) {
				links.set(i, t)
				fixed = true
				break
			}
		}

		if !fixed {
			i := links.leastSevereSource(t)
			links.set(i, t)
			stats.ForcedCrossings++
			log.Printf("[TierConnector] Warning: forced crossing edge %d -> %d to keep target covered", i, t)
		}
		stats.OrphansFixed++
	}
}

// weightedTargetPool 构建加权下标池：下标 k 出现 n-k 次
func weightedTargetPool(n int) []int {
	pool := make([]int, 0, n*(n+1)/2)
	for k := 0; k < n; k++ {
		for r := 0; r < n-k; r++ {
			pool = append(pool, k)
		}
	}
	return pool
}

// linkMatrix m×n 的连接矩阵
type linkMatrix struct {
	m, n  int
	cells [][]bool
}

func newLinkMatrix(m, n int) *linkMatrix {
	cells := make([][]bool, m)
	for i := range cells {
		cells[i] = make([]bool, n)
	}
	return &linkMatrix{m: m, n: n, cells: cells}
}

func (lm *linkMatrix) has(i, t int) bool {
	return lm.cells[i][t]
}

func (lm *linkMatrix) set(i, t int) {
	lm.cells[i][t] = true
}

// minTarget 返回源 i 当前最小目标，没有边时 ok 为 false
func (lm *linkMatrix) minTarget(i int) (int, bool) {
	for t := 0; t < lm.n; t++ {
		if lm.cells[i][t] {
			return t, true
		}
	}
	return 0, false
}

// maxTarget 返回源 i 当前最大目标，没有边时 ok 为 false
func (lm *linkMatrix) maxTarget(i int) (int, bool) {
	for t := lm.n - 1; t >= 0; t-- {
		if lm.cells[i][t] {
			return t, true
		}
	}
	return 0, false
}

func (lm *linkMatrix) incoming(t int) int {
	count := 0
	for i := 0; i < lm.m; i++ {
		if lm.cells[i][t] {
			count++
		}
	}
	return count
}

func (lm *linkMatrix) targets(i int) []int {
	out := make([]int, 0, lm.n)
	for t := 0; t < lm.n; t++ {
		if lm.cells[i][t] {
			out = append(out, t)
		}
	}
	return out
}

// wouldCreateIntersection 边 i→t 是否会与其他源已有的边交叉
//
// 对所有其他源 k 做对称检查：
//   - k < i 时要求 max(target_k) <= t
//   - k > i 时要求 min(target_k) >= t
//
// 没有边的源不参与比较。
func (lm *linkMatrix) wouldCreateIntersection(i, t int) bool {
	for k := 0; k < lm.m; k++ {
		if k == i {
			continue
		}
		if k < i {
			if hi, ok := lm.maxTarget(k); ok && hi > t {
				return true
			}
		} else {
			if lo, ok := lm.minTarget(k); ok && lo < t {
				return true
			}
		}
	}
	return false
}

// intersectionSeverity 边 i→t 的交叉程度
// 对 k < i 且 max(target_k) > t 累加 max-t；对 k > i 且 min(target_k) < t 累加 t-min
func (lm *linkMatrix) intersectionSeverity(i, t int) int {
	severity := 0
	for k := 0; k < lm.m; k++ {
		if k == i {
			continue
		}
		if k < i {
			if hi, ok := lm.maxTarget(k); ok && hi > t {
				severity += hi - t
			}
		} else {
			if lo, ok := lm.minTarget(k); ok && lo < t {
				severity += t - lo
			}
		}
	}
	return severity
}

// fallbackTarget 从按比例换算的位置 round(i/m*n) 向两侧交替搜索不交叉的目标
// 全部交叉时返回交叉程度最小的目标
func (lm *linkMatrix) fallbackTarget(i int) int {
	base := int(math.Round(float64(i) / float64(lm.m) * float64(lm.n)))
	if base >= lm.n {
		base = lm.n - 1
	}
	if base < 0 {
		base = 0
	}

	for d := 0; d < lm.n; d++ {
		candidates := []int{base + d, base - d}
		if d == 0 {
			candidates = candidates[:1]
		}
		for _, t := range candidates {
			if t < 0 || t >= lm.n {
				continue
			}
			if !lm.wouldCreateIntersection(i, t) {
				return t
			}
		}
	}

	return lm.leastSevereTarget(i)
}

// leastSevereTarget 返回源 i 交叉程度最小的目标（并列时取最左）
func (lm *linkMatrix) leastSevereTarget(i int) int {
	best, bestSeverity := 0, math.MaxInt
	for t := 0; t < lm.n; t++ {
		if s := lm.intersectionSeverity(i, t); s < bestSeverity {
			best, bestSeverity = t, s
		}
	}
	return best
}

// leastSevereSource 返回目标 t 交叉程度最小的源（并列时取最靠前）
func (lm *linkMatrix) leastSevereSource(t int) int {
	best, bestSeverity := 0, math.MaxInt
	for i := 0; i < lm.m; i++ {
		if s := lm.intersectionSeverity(i, t); s < bestSeverity {
			best, bestSeverity = i, s
		}
	}
	return best
}
