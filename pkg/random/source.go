// Package random 提供可注入的伪随机数源
//
// 地图生成、关卡种子、商店节点抽样都通过 Source 取随机数，
// 因此只要种子相同，整棵关卡树就可以完全复现。
package random

import (
	"math/rand/v2"
)

// Source 随机数源接口
type Source interface {
	// NextInt 返回 [min, max) 区间内的整数；max <= min 时返回 min
	NextInt(min, max int) int
	// NextFloat01 返回 [0, 1) 区间内的浮点数
	NextFloat01() float64
}

// Seeded 基于 PCG 的可复现随机数源
type Seeded struct {
	seed uint64
	rng  *rand.Rand
}

// New 创建指定种子的随机数源
//
// 参数：
//   - seed: 随机种子，相同种子产生相同序列
//
// 返回：
//   - *Seeded: 随机数源实例
func New(seed uint64) *Seeded {
	s := &Seeded{}
	s.Reseed(seed)
	return s
}

// Seed 返回创建时使用的种子
func (s *Seeded) Seed() uint64 {
	return s.seed
}

// Reseed 用新种子重置序列，持有该实例的组件随之切换到新序列
func (s *Seeded) Reseed(seed uint64) {
	s.seed = seed
	s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NextInt 返回 [min, max) 区间内的整数
func (s *Seeded) NextInt(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.IntN(max-min)
}

// NextFloat01 返回 [0, 1) 区间内的浮点数
func (s *Seeded) NextFloat01() float64 {
	return s.rng.Float64()
}

// Shuffle 使用 src 原地打乱 [0, n) 的下标序列（Fisher-Yates）
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.NextInt(0, i+1)
		swap(i, j)
	}
}

// Sample 从 [0, n) 中无放回地抽取 k 个下标
//
// k 超过 n 时按 n 处理，k <= 0 时返回空切片。
// 返回的下标按抽取顺序排列。
func Sample(src Source, n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return []int{}
	}

	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}

	// 部分 Fisher-Yates：只打乱前 k 个位置
	for i := 0; i < k; i++ {
		j := src.NextInt(i, n)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
