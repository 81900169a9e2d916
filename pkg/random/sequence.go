package random

// Sequence 按固定顺序回放整数的随机数源
//
// 用于复现录制下来的随机序列（以及在测试中精确驱动生成算法）。
// 每个值会被折叠进请求的区间：min + v mod (max-min)。
// 序列耗尽后从头循环；空序列始终返回区间下界。
type Sequence struct {
	ints   []int
	floats []float64
	ii     int
	fi     int
}

// NewSequence 创建回放指定整数序列的随机数源
func NewSequence(ints ...int) *Sequence {
	return &Sequence{ints: ints}
}

// WithFloats 设置 NextFloat01 回放的浮点序列
func (s *Sequence) WithFloats(floats ...float64) *Sequence {
	s.floats = floats
	return s
}

// NextInt 回放下一个整数并折叠进 [min, max)
func (s *Sequence) NextInt(min, max int) int {
	if max <= min || len(s.ints) == 0 {
		return min
	}
	v := s.ints[s.ii%len(s.ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return min + v%(max-min)
}

// NextFloat01 回放下一个浮点数，空序列返回 0
func (s *Sequence) NextFloat01() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	f := s.floats[s.fi%len(s.floats)]
	s.fi++
	if f < 0 || f >= 1 {
		return 0
	}
	return f
}
