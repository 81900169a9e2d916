package utils

import "math"

// EaseInOutCubic 三次方缓入缓出
// 输入 t ∈ [0, 1]，超出范围时截断
//
//	t < 0.5: f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func EaseInOutCubic(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Lerp 线性插值，t=0 返回 a，t=1 返回 b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Pulse 周期性的呼吸值，在 0 → 1 → 0 之间缓动往返
//
// 参数：
//   - elapsed: 已经过的秒数
//   - period: 一次往返的秒数，<= 0 时恒为 0
func Pulse(elapsed, period float64) float64 {
	if period <= 0 {
		return 0
	}
	phase := math.Mod(elapsed, period) / period
	if phase < 0 {
		phase += 1
	}
	if phase < 0.5 {
		return EaseInOutCubic(phase * 2)
	}
	return EaseInOutCubic((1 - phase) * 2)
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
