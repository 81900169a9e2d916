package level

// TierDifficultyStep 每深入一层增加的难度比例
const TierDifficultyStep = 0.1

// SurvivalBaseDuration 生存关的基础时间限制（秒）
const SurvivalBaseDuration = 60.0

// SurvivalTierDuration 生存关每层增加的时间（秒）
const SurvivalTierDuration = 10.0

// DifficultyMultiplier 计算指定层的难度倍率
// 公式: base * (1 + tier * 0.1)
//
// 参数:
//
//	base - 基础难度（运行配置中的 baseDifficulty）
//	tier - 所在层号（从 0 开始）
//
// 返回:
//
//	难度倍率；base 为负或 tier 为负时按 0 处理
func DifficultyMultiplier(base float64, tier int) float64 {
	if base < 0 {
		base = 0
	}
	if tier < 0 {
		tier = 0
	}
	return base * (1 + float64(tier)*TierDifficultyStep)
}

// SurvivalDuration 计算生存关的时间限制
// 公式: 60 + tier * 10
func SurvivalDuration(tier int) float64 {
	if tier < 0 {
		tier = 0
	}
	return SurvivalBaseDuration + float64(tier)*SurvivalTierDuration
}
