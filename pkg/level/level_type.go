// Package level 定义关卡描述符及其生成工厂
// 这个包只依赖随机数源，不依赖树结构和进度控制
package level

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// LevelType 定义关卡的类型
type LevelType int

const (
	// TypeAsteroids 陨石关（默认关卡类型）
	TypeAsteroids LevelType = iota
	// TypeShop 商店节点
	TypeShop
	// TypeBoss Boss 关（位于最后一层）
	TypeBoss
	// TypeCombat 战斗关
	TypeCombat
	// TypeSurvival 生存关（带时间限制）
	TypeSurvival
)

// String 返回关卡类型的字符串表示
func (t LevelType) String() string {
	switch t {
	case TypeAsteroids:
		return "Asteroids"
	case TypeShop:
		return "Shop"
	case TypeBoss:
		return "Boss"
	case TypeCombat:
		return "Combat"
	case TypeSurvival:
		return "Survival"
	default:
		return "Unknown"
	}
}

// ParseLevelType 将字符串解析为关卡类型（不区分大小写）
//
// 参数：
//   - s: 类型名，如 "Shop"、"boss"
//
// 返回：
//   - LevelType: 解析结果
//   - error: 未知类型返回错误
func ParseLevelType(s string) (LevelType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asteroids":
		return TypeAsteroids, nil
	case "shop":
		return TypeShop, nil
	case "boss":
		return TypeBoss, nil
	case "combat":
		return TypeCombat, nil
	case "survival":
		return TypeSurvival, nil
	default:
		return TypeAsteroids, fmt.Errorf("unknown level type %q", s)
	}
}

// MarshalYAML 以类型名形式写入存档，便于人工阅读
func (t LevelType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML 从类型名读取关卡类型
func (t *LevelType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLevelType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
