package level

// Level 关卡描述符
//
// 由 Factory 在生成关卡树时创建，创建后不再修改；
// 每个描述符只属于一个树节点。
type Level struct {
	Seed                      int64     `yaml:"seed"`                                // 关卡内部随机种子
	Type                      LevelType `yaml:"type"`                                // 关卡类型
	DifficultyMultiplier      float64   `yaml:"difficultyMultiplier"`                // 难度倍率（>= 0）
	SceneID                   string    `yaml:"sceneId"`                             // 场景标识，对核心逻辑不透明
	DurationLimit             *float64  `yaml:"durationLimit,omitempty"`             // 时间限制（秒），可选
	RequiredResourceThreshold *int      `yaml:"requiredResourceThreshold,omitempty"` // 进入所需资源下限，可选
}

// IsShop 是否为商店节点
func (l Level) IsShop() bool {
	return l.Type == TypeShop
}

// IsBoss 是否为 Boss 关
func (l Level) IsBoss() bool {
	return l.Type == TypeBoss
}

// SceneResolver 将关卡类型映射为场景标识
// 必须是纯函数；宿主可以注入自己的场景名
type SceneResolver func(t LevelType) string

// DefaultSceneResolver 默认的场景映射：Shop→"Shop"，Boss→"Boss"，其他→"Default"
func DefaultSceneResolver(t LevelType) string {
	switch t {
	case TypeShop:
		return "Shop"
	case TypeBoss:
		return "Boss"
	default:
		return "Default"
	}
}
