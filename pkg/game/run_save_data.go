package game

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gonewx/astrorun/pkg/config"
	"github.com/gonewx/astrorun/pkg/runtree"
)

// RunSaveVersion 存档版本号
// 用于版本兼容性检查，当数据结构发生不兼容变更时递增
const RunSaveVersion = 1

// RunSaveData 一局游戏的存档数据结构
//
// 结构上分为两部分：
//   - 关卡树：层 → 节点（ID、层号、位置、关卡描述符、出边目标 ID 列表）
//   - 本局元数据：资源、购买记录、生命值、属性修正、胜利点数、当前节点 ID
type RunSaveData struct {
	// 版本和元数据
	Version  int       `yaml:"version"`
	SaveTime time.Time `yaml:"saveTime"`
	RunID    string    `yaml:"runId"`
	Seed     uint64    `yaml:"seed"`
	State    string    `yaml:"state"`

	// 关卡是否在进行中（读档后需要重新开始该关卡）
	LevelInProgress bool `yaml:"levelInProgress"`

	Config config.RunConfig `yaml:"config"`

	// 本局状态
	Resources     map[string]int     `yaml:"resources"`
	Purchases     []string           `yaml:"purchases"`
	Health        int                `yaml:"health"`
	MaxHealth     int                `yaml:"maxHealth"`
	Modifiers     map[string]float64 `yaml:"modifiers"`
	VictoryPoints int                `yaml:"victoryPoints"`
	LevelsCleared int                `yaml:"levelsCleared"`
	CurrentNodeID string             `yaml:"currentNodeId,omitempty"`

	// 关卡树
	Tree runtree.TreeData `yaml:"tree"`
}

// RunSaveInfo 存档预览信息（用于菜单显示，无需恢复整棵树）
type RunSaveInfo struct {
	RunID         string
	SaveTime      time.Time
	State         string
	Tier          int // 当前所在层，未开始为 -1
	TierCount     int
	VictoryPoints int
	Health        int
}

// ToRunSaveInfo 提取存档预览信息
func (d *RunSaveData) ToRunSaveInfo() *RunSaveInfo {
	info := &RunSaveInfo{
		RunID:         d.RunID,
		SaveTime:      d.SaveTime,
		State:         d.State,
		Tier:          -1,
		TierCount:     len(d.Tree.Tiers),
		VictoryPoints: d.VictoryPoints,
		Health:        d.Health,
	}
	for ti, tier := range d.Tree.Tiers {
		for _, n := range tier.Nodes {
			if n.ID == d.CurrentNodeID && d.CurrentNodeID != "" {
				info.Tier = ti
			}
		}
	}
	return info
}

// Codec 存档编解码器
type Codec interface {
	Name() string
	Marshal(data *RunSaveData) ([]byte, error)
	Unmarshal(raw []byte, data *RunSaveData) error
}

// YAMLCodec 可读的 YAML 存档格式（默认）
type YAMLCodec struct{}

// Name 返回格式名
func (YAMLCodec) Name() string { return config.FormatYAML }

// Marshal 序列化为 YAML
func (YAMLCodec) Marshal(data *RunSaveData) ([]byte, error) {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run save: %w", err)
	}
	return raw, nil
}

// Unmarshal 从 YAML 反序列化
func (YAMLCodec) Unmarshal(raw []byte, data *RunSaveData) error {
	if err := yaml.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("failed to parse run save: %w", err)
	}
	return nil
}

// GobCodec 紧凑的 gob 二进制存档格式
type GobCodec struct{}

// Name 返回格式名
func (GobCodec) Name() string { return config.FormatGob }

// Marshal 使用 gob 编码
func (GobCodec) Marshal(data *RunSaveData) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("failed to encode run save: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal 使用 gob 解码
func (GobCodec) Unmarshal(raw []byte, data *RunSaveData) error {
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(data); err != nil {
		return fmt.Errorf("failed to decode run save: %w", err)
	}
	return nil
}

// CodecFor 按格式名返回编解码器
func CodecFor(format string) (Codec, error) {
	switch format {
	case "", config.FormatYAML:
		return YAMLCodec{}, nil
	case config.FormatGob:
		return GobCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown save format %q", format)
	}
}

// newRunSaveData 从当前局面收集存档数据
func newRunSaveData(run *Run, state State, levelInProgress bool) *RunSaveData {
	tree := run.Tree.PrepForSerialization()
	current := tree.CurrentNodeID
	tree.CurrentNodeID = ""

	resources := make(map[string]int, len(run.Resources))
	for k, v := range run.Resources {
		resources[k] = v
	}
	modifiers := make(map[string]float64, len(run.Modifiers))
	for k, v := range run.Modifiers {
		modifiers[k] = v
	}
	purchases := make([]string, len(run.Purchases))
	copy(purchases, run.Purchases)

	return &RunSaveData{
		Version:         RunSaveVersion,
		SaveTime:        time.Now(),
		RunID:           run.ID,
		Seed:            run.Seed,
		State:           state.String(),
		LevelInProgress: levelInProgress,
		Config:          run.Config,
		Resources:       resources,
		Purchases:       purchases,
		Health:          run.Health,
		MaxHealth:       run.MaxHealth,
		Modifiers:       modifiers,
		VictoryPoints:   run.VictoryPoints,
		LevelsCleared:   run.LevelsCleared,
		CurrentNodeID:   current,
		Tree:            tree,
	}
}

// restoreRun 从存档数据恢复一局游戏
// 悬空的节点引用会被丢弃（见 runtree.DeserializeNodeTree）
func restoreRun(data *RunSaveData) (*Run, State, error) {
	if data.Version != RunSaveVersion {
		return nil, StateNoRun, fmt.Errorf("incompatible save version: %d (expected %d)",
			data.Version, RunSaveVersion)
	}

	state, err := ParseState(data.State)
	if err != nil {
		return nil, StateNoRun, err
	}

	treeData := data.Tree
	treeData.CurrentNodeID = data.CurrentNodeID
	tree, err := runtree.DeserializeNodeTree(treeData)
	if err != nil {
		return nil, StateNoRun, fmt.Errorf("failed to restore run tree: %w", err)
	}

	run := &Run{
		ID:            data.RunID,
		Seed:          data.Seed,
		Config:        data.Config,
		Tree:          tree,
		Resources:     data.Resources,
		VictoryPoints: data.VictoryPoints,
		Modifiers:     data.Modifiers,
		Purchases:     data.Purchases,
		Health:        data.Health,
		MaxHealth:     data.MaxHealth,
		LevelsCleared: data.LevelsCleared,
	}
	if run.Resources == nil {
		run.Resources = map[string]int{}
	}
	if run.Modifiers == nil {
		run.Modifiers = map[string]float64{}
	}
	if run.Purchases == nil {
		run.Purchases = []string{}
	}

	return run, state, nil
}
