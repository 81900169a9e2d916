package game

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/gonewx/astrorun/pkg/config"
	"github.com/gonewx/astrorun/pkg/events"
	"github.com/gonewx/astrorun/pkg/level"
	"github.com/gonewx/astrorun/pkg/random"
	"github.com/gonewx/astrorun/pkg/runtree"
	"github.com/gonewx/astrorun/pkg/storage"
)

var (
	// ErrInvalidSelection 选择了不可到达的节点（状态不变）
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrNoActiveRun 当前没有进行中的一局
	ErrNoActiveRun = errors.New("no active run")
	// ErrRunActive 已有进行中的一局（需先放弃）
	ErrRunActive = errors.New("run already active")
	// ErrLevelInProgress 上一个关卡尚未报告结果
	ErrLevelInProgress = errors.New("level in progress")
	// ErrNoLevelInProgress 没有等待结果的关卡
	ErrNoLevelInProgress = errors.New("no level in progress")
	// ErrNotInShop 当前节点不是正在访问的商店
	ErrNotInShop = errors.New("not in a shop")
	// ErrUnknownItem 商店目录中没有该商品
	ErrUnknownItem = errors.New("unknown shop item")
)

// DefaultSaveSlot 默认存档槽位
const DefaultSaveSlot = "current"

// State 控制器状态
type State int

const (
	StateNoRun       State = iota // 没有进行中的一局
	StateRunActive                // 进行中
	StateRunComplete              // 已通关
	StateRunFailed                // 已失败
)

// String 返回状态名（也用于存档）
func (s State) String() string {
	switch s {
	case StateNoRun:
		return "no_run"
	case StateRunActive:
		return "active"
	case StateRunComplete:
		return "complete"
	case StateRunFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseState 解析状态名
func ParseState(s string) (State, error) {
	switch s {
	case "no_run":
		return StateNoRun, nil
	case "active":
		return StateRunActive, nil
	case "complete":
		return StateRunComplete, nil
	case "failed":
		return StateRunFailed, nil
	default:
		return StateNoRun, fmt.Errorf("unknown run state %q", s)
	}
}

// reseeder 可以按运行配置重置种子的随机数源（random.Seeded）
type reseeder interface {
	Reseed(seed uint64)
}

// LevelExecutor 关卡执行器（外部的玩法层）
//
// 控制器调用 StartLevel 交出关卡描述符；执行器在关卡结束时
// 必须恰好调用一次 Controller.ReportLevelOutcome。
// 允许在 StartLevel 内同步回调。
type LevelExecutor interface {
	StartLevel(lvl level.Level)
}

// ExecutorFunc 函数形式的关卡执行器
type ExecutorFunc func(lvl level.Level)

// StartLevel 实现 LevelExecutor
func (f ExecutorFunc) StartLevel(lvl level.Level) {
	f(lvl)
}

// Controller 运行进度控制器
//
// 状态机：NoRun → RunActive → {RunComplete, RunFailed}；AbandonRun 回到 NoRun。
//
// 职责：
//   - 生成并校验关卡树（CreateRun）
//   - 校验节点选择并把关卡交给执行器（SelectNode）
//   - 接收关卡结果并推进状态（ReportLevelOutcome）
//   - 存档与读档
//
// 控制器是关卡树唯一的写入者，不支持并发调用。
type Controller struct {
	rng       random.Source
	connector *runtree.Connector
	store     storage.Store // 可为 nil（降级模式，不持久化）
	executor  LevelExecutor
	bus       *events.Bus

	codec    Codec
	slot     string
	shop     *config.ShopConfig
	resolver level.SceneResolver

	state           State
	run             *Run
	levelInProgress bool
}

// NewController 创建运行进度控制器
//
// 参数：
//   - rng: 随机数源（关卡生成和连接共用）
//   - connector: 相邻层连接器
//   - store: 存档存储，可为 nil
//   - executor: 关卡执行器，可为 nil（此时只移动光标）
func NewController(rng random.Source, connector *runtree.Connector, store storage.Store, executor LevelExecutor) *Controller {
	return &Controller{
		rng:       rng,
		connector: connector,
		store:     store,
		executor:  executor,
		bus:       events.NewBus(),
		codec:     YAMLCodec{},
		slot:      DefaultSaveSlot,
		resolver:  level.DefaultSceneResolver,
		state:     StateNoRun,
	}
}

// SetCodec 设置存档格式
func (c *Controller) SetCodec(codec Codec) {
	if codec != nil {
		c.codec = codec
	}
}

// SetSaveSlot 设置存档槽位
func (c *Controller) SetSaveSlot(slot string) error {
	if err := storage.ValidateSlot(slot); err != nil {
		return err
	}
	c.slot = slot
	return nil
}

// SetShop 设置商店目录
func (c *Controller) SetShop(shop *config.ShopConfig) {
	c.shop = shop
}

// SetSceneResolver 设置关卡类型到场景名的映射
func (c *Controller) SetSceneResolver(resolver level.SceneResolver) {
	if resolver == nil {
		resolver = level.DefaultSceneResolver
	}
	c.resolver = resolver
}

// SetExecutor 设置关卡执行器
func (c *Controller) SetExecutor(executor LevelExecutor) {
	c.executor = executor
}

// Subscribe 注册事件观察者，返回注销句柄
func (c *Controller) Subscribe(h events.Handler) *events.Subscription {
	return c.bus.Subscribe(h)
}

// Bus 返回事件总线（供发布器 Attach）
func (c *Controller) Bus() *events.Bus {
	return c.bus
}

// State 返回当前状态
func (c *Controller) State() State {
	return c.state
}

// Run 返回当前一局，没有时返回 nil
func (c *Controller) Run() *Run {
	return c.run
}

// LevelInProgress 是否有关卡正在等待结果
func (c *Controller) LevelInProgress() bool {
	return c.levelInProgress
}

// Shop 返回商店目录
func (c *Controller) Shop() *config.ShopConfig {
	return c.shop
}

// CreateRun 生成新的一局
//
// cfg.Seed 非零且随机数源支持重置时，先用该种子重置，同一种子生成同一棵树。
// 依次生成起点层、中间层、Boss 层，连接所有相邻层并校验。
// 校验失败（ErrConstructionInvariant）属于算法缺陷，会原样向上传递，
// 控制器状态保持不变。
//
// 参数：
//   - cfg: 运行配置
//
// 返回：
//   - error: 配置非法、已有进行中的一局或建树失败时返回错误
func (c *Controller) CreateRun(cfg config.RunConfig) error {
	if c.state == StateRunActive {
		return ErrRunActive
	}
	config.ApplyRunDefaults(&cfg)
	if err := config.ValidateRunConfig(&cfg); err != nil {
		return fmt.Errorf("invalid run config: %w", err)
	}

	if r, ok := c.rng.(reseeder); ok && cfg.Seed != 0 {
		r.Reseed(cfg.Seed)
	}

	factory := level.NewFactory(c.rng, cfg.BaseDifficulty)
	factory.SetSceneResolver(c.resolver)
	factory.SetTierWidth(cfg.MinTierWidth, cfg.MaxTierWidth)
	if c.shop != nil && len(c.shop.Items) > 0 {
		threshold := c.shop.CheapestCost()
		factory.SetShopThreshold(&threshold)
	}

	builder := runtree.NewBuilder(factory, c.connector)
	tree, stats, err := builder.Build(runtree.BuildConfig{
		TierCount:         cfg.TierCount,
		IncludeBossLevels: cfg.IncludeBossLevels,
		ShopRatio:         cfg.ShopRatio,
	})
	if err != nil {
		return err
	}
	if stats.ForcedCrossings > 0 {
		log.Printf("[RunController] Warning: %d forced crossing edges in new run", stats.ForcedCrossings)
	}

	c.run = NewRun(uuid.NewString(), cfg, tree)
	c.state = StateRunActive
	c.levelInProgress = false

	log.Printf("[RunController] Run %s created: tiers=%d, nodes=%d", c.run.ID, tree.TierCount(), tree.NodeCount())
	c.publish(events.RunCreated, nil, "")
	return nil
}

// SelectNode 选择下一个节点并开始其关卡
//
// 合法条件：
//   - 光标未设置时，只能选择第 0 层的节点
//   - 否则只能选择当前节点的后继
//   - 上一个关卡已经报告结果
//
// 返回：
//   - error: 没有进行中的一局返回 ErrNoActiveRun；其他非法选择返回
//     包装了 ErrInvalidSelection 的错误。出错时状态和光标都不变
func (c *Controller) SelectNode(id string) error {
	if c.state != StateRunActive {
		return ErrNoActiveRun
	}
	if c.levelInProgress {
		return fmt.Errorf("%w: %w", ErrInvalidSelection, ErrLevelInProgress)
	}

	tree := c.run.Tree
	if err := tree.MoveTo(id); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}

	node := tree.Current()
	c.levelInProgress = true
	log.Printf("[RunController] Selected node %s (tier %d, %s)", node.ID, node.Tier, node.Level.Type)
	c.publish(events.NodeSelected, node, "")

	if c.executor != nil {
		c.executor.StartLevel(node.Level)
	}
	return nil
}

// ReportLevelOutcome 报告当前关卡的结果
//
// 成功：发放奖励；当前节点是终点时进入 RunComplete，否则等待下一次选择。
// 失败：无论在哪一层都进入 RunFailed。
//
// 返回：
//   - error: 没有进行中的一局返回 ErrNoActiveRun，没有等待结果的关卡返回 ErrNoLevelInProgress
func (c *Controller) ReportLevelOutcome(success bool) error {
	if c.state != StateRunActive {
		return ErrNoActiveRun
	}
	if !c.levelInProgress {
		return ErrNoLevelInProgress
	}

	c.levelInProgress = false
	tree := c.run.Tree
	node := tree.Current()

	if !success {
		c.state = StateRunFailed
		log.Printf("[RunController] Level failed at tier %d, run %s failed", node.Tier, c.run.ID)
		c.publish(events.LevelFailed, node, "")
		c.publish(events.RunFailed, node, "")
		return nil
	}

	c.run.applyReward(LevelReward(node.Level))
	c.run.LevelsCleared++
	c.publish(events.LevelCompleted, node, "")

	if tree.IsComplete() {
		c.state = StateRunComplete
		log.Printf("[RunController] Run %s complete: victoryPoints=%d", c.run.ID, c.run.VictoryPoints)
		c.publish(events.RunCompleted, node, "")
	}
	return nil
}

// ApplyDamage 关卡进行中扣除生命值
// 生命值归零时按关卡失败处理，一局随之结束
func (c *Controller) ApplyDamage(amount int) error {
	if c.state != StateRunActive {
		return ErrNoActiveRun
	}
	if !c.levelInProgress {
		return ErrNoLevelInProgress
	}
	if c.run.ApplyDamage(amount) {
		log.Printf("[RunController] Health depleted in run %s", c.run.ID)
		return c.ReportLevelOutcome(false)
	}
	return nil
}

// AbandonRun 放弃当前一局，回到 NoRun
func (c *Controller) AbandonRun() error {
	if c.run == nil {
		return ErrNoActiveRun
	}

	node := c.run.Tree.Current()
	c.publish(events.RunAbandoned, node, "")
	log.Printf("[RunController] Run %s abandoned", c.run.ID)

	c.run = nil
	c.state = StateNoRun
	c.levelInProgress = false
	return nil
}

// Purchase 在当前访问的商店中购买商品
//
// 返回：
//   - error: 不在商店中返回 ErrNotInShop，商品不存在返回 ErrUnknownItem，
//     资源不足返回 ErrInsufficientResources
func (c *Controller) Purchase(itemID string) error {
	if c.state != StateRunActive {
		return ErrNoActiveRun
	}
	node := c.run.Tree.Current()
	if node == nil || !node.Level.IsShop() || !c.levelInProgress {
		return ErrNotInShop
	}

	item, ok := c.shop.Find(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	if err := c.run.ApplyPurchase(item); err != nil {
		return err
	}

	c.publish(events.ItemPurchased, node, itemID)
	return nil
}

// SaveRun 将当前一局写入存档槽位
// 没有存储时不报错（降级模式）
func (c *Controller) SaveRun() error {
	if c.run == nil {
		return ErrNoActiveRun
	}
	if c.store == nil {
		return nil
	}

	raw, err := c.codec.Marshal(newRunSaveData(c.run, c.state, c.levelInProgress))
	if err != nil {
		return err
	}
	if err := c.store.Write(c.slot, raw); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	log.Printf("[RunController] Run %s saved to slot %s (%s, %d bytes)", c.run.ID, c.slot, c.codec.Name(), len(raw))
	c.publish(events.RunSaved, c.run.Tree.Current(), c.slot)
	return nil
}

// LoadRun 从存档槽位恢复一局
//
// 存档不存在不是错误：返回 false, nil，调用方应开始新的一局。
// 读档时如果关卡处于进行中，会重新把该关卡交给执行器。
//
// 返回：
//   - bool: 是否恢复了存档
//   - error: 读取、解码或版本检查失败时返回错误
func (c *Controller) LoadRun() (bool, error) {
	if c.store == nil {
		return false, nil
	}

	raw, err := c.store.Read(c.slot)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load run: %w", err)
	}

	var data RunSaveData
	if err := c.codec.Unmarshal(raw, &data); err != nil {
		return false, err
	}

	run, state, err := restoreRun(&data)
	if err != nil {
		return false, err
	}
	if err := run.Tree.Validate(); err != nil {
		log.Printf("[RunController] Warning: restored tree violates invariants: %v", err)
	}

	c.run = run
	c.state = state
	c.levelInProgress = data.LevelInProgress && state == StateRunActive && run.Tree.Current() != nil

	log.Printf("[RunController] Run %s loaded from slot %s (state=%s)", run.ID, c.slot, state)
	c.publish(events.RunLoaded, run.Tree.Current(), c.slot)

	if c.levelInProgress && c.executor != nil {
		c.executor.StartLevel(run.Tree.Current().Level)
	}
	return true, nil
}

// DeleteSave 删除存档槽位
func (c *Controller) DeleteSave() error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(c.slot); err != nil {
		return fmt.Errorf("failed to delete run save: %w", err)
	}
	return nil
}

// publish 发布事件，node 可为 nil
func (c *Controller) publish(t events.Type, node *runtree.Node, detail string) {
	ev := events.Event{Type: t, Detail: detail, Tier: -1}
	if c.run != nil {
		ev.RunID = c.run.ID
	}
	if node != nil {
		ev.NodeID = node.ID
		ev.Tier = node.Tier
		ev.LevelType = node.Level.Type.String()
	}
	c.bus.Publish(ev)
}
