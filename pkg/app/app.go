// Package app 组装运行进度控制器及其依赖
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被图形查看器（main.go）
// 和命令行工具（cmd/rungen）共用：加载配置、打开存储、创建随机数源、
// 连接器和控制器，并按配置挂接 MQTT 事件发布。
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gonewx/astrorun/pkg/config"
	"github.com/gonewx/astrorun/pkg/embedded"
	"github.com/gonewx/astrorun/pkg/events"
	"github.com/gonewx/astrorun/pkg/events/mqttpub"
	"github.com/gonewx/astrorun/pkg/events/sockpub"
	"github.com/gonewx/astrorun/pkg/game"
	"github.com/gonewx/astrorun/pkg/random"
	"github.com/gonewx/astrorun/pkg/runtree"
	"github.com/gonewx/astrorun/pkg/storage"
	"github.com/gonewx/astrorun/pkg/storage/postgres"
)

// 配置文件名（ConfigDir 下的覆盖文件，或嵌入的 data/ 默认文件）
const (
	RunConfigFile    = "run.yaml"
	RunConfigHCLFile = "run.hcl" // 优先于 run.yaml，仅从 ConfigDir 读取
	ShopConfigFile   = "shop.yaml"
	AppConfigFile    = "app.yaml"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ConfigDir 覆盖配置所在目录，为空则只使用嵌入的默认配置
	ConfigDir string
	// Seed 覆盖 run.yaml 中的种子，0 表示不覆盖
	Seed uint64
	// TierCount 覆盖 run.yaml 中的层数，0 表示不覆盖
	TierCount int
	// Backend 覆盖 app.yaml 中的存储后端，为空表示不覆盖
	Backend string
	// Executor 关卡执行器，可稍后通过 Controller().SetExecutor 设置
	Executor game.LevelExecutor
}

// App 持有控制器及其依赖的生命周期
type App struct {
	controller *game.Controller
	rng        *random.Seeded
	runConfig  config.RunConfig
	appConfig  config.AppConfig
	shop       *config.ShopConfig

	store     storage.Store
	closers   []io.Closer
	publisher *mqttpub.Publisher
	socket    *sockpub.Publisher
	subs      []*events.Subscription
	verbose   bool
}

// New 加载配置并创建应用
//
// 调用此函数前，应先调用 embedded.Init() 初始化嵌入的默认配置。
func New(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}
	runtree.Verbose = cfg.Verbose

	runCfg, err := loadRunConfig(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}
	if cfg.Seed != 0 {
		runCfg.Seed = cfg.Seed
	}
	if cfg.TierCount != 0 {
		runCfg.TierCount = cfg.TierCount
	}
	if err := config.ValidateRunConfig(runCfg); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	shop, err := loadShopConfig(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}

	appCfg, err := loadAppConfig(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}
	if cfg.Backend != "" {
		appCfg.Storage.Backend = cfg.Backend
	}

	a := &App{
		runConfig: *runCfg,
		appConfig: *appCfg,
		shop:      shop,
		verbose:   cfg.Verbose,
	}

	store, closer, err := OpenStore(appCfg.Storage)
	if err != nil {
		// 存储不可用时降级为内存存储，存档只在本次运行内有效
		log.Printf("[App] Warning: storage %s unavailable: %v (falling back to memory)", appCfg.Storage.Backend, err)
		store = storage.NewMemoryStore()
	} else if closer != nil {
		a.closers = append(a.closers, closer)
	}
	a.store = store

	codec, err := game.CodecFor(appCfg.Storage.Format)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.rng = random.New(runCfg.Seed)
	connector := runtree.NewConnector(a.rng)
	a.controller = game.NewController(a.rng, connector, a.store, cfg.Executor)
	a.controller.SetCodec(codec)
	a.controller.SetShop(shop)
	if err := a.controller.SetSaveSlot(appCfg.SaveSlot); err != nil {
		a.Close()
		return nil, err
	}

	if appCfg.Events.MQTTURL != "" {
		a.attachPublisher(appCfg.Events)
	}
	if appCfg.Events.SocketIOURL != "" {
		a.attachSocket(appCfg.Events)
	}

	log.Printf("[App] Initialized: backend=%s, format=%s, slot=%s", appCfg.Storage.Backend, codec.Name(), appCfg.SaveSlot)
	return a, nil
}

// attachPublisher 连接 MQTT broker 并订阅控制器事件
// 连接失败只记录日志，不影响运行
func (a *App) attachPublisher(cfg config.EventsConfig) {
	pub := mqttpub.New(cfg.MQTTURL, cfg.ClientID, cfg.Topic)
	if err := pub.Connect(); err != nil {
		log.Printf("[App] Warning: MQTT broker %s unavailable: %v", cfg.MQTTURL, err)
		pub.Disconnect()
		return
	}
	a.publisher = pub
	a.subs = append(a.subs, pub.Attach(a.controller.Bus()))
	log.Printf("[App] Publishing run events to %s (%s)", cfg.MQTTURL, cfg.Topic)
}

// attachSocket 连接 socket.io 看板并订阅控制器事件
// 连接失败只记录日志，不影响运行
func (a *App) attachSocket(cfg config.EventsConfig) {
	pub, err := sockpub.Dial(cfg.SocketIOURL, cfg.SocketIONamespace, cfg.SocketIOEvent)
	if err != nil {
		log.Printf("[App] Warning: socket.io dashboard %s unavailable: %v", cfg.SocketIOURL, err)
		return
	}
	a.socket = pub
	a.subs = append(a.subs, pub.Attach(a.controller.Bus()))
	log.Printf("[App] Pushing run events to %s (%s)", cfg.SocketIOURL, cfg.SocketIOEvent)
}

// OpenStore 根据存储配置打开存档后端
//
// 返回：
//   - storage.Store: 存档存储
//   - io.Closer: 需要在退出时关闭的资源，没有时为 nil
//   - error: 后端未知或打开失败时返回错误
func OpenStore(cfg config.StorageConfig) (storage.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendGdata:
		store, err := storage.OpenGdataStore(cfg.AppName)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case config.BackendFile:
		store, err := storage.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil, nil
	case config.BackendPostgres:
		dsn := cfg.PostgresDSN
		if dsn == "" {
			dsn = postgres.ConnString()
		}
		store, err := postgres.Open(dsn)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// NewRun 开始新的一局
//
// run.yaml 没有指定种子时，每一局取当前时间作为种子，
// 种子记录在 Run.Seed 中，可用于复现这一局的地图。
func (a *App) NewRun() error {
	cfg := a.runConfig
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	return a.controller.CreateRun(cfg)
}

// Resume 读取存档，没有存档时开始新的一局
//
// 返回：
//   - bool: 是否从存档恢复
//   - error: 读档或建树失败时返回错误
func (a *App) Resume() (bool, error) {
	loaded, err := a.controller.LoadRun()
	if err != nil {
		log.Printf("[App] Warning: failed to load save: %v (starting new run)", err)
	}
	if loaded {
		return true, nil
	}
	return false, a.NewRun()
}

// SaveOnExit 退出时保存进行中的一局
// 返回 true 表示保存成功或无需保存
func (a *App) SaveOnExit() bool {
	if a.controller.State() != game.StateRunActive {
		return true
	}
	if err := a.controller.SaveRun(); err != nil {
		log.Printf("[App] Failed to save on exit: %v", err)
		return false
	}
	return true
}

// Close 断开事件发布并关闭存储
func (a *App) Close() error {
	for _, sub := range a.subs {
		sub.Unsubscribe()
	}
	a.subs = nil
	if a.publisher != nil {
		a.publisher.Disconnect()
		a.publisher = nil
	}

	var errs []error
	if a.socket != nil {
		if err := a.socket.Close(); err != nil {
			errs = append(errs, err)
		}
		a.socket = nil
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Controller 返回运行进度控制器
func (a *App) Controller() *game.Controller {
	return a.controller
}

// RunConfig 返回生效的运行配置
func (a *App) RunConfig() config.RunConfig {
	return a.runConfig
}

// AppConfig 返回生效的应用配置
func (a *App) AppConfig() config.AppConfig {
	return a.appConfig
}

// Shop 返回商店目录
func (a *App) Shop() *config.ShopConfig {
	return a.shop
}

// Store 返回存档存储，降级模式下为 nil
func (a *App) Store() storage.Store {
	return a.store
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}

// readConfigFile 优先读取 ConfigDir 下的覆盖文件，不存在时读取嵌入的默认文件
func readConfigFile(dir, name string) ([]byte, error) {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			log.Printf("[App] Loaded config override %s", path)
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	if !embedded.IsInitialized() {
		return nil, nil
	}
	data, err := embedded.ReadFile("data/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded config %s: %w", name, err)
	}
	return data, nil
}

func loadRunConfig(dir string) (*config.RunConfig, error) {
	if dir != "" {
		path := filepath.Join(dir, RunConfigHCLFile)
		if _, err := os.Stat(path); err == nil {
			log.Printf("[App] Loaded config override %s", path)
			return config.LoadRunConfigHCL(path)
		}
	}

	data, err := readConfigFile(dir, RunConfigFile)
	if err != nil {
		return nil, err
	}
	if data == nil {
		cfg := config.DefaultRunConfig()
		return &cfg, nil
	}
	return config.ParseRunConfig(data)
}

func loadShopConfig(dir string) (*config.ShopConfig, error) {
	data, err := readConfigFile(dir, ShopConfigFile)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return &config.ShopConfig{}, nil
	}
	return config.ParseShopConfig(data)
}

func loadAppConfig(dir string) (*config.AppConfig, error) {
	data, err := readConfigFile(dir, AppConfigFile)
	if err != nil {
		return nil, err
	}
	if data == nil {
		cfg := config.DefaultAppConfig()
		return &cfg, nil
	}
	return config.ParseAppConfig(data)
}
