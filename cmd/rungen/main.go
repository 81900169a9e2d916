// rungen 命令行关卡地图生成器
//
// 不打开窗口：生成一局地图，按需输出 YAML、模拟一次随机通关、
// 保存到配置的存储后端，或批量生成多张地图统计连接器行为。
//
// 用法：
//
//	go run ./cmd/rungen -seed 42 -dump
//	go run ./cmd/rungen -seed 42 -simulate -win-rate 0.9
//	go run ./cmd/rungen -batch 1000 -tiers 8
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gonewx/astrorun/pkg/app"
	"github.com/gonewx/astrorun/pkg/config"
	"github.com/gonewx/astrorun/pkg/game"
	"github.com/gonewx/astrorun/pkg/level"
	"github.com/gonewx/astrorun/pkg/random"
	"github.com/gonewx/astrorun/pkg/runtree"
)

var (
	configDir = flag.String("config", "data", "配置目录（run.yaml / shop.yaml / app.yaml）")
	seed      = flag.Uint64("seed", 0, "地图种子，0 表示随机")
	tiers     = flag.Int("tiers", 0, "覆盖层数")
	backend   = flag.String("backend", config.BackendMemory, "存储后端：gdata / file / memory / postgres")
	dump      = flag.Bool("dump", false, "以 YAML 输出关卡树")
	simulate  = flag.Bool("simulate", false, "随机选择节点模拟一次通关")
	winRate   = flag.Float64("win-rate", 0.85, "模拟时每个关卡的成功概率")
	save      = flag.Bool("save", false, "把生成（或模拟后）的一局保存到存储后端")
	batch     = flag.Int("batch", 0, "批量生成 N 张地图并输出连接统计")
	verbose   = flag.Bool("verbose", false, "显示详细日志")
)

func main() {
	flag.Parse()

	if *batch > 0 {
		if err := runBatch(*batch); err != nil {
			fmt.Fprintf(os.Stderr, "batch failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	gameApp, err := app.New(app.Config{
		Verbose:   *verbose,
		ConfigDir: *configDir,
		Seed:      *seed,
		TierCount: *tiers,
		Backend:   *backend,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	defer gameApp.Close()

	if err := run(gameApp); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		gameApp.Close()
		os.Exit(1)
	}
}

func run(gameApp *app.App) error {
	controller := gameApp.Controller()
	if err := gameApp.NewRun(); err != nil {
		return err
	}
	r := controller.Run()

	fmt.Printf("Run %s  seed=%d  tiers=%d  nodes=%d  edges=%d\n",
		r.ID, r.Seed, r.Tree.TierCount(), r.Tree.NodeCount(), r.Tree.EdgeCount())
	printTree(r.Tree)

	if *simulate {
		sim := newSimulator(controller, random.New(r.Seed^0x5bd1e995), *winRate)
		if err := sim.Run(); err != nil {
			return err
		}
		fmt.Printf("Simulation: state=%s  cleared=%d  vp=%d  scrap=%d  hp=%d/%d  purchases=%v\n",
			controller.State(), r.LevelsCleared, r.VictoryPoints, r.Resource(game.ResourceScrap),
			r.Health, r.MaxHealth, r.Purchases)
	}

	if *dump {
		out, err := yaml.Marshal(r.Tree.PrepForSerialization())
		if err != nil {
			return fmt.Errorf("failed to marshal tree: %w", err)
		}
		fmt.Print(string(out))
	}

	if *save {
		if gameApp.Store() == nil {
			return fmt.Errorf("storage backend %s unavailable", gameApp.AppConfig().Storage.Backend)
		}
		if err := controller.SaveRun(); err != nil {
			return err
		}
		fmt.Printf("Saved to %s slot %q\n", gameApp.AppConfig().Storage.Backend, gameApp.AppConfig().SaveSlot)
	}
	return nil
}

// printTree 按层输出节点类型和连接
func printTree(tree *runtree.Tree) {
	for t := 0; t < tree.TierCount(); t++ {
		parts := make([]string, 0, tree.TierWidth(t))
		for _, n := range tree.Tier(t) {
			if tree.IsTerminal(n) {
				parts = append(parts, n.Level.Type.String())
				continue
			}
			conns := make([]string, 0, n.ConnectionCount())
			for _, c := range n.Connections() {
				conns = append(conns, fmt.Sprint(c))
			}
			parts = append(parts, fmt.Sprintf("%s->%s", n.Level.Type, strings.Join(conns, ",")))
		}
		fmt.Printf("  tier %2d: %s\n", t, strings.Join(parts, "  "))
	}
}

// runBatch 用连续的种子生成 n 张地图，统计连接器的兜底路径和校验结果
func runBatch(n int) error {
	runtree.Verbose = *verbose
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	cfg := config.DefaultRunConfig()
	if data, err := os.ReadFile(*configDir + "/run.yaml"); err == nil {
		parsed, err := config.ParseRunConfig(data)
		if err != nil {
			return err
		}
		cfg = *parsed
	}
	if *tiers > 0 {
		cfg.TierCount = *tiers
	}

	base := *seed
	if base == 0 {
		base = 1
	}

	var total runtree.ConnectStats
	nodes, edges, crossings, failures := 0, 0, 0, 0
	typeCounts := make(map[level.LevelType]int)

	for i := 0; i < n; i++ {
		rng := random.New(base + uint64(i))
		factory := level.NewFactory(rng, cfg.BaseDifficulty)
		factory.SetTierWidth(cfg.MinTierWidth, cfg.MaxTierWidth)
		builder := runtree.NewBuilder(factory, runtree.NewConnector(rng))

		tree, stats, err := builder.Build(runtree.BuildConfig{
			TierCount:         cfg.TierCount,
			IncludeBossLevels: cfg.IncludeBossLevels,
			ShopRatio:         cfg.ShopRatio,
		})
		if err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "seed %d: %v\n", base+uint64(i), err)
			continue
		}

		total.Add(stats)
		nodes += tree.NodeCount()
		edges += tree.EdgeCount()
		crossings += len(tree.CrossingPairs())
		for t := 0; t < tree.TierCount(); t++ {
			for _, node := range tree.Tier(t) {
				typeCounts[node.Level.Type]++
			}
		}
	}

	built := n - failures
	fmt.Printf("Built %d/%d trees (tiers=%d, seeds %d..%d)\n", built, n, cfg.TierCount, base, base+uint64(n)-1)
	if built > 0 {
		fmt.Printf("  avg nodes=%.2f  avg edges=%.2f\n", float64(nodes)/float64(built), float64(edges)/float64(built))
	}
	fmt.Printf("  primary fallbacks=%d  extra edges=%d  orphans fixed=%d  forced crossings=%d  crossing pairs=%d\n",
		total.PrimaryFallbacks, total.ExtraEdges, total.OrphansFixed, total.ForcedCrossings, crossings)
	for _, t := range []level.LevelType{level.TypeAsteroids, level.TypeCombat, level.TypeSurvival, level.TypeShop, level.TypeBoss} {
		fmt.Printf("  %-10s %d\n", t, typeCounts[t])
	}

	if failures > 0 {
		return fmt.Errorf("%d trees failed validation", failures)
	}
	return nil
}
