package game

import (
	"errors"
	"testing"

	"github.com/gonewx/astrorun/pkg/config"
	"github.com/gonewx/astrorun/pkg/events"
	"github.com/gonewx/astrorun/pkg/level"
	"github.com/gonewx/astrorun/pkg/random"
	"github.com/gonewx/astrorun/pkg/runtree"
	"github.com/gonewx/astrorun/pkg/storage"
)

// recordingExecutor 记录被启动的关卡
type recordingExecutor struct {
	started []level.Level
}

func (e *recordingExecutor) StartLevel(lvl level.Level) {
	e.started = append(e.started, lvl)
}

func newTestController(store storage.Store, executor LevelExecutor) *Controller {
	rng := random.New(42)
	return NewController(rng, runtree.NewConnector(rng), store, executor)
}

func testRunConfig() config.RunConfig {
	cfg := config.DefaultRunConfig()
	cfg.Seed = 7
	cfg.TierCount = 4
	cfg.StartingResources = map[string]int{ResourceScrap: 20}
	return cfg
}

func testShop() *config.ShopConfig {
	return &config.ShopConfig{Items: []config.ShopItem{
		{ID: "thruster_boost", Name: "Thruster Boost", Cost: map[string]int{ResourceScrap: 15}, Modifiers: map[string]float64{"speed": 0.1}},
		{ID: "hull_patch", Name: "Hull Patch", Cost: map[string]int{ResourceScrap: 5}, Heal: 1},
	}}
}

// playToEnd 每次选择第一个可选节点并报告成功，直到一局结束
func playToEnd(t *testing.T, c *Controller) {
	t.Helper()
	for c.State() == StateRunActive {
		next := c.Run().Tree.Selectable()
		if len(next) == 0 {
			t.Fatalf("no selectable node at tier %d", c.Run().Tree.Current().Tier)
		}
		if err := c.SelectNode(next[0].ID); err != nil {
			t.Fatalf("SelectNode failed: %v", err)
		}
		if err := c.ReportLevelOutcome(true); err != nil {
			t.Fatalf("ReportLevelOutcome failed: %v", err)
		}
	}
}

func TestController_CreateRun(t *testing.T) {
	c := newTestController(nil, nil)
	var got []events.Type
	c.Subscribe(func(ev events.Event) { got = append(got, ev.Type) })

	if c.State() != StateNoRun {
		t.Fatalf("initial state = %s, want no_run", c.State())
	}

	cfg := testRunConfig()
	if err := c.CreateRun(cfg); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	if c.State() != StateRunActive {
		t.Errorf("state = %s, want active", c.State())
	}
	run := c.Run()
	if run.Tree.TierCount() != cfg.TierCount {
		t.Errorf("tier count = %d, want %d", run.Tree.TierCount(), cfg.TierCount)
	}
	if err := run.Tree.Validate(); err != nil {
		t.Errorf("new tree is invalid: %v", err)
	}
	if run.Tree.Current() != nil {
		t.Error("cursor should be unset after CreateRun")
	}
	if run.Seed != 7 || run.Health != cfg.StartingHealth || run.Resource(ResourceScrap) != 20 {
		t.Errorf("unexpected run state: seed=%d health=%d scrap=%d", run.Seed, run.Health, run.Resource(ResourceScrap))
	}
	if len(got) != 1 || got[0] != events.RunCreated {
		t.Errorf("events = %v, want [run_created]", got)
	}

	if err := c.CreateRun(cfg); !errors.Is(err, ErrRunActive) {
		t.Errorf("second CreateRun: err = %v, want ErrRunActive", err)
	}
}

func TestController_CreateRunInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *config.RunConfig)
	}{
		{"层数不足", func(cfg *config.RunConfig) { cfg.TierCount = 1 }},
		{"难度为零", func(cfg *config.RunConfig) { cfg.BaseDifficulty = 0 }},
		{"商店比例越界", func(cfg *config.RunConfig) { cfg.ShopRatio = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(nil, nil)
			cfg := testRunConfig()
			tt.modify(&cfg)

			if err := c.CreateRun(cfg); err == nil {
				t.Fatal("expected error for invalid config")
			}
			if c.State() != StateNoRun || c.Run() != nil {
				t.Errorf("state changed after failed CreateRun: %s", c.State())
			}
		})
	}
}

func TestController_CreateRunMinimalConfig(t *testing.T) {
	c := newTestController(nil, nil)
	cfg := config.RunConfig{TierCount: 3, BaseDifficulty: 1.0, IncludeBossLevels: true, ShopRatio: 0}

	if err := c.CreateRun(cfg); err != nil {
		t.Fatalf("CreateRun with only the core fields failed: %v", err)
	}

	tree := c.Run().Tree
	if tree.TierCount() != 3 {
		t.Fatalf("TierCount = %d, want 3", tree.TierCount())
	}
	if root := tree.Tier(0); len(root) != 1 || root[0].Level.Type != level.TypeAsteroids {
		t.Errorf("tier 0 should be a single asteroids level")
	}
	if boss := tree.Tier(2); len(boss) != 1 || boss[0].Level.Type != level.TypeBoss {
		t.Errorf("tier 2 should be a single boss level")
	}
	middle := tree.Tier(1)
	if len(middle) < 2 || len(middle) > 4 {
		t.Errorf("tier 1 width = %d, want within [2,4]", len(middle))
	}
	for _, n := range middle {
		if n.Level.Type != level.TypeAsteroids {
			t.Errorf("middle level type = %s, want asteroids", n.Level.Type)
		}
	}

	defaults := config.DefaultRunConfig()
	if c.Run().Health != defaults.StartingHealth {
		t.Errorf("Health = %d, want default %d", c.Run().Health, defaults.StartingHealth)
	}
}

func TestController_SameSeedSameTree(t *testing.T) {
	shape := func() [][]level.LevelType {
		c := newTestController(nil, nil)
		if err := c.CreateRun(testRunConfig()); err != nil {
			t.Fatalf("CreateRun failed: %v", err)
		}
		tree := c.Run().Tree
		out := make([][]level.LevelType, tree.TierCount())
		for ti := 0; ti < tree.TierCount(); ti++ {
			for _, n := range tree.Tier(ti) {
				out[ti] = append(out[ti], n.Level.Type)
			}
		}
		return out
	}

	a, b := shape(), shape()
	if len(a) != len(b) {
		t.Fatalf("tier counts differ: %d vs %d", len(a), len(b))
	}
	for ti := range a {
		if len(a[ti]) != len(b[ti]) {
			t.Fatalf("tier %d width differs: %d vs %d", ti, len(a[ti]), len(b[ti]))
		}
		for p := range a[ti] {
			if a[ti][p] != b[ti][p] {
				t.Errorf("node (%d,%d) type differs: %s vs %s", ti, p, a[ti][p], b[ti][p])
			}
		}
	}
}

func TestController_InvalidSelection(t *testing.T) {
	c := newTestController(nil, nil)

	if err := c.SelectNode("anything"); !errors.Is(err, ErrNoActiveRun) {
		t.Errorf("SelectNode without run: err = %v, want ErrNoActiveRun", err)
	}

	if err := c.CreateRun(testRunConfig()); err != nil {
		t.Fatal(err)
	}
	tree := c.Run().Tree
	deep := tree.Tier(2)[0]

	tests := []struct {
		name string
		id   string
	}{
		{"未知节点", "missing"},
		{"跳过起点层", deep.ID},
		{"空ID", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.SelectNode(tt.id)
			if !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("err = %v, want ErrInvalidSelection", err)
			}
			if tree.Current() != nil || c.LevelInProgress() {
				t.Error("failed selection must not move the cursor")
			}
		})
	}
}

func TestController_SelectWhileLevelInProgress(t *testing.T) {
	exec := &recordingExecutor{}
	c := newTestController(nil, exec)
	if err := c.CreateRun(testRunConfig()); err != nil {
		t.Fatal(err)
	}

	root := c.Run().Tree.Tier(0)[0]
	if err := c.SelectNode(root.ID); err != nil {
		t.Fatalf("SelectNode(root) failed: %v", err)
	}
	if len(exec.started) != 1 || exec.started[0].Type != root.Level.Type {
		t.Fatalf("executor started %v, want root level", exec.started)
	}

	next := c.Run().Tree.Selectable()[0]
	err := c.SelectNode(next.ID)
	if !errors.Is(err, ErrInvalidSelection) || !errors.Is(err, ErrLevelInProgress) {
		t.Errorf("err = %v, want ErrInvalidSelection wrapping ErrLevelInProgress", err)
	}
	if c.Run().Tree.Current() != root {
		t.Error("cursor moved while level in progress")
	}
}

func TestController_PlayToCompletion(t *testing.T) {
	c := newTestController(nil, nil)
	var got []events.Type
	c.Subscribe(func(ev events.Event) { got = append(got, ev.Type) })

	if err := c.CreateRun(testRunConfig()); err != nil {
		t.Fatal(err)
	}
	playToEnd(t, c)

	if c.State() != StateRunComplete {
		t.Fatalf("state = %s, want complete", c.State())
	}
	run := c.Run()
	if !run.Tree.IsComplete() {
		t.Error("tree cursor should be on a terminal node")
	}
	if run.LevelsCleared != run.Tree.TierCount() {
		t.Errorf("LevelsCleared = %d, want %d", run.LevelsCleared, run.Tree.TierCount())
	}
	if run.VictoryPoints <= 0 {
		t.Errorf("VictoryPoints = %d, want > 0", run.VictoryPoints)
	}
	if last := got[len(got)-1]; last != events.RunCompleted {
		t.Errorf("last event = %s, want run_completed", last)
	}

	if err := c.SelectNode(run.Tree.Tier(0)[0].ID); !errors.Is(err, ErrNoActiveRun) {
		t.Errorf("SelectNode after completion: err = %v, want ErrNoActiveRun", err)
	}
}

func TestController_SynchronousExecutor(t *testing.T) {
	var c *Controller
	c = newTestController(nil, ExecutorFunc(func(level.Level) {
		if err := c.ReportLevelOutcome(true); err != nil {
			t.Errorf("ReportLevelOutcome inside StartLevel failed: %v", err)
		}
	}))

	if err := c.CreateRun(testRunConfig()); err != nil {
		t.Fatal(err)
	}
	for c.State() == StateRunActive {
		if err := c.SelectNode(c.Run().Tree.Selectable()[0].ID); err != nil {
			t.Fatalf("SelectNode failed: %v", err)
		}
	}
	if c.State() != StateRunComplete {
		t.Errorf("state = %s, want complete", c.State())
	}
}

func TestController_LevelFailure(t *testing.T) {
	c := newTestController(nil, nil)
	var got []events.Type
	c.Subscribe(func(ev events.Event) { got = append(got, ev.Type) })

	if err := c.CreateRun(testRunConfig()); err != nil {
		t.Fatal(err)
	}
	if err := c.ReportLevelOutcome(true); !errors.Is(err, ErrNoLevelInProgress) {
		t.Errorf("ReportLevelOutcome without level: err = %v, want ErrNoLevelInProgress", err)
	}

	if err := c.SelectNode(c.Run().Tree.Tier(0)[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := c.ReportLevelOutcome(false); err != nil {
		t.Fatalf("ReportLevelOutcome(false) failed: %v", err)
	}

	if c.State() != StateRunFailed {
		t.Errorf("state = %s, want failed", c.State())
	}
	if c.Run().VictoryPoints != 0 {
		t.Errorf("failed level should not give reward, got %d", c.Run().VictoryPoints)
	}
	want := []events.Type{events.RunCreated, events.NodeSelected, events.LevelFailed, events.RunFailed}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if err := c.ReportLevelOutcome(true); !errors.Is(err, ErrNoActiveRun) {
		t.Errorf("ReportLevelOutcome after failure: err = %v, want ErrNoActiveRun", err)
	}
}

func TestController_ApplyDamage(t *testing.T) {
	c := newTestController(nil, nil)
	cfg := testRunConfig()
	cfg.StartingHealth = 2
	if err := c.CreateRun(cfg); err != nil {
		t.Fatal(err)
	}

	if err := c.ApplyDamage(1); !errors.Is(err, ErrNoLevelInProgress) {
		t.Errorf("ApplyDamage without level: err = %v, want ErrNoLevelInProgress", err)
	}

	if err := c.SelectNode(c.Run().Tree.Tier(0)[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := c.ApplyDamage(1); err != nil {
		t.Fatal(err)
	}
	if c.State() != StateRunActive || c.Run().Health != 1 {
		t.Errorf("after 1 damage: state=%s health=%d", c.State(), c.Run().Health)
	}

	if err := c.ApplyDamage(5); err != nil {
		t.Fatal(err)
	}
	if c.State() != StateRunFailed || c.Run().Health != 0 {
		t.Errorf("after lethal damage: state=%s health=%d", c.State(), c.Run().Health)
	}
}

func TestController_Purchase(t *testing.T) {
	c := newTestController(nil, nil)
	c.SetShop(testShop())

	cfg := testRunConfig()
	cfg.TierCount = 3
	cfg.ShopRatio = 1
	if err := c.CreateRun(cfg); err != nil {
		t.Fatal(err)
	}

	root := c.Run().Tree.Tier(0)[0]
	if err := c.SelectNode(root.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.Purchase("thruster_boost"); !errors.Is(err, ErrNotInShop) {
		t.Errorf("Purchase outside shop: err = %v, want ErrNotInShop", err)
	}
	if err := c.ReportLevelOutcome(true); err != nil {
		t.Fatal(err)
	}

	// 起点关奖励 5 scrap：20 + 5 = 25
	if got := c.Run().Resource(ResourceScrap); got != 25 {
		t.Fatalf("scrap = %d, want 25", got)
	}

	shopNode := c.Run().Tree.Selectable()[0]
	if !shopNode.Level.IsShop() {
		t.Fatalf("tier 1 node type = %s, want shop", shopNode.Level.Type)
	}
	if shopNode.Level.RequiredResourceThreshold == nil || *shopNode.Level.RequiredResourceThreshold != 5 {
		t.Errorf("shop threshold = %v, want cheapest cost 5", shopNode.Level.RequiredResourceThreshold)
	}
	if err := c.SelectNode(shopNode.ID); err != nil {
		t.Fatal(err)
	}

	var purchased []string
	c.Subscribe(func(ev events.Event) {
		if ev.Type == events.ItemPurchased {
			purchased = append(purchased, ev.Detail)
		}
	})

	if err := c.Purchase("thruster_boost"); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if err := c.Purchase("thruster_boost"); !errors.Is(err, ErrInsufficientResources) {
		t.Errorf("second Purchase: err = %v, want ErrInsufficientResources", err)
	}
	if err := c.Purchase("warp_core"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown item: err = %v, want ErrUnknownItem", err)
	}

	run := c.Run()
	if run.Resource(ResourceScrap) != 10 {
		t.Errorf("scrap after purchase = %d, want 10", run.Resource(ResourceScrap))
	}
	if run.Modifier("speed") != 0.1 {
		t.Errorf("speed modifier = %v, want 0.1", run.Modifier("speed"))
	}
	if len(purchased) != 1 || purchased[0] != "thruster_boost" {
		t.Errorf("purchase events = %v", purchased)
	}

	if err := c.ReportLevelOutcome(true); err != nil {
		t.Fatal(err)
	}
	if err := c.Purchase("hull_patch"); !errors.Is(err, ErrNotInShop) {
		t.Errorf("Purchase after leaving shop: err = %v, want ErrNotInShop", err)
	}
}

func TestController_AbandonRun(t *testing.T) {
	c := newTestController(nil, nil)
	if err := c.AbandonRun(); !errors.Is(err, ErrNoActiveRun) {
		t.Errorf("AbandonRun without run: err = %v, want ErrNoActiveRun", err)
	}

	var abandoned events.Event
	c.Subscribe(func(ev events.Event) {
		if ev.Type == events.RunAbandoned {
			abandoned = ev
		}
	})

	if err := c.CreateRun(testRunConfig()); err != nil {
		t.Fatal(err)
	}
	runID := c.Run().ID
	if err := c.SelectNode(c.Run().Tree.Tier(0)[0].ID); err != nil {
		t.Fatal(err)
	}

	if err := c.AbandonRun(); err != nil {
		t.Fatalf("AbandonRun failed: %v", err)
	}
	if c.State() != StateNoRun || c.Run() != nil || c.LevelInProgress() {
		t.Errorf("after abandon: state=%s run=%v inProgress=%v", c.State(), c.Run(), c.LevelInProgress())
	}
	if abandoned.RunID != runID || abandoned.Tier != 0 {
		t.Errorf("abandon event = %+v", abandoned)
	}

	if err := c.CreateRun(testRunConfig()); err != nil {
		t.Errorf("CreateRun after abandon failed: %v", err)
	}
}

func TestController_SaveAndLoad(t *testing.T) {
	codecs := []struct {
		name  string
		codec Codec
	}{
		{"YAML存档", YAMLCodec{}},
		{"gob存档", GobCodec{}},
	}

	for _, tt := range codecs {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			c := newTestController(store, nil)
			c.SetCodec(tt.codec)

			if err := c.CreateRun(testRunConfig()); err != nil {
				t.Fatal(err)
			}
			if err := c.SelectNode(c.Run().Tree.Tier(0)[0].ID); err != nil {
				t.Fatal(err)
			}
			if err := c.ReportLevelOutcome(true); err != nil {
				t.Fatal(err)
			}
			if err := c.SaveRun(); err != nil {
				t.Fatalf("SaveRun failed: %v", err)
			}

			original := c.Run()
			loaded := newTestController(store, nil)
			loaded.SetCodec(tt.codec)
			ok, err := loaded.LoadRun()
			if err != nil || !ok {
				t.Fatalf("LoadRun = %v, %v; want true, nil", ok, err)
			}

			run := loaded.Run()
			if run.ID != original.ID || run.Seed != original.Seed {
				t.Errorf("run identity differs: %s/%d vs %s/%d", run.ID, run.Seed, original.ID, original.Seed)
			}
			if loaded.State() != StateRunActive || loaded.LevelInProgress() {
				t.Errorf("state=%s inProgress=%v", loaded.State(), loaded.LevelInProgress())
			}
			if run.Tree.Current() == nil || run.Tree.Current().ID != original.Tree.Current().ID {
				t.Error("cursor not restored")
			}
			if run.Tree.NodeCount() != original.Tree.NodeCount() || run.Tree.EdgeCount() != original.Tree.EdgeCount() {
				t.Errorf("tree size differs: nodes %d/%d edges %d/%d",
					run.Tree.NodeCount(), original.Tree.NodeCount(), run.Tree.EdgeCount(), original.Tree.EdgeCount())
			}
			if run.VictoryPoints != original.VictoryPoints || run.Resource(ResourceScrap) != original.Resource(ResourceScrap) {
				t.Errorf("metadata differs: vp %d/%d scrap %d/%d",
					run.VictoryPoints, original.VictoryPoints, run.Resource(ResourceScrap), original.Resource(ResourceScrap))
			}
			if err := run.Tree.Validate(); err != nil {
				t.Errorf("restored tree is invalid: %v", err)
			}

			playToEnd(t, loaded)
			if loaded.State() != StateRunComplete {
				t.Errorf("restored run did not complete: %s", loaded.State())
			}
		})
	}
}

func TestController_LoadRestartsLevelInProgress(t *testing.T) {
	store := storage.NewMemoryStore()
	c := newTestController(store, nil)
	if err := c.CreateRun(testRunConfig()); err != nil {
		t.Fatal(err)
	}
	root := c.Run().Tree.Tier(0)[0]
	if err := c.SelectNode(root.ID); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveRun(); err != nil {
		t.Fatal(err)
	}

	exec := &recordingExecutor{}
	loaded := newTestController(store, exec)
	if ok, err := loaded.LoadRun(); !ok || err != nil {
		t.Fatalf("LoadRun = %v, %v", ok, err)
	}

	if !loaded.LevelInProgress() {
		t.Error("level in progress should be restored")
	}
	if len(exec.started) != 1 || exec.started[0].Seed != root.Level.Seed {
		t.Errorf("executor started %v, want the saved level", exec.started)
	}
	if err := loaded.ReportLevelOutcome(true); err != nil {
		t.Errorf("ReportLevelOutcome after load failed: %v", err)
	}
}

func TestController_LoadWithoutSave(t *testing.T) {
	tests := []struct {
		name  string
		store storage.Store
	}{
		{"没有存储", nil},
		{"槽位为空", storage.NewMemoryStore()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(tt.store, nil)
			ok, err := c.LoadRun()
			if ok || err != nil {
				t.Errorf("LoadRun = %v, %v; want false, nil", ok, err)
			}
			if c.State() != StateNoRun {
				t.Errorf("state = %s, want no_run", c.State())
			}
		})
	}
}

func TestController_LoadCorruptSave(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"非法YAML", "version: [unclosed"},
		{"版本不兼容", "version: 99\nstate: active\n"},
		{"未知状态", "version: 1\nstate: paused\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemoryStore()
			if err := store.Write(DefaultSaveSlot, []byte(tt.raw)); err != nil {
				t.Fatal(err)
			}

			c := newTestController(store, nil)
			ok, err := c.LoadRun()
			if ok || err == nil {
				t.Errorf("LoadRun = %v, %v; want false with error", ok, err)
			}
			if c.Run() != nil {
				t.Error("corrupt save must not replace the current run")
			}
		})
	}
}

func TestController_SaveSlotAndDelete(t *testing.T) {
	store := storage.NewMemoryStore()
	c := newTestController(store, nil)

	if err := c.SaveRun(); !errors.Is(err, ErrNoActiveRun) {
		t.Errorf("SaveRun without run: err = %v, want ErrNoActiveRun", err)
	}
	if err := c.SetSaveSlot("../escape"); err == nil {
		t.Error("SetSaveSlot should reject invalid names")
	}
	if err := c.SetSaveSlot("slot_b"); err != nil {
		t.Fatal(err)
	}

	if err := c.CreateRun(testRunConfig()); err != nil {
		t.Fatal(err)
	}
	if err := c.SaveRun(); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Read("slot_b"); err != nil {
		t.Errorf("save not written to slot_b: %v", err)
	}

	if err := c.DeleteSave(); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Read("slot_b"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("after DeleteSave: err = %v, want ErrNotFound", err)
	}

	degraded := newTestController(nil, nil)
	if err := degraded.CreateRun(testRunConfig()); err != nil {
		t.Fatal(err)
	}
	if err := degraded.SaveRun(); err != nil {
		t.Errorf("SaveRun without store should be a no-op, got %v", err)
	}
}

func TestStateStrings(t *testing.T) {
	for _, s := range []State{StateNoRun, StateRunActive, StateRunComplete, StateRunFailed} {
		parsed, err := ParseState(s.String())
		if err != nil || parsed != s {
			t.Errorf("ParseState(%q) = %v, %v", s.String(), parsed, err)
		}
	}
	if _, err := ParseState("paused"); err == nil {
		t.Error("ParseState should reject unknown names")
	}
}
