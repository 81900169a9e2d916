package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/gonewx/astrorun/pkg/app"
	"github.com/gonewx/astrorun/pkg/game"
	"github.com/gonewx/astrorun/pkg/level"
	"github.com/gonewx/astrorun/pkg/runtree"
)

const (
	tickInterval = 100 * time.Millisecond
	columnWidth  = 14 // 每层占用的列宽
	mapTop       = 4  // 地图起始行
	rowSpacing   = 2  // 同层节点的行距
)

var (
	styleDefault    = tcell.StyleDefault
	styleHeader     = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleCurrent    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
	styleSelectable = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleFocused    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Reverse(true)
	styleVisited    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// typeGlyph 节点在终端中的单字符标记
func typeGlyph(t level.LevelType) rune {
	switch t {
	case level.TypeShop:
		return '$'
	case level.TypeBoss:
		return 'B'
	case level.TypeCombat:
		return 'C'
	case level.TypeSurvival:
		return 'S'
	default:
		return 'A'
	}
}

// Terminal 基于 tcell 的终端界面，同时是控制器的关卡执行器
type Terminal struct {
	screen     tcell.Screen
	app        *app.App
	controller *game.Controller

	focus      int          // 可选节点中的焦点下标
	level      *level.Level // 进行中的关卡，nil 表示在地图上
	levelStart time.Time
	status     string
	now        func() time.Time
}

// NewTerminal 创建终端界面并注册为控制器的关卡执行器
// 应在 app.Resume() 之前调用
func NewTerminal(screen tcell.Screen, a *app.App) *Terminal {
	t := &Terminal{
		screen:     screen,
		app:        a,
		controller: a.Controller(),
		now:        time.Now,
	}
	t.controller.SetExecutor(t)
	return t
}

// StartLevel 实现 game.LevelExecutor
func (t *Terminal) StartLevel(lvl level.Level) {
	t.level = &lvl
	t.levelStart = t.now()
	t.status = ""
}

// Run 事件循环，按 q / Esc / Ctrl+C 退出
func (t *Terminal) Run() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := t.screen.PollEvent()
			if ev == nil {
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	t.draw()
	for {
		select {
		case ev, ok := <-eventChan:
			if !ok {
				return
			}
			if !t.handleEvent(ev) {
				return
			}
		case <-ticker.C:
			t.tick()
		}
		t.draw()
	}
}

// tick 生存关在时间耗尽后自动判定成功
func (t *Terminal) tick() {
	if t.level == nil || t.level.DurationLimit == nil {
		return
	}
	if t.now().Sub(t.levelStart).Seconds() >= *t.level.DurationLimit {
		t.report(true)
	}
}

// handleEvent 处理单个事件，返回 false 表示退出
func (t *Terminal) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if t.level != nil {
			t.handleLevelKey(ev)
			return true
		}
		return t.handleMapKey(ev)
	case *tcell.EventResize:
		t.screen.Sync()
	}
	return true
}

func (t *Terminal) handleMapKey(ev *tcell.EventKey) bool {
	selectable := t.selectable()

	switch ev.Key() {
	case tcell.KeyUp, tcell.KeyLeft:
		if len(selectable) > 0 {
			t.focus = (t.focus - 1 + len(selectable)) % len(selectable)
		}
	case tcell.KeyDown, tcell.KeyRight, tcell.KeyTab:
		if len(selectable) > 0 {
			t.focus = (t.focus + 1) % len(selectable)
		}
	case tcell.KeyEnter:
		if t.focus < len(selectable) {
			if err := t.controller.SelectNode(selectable[t.focus].ID); err != nil {
				t.status = fmt.Sprintf("Cannot select node: %v", err)
			}
		}
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'n':
			t.newRun()
		case 's':
			t.save()
		case 'a':
			t.abandon()
		}
	}
	return true
}

func (t *Terminal) handleLevelKey(ev *tcell.EventKey) {
	if t.level.IsShop() {
		if ev.Key() == tcell.KeyEnter {
			t.report(true)
			return
		}
		if ev.Key() == tcell.KeyRune && ev.Rune() >= '1' && ev.Rune() <= '9' {
			t.purchase(int(ev.Rune() - '1'))
		}
		return
	}

	if ev.Key() != tcell.KeyRune {
		return
	}
	switch ev.Rune() {
	case 'w':
		t.report(true)
	case 'l':
		t.report(false)
	case 'h':
		if err := t.controller.ApplyDamage(1); err != nil {
			t.status = fmt.Sprintf("Cannot apply damage: %v", err)
			return
		}
		if !t.controller.LevelInProgress() {
			t.afterLevel()
		}
	}
}

// selectable 当前可选节点，关卡进行中或一局结束时为空
func (t *Terminal) selectable() []*runtree.Node {
	run := t.controller.Run()
	if run == nil || t.controller.State() != game.StateRunActive || t.controller.LevelInProgress() {
		return nil
	}
	return run.Tree.Selectable()
}

func (t *Terminal) report(success bool) {
	if err := t.controller.ReportLevelOutcome(success); err != nil {
		t.status = fmt.Sprintf("Cannot report outcome: %v", err)
		return
	}
	t.afterLevel()
}

// afterLevel 回到地图；进行中的一局自动存档，结束的一局删除存档
func (t *Terminal) afterLevel() {
	t.level = nil
	t.focus = 0

	switch t.controller.State() {
	case game.StateRunActive:
		t.save()
	case game.StateRunComplete:
		t.status = fmt.Sprintf("Run complete with %d victory points - press n for a new run", t.controller.Run().VictoryPoints)
		t.controller.DeleteSave()
	case game.StateRunFailed:
		t.status = "Run failed - press n for a new run"
		t.controller.DeleteSave()
	}
}

func (t *Terminal) purchase(index int) {
	shop := t.controller.Shop()
	if shop == nil || index >= len(shop.Items) {
		return
	}
	item := shop.Items[index]
	if err := t.controller.Purchase(item.ID); err != nil {
		t.status = fmt.Sprintf("Cannot buy %s: %v", item.Name, err)
		return
	}
	t.status = fmt.Sprintf("Bought %s", item.Name)
}

func (t *Terminal) newRun() {
	if t.controller.Run() != nil {
		if err := t.controller.AbandonRun(); err != nil {
			t.status = fmt.Sprintf("Cannot abandon run: %v", err)
			return
		}
	}
	if err := t.app.NewRun(); err != nil {
		t.status = fmt.Sprintf("Cannot create run: %v", err)
		return
	}
	t.level = nil
	t.focus = 0
	t.status = fmt.Sprintf("New run (seed %d)", t.controller.Run().Seed)
}

func (t *Terminal) save() {
	if err := t.controller.SaveRun(); err != nil {
		t.status = fmt.Sprintf("Save failed: %v", err)
		return
	}
	t.status = "Saved"
}

func (t *Terminal) abandon() {
	if err := t.controller.AbandonRun(); err != nil {
		t.status = fmt.Sprintf("Cannot abandon: %v", err)
		return
	}
	t.controller.DeleteSave()
	t.level = nil
	t.status = "Run abandoned - press n for a new run"
}

func (t *Terminal) draw() {
	t.screen.Clear()
	t.drawHeader()
	if t.level != nil {
		t.drawLevel()
	} else {
		t.drawMap()
	}

	_, h := t.screen.Size()
	t.drawText(0, h-2, styleStatus, t.status)
	if t.level == nil {
		t.drawText(0, h-1, styleDefault, "arrows: focus  enter: select  n: new  s: save  a: abandon  q: quit")
	}
	t.screen.Show()
}

func (t *Terminal) drawHeader() {
	var b strings.Builder
	fmt.Fprintf(&b, "ASTRO RUN  state: %s", t.controller.State())
	if run := t.controller.Run(); run != nil {
		fmt.Fprintf(&b, "  seed: %d  hp: %d/%d  vp: %d  scrap: %d",
			run.Seed, run.Health, run.MaxHealth, run.VictoryPoints, run.Resource(game.ResourceScrap))
	}
	t.drawText(0, 0, styleHeader, b.String())
	t.drawText(0, 1, styleDefault, "A asteroids  $ shop  C combat  S survival  B boss   (>n: next-tier targets)")
}

// drawMap 每层一列，节点显示为 [类型]>目标位置
func (t *Terminal) drawMap() {
	run := t.controller.Run()
	if run == nil {
		t.drawText(0, mapTop, styleDefault, "No run - press n to start")
		return
	}
	tree := run.Tree
	current := tree.Current()

	selectable := t.selectable()
	focusID := ""
	if t.focus < len(selectable) {
		focusID = selectable[t.focus].ID
	}
	isSelectable := make(map[string]bool, len(selectable))
	for _, n := range selectable {
		isSelectable[n.ID] = true
	}

	for ti := 0; ti < tree.TierCount(); ti++ {
		x := ti * columnWidth
		t.drawText(x, mapTop-1, styleDefault, fmt.Sprintf("T%d", ti))
		for _, n := range tree.Tier(ti) {
			style := styleDefault
			switch {
			case current != nil && n.ID == current.ID:
				style = styleCurrent
			case n.ID == focusID:
				style = styleFocused
			case isSelectable[n.ID]:
				style = styleSelectable
			case current != nil && n.Tier <= current.Tier:
				style = styleVisited
			}
			t.drawText(x, mapTop+n.Position*rowSpacing, style, nodeLabel(n))
		}
	}
}

// nodeLabel 例如 "[$]>0,2"
func nodeLabel(n *runtree.Node) string {
	label := fmt.Sprintf("[%c]", typeGlyph(n.Level.Type))
	conns := n.Connections()
	if len(conns) == 0 {
		return label
	}
	parts := make([]string, len(conns))
	for i, c := range conns {
		parts[i] = fmt.Sprint(c)
	}
	return label + ">" + strings.Join(parts, ",")
}

func (t *Terminal) drawLevel() {
	lvl := t.level
	y := mapTop
	t.drawText(0, y, styleHeader, fmt.Sprintf("Level: %s  scene: %s  difficulty: x%.2f", lvl.Type, lvl.SceneID, lvl.DifficultyMultiplier))
	y++
	if lvl.DurationLimit != nil {
		remaining := *lvl.DurationLimit - t.now().Sub(t.levelStart).Seconds()
		if remaining < 0 {
			remaining = 0
		}
		t.drawText(0, y, styleDefault, fmt.Sprintf("Survive: %.0fs remaining", remaining))
		y++
	}
	y++

	if !lvl.IsShop() {
		t.drawText(0, y, styleDefault, "w: win  l: lose  h: take 1 damage  esc: quit")
		return
	}

	if shop := t.controller.Shop(); shop != nil {
		for i, item := range shop.Items {
			if i >= 9 {
				break
			}
			t.drawText(2, y, styleSelectable, fmt.Sprintf("%d) %s", i+1, item.Name))
			y++
		}
	}
	y++
	t.drawText(0, y, styleDefault, "1-9: buy  enter: leave shop  esc: quit")
}

func (t *Terminal) drawText(x, y int, style tcell.Style, text string) {
	for _, r := range text {
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
