package viewer

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/gonewx/astrorun/pkg/game"
	"github.com/gonewx/astrorun/pkg/level"
	"github.com/gonewx/astrorun/pkg/runtree"
	"github.com/gonewx/astrorun/pkg/utils"
)

var (
	backgroundColor = color.RGBA{R: 12, G: 14, B: 28, A: 255}
	edgeColor       = color.RGBA{R: 90, G: 100, B: 130, A: 255}
	crossingColor   = color.RGBA{R: 230, G: 60, B: 60, A: 255}
	currentColor    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	selectableColor = color.RGBA{R: 250, G: 210, B: 80, A: 255}
)

// levelColor 关卡类型对应的节点颜色
func levelColor(t level.LevelType) color.RGBA {
	switch t {
	case level.TypeAsteroids:
		return color.RGBA{R: 140, G: 120, B: 100, A: 255}
	case level.TypeShop:
		return color.RGBA{R: 70, G: 180, B: 90, A: 255}
	case level.TypeBoss:
		return color.RGBA{R: 200, G: 50, B: 120, A: 255}
	case level.TypeSurvival:
		return color.RGBA{R: 70, G: 140, B: 220, A: 255}
	default:
		return color.RGBA{R: 210, G: 110, B: 50, A: 255}
	}
}

// MapScene 地图画面：显示关卡树，点击可选节点开始关卡
type MapScene struct {
	viewer *Viewer

	tree   *runtree.Tree
	layout *MapLayout

	elapsed float64 // 可选节点光圈的呼吸动画计时
	hovered string  // 指针悬停的节点 ID
}

func newMapScene(v *Viewer) *MapScene {
	return &MapScene{viewer: v}
}

// refreshLayout 关卡树变化（新的一局、读档）时重新计算布局
func (s *MapScene) refreshLayout() {
	var tree *runtree.Tree
	if run := s.viewer.controller.Run(); run != nil {
		tree = run.Tree
	}
	if tree == s.tree && s.layout != nil {
		return
	}
	s.tree = tree
	s.layout = ComputeLayout(tree, ScreenWidth, ScreenHeight)
}

// Update 处理点击和按键
func (s *MapScene) Update(deltaTime float64) {
	s.refreshLayout()
	s.elapsed += deltaTime
	v := s.viewer

	px, py := utils.PointerPosition()
	s.hovered, _ = s.layout.HitTest(float64(px), float64(py))

	if pressed, x, y := utils.PointerJustPressed(); pressed {
		if id, ok := s.layout.HitTest(float64(x), float64(y)); ok {
			v.selectNode(id)
		} else if utils.IsMobile() && v.controller.State() != game.StateRunActive {
			// 触摸设备没有键盘，一局结束后点击空白处开始新的一局
			v.newRun()
		}
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		v.newRun()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		v.save()
	case inpututil.IsKeyJustPressed(ebiten.KeyA):
		v.abandon()
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		v.settings.ToggleLabels()
		v.saveSettings()
	case inpututil.IsKeyJustPressed(ebiten.KeyX):
		v.settings.ToggleCrossings()
		v.saveSettings()
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		v.settings.ToggleAutoSave()
		v.saveSettings()
	}
}

// Draw 绘制连线、节点和状态栏
func (s *MapScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	s.refreshLayout()

	if s.tree != nil {
		s.drawEdges(screen)
		s.drawNodes(screen)
	}
	s.drawHUD(screen)
}

func (s *MapScene) drawEdges(screen *ebiten.Image) {
	settings := s.viewer.settings.GetSettings()

	crossing := make(map[string]bool)
	if settings.ShowCrossings {
		for _, c := range s.tree.CrossingPairs() {
			if n, ok := s.tree.NodeAt(c.Tier, c.Left); ok {
				crossing[n.ID] = true
			}
			if n, ok := s.tree.NodeAt(c.Tier, c.Right); ok {
				crossing[n.ID] = true
			}
		}
	}

	for t := 0; t < s.tree.TierCount(); t++ {
		for _, n := range s.tree.Tier(t) {
			from, _ := s.layout.Position(n.ID)
			clr := edgeColor
			if crossing[n.ID] {
				clr = crossingColor
			}
			for _, succ := range s.tree.Successors(n) {
				to, _ := s.layout.Position(succ.ID)
				vector.StrokeLine(screen, float32(from.X), float32(from.Y), float32(to.X), float32(to.Y), 2, clr, true)
			}
		}
	}
}

func (s *MapScene) drawNodes(screen *ebiten.Image) {
	settings := s.viewer.settings.GetSettings()
	r := float32(s.layout.Radius())

	selectable := make(map[string]bool)
	if s.viewer.controller.State() == game.StateRunActive && !s.viewer.controller.LevelInProgress() {
		for _, n := range s.tree.Selectable() {
			selectable[n.ID] = true
		}
	}
	current := s.tree.Current()

	for t := 0; t < s.tree.TierCount(); t++ {
		for _, n := range s.tree.Tier(t) {
			p, _ := s.layout.Position(n.ID)
			x, y := float32(p.X), float32(p.Y)

			vector.DrawFilledCircle(screen, x, y, r, levelColor(n.Level.Type), true)
			switch {
			case current != nil && current.ID == n.ID:
				vector.StrokeCircle(screen, x, y, r+4, 3, currentColor, true)
			case selectable[n.ID]:
				grow := float32(utils.Lerp(3, 7, utils.Pulse(s.elapsed, 1.2)))
				vector.StrokeCircle(screen, x, y, r+grow, 2, selectableColor, true)
			}

			if settings.ShowLabels {
				label := n.Level.Type.String()
				ebitenutil.DebugPrintAt(screen, label, int(p.X)-len(label)*3, int(p.Y)+int(r)+4)
			}
		}
	}
}

func (s *MapScene) drawHUD(screen *ebiten.Image) {
	v := s.viewer
	c := v.controller

	var b strings.Builder
	fmt.Fprintf(&b, "State: %s", c.State())
	if run := c.Run(); run != nil {
		fmt.Fprintf(&b, "   Seed: %d   HP: %d/%d   VP: %d   Scrap: %d   Cleared: %d",
			run.Seed, run.Health, run.MaxHealth, run.VictoryPoints, run.Resource(game.ResourceScrap), run.LevelsCleared)
		if mods := run.ModifierNames(); len(mods) > 0 {
			parts := make([]string, 0, len(mods))
			for _, m := range mods {
				parts = append(parts, fmt.Sprintf("%s+%.2f", m, run.Modifier(m)))
			}
			fmt.Fprintf(&b, "\nModifiers: %s", strings.Join(parts, " "))
		}
	}
	if s.tree != nil && s.hovered != "" {
		if n, ok := s.tree.NodeByID(s.hovered); ok {
			fmt.Fprintf(&b, "\nTier %d: %s  x%.2f", n.Tier, n.Level.Type, n.Level.DifficultyMultiplier)
			if n.Level.DurationLimit != nil {
				fmt.Fprintf(&b, "  %.0fs", *n.Level.DurationLimit)
			}
			if n.Level.RequiredResourceThreshold != nil {
				fmt.Fprintf(&b, "  needs %d", *n.Level.RequiredResourceThreshold)
			}
		}
	}
	ebitenutil.DebugPrintAt(screen, b.String(), 10, 10)

	switch c.State() {
	case game.StateRunComplete:
		ebitenutil.DebugPrintAt(screen, "RUN COMPLETE - press N for a new run", ScreenWidth/2-110, 44)
	case game.StateRunFailed:
		ebitenutil.DebugPrintAt(screen, "RUN FAILED - press N for a new run", ScreenWidth/2-105, 44)
	}

	if v.status != "" {
		ebitenutil.DebugPrintAt(screen, v.status, 10, ScreenHeight-40)
	}
	hint := "Click: select   N: new run   S: save   A: abandon   T: labels   X: crossings   F5: autosave   F11: fullscreen"
	if utils.IsMobile() {
		hint = "Tap a highlighted node to start its level, tap anywhere after the run ends for a new one"
	}
	ebitenutil.DebugPrintAt(screen, hint, 10, ScreenHeight-20)
}
