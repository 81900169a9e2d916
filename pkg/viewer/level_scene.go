package viewer

import (
	"fmt"
	"image/color"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gonewx/astrorun/pkg/game"
	"github.com/gonewx/astrorun/pkg/level"
	"github.com/gonewx/astrorun/pkg/utils"
)

// itemKeys 商店中购买第 i 个商品的按键
var itemKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// 商店列表的位置（触摸购买按行号定位）
const (
	shopListTop = 200
	lineHeight  = 24
)

// LevelScene 关卡占位画面
//
// 真正的玩法不在本项目范围内：这里只展示关卡描述符，
// 由玩家按键报告结果。生存关在时间限制耗尽后自动判定成功。
type LevelScene struct {
	viewer  *Viewer
	level   level.Level
	elapsed float64
}

func newLevelScene(v *Viewer, lvl level.Level) *LevelScene {
	return &LevelScene{viewer: v, level: lvl}
}

// Update 处理按键和生存关计时
func (s *LevelScene) Update(deltaTime float64) {
	v := s.viewer
	s.elapsed += deltaTime

	if s.level.DurationLimit != nil && s.elapsed >= *s.level.DurationLimit {
		v.reportOutcome(true)
		return
	}

	if utils.IsMobile() {
		s.updateTouch()
		return
	}

	if s.level.IsShop() {
		for i, key := range itemKeys {
			if inpututil.IsKeyJustPressed(key) {
				v.purchase(i)
			}
		}
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyW) {
			v.reportOutcome(true)
		}
		return
	}

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyW):
		v.reportOutcome(true)
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		v.reportOutcome(false)
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		v.takeDamage(1)
	}
}

// updateTouch 触摸设备上的操作：商店中点击商品行购买、点击底部离开；
// 其他关卡点击左半屏胜利、右半屏失败
func (s *LevelScene) updateTouch() {
	pressed, x, y := utils.PointerJustPressed()
	if !pressed {
		return
	}
	v := s.viewer

	if s.level.IsShop() {
		if y >= ScreenHeight-80 {
			v.reportOutcome(true)
			return
		}
		if row := (y - shopListTop) / lineHeight; y >= shopListTop && row < len(itemKeys) {
			v.purchase(row)
		}
		return
	}

	if x < ScreenWidth/2 {
		v.reportOutcome(true)
	} else {
		v.reportOutcome(false)
	}
}

// Draw 绘制关卡描述符
func (s *LevelScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 20, G: 10, B: 30, A: 255})

	var b strings.Builder
	fmt.Fprintf(&b, "Level: %s   Scene: %s\n", s.level.Type, s.level.SceneID)
	fmt.Fprintf(&b, "Difficulty: x%.2f   Seed: %d\n", s.level.DifficultyMultiplier, s.level.Seed)
	if s.level.DurationLimit != nil {
		remaining := *s.level.DurationLimit - s.elapsed
		if remaining < 0 {
			remaining = 0
		}
		fmt.Fprintf(&b, "Survive: %.0fs remaining\n", remaining)
	}
	if run := s.viewer.controller.Run(); run != nil {
		fmt.Fprintf(&b, "HP: %d/%d   Scrap: %d\n", run.Health, run.MaxHealth, run.Resource(game.ResourceScrap))
	}

	if s.level.IsShop() {
		s.drawShop(screen)
		if utils.IsMobile() {
			b.WriteString("\nTap an item to buy, tap the bottom of the screen to leave")
		} else {
			b.WriteString("\n1-9: buy   Enter/W: leave shop")
		}
	} else if utils.IsMobile() {
		b.WriteString("\nTap left half: win   right half: lose")
	} else {
		b.WriteString("\nW: win   L: lose   H: take 1 damage")
	}

	ebitenutil.DebugPrintAt(screen, b.String(), 40, 40)
	if s.viewer.status != "" {
		ebitenutil.DebugPrintAt(screen, s.viewer.status, 40, ScreenHeight-40)
	}
}

// drawShop 商品列表按固定行高绘制，触摸时按行号定位商品
func (s *LevelScene) drawShop(screen *ebiten.Image) {
	shop := s.viewer.controller.Shop()
	if shop == nil {
		return
	}
	run := s.viewer.controller.Run()
	for i, item := range shop.Items {
		if i >= len(itemKeys) {
			break
		}
		line := fmt.Sprintf("[%d] %s  (%s)", i+1, item.Name, formatCost(item.Cost))
		if run != nil && !run.CanAfford(item.Cost) {
			line += "  - not enough resources"
		}
		ebitenutil.DebugPrintAt(screen, line, 60, shopListTop+i*lineHeight)
	}
}

// formatCost 按资源名排序输出价格
func formatCost(cost map[string]int) string {
	kinds := make([]string, 0, len(cost))
	for k := range cost {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%d %s", cost[k], k))
	}
	if len(parts) == 0 {
		return "free"
	}
	return strings.Join(parts, ", ")
}
