// Package viewer 提供基于 Ebitengine 的关卡地图查看器
//
// 查看器实现 ebiten.Game，同时作为控制器的关卡执行器：
// 控制器开始关卡时切换到关卡画面，玩家报告结果后回到地图画面。
package viewer

import (
	"fmt"
	"image/color"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gonewx/astrorun/pkg/app"
	"github.com/gonewx/astrorun/pkg/game"
	"github.com/gonewx/astrorun/pkg/level"
)

// Viewer 地图查看器
type Viewer struct {
	app        *app.App
	controller *game.Controller
	scenes     *SceneManager
	settings   *SettingsManager
	mapScene   *MapScene

	status string

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// New 创建查看器并把自己注册为控制器的关卡执行器
//
// 应在 app.Resume() 之前调用，这样读档时恢复的进行中关卡能切换到关卡画面。
func New(a *app.App, settings *SettingsManager) *Viewer {
	if settings == nil {
		settings = NewSettingsManager(nil)
	}
	v := &Viewer{
		app:        a,
		controller: a.Controller(),
		scenes:     NewSceneManager(),
		settings:   settings,
	}
	v.mapScene = newMapScene(v)
	v.scenes.SwitchTo(v.mapScene)
	v.controller.SetExecutor(v)
	return v
}

// StartLevel 实现 game.LevelExecutor：切换到关卡画面
func (v *Viewer) StartLevel(lvl level.Level) {
	log.Printf("[Viewer] Starting %s level (scene %s)", lvl.Type, lvl.SceneID)
	v.status = ""
	v.scenes.SwitchTo(newLevelScene(v, lvl))
}

// Settings 返回设置管理器
func (v *Viewer) Settings() *SettingsManager {
	return v.settings
}

// Update 更新游戏逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (v *Viewer) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if v.pendingWindowSizeReset {
		v.windowSizeResetCountdown--
		if v.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
			v.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		fullscreen := !ebiten.IsFullscreen()
		ebiten.SetFullscreen(fullscreen)
		if !fullscreen {
			v.pendingWindowSizeReset = true
			v.windowSizeResetCountdown = 3
		}
		v.settings.SetFullscreen(fullscreen)
		v.saveSettings()
	}

	deltaTime := 1.0 / 60.0
	v.scenes.Update(deltaTime)
	return nil
}

// Draw 绘制当前画面
func (v *Viewer) Draw(screen *ebiten.Image) {
	v.scenes.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口，全屏时两侧填充黑色
func (v *Viewer) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回逻辑屏幕尺寸
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

func (v *Viewer) setStatus(format string, args ...interface{}) {
	v.status = fmt.Sprintf(format, args...)
	log.Printf("[Viewer] %s", v.status)
}

func (v *Viewer) selectNode(id string) {
	if err := v.controller.SelectNode(id); err != nil {
		v.setStatus("Cannot select node: %v", err)
	}
}

// reportOutcome 报告关卡结果并回到地图画面
func (v *Viewer) reportOutcome(success bool) {
	if err := v.controller.ReportLevelOutcome(success); err != nil {
		v.setStatus("Cannot report outcome: %v", err)
		return
	}
	v.afterLevel()
}

func (v *Viewer) takeDamage(amount int) {
	if err := v.controller.ApplyDamage(amount); err != nil {
		v.setStatus("Cannot apply damage: %v", err)
		return
	}
	if !v.controller.LevelInProgress() {
		v.afterLevel()
	}
}

// afterLevel 关卡结束后回到地图，进行中的一局自动存档，结束的一局删除存档
func (v *Viewer) afterLevel() {
	v.scenes.SwitchTo(v.mapScene)

	switch v.controller.State() {
	case game.StateRunActive:
		if v.settings.GetSettings().AutoSave {
			v.save()
		}
	case game.StateRunComplete, game.StateRunFailed:
		if err := v.controller.DeleteSave(); err != nil {
			v.setStatus("Failed to delete save: %v", err)
		}
	}
}

func (v *Viewer) purchase(index int) {
	shop := v.controller.Shop()
	if shop == nil || index >= len(shop.Items) {
		return
	}
	item := shop.Items[index]
	if err := v.controller.Purchase(item.ID); err != nil {
		v.setStatus("Cannot buy %s: %v", item.Name, err)
		return
	}
	v.setStatus("Bought %s", item.Name)
}

func (v *Viewer) newRun() {
	if v.controller.Run() != nil {
		if err := v.controller.AbandonRun(); err != nil {
			v.setStatus("Cannot abandon run: %v", err)
			return
		}
	}
	if err := v.app.NewRun(); err != nil {
		v.setStatus("Cannot create run: %v", err)
		return
	}
	v.scenes.SwitchTo(v.mapScene)
	v.setStatus("New run (seed %d)", v.controller.Run().Seed)
}

func (v *Viewer) save() {
	if err := v.controller.SaveRun(); err != nil {
		v.setStatus("Save failed: %v", err)
		return
	}
	v.setStatus("Saved")
}

func (v *Viewer) abandon() {
	if err := v.controller.AbandonRun(); err != nil {
		v.setStatus("Cannot abandon: %v", err)
		return
	}
	if err := v.controller.DeleteSave(); err != nil {
		v.setStatus("Failed to delete save: %v", err)
		return
	}
	v.setStatus("Run abandoned - press N for a new run")
}

func (v *Viewer) saveSettings() {
	if err := v.settings.Save(); err != nil {
		v.setStatus("Failed to save settings: %v", err)
	}
}
