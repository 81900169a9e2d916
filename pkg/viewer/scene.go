package viewer

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// Scene 查看器中的一个画面（地图、关卡）
type Scene interface {
	// Update 更新画面逻辑，deltaTime 为距上一帧的秒数
	Update(deltaTime float64)

	// Draw 把画面绘制到 screen
	Draw(screen *ebiten.Image)
}

// SceneManager 管理当前活动的画面
// 任一时刻只有一个画面的 Update 和 Draw 会被调用
type SceneManager struct {
	currentScene Scene
}

// NewSceneManager 创建没有活动画面的管理器
func NewSceneManager() *SceneManager {
	return &SceneManager{}
}

// SwitchTo 切换活动画面，从下一帧开始生效
func (sm *SceneManager) SwitchTo(scene Scene) {
	if scene == nil {
		log.Printf("[SceneManager] 错误: 不能切换到空画面")
		return
	}
	sm.currentScene = scene
}

// GetCurrentScene 返回当前活动的画面，没有时返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// Update 更新当前画面
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw 绘制当前画面
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}
