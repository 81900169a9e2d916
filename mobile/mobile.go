//go:build mobile

// Package mobile 提供 ebitenmobile 绑定入口
//
// 此包用于构建 Android (.aar) 和 iOS (.xcframework) 包。
// 使用 ebitenmobile 工具构建时会自动调用 init() 函数。
//
// 此文件仅在使用 -tags mobile 构建时编译：
//
//	ebitenmobile bind -target android -tags mobile -androidapi 23 -javapkg com.gonewx.astrorun -o build/android/astrorun.aar -v ./mobile
//	ebitenmobile bind -target ios -tags mobile -o build/ios/AstroRun.xcframework -v ./mobile
package mobile

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2/mobile"
	"github.com/quasilyte/gdata/v2"

	"github.com/gonewx/astrorun/pkg/app"
	"github.com/gonewx/astrorun/pkg/embedded"
	"github.com/gonewx/astrorun/pkg/utils"
	"github.com/gonewx/astrorun/pkg/viewer"
)

func init() {
	embedded.Init(dataFS)

	// Android 上 gdata 不会预先创建存档目录
	if err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[Mobile] Warning: %v", err)
	}

	gameApp, err := app.New(app.Config{Verbose: true})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	var settingsManager *viewer.SettingsManager
	if gm, err := gdata.Open(gdata.Config{AppName: gameApp.AppConfig().Storage.AppName}); err == nil {
		settingsManager = viewer.NewSettingsManager(gm)
	} else {
		settingsManager = viewer.NewSettingsManager(nil)
	}

	v := viewer.New(gameApp, settingsManager)
	if _, err := gameApp.Resume(); err != nil {
		log.Fatalf("无法生成地图: %v", err)
	}

	// 注册到 ebitenmobile
	mobile.SetGame(v)
}

// Dummy 是一个空导出函数，确保包被 ebitenmobile 正确识别
func Dummy() {}
