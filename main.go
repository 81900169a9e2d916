package main

import (
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/quasilyte/gdata/v2"

	"github.com/gonewx/astrorun/pkg/app"
	"github.com/gonewx/astrorun/pkg/embedded"
	"github.com/gonewx/astrorun/pkg/viewer"
)

var (
	verbose   = flag.Bool("verbose", false, "显示详细日志")
	configDir = flag.String("config", "", "覆盖配置目录（run.yaml / shop.yaml / app.yaml）")
	seed      = flag.Uint64("seed", 0, "地图种子，0 表示每局随机")
	backend   = flag.String("backend", "", "存储后端：gdata / file / memory / postgres")
	fresh     = flag.Bool("new", false, "忽略存档，直接开始新的一局")
)

func main() {
	flag.Parse()

	// 初始化嵌入的默认配置（dataFS 在 embed.go 中声明）
	embedded.Init(dataFS)

	gameApp, err := app.New(app.Config{
		Verbose:   *verbose,
		ConfigDir: *configDir,
		Seed:      *seed,
		Backend:   *backend,
	})
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("初始化失败: %v", err)
	}

	// 查看器设置与存档共用 gdata 应用目录，打开失败时只在内存中保存设置
	var settingsManager *viewer.SettingsManager
	if gm, err := gdata.Open(gdata.Config{AppName: gameApp.AppConfig().Storage.AppName}); err == nil {
		settingsManager = viewer.NewSettingsManager(gm)
	} else {
		log.Printf("[Main] Warning: settings storage unavailable: %v", err)
		settingsManager = viewer.NewSettingsManager(nil)
	}

	v := viewer.New(gameApp, settingsManager)

	if *fresh {
		err = gameApp.NewRun()
	} else {
		_, err = gameApp.Resume()
	}
	if err != nil {
		gameApp.Close()
		log.SetOutput(os.Stderr)
		log.Fatalf("无法生成地图: %v", err)
	}

	ebiten.SetWindowSize(viewer.ScreenWidth, viewer.ScreenHeight)
	ebiten.SetWindowTitle("Astro Run")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if settingsManager.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}

	runErr := ebiten.RunGame(v)

	// 窗口关闭时保存进行中的一局
	gameApp.SaveOnExit()
	gameApp.Close()

	if runErr != nil {
		log.SetOutput(os.Stderr)
		log.Fatal(runErr)
	}
}
