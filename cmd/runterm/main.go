// runterm 在终端中浏览和游玩关卡树
//
// 与图形查看器共用 app 包，适合在没有图形环境的机器上调试地图生成和进度。
//
// 用法：
//
//	go run ./cmd/runterm -seed 42
//	go run ./cmd/runterm -backend file -new
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"

	"github.com/gonewx/astrorun/pkg/app"
)

func main() {
	configDir := flag.String("config", "data", "配置目录（run.yaml / run.hcl / shop.yaml / app.yaml）")
	seed := flag.Uint64("seed", 0, "地图种子，0 表示每局随机")
	backend := flag.String("backend", "", "存储后端：gdata / file / memory / postgres")
	fresh := flag.Bool("new", false, "忽略存档，直接开始新的一局")
	verbose := flag.Bool("verbose", false, "显示详细日志（会干扰终端画面，建议重定向 stderr）")
	flag.Parse()

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

	screen, err := tcell.NewScreen()
	if err != nil {
		gameApp.Close()
		fmt.Fprintf(os.Stderr, "Failed to create terminal screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		gameApp.Close()
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}

	term := NewTerminal(screen, gameApp)
	if *fresh {
		err = gameApp.NewRun()
	} else {
		_, err = gameApp.Resume()
	}
	if err != nil {
		screen.Fini()
		gameApp.Close()
		fmt.Fprintf(os.Stderr, "无法生成地图: %v\n", err)
		os.Exit(1)
	}

	term.Run()

	screen.Fini()
	gameApp.SaveOnExit()
	gameApp.Close()
}
