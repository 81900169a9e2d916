package main

import (
	"fmt"

	"github.com/gonewx/astrorun/pkg/game"
	"github.com/gonewx/astrorun/pkg/level"
	"github.com/gonewx/astrorun/pkg/random"
)

// simulator 自动执行器：随机选择可达节点，按成功概率报告结果，
// 在商店里买下第一件买得起的商品
type simulator struct {
	controller *game.Controller
	rng        random.Source
	winRate    float64
	started    []level.Level
}

func newSimulator(controller *game.Controller, rng random.Source, winRate float64) *simulator {
	s := &simulator{controller: controller, rng: rng, winRate: winRate}
	controller.SetExecutor(s)
	return s
}

// StartLevel 实现 game.LevelExecutor，只记录关卡，结果在 Run 循环中报告
func (s *simulator) StartLevel(lvl level.Level) {
	s.started = append(s.started, lvl)
}

// Run 一直走到一局结束
func (s *simulator) Run() error {
	for s.controller.State() == game.StateRunActive {
		tree := s.controller.Run().Tree
		choices := tree.Selectable()
		if len(choices) == 0 {
			return fmt.Errorf("no selectable node at tier %d", tree.Current().Tier)
		}

		node := choices[s.rng.NextInt(0, len(choices))]
		if err := s.controller.SelectNode(node.ID); err != nil {
			return err
		}

		lvl := s.started[len(s.started)-1]
		success := true
		if lvl.IsShop() {
			s.shop()
		} else {
			success = s.rng.NextFloat01() < s.winRate
		}

		fmt.Printf("  tier %2d  %-9s x%.2f  %s\n", node.Tier, lvl.Type, lvl.DifficultyMultiplier, outcome(success))
		if err := s.controller.ReportLevelOutcome(success); err != nil {
			return err
		}
	}
	return nil
}

func (s *simulator) shop() {
	shop := s.controller.Shop()
	if shop == nil {
		return
	}
	run := s.controller.Run()
	for _, item := range shop.Items {
		if !run.CanAfford(item.Cost) {
			continue
		}
		if err := s.controller.Purchase(item.ID); err == nil {
			fmt.Printf("           bought %s\n", item.Name)
			return
		}
	}
}

func outcome(success bool) string {
	if success {
		return "cleared"
	}
	return "failed"
}
