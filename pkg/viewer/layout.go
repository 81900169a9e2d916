package viewer

import (
	"github.com/gonewx/astrorun/pkg/runtree"
)

// 画面尺寸
const (
	ScreenWidth  = 960
	ScreenHeight = 640
)

// 地图区域边距（上方留给状态栏，下方留给按键提示）
const (
	mapMarginX      = 60.0
	mapMarginTop    = 70.0
	mapMarginBottom = 60.0
	nodeRadius      = 16.0
)

// Point 屏幕坐标
type Point struct {
	X, Y float64
}

// MapLayout 关卡树节点的屏幕坐标
//
// 层从左到右排列，同层节点按位置从上到下均匀分布，
// 因此同层的位置顺序就是屏幕上的上下顺序，不交叉的连线在画面上也不交叉。
type MapLayout struct {
	points map[string]Point
	radius float64
}

// ComputeLayout 计算关卡树在给定画面尺寸下的布局
func ComputeLayout(tree *runtree.Tree, width, height int) *MapLayout {
	layout := &MapLayout{
		points: make(map[string]Point),
		radius: nodeRadius,
	}
	if tree == nil || tree.TierCount() == 0 {
		return layout
	}

	usableW := float64(width) - 2*mapMarginX
	usableH := float64(height) - mapMarginTop - mapMarginBottom
	tiers := tree.TierCount()

	for t := 0; t < tiers; t++ {
		x := mapMarginX + usableW/2
		if tiers > 1 {
			x = mapMarginX + usableW*float64(t)/float64(tiers-1)
		}
		nodes := tree.Tier(t)
		for _, n := range nodes {
			y := mapMarginTop + usableH*float64(n.Position+1)/float64(len(nodes)+1)
			layout.points[n.ID] = Point{X: x, Y: y}
		}
	}
	return layout
}

// Position 返回节点中心坐标
func (l *MapLayout) Position(id string) (Point, bool) {
	p, ok := l.points[id]
	return p, ok
}

// Radius 返回节点半径
func (l *MapLayout) Radius() float64 {
	return l.radius
}

// HitTest 返回包含 (x, y) 的节点 ID
func (l *MapLayout) HitTest(x, y float64) (string, bool) {
	r2 := l.radius * l.radius
	for id, p := range l.points {
		dx, dy := x-p.X, y-p.Y
		if dx*dx+dy*dy <= r2 {
			return id, true
		}
	}
	return "", false
}
