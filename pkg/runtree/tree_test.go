package runtree

import (
	"errors"
	"testing"
)

func TestNewTreeNormalizesPositions(t *testing.T) {
	tree := makeTree(1, 3, 1)
	for ti := 0; ti < tree.TierCount(); ti++ {
		for pi, n := range tree.Tier(ti) {
			if n.Tier != ti || n.Position != pi {
				t.Errorf("node %s at (%d,%d) reports (%d,%d)", n.ID, ti, pi, n.Tier, n.Position)
			}
			if got, ok := tree.NodeByID(n.ID); !ok || got != n {
				t.Errorf("NodeByID(%s) lookup failed", n.ID)
			}
		}
	}
	if tree.NodeCount() != 5 {
		t.Errorf("NodeCount() = %d, want 5", tree.NodeCount())
	}
}

func TestTreeAccessorsOutOfRange(t *testing.T) {
	tree := makeTree(1, 2)

	if tree.Tier(-1) != nil || tree.Tier(2) != nil {
		t.Error("Tier() out of range should return nil")
	}
	if tree.TierWidth(5) != 0 {
		t.Error("TierWidth() out of range should return 0")
	}
	if _, ok := tree.NodeAt(1, 2); ok {
		t.Error("NodeAt() out of range should fail")
	}
	if _, ok := tree.NodeByID("missing"); ok {
		t.Error("NodeByID() with unknown id should fail")
	}
}

func TestConnect(t *testing.T) {
	tree := makeTree(1, 2)

	tests := []struct {
		name     string
		tier     int
		src, dst int
		wantErr  bool
	}{
		{"合法边", 0, 0, 1, false},
		{"重复边不报错", 0, 0, 1, false},
		{"源越界", 0, 1, 0, true},
		{"目标越界", 0, 0, 2, true},
		{"最后一层没有下一层", 1, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tree.Connect(tt.tier, tt.src, tt.dst)
			if (err != nil) != tt.wantErr {
				t.Errorf("Connect(%d, %d, %d) error = %v, wantErr %v", tt.tier, tt.src, tt.dst, err, tt.wantErr)
			}
		})
	}

	if tree.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", tree.EdgeCount())
	}
}

func TestSuccessorsAndIncoming(t *testing.T) {
	tree := diamond(t)
	root := nodeAt(t, tree, 0, 0)

	succ := tree.Successors(root)
	if len(succ) != 2 || succ[0].Position != 0 || succ[1].Position != 1 {
		t.Fatalf("Successors(root) = %v", succ)
	}

	boss := nodeAt(t, tree, 2, 0)
	if got := tree.IncomingCount(boss); got != 2 {
		t.Errorf("IncomingCount(boss) = %d, want 2", got)
	}
	if got := tree.IncomingCount(root); got != 0 {
		t.Errorf("IncomingCount(root) = %d, want 0", got)
	}
	if tree.Successors(boss) != nil {
		t.Error("terminal node should have no successors")
	}
}

func TestCursorTraversal(t *testing.T) {
	tree := diamond(t)
	root := nodeAt(t, tree, 0, 0)
	left := nodeAt(t, tree, 1, 0)
	boss := nodeAt(t, tree, 2, 0)

	if tree.Current() != nil {
		t.Fatal("new tree should have no cursor")
	}
	if sel := tree.Selectable(); len(sel) != 1 || sel[0] != root {
		t.Fatalf("Selectable() before start = %v, want root", sel)
	}

	// 未开始时不能直接跳到第 1 层
	if err := tree.MoveTo(left.ID); !errors.Is(err, ErrNotReachable) {
		t.Fatalf("MoveTo(tier 1) before start: err = %v, want ErrNotReachable", err)
	}
	if err := tree.MoveTo("missing"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("MoveTo(missing): err = %v, want ErrNodeNotFound", err)
	}

	steps := []*Node{root, left, boss}
	for _, n := range steps {
		if !tree.CanMoveTo(n.ID) {
			t.Fatalf("CanMoveTo(%d,%d) = false", n.Tier, n.Position)
		}
		if err := tree.MoveTo(n.ID); err != nil {
			t.Fatalf("MoveTo(%d,%d) failed: %v", n.Tier, n.Position, err)
		}
		if tree.Current() != n {
			t.Fatalf("cursor not at (%d,%d)", n.Tier, n.Position)
		}
	}

	if !tree.IsComplete() {
		t.Error("cursor at terminal node should be complete")
	}
	if len(tree.Selectable()) != 0 {
		t.Error("terminal node should have nothing selectable")
	}

	// 失败的移动不改变光标
	if err := tree.MoveTo(root.ID); err == nil {
		t.Error("moving backwards should fail")
	}
	if tree.Current() != boss {
		t.Error("failed move changed the cursor")
	}

	tree.ResetCursor()
	if tree.Current() != nil || tree.IsComplete() {
		t.Error("ResetCursor() should return to the virtual root")
	}
}

func TestCannotSkipTier(t *testing.T) {
	tree := diamond(t)
	if err := tree.MoveTo(nodeAt(t, tree, 0, 0).ID); err != nil {
		t.Fatal(err)
	}
	boss := nodeAt(t, tree, 2, 0)
	if tree.CanMoveTo(boss.ID) {
		t.Error("should not be able to skip a tier")
	}
}

func TestIsTerminal(t *testing.T) {
	tree := diamond(t)
	if tree.IsTerminal(nil) {
		t.Error("nil node is not terminal")
	}
	if tree.IsTerminal(nodeAt(t, tree, 1, 0)) {
		t.Error("middle node is not terminal")
	}
	if !tree.IsTerminal(nodeAt(t, tree, 2, 0)) {
		t.Error("last tier node without edges should be terminal")
	}
}
