package tree

import (
	"errors"
	"testing"

	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/sandeepkv93/focusd/internal/storage"
)

func TestWouldCycle(t *testing.T) {
	parent := model.Task{ID: "c", Path: "a/b/c"}
	if !WouldCycle("b", parent) {
		t.Fatalf("expected cycle when target descends from the task")
	}
	if !WouldCycle("c", parent) {
		t.Fatalf("expected cycle when target is the task itself")
	}
	if WouldCycle("z", parent) {
		t.Fatalf("unexpected cycle for an unrelated task")
	}
}

func TestRebaseRewritesPathsAndLevels(t *testing.T) {
	subtree := []model.Task{
		{ID: "b", Path: "a/b", Level: 1},
		{ID: "c", Path: "a/b/c", Level: 2},
		{ID: "d", Path: "a/b/c/d", Level: 3},
	}

	out := Rebase(subtree, "b", -1)
	if out[0].Path != "b" || out[0].Level != 0 {
		t.Fatalf("unexpected root rebase: %#v", out[0])
	}
	if out[1].Path != "b/c" || out[1].Level != 1 {
		t.Fatalf("unexpected child rebase: %#v", out[1])
	}
	if out[2].Path != "b/c/d" || out[2].Level != 2 {
		t.Fatalf("unexpected grandchild rebase: %#v", out[2])
	}
	if subtree[0].Path != "a/b" {
		t.Fatalf("input snapshot mutated: %#v", subtree[0])
	}

	deeper := Rebase(subtree, "x/y/b", 1)
	if deeper[2].Path != "x/y/b/c/d" || deeper[2].Level != 4 {
		t.Fatalf("unexpected deep rebase: %#v", deeper[2])
	}
}

func TestRenumberReturnsOnlyChangedSiblings(t *testing.T) {
	siblings := []model.Task{
		{ID: "x", Position: 0},
		{ID: "y", Position: 2},
		{ID: "z", Position: 5},
	}

	changed := Renumber(siblings)
	if len(changed) != 2 {
		t.Fatalf("expected 2 renumbered siblings, got: %#v", changed)
	}
	if changed[0].ID != "y" || changed[0].Position != 1 {
		t.Fatalf("unexpected first renumber: %#v", changed[0])
	}
	if changed[1].ID != "z" || changed[1].Position != 2 {
		t.Fatalf("unexpected second renumber: %#v", changed[1])
	}

	if got := Renumber([]model.Task{{ID: "x", Position: 0}, {ID: "y", Position: 1}}); len(got) != 0 {
		t.Fatalf("dense group should renumber nothing, got: %#v", got)
	}
}

func TestFlattenOrdersParentBeforeSubtree(t *testing.T) {
	a := "a"
	c := "c"
	tasks := []model.Task{
		{ID: "a", Position: 0},
		{ID: "d", Position: 1},
		{ID: "b", ParentID: &a, Position: 1},
		{ID: "c", ParentID: &a, Position: 0},
		{ID: "e", ParentID: &c, Position: 0},
	}

	out := Flatten(tasks)
	want := []string{"a", "c", "e", "b", "d"}
	if len(out) != len(want) {
		t.Fatalf("unexpected flatten length: %#v", out)
	}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("unexpected order at %d: got %q, want %q", i, out[i].ID, id)
		}
	}

	if got := Flatten(nil); len(got) != 0 {
		t.Fatalf("empty input should flatten to empty, got: %#v", got)
	}
}

func TestSlotFor(t *testing.T) {
	siblings := []model.Task{
		{ID: "x", Position: 0},
		{ID: "y", Position: 1},
		{ID: "z", Position: 2},
	}

	pos, shifted, err := slotFor(siblings, nil)
	if err != nil || pos != 3 || len(shifted) != 0 {
		t.Fatalf("append slot: pos=%d shifted=%#v err=%v", pos, shifted, err)
	}

	front := ""
	pos, shifted, err = slotFor(siblings, &front)
	if err != nil || pos != 0 || len(shifted) != 3 {
		t.Fatalf("front slot: pos=%d shifted=%#v err=%v", pos, shifted, err)
	}
	if shifted[0].Position != 1 || shifted[2].Position != 3 {
		t.Fatalf("front slot shifts wrong: %#v", shifted)
	}

	afterX := "x"
	pos, shifted, err = slotFor(siblings, &afterX)
	if err != nil || pos != 1 || len(shifted) != 2 {
		t.Fatalf("after slot: pos=%d shifted=%#v err=%v", pos, shifted, err)
	}
	if shifted[0].ID != "y" || shifted[0].Position != 2 {
		t.Fatalf("after slot shifts wrong: %#v", shifted)
	}

	ghost := "ghost"
	if _, _, err := slotFor(siblings, &ghost); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown sibling, got: %v", err)
	}

	pos, shifted, err = slotFor(nil, nil)
	if err != nil || pos != 0 || len(shifted) != 0 {
		t.Fatalf("first child slot: pos=%d shifted=%#v err=%v", pos, shifted, err)
	}
}
