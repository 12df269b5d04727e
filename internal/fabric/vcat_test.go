package fabric

import "testing"

// (S5) of spec.md §8: two writers placing differing (mask, threshold)
// pairs on the same (port, VC, action) cell must raise a contradiction
// error; agreeing writes to the same cell are idempotent.
func TestSetVCATRejectsContradictingWrites(t *testing.T) {
	p := newPort(0)
	m := &Model{}

	if err := m.SetVCAT(p, 3, ActionExit, 0b0011, 2, "L"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := m.SetVCAT(p, 3, ActionExit, 0b0011, 2, "L"); err != nil {
		t.Fatalf("agreeing second write should not error: %v", err)
	}
	if err := m.SetVCAT(p, 3, ActionExit, 0b1100, 2, "L"); err == nil {
		t.Fatal("expected a contradiction error for a differing mask on the same cell")
	}
}

func TestSetVCATAllowsDistinctActionsOnSameVC(t *testing.T) {
	p := newPort(0)
	m := &Model{}
	if err := m.SetVCAT(p, 1, ActionXDirect, 0b0001, 7, "X"); err != nil {
		t.Fatalf("X_DIRECT write: %v", err)
	}
	if err := m.SetVCAT(p, 1, ActionXDeroute, 0b0010, 4, "X"); err != nil {
		t.Fatalf("X_DEROUTE write: %v", err)
	}
}
