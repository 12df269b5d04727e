package router

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/memfabric/frouter/internal/fabric"
)

// cmpSortedInts treats two []int route-type ingress-RC lists as equal
// regardless of slice order, matching the state machine's own set
// semantics (spec.md §6's literal table lists RCs, not an ordered sequence).
var cmpSortedInts = cmpopts.SortSlices(func(a, b int) bool { return a < b })

// wantVDALTable transcribes spec.md §6's literal VDAL table directly, one
// StateEntry per (location, port-kind) pair, so a single cmp.Diff call
// catches any divergence across the whole table instead of spot-checking a
// handful of cells by hand.
func wantVDALTable() StateMachine {
	return StateMachine{
		LocXY: {
			fabric.SwitchPortL: StateEntry{fabric.ActionExit: {0, 1, 2, 3}},
			fabric.SwitchPortX: StateEntry{fabric.ActionExit: {0, 1, 2, 3}},
			fabric.SwitchPortY: StateEntry{fabric.ActionExit: {0, 1, 2, 3}},
		},
		LocXy: {
			fabric.SwitchPortL: StateEntry{
				fabric.ActionYDirect:  {0, 1, 2, 3},
				fabric.ActionYDeroute: {0, 1, 2, 3},
			},
			fabric.SwitchPortX: StateEntry{
				fabric.ActionYDirect:  {0, 1, 2},
				fabric.ActionYDeroute: {0, 1},
			},
			fabric.SwitchPortY: StateEntry{
				fabric.ActionYDirect: {1, 2},
			},
		},
		LocxY: {
			fabric.SwitchPortL: StateEntry{
				fabric.ActionXDirect:  {0, 1, 2, 3},
				fabric.ActionXDeroute: {0, 1, 2, 3},
			},
			fabric.SwitchPortX: StateEntry{
				fabric.ActionXDirect: {1, 2},
			},
			fabric.SwitchPortY: StateEntry{
				fabric.ActionXDirect:  {0, 1, 2},
				fabric.ActionXDeroute: {0, 1},
			},
		},
		Locxy: {
			fabric.SwitchPortL: StateEntry{
				fabric.ActionXDirect:  {0, 1, 2, 3},
				fabric.ActionXDeroute: {0, 1, 2, 3},
				fabric.ActionYDirect:  {0, 1, 2, 3},
				fabric.ActionYDeroute: {0, 1, 2, 3},
			},
			fabric.SwitchPortX: StateEntry{
				fabric.ActionXDirect:  {0, 1},
				fabric.ActionYDirect:  {0, 1},
				fabric.ActionYDeroute: {0},
			},
			fabric.SwitchPortY: StateEntry{
				fabric.ActionXDirect:  {0, 1},
				fabric.ActionXDeroute: {0},
				fabric.ActionYDirect:  {0, 1},
			},
		},
	}
}

func TestVDALStateMachineMatchesLiteralTable(t *testing.T) {
	r := newVDALRuleset(Parameters{Dimensions: 2})
	got := r.stateMachine()
	want := wantVDALTable()

	if diff := cmp.Diff(want, got, cmpSortedInts); diff != "" {
		t.Fatalf("VDAL state machine does not match spec.md §6's literal table (-want +got):\n%s", diff)
	}
}

// (S4) of spec.md §8: with Dimensions=2, an L-ingress Y_DEROUTE threshold
// is 4 (2*dimensions); a Y-ingress Y_DEROUTE threshold at RC=1 is 3
// (2*dimensions - rc).
func TestVDALThresholdMatchesScenarioS4(t *testing.T) {
	r := newVDALRuleset(Parameters{Dimensions: 2})

	if th := r.threshold(fabric.SwitchPortL, fabric.ActionYDeroute, 0); th != 4 {
		t.Fatalf("L-port deroute threshold = %d, want 4", th)
	}
	if th := r.threshold(fabric.SwitchPortY, fabric.ActionYDeroute, 1); th != 3 {
		t.Fatalf("Y-port deroute threshold at RC1 = %d, want 3", th)
	}
}

func TestVDALThresholdFloorsAtZero(t *testing.T) {
	r := newVDALRuleset(Parameters{Dimensions: 2})
	if th := r.threshold(fabric.SwitchPortX, fabric.ActionXDeroute, 9); th != 0 {
		t.Fatalf("threshold = %d, want floor of 0", th)
	}
}

func TestVDALThresholdNonDerouteAlwaysMaximal(t *testing.T) {
	r := newVDALRuleset(Parameters{Dimensions: 2})
	if th := r.threshold(fabric.SwitchPortX, fabric.ActionXDirect, 3); th != 7 {
		t.Fatalf("non-deroute threshold = %d, want 7", th)
	}
}

func TestVDALMaskUsesIngressRCOnLPort(t *testing.T) {
	r := newVDALRuleset(Parameters{Dimensions: 2})
	p := Parameters{IngressRC: 2}
	rcMasks := map[int]uint16{0: 0b0001, 1: 0b0010, 2: 0b0100}
	if got := r.mask(Locxy, fabric.SwitchPortL, fabric.ActionXDirect, 0, rcMasks, p); got != 0b0100 {
		t.Fatalf("L-port mask = %b, want RC2 (IngressRC)'s mask", got)
	}
}
