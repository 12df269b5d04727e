package router

import "github.com/memfabric/frouter/internal/fabric"

// vdalRuleset is the Valiant dimension-adaptive algorithm (spec.md
// §4.2.4): simultaneous progress in both dimensions, deroutes bounded by
// the configured RC envelope (Dimensions). Unlike DOR/DOAL its state
// machine does not depend on XDimensionFirst.
type vdalRuleset struct {
	sm         StateMachine
	dimensions int
}

func newVDALRuleset(p Parameters) *vdalRuleset {
	sm := StateMachine{
		LocXY: {
			fabric.SwitchPortL: {fabric.ActionExit: {0, 1, 2, 3}},
			fabric.SwitchPortX: {fabric.ActionExit: {0, 1, 2, 3}},
			fabric.SwitchPortY: {fabric.ActionExit: {0, 1, 2, 3}},
		},
		LocXy: {
			fabric.SwitchPortL: {fabric.ActionYDirect: {0, 1, 2, 3}, fabric.ActionYDeroute: {0, 1, 2, 3}},
			fabric.SwitchPortX: {fabric.ActionYDirect: {0, 1, 2}, fabric.ActionYDeroute: {0, 1}},
			fabric.SwitchPortY: {fabric.ActionYDirect: {1, 2}},
		},
		LocxY: {
			fabric.SwitchPortL: {fabric.ActionXDirect: {0, 1, 2, 3}, fabric.ActionXDeroute: {0, 1, 2, 3}},
			fabric.SwitchPortX: {fabric.ActionXDirect: {1, 2}},
			fabric.SwitchPortY: {fabric.ActionXDirect: {0, 1, 2}, fabric.ActionXDeroute: {0, 1}},
		},
		Locxy: {
			fabric.SwitchPortL: {
				fabric.ActionXDirect:  {0, 1, 2, 3},
				fabric.ActionXDeroute: {0, 1, 2, 3},
				fabric.ActionYDirect:  {0, 1, 2, 3},
				fabric.ActionYDeroute: {0, 1, 2, 3},
			},
			fabric.SwitchPortX: {
				fabric.ActionXDirect:  {0, 1},
				fabric.ActionYDirect:  {0, 1},
				fabric.ActionYDeroute: {0},
			},
			fabric.SwitchPortY: {
				fabric.ActionXDirect:  {0, 1},
				fabric.ActionXDeroute: {0},
				fabric.ActionYDirect:  {0, 1},
			},
		},
	}

	dims := p.Dimensions
	if dims <= 0 {
		dims = 2
	}
	return &vdalRuleset{sm: sm, dimensions: dims}
}

func (v *vdalRuleset) name() string              { return "VDAL" }
func (v *vdalRuleset) stateMachine() StateMachine { return v.sm }

func (v *vdalRuleset) threshold(portKind fabric.SwitchPortKind, action fabric.Action, rc int) int {
	if action != fabric.ActionXDeroute && action != fabric.ActionYDeroute {
		return 7
	}
	if portKind == fabric.SwitchPortL {
		return 2 * v.dimensions
	}
	t := 2*v.dimensions - rc
	if t < 0 {
		t = 0
	}
	return t
}

func (v *vdalRuleset) mask(loc LocationCode, portKind fabric.SwitchPortKind, action fabric.Action, rc int, rcMasks map[int]uint16, p Parameters) uint16 {
	switch {
	case loc == LocXY:
		return rcMasks[resolvedEgressRC(rcMasks, p)]
	case portKind == fabric.SwitchPortL:
		return rcMasks[p.IngressRC]
	default:
		return rcMasks[rc+1]
	}
}
