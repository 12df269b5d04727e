package router

import "github.com/memfabric/frouter/internal/fabric"

// doalRuleset is the dimension-order-adaptive algorithm (spec.md §4.2.3):
// adds a *_DEROUTE alternative alongside *_DIRECT on the originating
// switch's L/X ports, with the orthogonal dimension's finish confined to
// RC1. Threshold is {RC0->2, RC>=1->1}.
type doalRuleset struct {
	sm StateMachine
}

func newDOALRuleset(p Parameters) *doalRuleset {
	var sm StateMachine
	if p.XDimensionFirst {
		sm = StateMachine{
			LocXY: {
				fabric.SwitchPortL: {fabric.ActionExit: {0, 1}},
				fabric.SwitchPortX: {fabric.ActionExit: {0, 1}},
				fabric.SwitchPortY: {fabric.ActionExit: {0, 1}},
			},
			LocXy: {
				fabric.SwitchPortL: {fabric.ActionYDirect: {0, 1}, fabric.ActionYDeroute: {0, 1}},
				fabric.SwitchPortX: {fabric.ActionYDirect: {0, 1}, fabric.ActionYDeroute: {0, 1}},
				fabric.SwitchPortY: {fabric.ActionYFinish: {1}},
			},
			LocxY: {
				fabric.SwitchPortL: {fabric.ActionXDirect: {0, 1}, fabric.ActionXDeroute: {0, 1}},
				fabric.SwitchPortX: {fabric.ActionXFinish: {1}},
				fabric.SwitchPortY: {},
			},
			Locxy: {
				fabric.SwitchPortL: {fabric.ActionXDirect: {0, 1}, fabric.ActionXDeroute: {0, 1}},
				fabric.SwitchPortX: {fabric.ActionXFinish: {1}},
				fabric.SwitchPortY: {},
			},
		}
	} else {
		sm = StateMachine{
			LocXY: {
				fabric.SwitchPortL: {fabric.ActionExit: {0, 1}},
				fabric.SwitchPortX: {fabric.ActionExit: {0, 1}},
				fabric.SwitchPortY: {fabric.ActionExit: {0, 1}},
			},
			LocXy: {
				fabric.SwitchPortL: {fabric.ActionYDirect: {0, 1}, fabric.ActionYDeroute: {0, 1}},
				fabric.SwitchPortX: {},
				fabric.SwitchPortY: {fabric.ActionYFinish: {1}},
			},
			LocxY: {
				fabric.SwitchPortL: {fabric.ActionXDirect: {0, 1}, fabric.ActionXDeroute: {0, 1}},
				fabric.SwitchPortX: {fabric.ActionXFinish: {1}},
				fabric.SwitchPortY: {fabric.ActionXDirect: {0, 1}, fabric.ActionXDeroute: {0, 1}},
			},
			Locxy: {
				fabric.SwitchPortL: {fabric.ActionYDirect: {0, 1}, fabric.ActionYDeroute: {0, 1}},
				fabric.SwitchPortX: {},
				fabric.SwitchPortY: {fabric.ActionYFinish: {1}},
			},
		}
	}
	return &doalRuleset{sm: sm}
}

func (d *doalRuleset) name() string              { return "DOAL" }
func (d *doalRuleset) stateMachine() StateMachine { return d.sm }

func (d *doalRuleset) threshold(portKind fabric.SwitchPortKind, action fabric.Action, rc int) int {
	if rc == 0 {
		return 2
	}
	return 1
}

func (d *doalRuleset) mask(loc LocationCode, portKind fabric.SwitchPortKind, action fabric.Action, rc int, rcMasks map[int]uint16, p Parameters) uint16 {
	switch {
	case loc == LocXY:
		return rcMasks[resolvedEgressRC(rcMasks, p)]
	case action == fabric.ActionXDeroute || action == fabric.ActionYDeroute:
		return rcMasks[1]
	default:
		return rcMasks[0]
	}
}
