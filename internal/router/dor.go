package router

import "github.com/memfabric/frouter/internal/fabric"

// dorRuleset is the strict dimension-order algorithm (spec.md §4.2.2):
// only RC0 is ever used, threshold is always maximal (7), and a packet
// finishes as soon as both dimensions align. The two state machines below
// are written out in full, one per XDimensionFirst setting; the Y-first
// table is the X-first table with the roles of X and Y exchanged.
type dorRuleset struct {
	sm StateMachine
}

func newDORRuleset(p Parameters) *dorRuleset {
	var sm StateMachine
	if p.XDimensionFirst {
		sm = StateMachine{
			LocXY: {
				fabric.SwitchPortL: {fabric.ActionExit: {0}},
				fabric.SwitchPortX: {fabric.ActionExit: {0}},
				fabric.SwitchPortY: {fabric.ActionExit: {0}},
			},
			LocXy: {
				fabric.SwitchPortL: {fabric.ActionYDirect: {0}},
				fabric.SwitchPortX: {fabric.ActionYDirect: {0}},
				fabric.SwitchPortY: {},
			},
			LocxY: {
				fabric.SwitchPortL: {fabric.ActionXDirect: {0}},
				fabric.SwitchPortX: {},
				fabric.SwitchPortY: {},
			},
			Locxy: {
				fabric.SwitchPortL: {fabric.ActionXDirect: {0}},
				fabric.SwitchPortX: {},
				fabric.SwitchPortY: {},
			},
		}
	} else {
		sm = StateMachine{
			LocXY: {
				fabric.SwitchPortL: {fabric.ActionExit: {0}},
				fabric.SwitchPortX: {fabric.ActionExit: {0}},
				fabric.SwitchPortY: {fabric.ActionExit: {0}},
			},
			LocXy: {
				fabric.SwitchPortL: {fabric.ActionYDirect: {0}},
				fabric.SwitchPortX: {},
				fabric.SwitchPortY: {},
			},
			LocxY: {
				fabric.SwitchPortL: {fabric.ActionXDirect: {0}},
				fabric.SwitchPortX: {},
				fabric.SwitchPortY: {fabric.ActionXDirect: {0}},
			},
			Locxy: {
				fabric.SwitchPortL: {fabric.ActionYDirect: {0}},
				fabric.SwitchPortX: {},
				fabric.SwitchPortY: {},
			},
		}
	}
	return &dorRuleset{sm: sm}
}

func (d *dorRuleset) name() string              { return "DOR" }
func (d *dorRuleset) stateMachine() StateMachine { return d.sm }

func (d *dorRuleset) threshold(portKind fabric.SwitchPortKind, action fabric.Action, rc int) int {
	return 7
}

func (d *dorRuleset) mask(loc LocationCode, portKind fabric.SwitchPortKind, action fabric.Action, rc int, rcMasks map[int]uint16, p Parameters) uint16 {
	return rcMasks[0] // only RC0 in DOR
}
