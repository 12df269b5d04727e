// Package router implements the Router Engine and Router Controller of
// spec.md §4.2/§4.3: the three routing algorithms (DOR, DOAL, VDAL), each a
// strategy plugged into a shared state-machine-driven core, plus the
// controller that parses a fabric's Routing policy and wires the selected
// algorithm up with its VC map.
package router

import "github.com/memfabric/frouter/internal/fabric"

// LocationCode marks per-dimension alignment between a source switch and a
// destination switch (spec.md §4.2.1): uppercase = aligned in that
// dimension, lowercase = not aligned.
type LocationCode string

const (
	LocXY LocationCode = "XY" // aligned in both dimensions: destination switch
	LocXy LocationCode = "Xy" // aligned in X, not Y
	LocxY LocationCode = "xY" // aligned in Y, not X
	Locxy LocationCode = "xy" // aligned in neither
)

// StateEntry lists, for one (location, port-kind) pair, every route-type
// (action) the algorithm permits and the ingress RCs at which it is legal.
type StateEntry map[fabric.Action][]int

// StateMachine is the full per-algorithm table, keyed by location then by
// ingress port-kind.
type StateMachine map[LocationCode]map[fabric.SwitchPortKind]StateEntry

// lookup returns the StateEntry for (loc, kind), or nil if none is defined.
func (sm StateMachine) lookup(loc LocationCode, kind fabric.SwitchPortKind) StateEntry {
	byKind, ok := sm[loc]
	if !ok {
		return nil
	}
	return byKind[kind]
}

// PortSets is the DIRECT/DEROUTE/FINISH egress port partition computed for
// one switch_to_switch_routes call (spec.md §4.2.6).
type PortSets struct {
	XDirect, XDeroute, XFinish []int
	YDirect, YDeroute, YFinish []int
}

// ForAction returns the egress port set that corresponds to a route-type.
func (p PortSets) ForAction(a fabric.Action) []int {
	switch a {
	case fabric.ActionXDirect:
		return p.XDirect
	case fabric.ActionXDeroute:
		return p.XDeroute
	case fabric.ActionXFinish:
		return p.XFinish
	case fabric.ActionYDirect:
		return p.YDirect
	case fabric.ActionYDeroute:
		return p.YDeroute
	case fabric.ActionYFinish:
		return p.YFinish
	default:
		return nil
	}
}

// RouteInfo is what switch_to_switch_routes returns for one (src, dst) pair:
// the location code, the derived port sets, and per-port-kind the allowed
// (route-type -> ingress RCs) map taken straight from the state machine.
type RouteInfo struct {
	Location LocationCode
	Ports    PortSets
	Allowed  map[fabric.SwitchPortKind]StateEntry
}

// VCEntry is one (TC, PC, RC, VC) policy tuple parsed from the Routing
// configuration (spec.md §6).
type VCEntry struct {
	TC string
	PC int
	RC int
	VC int
}

// Parameters are the Routing.TC<n>.Parameters recognized options
// (spec.md §6).
type Parameters struct {
	XDimensionFirst bool
	IngressRC       int
	EgressRC        int // resolved: -1 means "last RC in the PC" until resolved per-PC
	NodeRouters     map[fabric.NodeModel]bool
	Dimensions      int
}

// DefaultParameters returns the documented defaults (spec.md §6).
func DefaultParameters() Parameters {
	return Parameters{
		XDimensionFirst: true,
		IngressRC:       0,
		EgressRC:        -1,
		NodeRouters:     map[fabric.NodeModel]bool{},
		Dimensions:      2,
	}
}
