package router

import (
	"sort"

	"github.com/memfabric/frouter/internal/fabric"
)

// ruleset is the per-algorithm strategy NxM-style engines plug into the
// shared Engine: the state machine table plus the threshold/mask rules
// that give its cells meaning (spec.md §4.2.1-§4.2.4).
type ruleset interface {
	name() string
	stateMachine() StateMachine
	// threshold returns the activation threshold (0..7) for a route-type
	// at a given port-kind and ingress RC.
	threshold(portKind fabric.SwitchPortKind, action fabric.Action, rc int) int
	// mask resolves which RC's VC-mask a (location, port-kind, action, rc)
	// combination should use.
	mask(loc LocationCode, portKind fabric.SwitchPortKind, action fabric.Action, rc int, rcMasks map[int]uint16, p Parameters) uint16
}

// Engine is the shared Router Engine core (spec.md §4.2): every algorithm
// is this same struct, configured with a different ruleset.
type Engine struct {
	rules  ruleset
	params Parameters
	vcMap  []VCEntry // sorted (tc,pc,rc,vc)
}

func newEngine(rules ruleset, params Parameters, vcMap []VCEntry) *Engine {
	sorted := append([]VCEntry(nil), vcMap...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.TC != b.TC {
			return a.TC < b.TC
		}
		if a.PC != b.PC {
			return a.PC < b.PC
		}
		if a.RC != b.RC {
			return a.RC < b.RC
		}
		return a.VC < b.VC
	})
	return &Engine{rules: rules, params: params, vcMap: sorted}
}

// Name is the algorithm's name, as given in Routing.TC<n>.Parameters.Algorithm.
func (e *Engine) Name() string { return e.rules.name() }

// VCMap returns the engine's sorted (TC,PC,RC,VC) policy tuples, for
// --debug introspection output.
func (e *Engine) VCMap() []VCEntry { return e.vcMap }

// ActionCode returns the 3-bit VCAction code emitted into the artifact.
func (e *Engine) ActionCode(a fabric.Action) uint8 { return uint8(a) }

// HopCount returns 1 for *_DEROUTE, 0 otherwise.
func (e *Engine) HopCount(a fabric.Action) int { return a.HopCount() }

// RoutingState lists the route-types legal at (location, port-kind),
// excluding EXIT unless exitAllowed (spec.md §4.2, Router.get_routing_state).
func (e *Engine) RoutingState(loc LocationCode, kind fabric.SwitchPortKind, exitAllowed bool) []fabric.Action {
	entry := e.rules.stateMachine().lookup(loc, kind)
	out := make([]fabric.Action, 0, len(entry))
	for a := range entry {
		if a == fabric.ActionExit && !exitAllowed {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// locationCode encodes per-dimension alignment of (sx,sy) against (dx,dy)
// (spec.md §4.2.1). X is the XCoord axis, Y is the Subnet axis.
func locationCode(sx, sy, dx, dy int) LocationCode {
	switch {
	case sx == dx && sy == dy:
		return LocXY
	case sx == dx:
		return LocXy
	case sy == dy:
		return LocxY
	default:
		return Locxy
	}
}

// SwitchToSwitchRoutes computes the location code, DIRECT/DEROUTE/FINISH
// port sets, and the allowed (route-type -> ingress RCs) map for a (src,
// dst) switch pair (spec.md §4.2.6). Returns nil if the switches are in
// different planes (unreachable).
func (e *Engine) SwitchToSwitchRoutes(m *fabric.Model, src, dst *fabric.Switch) *RouteInfo {
	if src.Plane != dst.Plane {
		return nil
	}

	loc := locationCode(src.XCoord, src.Subnet, dst.XCoord, dst.Subnet)

	allX := src.PortsOfKind(fabric.SwitchPortX)
	allY := src.PortsOfKind(fabric.SwitchPortY)

	var xDirect, yDirect []int
	if loc == LocxY || loc == Locxy { // X not aligned: need the X-host
		if xHost, ok := m.SwitchByCoord(src.Plane, dst.XCoord, src.Subnet, src.Index); ok {
			xDirect = m.PortsBetween(src.Name(), xHost.Name())
		}
	}
	if loc == LocXy || loc == Locxy { // Y not aligned: need the Y-host
		if yHost, ok := m.SwitchByCoord(src.Plane, src.XCoord, dst.Subnet, src.Index); ok {
			yDirect = m.PortsBetween(src.Name(), yHost.Name())
		}
	}

	ports := PortSets{
		XDirect:  xDirect,
		XDeroute: subtractPorts(allX, xDirect),
		XFinish:  xDirect,
		YDirect:  yDirect,
		YDeroute: subtractPorts(allY, yDirect),
		YFinish:  yDirect,
	}

	sm := e.rules.stateMachine()
	allowed := map[fabric.SwitchPortKind]StateEntry{
		fabric.SwitchPortL: sm.lookup(loc, fabric.SwitchPortL),
		fabric.SwitchPortX: sm.lookup(loc, fabric.SwitchPortX),
		fabric.SwitchPortY: sm.lookup(loc, fabric.SwitchPortY),
	}

	return &RouteInfo{Location: loc, Ports: ports, Allowed: allowed}
}

func subtractPorts(all, remove []int) []int {
	excl := map[int]bool{}
	for _, p := range remove {
		excl[p] = true
	}
	var out []int
	for _, p := range all {
		if !excl[p] {
			out = append(out, p)
		}
	}
	return out
}

// resolvedEgressRC returns the concrete RC the configured EgressRC
// parameter refers to within a PC's RC set: the configured value verbatim,
// or the highest RC present if EgressRC is -1 ("last").
func resolvedEgressRC(rcMasks map[int]uint16, p Parameters) int {
	if p.EgressRC >= 0 {
		return p.EgressRC
	}
	max := 0
	for rc := range rcMasks {
		if rc > max {
			max = rc
		}
	}
	return max
}

// Threshold exposes the ruleset's activation threshold.
func (e *Engine) Threshold(portKind fabric.SwitchPortKind, action fabric.Action, rc int) int {
	return e.rules.threshold(portKind, action, rc)
}

// Mask exposes the ruleset's mask resolution.
func (e *Engine) Mask(loc LocationCode, portKind fabric.SwitchPortKind, action fabric.Action, rc int, rcMasks map[int]uint16) uint16 {
	return e.rules.mask(loc, portKind, action, rc, rcMasks, e.params)
}

// StateEntry exposes the ruleset's (route-type -> allowed ingress RCs) map
// for one (location, port-kind) pair.
func (e *Engine) StateEntry(loc LocationCode, kind fabric.SwitchPortKind) StateEntry {
	return e.rules.stateMachine().lookup(loc, kind)
}
