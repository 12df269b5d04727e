package fabric

// NodeModel is the model of an endpoint or physical switch (spec.md §3/§6).
type NodeModel string

const (
	ModelSwitch  NodeModel = "Switch"
	ModelCompute NodeModel = "Compute"
	ModelIO      NodeModel = "IO"
	ModelMemory  NodeModel = "Memory"
)

// NodePortKind classifies a non-switch node's port: R iff the remote is a
// logical switch or the node itself is Memory; L otherwise (spec.md §3).
type NodePortKind string

const (
	NodePortL NodePortKind = "L"
	NodePortR NodePortKind = "R"
)

// SwitchPortKind classifies a logical switch's port: L iff the remote is
// non-switch; X iff the remote is a switch in the same subnet; Y iff the
// remote is a switch in a different subnet (spec.md §3).
type SwitchPortKind string

const (
	SwitchPortL SwitchPortKind = "L"
	SwitchPortX SwitchPortKind = "X"
	SwitchPortY SwitchPortKind = "Y"
)

// Action is the action alphabet of spec.md §4.2.1. Its numeric value is the
// 3-bit VCAction code emitted into the artifact.
type Action uint8

const (
	ActionXDirect  Action = 0
	ActionXDeroute Action = 1
	ActionXFinish  Action = 2
	ActionYDirect  Action = 3
	ActionYDeroute Action = 4
	ActionYFinish  Action = 5
	ActionExit     Action = 6
	ActionInvalid  Action = 7
)

func (a Action) String() string {
	switch a {
	case ActionXDirect:
		return "X_DIRECT"
	case ActionXDeroute:
		return "X_DEROUTE"
	case ActionXFinish:
		return "X_FINISH"
	case ActionYDirect:
		return "Y_DIRECT"
	case ActionYDeroute:
		return "Y_DEROUTE"
	case ActionYFinish:
		return "Y_FINISH"
	case ActionExit:
		return "EXIT"
	default:
		return "INVALID"
	}
}

// HopCount is 1 for any *_DEROUTE action, 0 otherwise (spec.md §4.2.1).
func (a Action) HopCount() int {
	if a == ActionXDeroute || a == ActionYDeroute {
		return 1
	}
	return 0
}

// IsXFamily reports whether an action belongs to the X dimension, which
// drives the LPRT/CID table choice during application (spec.md §4.3).
func (a Action) IsXFamily() bool {
	return a == ActionXDirect || a == ActionXDeroute || a == ActionXFinish
}

// IsYFamily reports whether an action belongs to the Y dimension, which
// drives the MPRT/SID table choice during application (spec.md §4.3).
func (a Action) IsYFamily() bool {
	return a == ActionYDirect || a == ActionYDeroute || a == ActionYFinish
}

// EntityKind discriminates the two arenas a cross-reference can point into.
type EntityKind uint8

const (
	EntityNode EntityKind = iota
	EntitySwitch
)

// EntityID is an index-based cross-reference: which arena, and which slot
// within it. Per spec.md §9's arena-and-index design note, this is the only
// form a cross-reference takes outside the build phase — no names, no
// pointers, in the inner loop.
type EntityID struct {
	Kind  EntityKind
	Index int
}

// RouteAction is one (action, hopcount, egress) alternative for a route
// table entry. A CID/SID may resolve to several alternatives under
// adaptive algorithms.
type RouteAction struct {
	Action     Action
	HopCount   int
	EgressPort int
}

// RouteEntry is one routing-table entry (spec.md §3): a minimum hop count
// plus the set of valid (action, hopcount, egress) alternatives.
type RouteEntry struct {
	MinimumHopCount int
	Actions         []RouteAction
}

// RouteTable maps a CID (LPRT/SSDT) or SID (MPRT/MSDT) to its RouteEntry.
type RouteTable map[uint32]*RouteEntry

// VCATCell is one (action, mask, threshold) slot of a VCAT row.
type VCATCell struct {
	Mask      uint16
	Threshold int
	set       bool
}

// VCATRow holds exactly 8 action slots, indexed by Action (spec.md §3).
type VCATRow [8]VCATCell

// VCATTable maps a VC index to its row.
type VCATTable map[int]*VCATRow
