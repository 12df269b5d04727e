package fabric

// Port is one physical interface on a node or logical switch (spec.md §3).
// LPRT/MPRT/VCAT are attached per ingress port, matching the hardware
// layout the artifact describes.
type Port struct {
	Index      int
	NodeKind   NodePortKind   // set when the owner is a non-switch Node
	SwitchKind SwitchPortKind // set when the owner is a logical Switch
	Remote     EntityID
	RemotePort int
	HasRemote  bool
	Subnet     int

	LPRT RouteTable
	MPRT RouteTable
	VCAT VCATTable
}

func newPort(index int) *Port {
	return &Port{
		Index: index,
		LPRT:  RouteTable{},
		MPRT:  RouteTable{},
		VCAT:  VCATTable{},
	}
}

// Node is a non-switch endpoint: Compute, IO, or Memory (spec.md §3).
type Node struct {
	Name    string
	Model   NodeModel
	Plane   int
	X, Y    int
	Subnet  int
	GeoID   string
	Address string
	UID     uint32
	Enabled bool
	GCIDs   []GCID

	PortStart int
	Ports     []*Port // index i holds physical port PortStart+i

	SSDT    RouteTable
	MSDT    RouteTable
	REQVCAT VCATTable
	RSPVCAT VCATTable
}

func newNode(name string, model NodeModel) *Node {
	return &Node{
		Name:    name,
		Model:   model,
		SSDT:    RouteTable{},
		MSDT:    RouteTable{},
		REQVCAT: VCATTable{},
		RSPVCAT: VCATTable{},
	}
}

// Port looks up a node's port object by its physical port index, or nil.
func (n *Node) Port(index int) *Port {
	i := index - n.PortStart
	if i < 0 || i >= len(n.Ports) {
		return nil
	}
	return n.Ports[i]
}

// ClosureEntry records that a node is transitively reachable from a logical
// switch through a given local port (spec.md §4.1 step 3a).
type ClosureEntry struct {
	NodeName string
	GCIDs    []GCID
	ViaPort  int
}

// Switch is a logical switch: one of the four slices a physical switch is
// split into during build (spec.md §3/§4.1).
//
// Coordinates: Plane/Subnet come straight from the physical switch's
// topology id ("plane.subnet", spec.md §6). Subnet doubles as the routing
// grid's Y coordinate — crossing it is exactly what Y-family routing
// does, which is why Y-family actions key into the cross-subnet MPRT/SID
// tables (spec.md §4.3) while X-family actions key into the same-subnet
// LPRT/CID tables. X is not given directly by the input schema, so it is
// derived deterministically: the ordinal rank (0-based, sorted by name)
// of the parent physical switch among every physical switch sharing its
// (Plane, Subnet). All four logical children of one physical switch
// share their parent's (Plane, XCoord, Subnet) — only Index (1..4)
// distinguishes them, and Index plays no part in routing geometry.
// switch_to_switch_routes (spec.md §4.2.6) is therefore only defined
// between logical switches that share the same Index — each Index forms
// its own independent routing lane across the grid.
type Switch struct {
	BaseName string
	Index    int // 1..4 (which quadrant of the physical switch's ports)
	Plane    int
	XCoord   int // derived: ordinal rank within (Plane, Subnet)
	Subnet   int // Y coordinate: the parent physical switch's subnet

	Ports map[int]*Port

	GCIDs []GCID

	// Closure lists every node transitively visible (directly, or one hop
	// through a non-switch neighbour) from this logical switch.
	Closure map[string]*ClosureEntry
}

func newSwitch(baseName string, index, plane, xcoord, subnet int) *Switch {
	return &Switch{
		BaseName: baseName,
		Index:    index,
		Plane:    plane,
		XCoord:   xcoord,
		Subnet:   subnet,
		Ports:    map[int]*Port{},
		Closure:  map[string]*ClosureEntry{},
	}
}

// Name is the logical switch's full name ("<base>.<index>").
func (s *Switch) Name() string {
	return portmapLogicalName(s.BaseName, s.Index)
}

// PortsOfKind returns the sorted port indices of a given switch-port kind.
func (s *Switch) PortsOfKind(kind SwitchPortKind) []int {
	var out []int
	for idx, p := range s.Ports {
		if p.SwitchKind == kind {
			out = append(out, idx)
		}
	}
	sortInts(out)
	return out
}
