package fabric

import "github.com/memfabric/frouter/internal/ferrors"

// Model is the Fabric Model (spec.md §4.1): it exclusively owns every
// Node/Switch/Port and the tables written into them. Cross-references are
// integer indices into the two arenas below — nodes and switches — set
// once during Build and never mutated by name lookup again.
type Model struct {
	nodes       []*Node
	switches    []*Switch
	nodeIndex   map[string]int
	switchIndex map[string]int
	coordIndex  map[[4]int]int // (Plane, XCoord, Subnet, Index) -> switches slot
}

// coordKey builds a Model.coordIndex key for a logical switch.
func coordKey(plane, xcoord, subnet, index int) [4]int {
	return [4]int{plane, xcoord, subnet, index}
}

// SwitchByCoord looks up the logical switch at a given routing-grid
// position. Used by switch_to_switch_routes to find the X-host/Y-host of a
// (src, dst) pair (spec.md §4.2.6).
func (m *Model) SwitchByCoord(plane, xcoord, subnet, index int) (*Switch, bool) {
	i, ok := m.coordIndex[coordKey(plane, xcoord, subnet, index)]
	if !ok {
		return nil, false
	}
	return m.switches[i], true
}

// LogicalSwitches returns every logical switch, in build order (which is
// deterministic: physical switches in input order, then index 1..4).
func (m *Model) LogicalSwitches() []*Switch {
	return m.switches
}

// EndpointNodes returns every non-switch node, in build order.
func (m *Model) EndpointNodes() []*Node {
	return m.nodes
}

// SwitchByName looks up a logical switch by its full "<base>.<idx>" name.
func (m *Model) SwitchByName(name string) (*Switch, bool) {
	i, ok := m.switchIndex[name]
	if !ok {
		return nil, false
	}
	return m.switches[i], true
}

// NodeByName looks up an endpoint node by name.
func (m *Model) NodeByName(name string) (*Node, bool) {
	i, ok := m.nodeIndex[name]
	if !ok {
		return nil, false
	}
	return m.nodes[i], true
}

// resolve turns an EntityID back into its (kind-appropriate) name. Used
// only outside the inner loop (serialization, debug dumps, error text).
func (m *Model) resolve(id EntityID) string {
	switch id.Kind {
	case EntityNode:
		if id.Index >= 0 && id.Index < len(m.nodes) {
			return m.nodes[id.Index].Name
		}
	case EntitySwitch:
		if id.Index >= 0 && id.Index < len(m.switches) {
			return m.switches[id.Index].Name()
		}
	}
	return ""
}

// PortsTyped returns the ports of the given switch-port kind for a logical
// switch named name.
func (m *Model) PortsTyped(name string, kind SwitchPortKind) []int {
	sw, ok := m.SwitchByName(name)
	if !ok {
		return nil
	}
	return sw.PortsOfKind(kind)
}

// NodePortsTyped returns a node's ports of the given node-port kind.
func (m *Model) NodePortsTyped(name string, kind NodePortKind) []int {
	n, ok := m.NodeByName(name)
	if !ok {
		return nil
	}
	var out []int
	for _, p := range n.Ports {
		if p.NodeKind == kind {
			out = append(out, p.Index)
		}
	}
	sortInts(out)
	return out
}

// ConnectionsOnPort returns the remote (name, port) a given port connects
// to, if any.
func (m *Model) ConnectionsOnPort(port *Port) (remoteName string, remotePort int, ok bool) {
	if !port.HasRemote {
		return "", 0, false
	}
	return m.resolve(port.Remote), port.RemotePort, true
}

// PortsBetween returns the local port indices on src that connect directly
// to dst (switch-to-switch adjacency, used by switch_to_switch_routes).
func (m *Model) PortsBetween(srcName, dstName string) []int {
	sw, ok := m.SwitchByName(srcName)
	if !ok {
		return nil
	}
	var out []int
	for idx, p := range sw.Ports {
		if p.HasRemote && m.resolve(p.Remote) == dstName {
			out = append(out, idx)
		}
	}
	sortInts(out)
	return out
}

// GCIDsFor returns every GCID owned by a named node.
func (m *Model) GCIDsFor(name string) []GCID {
	if n, ok := m.NodeByName(name); ok {
		return n.GCIDs
	}
	return nil
}

// GCIDsForSubnet filters a GCID slice down to those whose SID matches subnet.
func GCIDsForSubnet(gcids []GCID, subnet int) []GCID {
	var out []GCID
	for _, g := range gcids {
		if int(g.SID()) == subnet {
			out = append(out, g)
		}
	}
	return out
}

// AllGCIDs returns every GCID owned by any endpoint node, deduplicated.
func (m *Model) AllGCIDs() []GCID {
	seen := map[GCID]bool{}
	var out []GCID
	for _, n := range m.nodes {
		for _, g := range n.GCIDs {
			if !seen[g] {
				seen[g] = true
				out = append(out, g)
			}
		}
	}
	return out
}

// ensureRouteEntry returns the RouteEntry for key, creating an empty one
// (MinimumHopCount unset) if absent.
func ensureRouteEntry(t RouteTable, key uint32) *RouteEntry {
	e, ok := t[key]
	if !ok {
		e = &RouteEntry{MinimumHopCount: -1}
		t[key] = e
	}
	return e
}

// addRoute appends one (action, hopcount, egress) alternative to the entry
// for key, tracking the entry's minimum hop count across every alternative
// added so far.
func addRoute(t RouteTable, key uint32, ra RouteAction, mhc int) {
	e := ensureRouteEntry(t, key)
	e.Actions = append(e.Actions, ra)
	if e.MinimumHopCount == -1 || mhc < e.MinimumHopCount {
		e.MinimumHopCount = mhc
	}
}

// SetSSDT records one SSDT alternative for a node (spec.md §4.1/§4.2.5).
func (m *Model) SetSSDT(n *Node, cid uint32, action Action, hopcount, mhc, egress int) {
	addRoute(n.SSDT, cid, RouteAction{Action: action, HopCount: hopcount, EgressPort: egress}, mhc)
}

// SetMSDT records one MSDT alternative for a node.
func (m *Model) SetMSDT(n *Node, sid uint32, action Action, hopcount, mhc, egress int) {
	addRoute(n.MSDT, sid, RouteAction{Action: action, HopCount: hopcount, EgressPort: egress}, mhc)
}

// SetLPRT records one LPRT alternative on a single ingress port (switch or
// node), keyed by CID.
func (m *Model) SetLPRT(p *Port, cid uint32, action Action, hopcount, mhc, egress int) {
	addRoute(p.LPRT, cid, RouteAction{Action: action, HopCount: hopcount, EgressPort: egress}, mhc)
}

// SetMPRT records one MPRT alternative on a single ingress port, keyed by SID.
func (m *Model) SetMPRT(p *Port, sid uint32, action Action, hopcount, mhc, egress int) {
	addRoute(p.MPRT, sid, RouteAction{Action: action, HopCount: hopcount, EgressPort: egress}, mhc)
}

// setVCATCell is the shared contradiction-checked write behind SetVCAT,
// SetREQVCAT and SetRSPVCAT: a (port-kind, VC, action) cell may be written
// more than once (different algorithms/TCs may agree on the same cell) but
// never with two different (mask, threshold) pairs (spec.md §7, testable
// property #6).
func setVCATCell(t VCATTable, vc int, action Action, mask uint16, threshold int, portKindLabel string) error {
	row, ok := t[vc]
	if !ok {
		row = &VCATRow{}
		t[vc] = row
	}
	cell := &row[action]
	if cell.set {
		if cell.Mask != mask || cell.Threshold != threshold {
			return ferrors.NewContradictionError(portKindLabel, vc, action.String(), cell.Mask, mask)
		}
		return nil
	}
	cell.Mask, cell.Threshold, cell.set = mask, threshold, true
	return nil
}

// SetVCAT writes a switch- or node-port VCAT cell.
func (m *Model) SetVCAT(p *Port, vc int, action Action, mask uint16, threshold int, portKindLabel string) error {
	return setVCATCell(p.VCAT, vc, action, mask, threshold, portKindLabel)
}

// SetREQVCAT writes a node's request-side VCAT cell.
func (m *Model) SetREQVCAT(n *Node, vc int, action Action, mask uint16, threshold int) error {
	return setVCATCell(n.REQVCAT, vc, action, mask, threshold, "REQ")
}

// SetRSPVCAT writes a node's response-side VCAT cell.
func (m *Model) SetRSPVCAT(n *Node, vc int, action Action, mask uint16, threshold int) error {
	return setVCATCell(n.RSPVCAT, vc, action, mask, threshold, "RSP")
}
