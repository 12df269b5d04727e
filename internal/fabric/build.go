package fabric

import (
	"sort"

	"github.com/memfabric/frouter/internal/ferrors"
	"github.com/memfabric/frouter/internal/portmap"
)

// uidTypeTag is the model-discriminating high nibble of a derived UID.
func uidTypeTag(model NodeModel) uint32 {
	switch model {
	case ModelSwitch:
		return 1
	case ModelCompute:
		return 2
	case ModelIO:
		return 3
	case ModelMemory:
		return 4
	default:
		return 0
	}
}

// deriveUID packs a node's model tag and topology-id tokens into a single
// uint32, mirroring original_source/conf/node.py's uid derivation: high
// nibble is the model's type tag, the low 28 bits are the topology tokens
// packed 7 bits apiece (each token is expected to fit a 7-bit field).
func deriveUID(model NodeModel, tokens ...int) uint32 {
	uid := uidTypeTag(model) << 28
	for i, t := range tokens {
		if i >= 4 {
			break
		}
		uid |= (uint32(t) & 0x7f) << uint(i*7)
	}
	return uid
}

type physSwitch struct {
	input      NodeInput
	plane      int
	subnet     int
	portStart  int
	portCount  int
}

// Build runs the four-phase Fabric Model construction of spec.md §4.1:
// split physical switches into logical switches, remap connections onto
// them, compute one-hop closures and classify switch ports, then classify
// node ports. Configuration mistakes are collected per stage before
// returning: all node/switch errors together, then (only once those are
// clean) all connection errors together.
func Build(input BuildInput) (*Model, error) {
	m := &Model{
		nodeIndex:   map[string]int{},
		switchIndex: map[string]int{},
		coordIndex:  map[[4]int]int{},
	}

	var vb ferrors.ValidationBuilder

	seenNames := map[string]bool{}
	var switchInputs []NodeInput
	var endpointInputs []NodeInput
	for _, ni := range input.Nodes {
		if seenNames[ni.Name] {
			vb.Addf("duplicate node name %q", ni.Name)
			continue
		}
		seenNames[ni.Name] = true
		if ni.Model == ModelSwitch {
			switchInputs = append(switchInputs, ni)
		} else {
			endpointInputs = append(endpointInputs, ni)
		}
	}

	physByName := map[string]*physSwitch{}
	var physList []*physSwitch
	for _, ni := range switchInputs {
		plane, subnet, err := switchTopoID(ni.Name, ni.TopoID)
		if err != nil {
			vb.Addf("%v", err)
			continue
		}
		start, count, err := portRangeFor(ModelSwitch, input.Ranges)
		if err != nil {
			vb.Addf("%v", err)
			continue
		}
		if count != portmap.TotalPorts {
			vb.Addf("switch %q has %d physical ports configured, must be exactly %d to match the fixed split table", ni.Name, count, portmap.TotalPorts)
			continue
		}
		ps := &physSwitch{input: ni, plane: plane, subnet: subnet, portStart: start, portCount: count}
		physByName[ni.Name] = ps
		physList = append(physList, ps)
	}

	// XCoord: ordinal rank (sorted by name) within (plane, subnet).
	groups := map[[2]int][]*physSwitch{}
	for _, ps := range physList {
		key := [2]int{ps.plane, ps.subnet}
		groups[key] = append(groups[key], ps)
	}
	xcoord := map[string]int{}
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].input.Name < group[j].input.Name })
		for i, ps := range group {
			xcoord[ps.input.Name] = i
		}
	}

	// Phase 1: split switches.
	for _, ps := range physList {
		if !ps.input.Enabled {
			continue
		}
		for idx := 1; idx <= portmap.LogicalSwitchCount; idx++ {
			sw := newSwitch(ps.input.Name, idx, ps.plane, xcoord[ps.input.Name], ps.subnet)
			sw.GCIDs = append(sw.GCIDs, ps.input.GCIDs...)
			m.switches = append(m.switches, sw)
			slot := len(m.switches) - 1
			m.switchIndex[sw.Name()] = slot
			m.coordIndex[coordKey(sw.Plane, sw.XCoord, sw.Subnet, sw.Index)] = slot
		}
		for phys := 0; phys < portmap.TotalPorts; phys++ {
			entry, _ := portmap.Lookup(phys)
			swName := portmap.LogicalName(ps.input.Name, entry.LogicalIndex)
			sw := m.switches[m.switchIndex[swName]]
			globalPort := ps.portStart + phys
			sw.Ports[globalPort] = newPort(globalPort)
		}
	}

	// Endpoint nodes.
	for _, ni := range endpointInputs {
		switch ni.Model {
		case ModelCompute, ModelIO, ModelMemory:
		default:
			vb.Addf("node %q has unknown model %q", ni.Name, ni.Model)
			continue
		}
		plane, x, y, subnetTok, err := nodeTopoID(ni.Name, ni.TopoID)
		if err != nil {
			vb.Addf("%v", err)
			continue
		}
		start, count, err := portRangeFor(ni.Model, input.Ranges)
		if err != nil {
			vb.Addf("%v", err)
			continue
		}
		subnet := 0
		if subnetTok != nil {
			subnet = *subnetTok
		} else if len(ni.GCIDs) > 0 {
			subnet = int(ni.GCIDs[0].SID())
		} else {
			vb.Addf("node %q has no subnet token in its topology id and no GCID to derive one from", ni.Name)
			continue
		}

		n := newNode(ni.Name, ni.Model)
		n.Plane, n.X, n.Y, n.Subnet = plane, x, y, subnet
		n.Address, n.GeoID, n.Enabled = ni.Address, ni.GeoID, ni.Enabled
		n.GCIDs = append(n.GCIDs, ni.GCIDs...)
		n.UID = deriveUID(ni.Model, plane, x, y, subnet)
		n.PortStart = start
		n.Ports = make([]*Port, count)
		for i := range n.Ports {
			n.Ports[i] = newPort(start + i)
		}

		m.nodes = append(m.nodes, n)
		m.nodeIndex[n.Name] = len(m.nodes) - 1
	}

	if vb.HasErrors() {
		return nil, vb.Build("fabric")
	}

	// Phase 2: remap connections.
	type portUse struct {
		name string
		port int
	}
	used := map[portUse]bool{}

	resolve := func(name string, port int) (EntityID, *Port, bool, error) {
		if ps, ok := physByName[name]; ok {
			if !ps.input.Enabled {
				return EntityID{}, nil, false, nil
			}
			phys := port - ps.portStart
			if phys < 0 || phys >= ps.portCount {
				return EntityID{}, nil, false, newBuildErrorf(name, "Port", "port %d out of range for switch", port)
			}
			entry, _ := portmap.Lookup(phys)
			swName := portmap.LogicalName(name, entry.LogicalIndex)
			idx := m.switchIndex[swName]
			p, ok := m.switches[idx].Ports[port]
			if !ok {
				return EntityID{}, nil, false, newBuildErrorf(name, "Port", "port %d not present on split switch", port)
			}
			return EntityID{Kind: EntitySwitch, Index: idx}, p, true, nil
		}
		if idx, ok := m.nodeIndex[name]; ok {
			n := m.nodes[idx]
			if !n.Enabled {
				return EntityID{}, nil, false, nil
			}
			p := n.Port(port)
			if p == nil {
				return EntityID{}, nil, false, newBuildErrorf(name, "Port", "port %d out of range for node", port)
			}
			return EntityID{Kind: EntityNode, Index: idx}, p, true, nil
		}
		return EntityID{}, nil, false, newBuildErrorf(name, "Connections", "unknown node reference")
	}

	for _, c := range input.Connections {
		srcID, srcPort, srcOK, err := resolve(c.SrcName, c.SrcPort)
		if err != nil {
			vb.Addf("%v", err)
			continue
		}
		dstID, dstPort, dstOK, err := resolve(c.DstName, c.DstPort)
		if err != nil {
			vb.Addf("%v", err)
			continue
		}
		if !srcOK || !dstOK {
			continue // one side is disabled: leave both ports unconnected
		}

		srcKey := portUse{c.SrcName, c.SrcPort}
		dstKey := portUse{c.DstName, c.DstPort}
		if used[srcKey] {
			vb.Addf("duplicate connection endpoint %s port %d", c.SrcName, c.SrcPort)
			continue
		}
		if used[dstKey] {
			vb.Addf("duplicate connection endpoint %s port %d", c.DstName, c.DstPort)
			continue
		}
		used[srcKey] = true
		used[dstKey] = true

		srcPort.Remote, srcPort.RemotePort, srcPort.HasRemote = dstID, c.DstPort, true
		dstPort.Remote, dstPort.RemotePort, dstPort.HasRemote = srcID, c.SrcPort, true
	}

	if vb.HasErrors() {
		return nil, vb.Build("fabric")
	}

	// Phase 3: configure logicals — one-hop closures, then L/X/Y classification.
	for _, sw := range m.switches {
		portIndices := make([]int, 0, len(sw.Ports))
		for idx := range sw.Ports {
			portIndices = append(portIndices, idx)
		}
		sortInts(portIndices)

		for _, idx := range portIndices {
			p := sw.Ports[idx]
			if !p.HasRemote || p.Remote.Kind != EntityNode {
				continue
			}
			neighbor := m.nodes[p.Remote.Index]
			addClosure(sw, neighbor, idx)
			for _, np := range neighbor.Ports {
				if np.Index == p.RemotePort {
					continue
				}
				if !np.HasRemote || np.Remote.Kind != EntityNode {
					continue
				}
				further := m.nodes[np.Remote.Index]
				addClosure(sw, further, idx)
			}
		}

		for _, idx := range portIndices {
			p := sw.Ports[idx]
			if !p.HasRemote {
				continue
			}
			p.Subnet = sw.Subnet
			if p.Remote.Kind == EntityNode {
				p.SwitchKind = SwitchPortL
				continue
			}
			remoteSw := m.switches[p.Remote.Index]
			if remoteSw.Subnet == sw.Subnet {
				p.SwitchKind = SwitchPortX
			} else {
				p.SwitchKind = SwitchPortY
			}
		}
	}

	// Phase 4: configure nodes — R/L classification.
	for _, n := range m.nodes {
		for _, p := range n.Ports {
			if !p.HasRemote {
				continue
			}
			p.Subnet = n.Subnet
			if p.Remote.Kind == EntitySwitch || n.Model == ModelMemory {
				p.NodeKind = NodePortR
			} else {
				p.NodeKind = NodePortL
			}
		}
	}

	if vb.HasErrors() {
		return nil, vb.Build("fabric")
	}
	return m, nil
}

func addClosure(sw *Switch, node *Node, viaPort int) {
	if _, exists := sw.Closure[node.Name]; exists {
		return
	}
	sw.Closure[node.Name] = &ClosureEntry{
		NodeName: node.Name,
		GCIDs:    append([]GCID{}, node.GCIDs...),
		ViaPort:  viaPort,
	}
}
