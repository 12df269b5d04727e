package fabric

import "testing"

func testRanges() map[NodeModel]ModelRanges {
	r := ModelRanges{
		Switches:           Range{Lo: 0, Hi: 2},
		SwitchPorts:        Range{Lo: 0, Hi: 119},
		FabricAdapterPorts: Range{Lo: 0, Hi: 7},
		Endpoints:          Range{Lo: 0, Hi: 63},
		VCs:                Range{Lo: 0, Hi: 7},
	}
	return map[NodeModel]ModelRanges{
		ModelSwitch:  r,
		ModelCompute: r,
		ModelIO:      r,
		ModelMemory:  r,
	}
}

func smallTopology() BuildInput {
	return BuildInput{
		Ranges: testRanges(),
		Nodes: []NodeInput{
			{Name: "sw1", Model: ModelSwitch, TopoID: "0.0", Enabled: true},
			{Name: "sw2", Model: ModelSwitch, TopoID: "0.0", Enabled: true},
			{Name: "sw3", Model: ModelSwitch, TopoID: "0.1", Enabled: true},
			{Name: "c1", Model: ModelCompute, TopoID: "0.0.0.0", Enabled: true, GCIDs: []GCID{0x001}},
			{Name: "m1", Model: ModelMemory, TopoID: "0.0.0.0", Enabled: true, GCIDs: []GCID{0x002}},
		},
		Connections: []ConnectionInput{
			{SrcName: "sw1", SrcPort: 0, DstName: "sw2", DstPort: 0},
			{SrcName: "sw1", SrcPort: 1, DstName: "sw3", DstPort: 1},
			{SrcName: "sw1", SrcPort: 4, DstName: "c1", DstPort: 0},
			{SrcName: "sw1", SrcPort: 5, DstName: "m1", DstPort: 0},
		},
	}
}

func TestBuildSplitsIntoFourLogicalSwitchesPerPhysical(t *testing.T) {
	m, err := Build(smallTopology())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got, want := len(m.LogicalSwitches()), 3*4; got != want {
		t.Fatalf("got %d logical switches, want %d", got, want)
	}
	for _, name := range []string{"sw1.1", "sw1.2", "sw1.3", "sw1.4", "sw2.1", "sw3.2"} {
		if _, ok := m.SwitchByName(name); !ok {
			t.Errorf("missing logical switch %q", name)
		}
	}
}

func TestBuildClassifiesSwitchToSwitchPortsByFamilyAcrossSubnets(t *testing.T) {
	m, err := Build(smallTopology())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// sw1 and sw2 share subnet 0 -> phys port 0 (logical index 1) is X.
	sw1_1, _ := m.SwitchByName("sw1.1")
	if got := sw1_1.Ports[0].SwitchKind; got != SwitchPortX {
		t.Errorf("sw1.1 port0 kind = %v, want X", got)
	}

	// sw1 and sw3 differ in subnet -> phys port 1 (logical index 2) is Y.
	sw1_2, _ := m.SwitchByName("sw1.2")
	if got := sw1_2.Ports[1].SwitchKind; got != SwitchPortY {
		t.Errorf("sw1.2 port1 kind = %v, want Y", got)
	}
}

func TestBuildClassifiesNodeAndSwitchLPortsForNonSwitchNeighbours(t *testing.T) {
	m, err := Build(smallTopology())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	sw1_1, _ := m.SwitchByName("sw1.1")
	if got := sw1_1.Ports[4].SwitchKind; got != SwitchPortL {
		t.Errorf("sw1.1 port4 kind = %v, want L", got)
	}

	c1, _ := m.NodeByName("c1")
	if got := c1.Port(0).NodeKind; got != NodePortR {
		t.Errorf("c1 port0 kind = %v, want R (remote is a switch)", got)
	}

	m1, _ := m.NodeByName("m1")
	if got := m1.Port(0).NodeKind; got != NodePortR {
		t.Errorf("m1 port0 kind = %v, want R (Memory is always R)", got)
	}
}

func TestBuildRecordsOneHopClosureThroughDirectNeighbour(t *testing.T) {
	m, err := Build(smallTopology())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	sw1_1, _ := m.SwitchByName("sw1.1")
	entry, ok := sw1_1.Closure["c1"]
	if !ok {
		t.Fatalf("sw1.1 closure missing c1")
	}
	if entry.ViaPort != 4 {
		t.Errorf("sw1.1 closure via-port for c1 = %d, want 4", entry.ViaPort)
	}

	sw1_2, _ := m.SwitchByName("sw1.2")
	if _, ok := sw1_2.Closure["m1"]; !ok {
		t.Fatalf("sw1.2 closure missing m1")
	}
}

func TestBuildRejectsSwitchWithWrongPortCount(t *testing.T) {
	in := smallTopology()
	ranges := testRanges()
	bad := ranges[ModelSwitch]
	bad.SwitchPorts = Range{Lo: 0, Hi: 10} // only 11 ports, not 120
	ranges[ModelSwitch] = bad
	in.Ranges = ranges

	if _, err := Build(in); err == nil {
		t.Fatalf("expected an error for a switch with the wrong physical port count")
	}
}

func TestBuildRejectsUnknownNodeReference(t *testing.T) {
	in := smallTopology()
	in.Connections = append(in.Connections, ConnectionInput{SrcName: "sw1", SrcPort: 8, DstName: "ghost", DstPort: 0})

	if _, err := Build(in); err == nil {
		t.Fatalf("expected an error for an unknown node reference")
	}
}

func TestBuildRejectsDuplicateConnectionEndpoint(t *testing.T) {
	in := smallTopology()
	in.Connections = append(in.Connections, ConnectionInput{SrcName: "sw1", SrcPort: 0, DstName: "sw3", DstPort: 2})

	if _, err := Build(in); err == nil {
		t.Fatalf("expected an error for a duplicate connection endpoint")
	}
}

func TestBuildSkipsConnectionsTouchingDisabledNodes(t *testing.T) {
	in := smallTopology()
	for i, n := range in.Nodes {
		if n.Name == "c1" {
			in.Nodes[i].Enabled = false
		}
	}

	m, err := Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sw1_1, _ := m.SwitchByName("sw1.1")
	if sw1_1.Ports[4].HasRemote {
		t.Errorf("port to a disabled node should not be wired")
	}
}

func TestXCoordIsOrdinalRankWithinPlaneAndSubnet(t *testing.T) {
	m, err := Build(smallTopology())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sw1_1, _ := m.SwitchByName("sw1.1")
	sw2_1, _ := m.SwitchByName("sw2.1")
	if sw1_1.XCoord == sw2_1.XCoord {
		t.Errorf("sw1 and sw2 share (plane,subnet) but got the same XCoord %d", sw1_1.XCoord)
	}
	if sw1_1.XCoord != 0 {
		t.Errorf("sw1 sorts before sw2 by name, want XCoord 0, got %d", sw1_1.XCoord)
	}
}
