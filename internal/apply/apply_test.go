package apply

import (
	"testing"

	"github.com/memfabric/frouter/internal/fabric"
	"github.com/memfabric/frouter/internal/router"
)

func testRanges() map[fabric.NodeModel]fabric.ModelRanges {
	r := fabric.ModelRanges{
		Switches:           fabric.Range{Lo: 0, Hi: 2},
		SwitchPorts:        fabric.Range{Lo: 0, Hi: 119},
		FabricAdapterPorts: fabric.Range{Lo: 0, Hi: 7},
		Endpoints:          fabric.Range{Lo: 0, Hi: 63},
		VCs:                fabric.Range{Lo: 0, Hi: 7},
	}
	return map[fabric.NodeModel]fabric.ModelRanges{
		fabric.ModelSwitch:  r,
		fabric.ModelCompute: r,
		fabric.ModelIO:      r,
		fabric.ModelMemory:  r,
	}
}

// testTopology is a 3-switch, 3-endpoint fabric: sw1 and sw2 share subnet 0
// (so the sw1.1<->sw2.1 pair is a pure X-family hop); sw3 sits in subnet 1
// but is only linked to sw1 on the logical-index-2 lane, exercising the
// Y-family closure-only EXIT path. c1/m1 hang off sw1, c2 off sw2.
func testTopology() fabric.BuildInput {
	return fabric.BuildInput{
		Ranges: testRanges(),
		Nodes: []fabric.NodeInput{
			{Name: "sw1", Model: fabric.ModelSwitch, TopoID: "0.0", Enabled: true},
			{Name: "sw2", Model: fabric.ModelSwitch, TopoID: "0.0", Enabled: true},
			{Name: "sw3", Model: fabric.ModelSwitch, TopoID: "0.1", Enabled: true},
			{Name: "c1", Model: fabric.ModelCompute, TopoID: "0.0.0.0", Enabled: true, GCIDs: []fabric.GCID{0x001}},
			{Name: "m1", Model: fabric.ModelMemory, TopoID: "0.0.0.0", Enabled: true, GCIDs: []fabric.GCID{0x002}},
			{Name: "c2", Model: fabric.ModelCompute, TopoID: "0.0.0.0", Enabled: true, GCIDs: []fabric.GCID{0x003}},
		},
		Connections: []fabric.ConnectionInput{
			{SrcName: "sw1", SrcPort: 0, DstName: "sw2", DstPort: 0},
			{SrcName: "sw1", SrcPort: 1, DstName: "sw3", DstPort: 1},
			{SrcName: "sw1", SrcPort: 4, DstName: "c1", DstPort: 0},
			{SrcName: "sw1", SrcPort: 5, DstName: "m1", DstPort: 0},
			{SrcName: "sw2", SrcPort: 4, DstName: "c2", DstPort: 0},
		},
	}
}

func testController(t *testing.T) *router.Controller {
	t.Helper()
	c, err := router.NewController([]router.TCInput{
		{
			Name:       "TC0",
			Parameters: router.RawParameters{Algorithm: "DOR"},
			PCs: []router.PCInput{
				{PC: 0, RCs: []router.RCInput{{RC: 0, VCs: []int{0}}}},
				{PC: 1, RCs: []router.RCInput{{RC: 0, VCs: []int{1}}}},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return c
}

func findAction(entry *fabric.RouteEntry, action fabric.Action, egress int) bool {
	if entry == nil {
		return false
	}
	for _, a := range entry.Actions {
		if a.Action == action && a.EgressPort == egress {
			return true
		}
	}
	return false
}

// (S1)-style: the destination switch's own L port facing an endpoint gets
// an EXIT entry, keyed by that endpoint's CID, from every other ingress.
func TestApplyDestinationSwitchWritesExitPath(t *testing.T) {
	m, err := fabric.Build(testTopology())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	c := testController(t)
	if err := Apply(m, c); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	sw1_1, _ := m.SwitchByName("sw1.1")
	port0 := sw1_1.Ports[0]
	if !findAction(port0.LPRT[1], fabric.ActionExit, 4) {
		t.Fatalf("sw1.1 port0 LPRT[CID=1] missing EXIT->4, got %+v", port0.LPRT[1])
	}
}

// The sw1.1<->sw2.1 pair share subnet 0, differ in XCoord: location xY, so
// DOR (X-first) offers X_DIRECT on the L ingress only. c2 (behind sw2.1)
// should appear in sw1.1's LPRT keyed by its CID.
func TestApplyTransitPairWritesXDirect(t *testing.T) {
	m, err := fabric.Build(testTopology())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	c := testController(t)
	if err := Apply(m, c); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	sw1_1, _ := m.SwitchByName("sw1.1")
	lPort := sw1_1.Ports[4] // the only L port on sw1.1
	if !findAction(lPort.LPRT[3], fabric.ActionXDirect, 0) {
		t.Fatalf("sw1.1 port4 LPRT[CID=3] missing X_DIRECT->0, got %+v", lPort.LPRT[3])
	}
}

func TestApplyNodeRoutesWritesSSDTForSubnetPeers(t *testing.T) {
	m, err := fabric.Build(testTopology())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	c := testController(t)
	if err := Apply(m, c); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	c1, _ := m.NodeByName("c1")
	if c1.SSDT[2] == nil {
		t.Fatalf("c1 SSDT missing entry for m1 (CID=2)")
	}
	if c1.SSDT[3] == nil {
		t.Fatalf("c1 SSDT missing entry for c2 (CID=3)")
	}
}
