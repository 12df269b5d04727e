package serialize

import (
	"encoding/json"
	"testing"

	"github.com/memfabric/frouter/internal/fabric"
)

func testModel(t *testing.T) *fabric.Model {
	t.Helper()
	ranges := fabric.ModelRanges{
		Switches:           fabric.Range{Lo: 0, Hi: 2},
		SwitchPorts:        fabric.Range{Lo: 0, Hi: 119},
		FabricAdapterPorts: fabric.Range{Lo: 0, Hi: 7},
		Endpoints:          fabric.Range{Lo: 0, Hi: 63},
		VCs:                fabric.Range{Lo: 0, Hi: 7},
	}
	input := fabric.BuildInput{
		Ranges: map[fabric.NodeModel]fabric.ModelRanges{
			fabric.ModelSwitch:  ranges,
			fabric.ModelCompute: ranges,
		},
		Nodes: []fabric.NodeInput{
			{Name: "sw1", Model: fabric.ModelSwitch, TopoID: "0.0", Enabled: true},
			{Name: "c1", Model: fabric.ModelCompute, TopoID: "0.0.0.0", Enabled: true, GCIDs: []fabric.GCID{0x001}},
		},
		Connections: []fabric.ConnectionInput{
			{SrcName: "sw1", SrcPort: 4, DstName: "c1", DstPort: 0},
		},
	}
	m, err := fabric.Build(input)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

// sw1 splits into sw1.1..sw1.4; the artifact must merge them back under the
// single base name "sw1" (spec.md §4.3's merge step).
func TestBuildMergesLogicalSwitchesByBaseName(t *testing.T) {
	m := testModel(t)
	a := Build(m)

	if _, ok := a["sw1"]; !ok {
		t.Fatalf("artifact missing merged entry for base name sw1, got keys %v", keys(a))
	}
	for _, idx := range []string{"sw1.1", "sw1.2", "sw1.3", "sw1.4"} {
		if _, ok := a[idx]; ok {
			t.Fatalf("artifact must not carry a per-logical-switch entry %q", idx)
		}
	}
}

func TestBuildLinksUseBaseNameNotLogicalSwitchName(t *testing.T) {
	m := testModel(t)
	a := Build(m)

	c1, ok := a["c1"]
	if !ok {
		t.Fatalf("artifact missing c1")
	}
	link, ok := c1.Links["0"]
	if !ok {
		t.Fatalf("c1 missing link on port 0, got %+v", c1.Links)
	}
	if link[0] != "sw1" {
		t.Fatalf("c1's link should name base switch %q, got %v", "sw1", link[0])
	}
}

// A VCAT row is dense: all 8 action slots present even when only one was
// ever written, with the untouched slots zero-valued.
func TestBuildVCATTableIsDenseEightSlots(t *testing.T) {
	p := &fabric.Port{Index: 0, VCAT: fabric.VCATTable{}}
	m := &fabric.Model{}
	if err := m.SetVCAT(p, 2, fabric.ActionExit, 0b0101, 4, "L"); err != nil {
		t.Fatalf("SetVCAT: %v", err)
	}

	rows := buildVCATTable(p.VCAT)
	row, ok := rows["2"]
	if !ok {
		t.Fatalf("missing VC 2 row")
	}
	if len(row) != 8 {
		t.Fatalf("want 8 dense slots, got %d", len(row))
	}
	if row[fabric.ActionExit].Threshold != 4 || row[fabric.ActionExit].VCMask != 0b0101 {
		t.Fatalf("EXIT slot not populated correctly, got %+v", row[fabric.ActionExit])
	}
	if row[fabric.ActionXDirect].Threshold != 0 || row[fabric.ActionXDirect].VCMask != 0 {
		t.Fatalf("untouched X_DIRECT slot should be zero, got %+v", row[fabric.ActionXDirect])
	}
}

func TestMarshalProducesSortedDeterministicJSON(t *testing.T) {
	m := testModel(t)
	a := Build(m)

	first, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("Marshal is not deterministic across repeated calls on the same artifact")
	}
	if !json.Valid(first) {
		t.Fatalf("Marshal output is not valid JSON")
	}
}

func TestWithDebugMetaAddsDigestField(t *testing.T) {
	m := testModel(t)
	a := Build(m)
	raw, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	digest := Digest(raw)
	withMeta, err := WithDebugMeta(raw, digest)
	if err != nil {
		t.Fatalf("WithDebugMeta: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(withMeta, &decoded); err != nil {
		t.Fatalf("decoding debug artifact: %v", err)
	}
	meta, ok := decoded["_meta"].(map[string]any)
	if !ok {
		t.Fatalf("missing _meta object, got %+v", decoded["_meta"])
	}
	if meta["digest"] != digest {
		t.Fatalf("digest mismatch: got %v, want %s", meta["digest"], digest)
	}
}

func keys(a Artifact) []string {
	out := make([]string, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	return out
}
