package router

import (
	"testing"

	"github.com/memfabric/frouter/internal/fabric"
)

func testNode() *fabric.Node {
	return &fabric.Node{
		Name:    "c1",
		Model:   fabric.ModelCompute,
		REQVCAT: fabric.VCATTable{},
		RSPVCAT: fabric.VCATTable{},
		Ports: []*fabric.Port{
			{Index: 0, NodeKind: fabric.NodePortL, VCAT: fabric.VCATTable{}},
		},
	}
}

// (S6) of spec.md §8: request VCs {0,1} in PC0, response VCs {2,3} in
// PC1 must populate RSP-VCAT keyed by 0 and 1, never by 2 or 3.
func TestSynthesizeNodeVCATAppliesResponseDelta(t *testing.T) {
	c, err := NewController([]TCInput{twoPCInput("TC0")})
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}

	n := testNode()
	if err := c.SynthesizeNodeVCAT(&fabric.Model{}, n); err != nil {
		t.Fatalf("SynthesizeNodeVCAT: %v", err)
	}

	for _, vc := range []int{2, 3} {
		if _, ok := n.RSPVCAT[vc]; ok {
			t.Fatalf("RSP-VCAT must not be keyed by raw response VC %d", vc)
		}
	}
	for _, vc := range []int{0, 1} {
		if _, ok := n.RSPVCAT[vc]; !ok {
			t.Fatalf("RSP-VCAT missing entry for delta-adjusted VC %d", vc)
		}
	}
}
