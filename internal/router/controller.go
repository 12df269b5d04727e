package router

import (
	"sort"
	"strconv"

	"github.com/memfabric/frouter/internal/fabric"
	"github.com/memfabric/frouter/internal/ferrors"
)

// RCInput is one RC<r>'s VC list, as parsed from Routing.TC<n>.PC<k>.
type RCInput struct {
	RC  int
	VCs []int
}

// PCInput is one PC<k>'s {RC<r>: [VC...]} section of a TC's Routing policy.
type PCInput struct {
	PC  int
	RCs []RCInput
}

// RawParameters mirrors Routing.TC<n>.Parameters before defaults are
// applied (spec.md §6); nil pointers mean "not set, use the default".
type RawParameters struct {
	Algorithm       string
	XDimensionFirst *bool
	IngressRC       *int
	EgressRC        *int
	NodeRouters     []string
	Dimensions      *int
}

// TCInput is one Routing.TC<n> entry.
type TCInput struct {
	Name       string
	Parameters RawParameters
	PCs        []PCInput
}

// TCEngine is the fully resolved routing setup for one traffic class: its
// Engine plus the per-PC RC->VC-mask tables used for VCAT synthesis and the
// request/response PC pairing used for response-VC alignment
// (spec.md testable property #9).
type TCEngine struct {
	Name    string
	Engine  *Engine
	pcOrder []int
	pcMasks map[int]map[int]uint16 // pc -> rc -> vc-mask
}

// RequestPC is the lowest-numbered PC, used for REQ-VCAT.
func (t *TCEngine) RequestPC() int { return t.pcOrder[0] }

// ResponsePC is the second-lowest PC, used for RSP-VCAT.
func (t *TCEngine) ResponsePC() int { return t.pcOrder[1] }

// ResponseDelta is min(response-PC VCs) - min(request-PC VCs)
// (spec.md testable property #9).
func (t *TCEngine) ResponseDelta() int {
	return minVC(t.pcMasks[t.ResponsePC()]) - minVC(t.pcMasks[t.RequestPC()])
}

// RCMasks returns the rc->vc-mask table for one PC.
func (t *TCEngine) RCMasks(pc int) map[int]uint16 { return t.pcMasks[pc] }

func minVC(rcMasks map[int]uint16) int {
	min := -1
	for _, mask := range rcMasks {
		for vc := 0; vc < 16; vc++ {
			if mask&(1<<uint(vc)) == 0 {
				continue
			}
			if min == -1 || vc < min {
				min = vc
			}
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

// Controller is the Router Controller (spec.md §4.3): it parses every TC's
// Routing policy into a TCEngine and designates the TC whose name sorts
// first (plain string order, so "TC10" precedes "TC2") as the one whose
// Engine drives path computation (LPRT/MPRT/SSDT/MSDT). Every
// TC still independently contributes VCAT cells — the Applier merges them,
// raising a contradiction error on disagreement. See DESIGN.md for why
// this per-TC split mirrors the source's one-Router-per-TC instantiation.
type Controller struct {
	TCs     []*TCEngine
	Primary *TCEngine
}

// NewController parses every TC and builds its Engine.
func NewController(tcs []TCInput) (*Controller, error) {
	if len(tcs) == 0 {
		return nil, ferrors.NewConfigError("Routing", "TC", "no traffic classes configured")
	}

	sorted := append([]TCInput(nil), tcs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var out []*TCEngine
	for _, tc := range sorted {
		te, err := buildTCEngine(tc)
		if err != nil {
			return nil, err
		}
		out = append(out, te)
	}

	return &Controller{TCs: out, Primary: out[0]}, nil
}

func buildTCEngine(tc TCInput) (*TCEngine, error) {
	if tc.Parameters.Algorithm == "" {
		return nil, ferrors.NewConfigError(tc.Name, "Parameters.Algorithm", "missing required field")
	}

	if len(tc.PCs) < 2 {
		return nil, ferrors.NewPolicyError(tc.Name, "", "at least two protocol classes (request and response) are required")
	}
	if len(tc.PCs) > 2 {
		return nil, ferrors.NewPolicyError(tc.Name, "", "more than two protocol classes is unsupported: the response-VC delta is only defined for exactly two")
	}

	sort.Slice(tc.PCs, func(i, j int) bool { return tc.PCs[i].PC < tc.PCs[j].PC })

	pcMasks := map[int]map[int]uint16{}
	var vcMap []VCEntry
	pcOrder := make([]int, 0, len(tc.PCs))
	for _, pc := range tc.PCs {
		pcOrder = append(pcOrder, pc.PC)
		rcMasks, err := buildRCMasks(tc.Name, pc)
		if err != nil {
			return nil, err
		}
		pcMasks[pc.PC] = rcMasks

		for _, rc := range pc.RCs {
			for _, vc := range rc.VCs {
				vcMap = append(vcMap, VCEntry{TC: tc.Name, PC: pc.PC, RC: rc.RC, VC: vc})
			}
		}
	}

	params := resolveParameters(tc.Parameters)
	engine, err := NewEngine(tc.Parameters.Algorithm, params, vcMap)
	if err != nil {
		return nil, err
	}

	return &TCEngine{Name: tc.Name, Engine: engine, pcOrder: pcOrder, pcMasks: pcMasks}, nil
}

// buildRCMasks builds the rc->vc-mask table for one PC and rejects a
// non-contiguous VC assignment across the PC's RCs (spec.md §7).
func buildRCMasks(tcName string, pc PCInput) (map[int]uint16, error) {
	rcMasks := map[int]uint16{}
	var allVCs []int
	for _, rc := range pc.RCs {
		var mask uint16
		for _, vc := range rc.VCs {
			mask |= 1 << uint(vc)
			allVCs = append(allVCs, vc)
		}
		rcMasks[rc.RC] = mask
	}

	sort.Ints(allVCs)
	for i := 1; i < len(allVCs); i++ {
		if allVCs[i] == allVCs[i-1] {
			return nil, ferrors.NewPolicyError(tcName, pcName(pc.PC), "the same VC appears in more than one RC")
		}
		if allVCs[i] != allVCs[i-1]+1 {
			return nil, ferrors.NewPolicyError(tcName, pcName(pc.PC), "VCs are not contiguous across the PC's resource classes")
		}
	}

	return rcMasks, nil
}

func pcName(pc int) string {
	return "PC" + strconv.Itoa(pc)
}

// resolveParameters applies the documented defaults (spec.md §6) to a raw
// Parameters block.
func resolveParameters(raw RawParameters) Parameters {
	p := DefaultParameters()
	if raw.XDimensionFirst != nil {
		p.XDimensionFirst = *raw.XDimensionFirst
	}
	if raw.IngressRC != nil {
		p.IngressRC = *raw.IngressRC
	}
	if raw.EgressRC != nil {
		p.EgressRC = *raw.EgressRC
	}
	if raw.Dimensions != nil {
		p.Dimensions = *raw.Dimensions
	}
	for _, model := range raw.NodeRouters {
		p.NodeRouters[fabric.NodeModel(model)] = true
	}
	return p
}
