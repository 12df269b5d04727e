// Package serialize renders a built, routed Fabric Model into the JSON
// artifact spec.md §4.4/§6 describes: one entry per node name, logical
// switches that split from the same physical switch merged back under
// their shared base name.
package serialize

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/memfabric/frouter/internal/fabric"
)

// RkeyEnable is the Rkey_Enable value written into every node's Constants
// block. It is a fixed value; it is not read from the configuration
// document.
const RkeyEnable = 3

// RouteEntryOut is one numbered alternative within a route table entry.
type RouteEntryOut struct {
	Valid            bool  `json:"Valid"`
	VCAction         uint8 `json:"VCAction"`
	HopCount         int   `json:"HopCount"`
	EgressIdentifier int   `json:"EgressIdentifier"`
}

// RouteOut is one CID/SID's route table entry.
type RouteOut struct {
	MinimumHopCount int                      `json:"MinimumHopCount"`
	RawEntryHex     string                   `json:"RawEntryHex"`
	Entries         map[string]RouteEntryOut `json:"Entries"`
}

// VCATCellOut is one action slot of a VCAT row.
type VCATCellOut struct {
	Threshold int    `json:"Threshold"`
	VCMask    uint16 `json:"VCMask"`
}

// VCATRowOut is a dense, 8-slot VCAT row (indices 0..7, action-keyed).
type VCATRowOut [8]VCATCellOut

// PortOut is one port's per-table object.
type PortOut struct {
	LPRT      map[string]RouteOut   `json:"LPRT"`
	MPRT      map[string]RouteOut   `json:"MPRT"`
	VCAT      map[string]VCATRowOut `json:"VCAT"`
	Registers *struct{}             `json:"Registers"`
}

// ConstantsOut is a node's Constants block.
type ConstantsOut struct {
	Enabled    []int  `json:"Enabled"`
	Model      string `json:"Model"`
	RkeyEnable int    `json:"Rkey_Enable"`
}

// NodeOut is one top-level entry of the emitted artifact, keyed by node
// name (spec.md §4.4/§6).
type NodeOut struct {
	Model     string             `json:"Model"`
	Constants ConstantsOut       `json:"Constants"`
	Links     map[string][2]any  `json:"Links"`
	Ports     map[string]PortOut `json:"Ports"`
	GCIDs     []string           `json:"GCIDs"`

	SSDT    map[string]RouteOut   `json:"SSDT,omitempty"`
	MSDT    map[string]RouteOut   `json:"MSDT,omitempty"`
	REQVCAT map[string]VCATRowOut `json:"REQ-VCAT,omitempty"`
	RSPVCAT map[string]VCATRowOut `json:"RSP-VCAT,omitempty"`
}

// Artifact is the whole document: node/switch base name -> NodeOut.
type Artifact map[string]NodeOut

// Build walks a fully-applied Model and produces the artifact document.
func Build(m *fabric.Model) Artifact {
	out := Artifact{}

	bySwitch := map[string][]*fabric.Switch{}
	var switchOrder []string
	for _, sw := range m.LogicalSwitches() {
		if _, seen := bySwitch[sw.BaseName]; !seen {
			switchOrder = append(switchOrder, sw.BaseName)
		}
		bySwitch[sw.BaseName] = append(bySwitch[sw.BaseName], sw)
	}
	sort.Strings(switchOrder)
	for _, base := range switchOrder {
		out[base] = buildSwitchOut(m, bySwitch[base])
	}

	for _, n := range m.EndpointNodes() {
		out[n.Name] = buildNodeOut(m, n)
	}
	return out
}

func buildSwitchOut(m *fabric.Model, logicals []*fabric.Switch) NodeOut {
	links := map[string][2]any{}
	ports := map[string]PortOut{}
	var enabled []int
	var gcids []string

	for i, sw := range logicals {
		if i == 0 {
			for _, g := range sw.GCIDs {
				gcids = append(gcids, g.String())
			}
		}
		portIdx := sortedPortKeys(sw.Ports)
		for _, idx := range portIdx {
			p := sw.Ports[idx]
			enabled = append(enabled, idx)
			ports[strconv.Itoa(idx)] = buildPortOut(p)

			if remoteName, remotePort, ok := m.ConnectionsOnPort(p); ok {
				links[strconv.Itoa(idx)] = [2]any{baseName(p, remoteName), remotePort}
			}
		}
	}
	sort.Ints(enabled)

	return NodeOut{
		Model: string(fabric.ModelSwitch),
		Constants: ConstantsOut{
			Enabled:    enabled,
			Model:      string(fabric.ModelSwitch),
			RkeyEnable: RkeyEnable,
		},
		Links: links,
		Ports: ports,
		GCIDs: gcids,
	}
}

func buildNodeOut(m *fabric.Model, n *fabric.Node) NodeOut {
	links := map[string][2]any{}
	ports := map[string]PortOut{}
	var enabled []int
	var gcids []string
	for _, g := range n.GCIDs {
		gcids = append(gcids, g.String())
	}

	for _, p := range n.Ports {
		idx := p.Index
		enabled = append(enabled, idx)
		ports[strconv.Itoa(idx)] = buildPortOut(p)

		if remoteName, remotePort, ok := m.ConnectionsOnPort(p); ok {
			links[strconv.Itoa(idx)] = [2]any{baseName(p, remoteName), remotePort}
		}
	}
	sort.Ints(enabled)

	return NodeOut{
		Model: string(n.Model),
		Constants: ConstantsOut{
			Enabled:    enabled,
			Model:      string(n.Model),
			RkeyEnable: RkeyEnable,
		},
		Links:   links,
		Ports:   ports,
		GCIDs:   gcids,
		SSDT:    buildRouteTable(n.SSDT),
		MSDT:    buildRouteTable(n.MSDT),
		REQVCAT: buildVCATTable(n.REQVCAT),
		RSPVCAT: buildVCATTable(n.RSPVCAT),
	}
}

// baseName strips a logical switch's ".<index>" suffix from a remote name;
// node names pass through unchanged (spec.md §4.3's merge step: logical
// switches are addressed by base name in the emitted artifact's Links).
func baseName(p *fabric.Port, remoteName string) string {
	if p.Remote.Kind != fabric.EntitySwitch {
		return remoteName
	}
	if i := strings.LastIndexByte(remoteName, '.'); i >= 0 {
		return remoteName[:i]
	}
	return remoteName
}

func buildPortOut(p *fabric.Port) PortOut {
	return PortOut{
		LPRT:      buildRouteTable(p.LPRT),
		MPRT:      buildRouteTable(p.MPRT),
		VCAT:      buildVCATTable(p.VCAT),
		Registers: nil,
	}
}

func buildRouteTable(t fabric.RouteTable) map[string]RouteOut {
	out := map[string]RouteOut{}
	for key, entry := range t {
		entries := map[string]RouteEntryOut{}
		for i, a := range entry.Actions {
			entries[strconv.Itoa(i)] = RouteEntryOut{
				Valid:            true,
				VCAction:         uint8(a.Action),
				HopCount:         a.HopCount,
				EgressIdentifier: a.EgressPort,
			}
		}
		out[strconv.FormatUint(uint64(key), 10)] = RouteOut{
			MinimumHopCount: entry.MinimumHopCount,
			RawEntryHex:     rawEntryHex(key, entry),
			Entries:         entries,
		}
	}
	return out
}

func buildVCATTable(t fabric.VCATTable) map[string]VCATRowOut {
	out := map[string]VCATRowOut{}
	for vc, row := range t {
		var rowOut VCATRowOut
		for action := range rowOut {
			cell := row[action]
			rowOut[action] = VCATCellOut{Threshold: cell.Threshold, VCMask: cell.Mask}
		}
		out[strconv.Itoa(vc)] = rowOut
	}
	return out
}

// rawEntryHex is an opaque per-entry fingerprint (spec.md §4.4 calls it a
// placeholder, not a decodable hardware word): xxhash keeps it stable
// across runs for the same (key, entry) content without claiming to be a
// real register encoding.
func rawEntryHex(key uint32, entry *fabric.RouteEntry) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatUint(uint64(key), 10))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(entry.MinimumHopCount))
	for _, a := range entry.Actions {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(int(a.Action)))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(a.HopCount))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(a.EgressPort))
	}
	sum := xxhash.Sum64String(sb.String())
	return "0x" + strings.ToUpper(strconv.FormatUint(sum, 16))
}

func sortedPortKeys(m map[int]*fabric.Port) []int {
	out := make([]int, 0, len(m))
	for idx := range m {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// Marshal renders the artifact as deterministic, indented JSON. Map key
// ordering within Go's encoding/json is already sorted for string-keyed
// maps; Pretty's SortKeys pass is belt-and-suspenders for the nested
// Entries/VCAT maps and costs nothing extra to keep on.
func Marshal(a Artifact) ([]byte, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return Pretty(raw), nil
}

// Pretty renders an Artifact as deterministic, indented JSON (sorted map
// keys throughout ensures byte-identical output across runs, spec.md §5).
func Pretty(data []byte) []byte {
	return pretty.PrettyOptions(data, &pretty.Options{SortKeys: true, Indent: "  "})
}

// Digest returns a stable fingerprint of a marshaled artifact, logged by
// cmd/router so two runs over the same input can be compared for the
// byte-identical-output guarantee without diffing the whole document.
func Digest(marshaled []byte) string {
	return strconv.FormatUint(xxhash.Sum64(marshaled), 16)
}

// WithDebugMeta attaches a "_meta.digest" field to an already-marshaled
// artifact for --debug runs (spec.md §6 CLI surface). Uses sjson so the
// addition doesn't require unmarshaling the whole document back into Go
// types first.
func WithDebugMeta(marshaled []byte, digest string) ([]byte, error) {
	return sjson.SetBytes(marshaled, "_meta.digest", digest)
}
