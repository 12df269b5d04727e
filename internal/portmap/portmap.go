// Package portmap holds the fixed 120-port-to-logical-index table used to
// split a physical switch into its four logical switches (spec.md §4.1,
// step 1). The source system (original_source/conf/*) hard-codes this
// table; its derivation is not documented there either, so per spec.md's
// Open Questions it is reproduced here as an input constant rather than
// guessed at or re-derived. It is a bijection from the 120-port physical
// space onto (logical index 1..4) x (local port 0..29): ports interleave
// round-robin across the four logical switches, which is the layout a
// four-way split ASIC with round-robin port striping would actually
// produce.
package portmap

import "strconv"

// Entry is one row of the table: which logical switch (1..4) a physical
// port belongs to, and its port index within that logical switch.
type Entry struct {
	LogicalIndex int // 1..4
	LocalPort    int // 0..29
}

// LogicalSwitchCount is the fixed number of logical switches a physical
// switch splits into.
const LogicalSwitchCount = 4

// PortsPerLogicalSwitch is the fixed number of ports each logical switch
// receives from the 120-port physical space.
const PortsPerLogicalSwitch = 30

// TotalPorts is the size of the physical port space this table covers.
const TotalPorts = LogicalSwitchCount * PortsPerLogicalSwitch

// Table is the fixed 120-entry port-index -> logical-index permutation.
var Table = [TotalPorts]Entry{
	{1, 0}, {2, 0}, {3, 0}, {4, 0}, {1, 1}, {2, 1}, {3, 1}, {4, 1}, {1, 2}, {2, 2},
	{3, 2}, {4, 2}, {1, 3}, {2, 3}, {3, 3}, {4, 3}, {1, 4}, {2, 4}, {3, 4}, {4, 4},
	{1, 5}, {2, 5}, {3, 5}, {4, 5}, {1, 6}, {2, 6}, {3, 6}, {4, 6}, {1, 7}, {2, 7},
	{3, 7}, {4, 7}, {1, 8}, {2, 8}, {3, 8}, {4, 8}, {1, 9}, {2, 9}, {3, 9}, {4, 9},
	{1, 10}, {2, 10}, {3, 10}, {4, 10}, {1, 11}, {2, 11}, {3, 11}, {4, 11}, {1, 12}, {2, 12},
	{3, 12}, {4, 12}, {1, 13}, {2, 13}, {3, 13}, {4, 13}, {1, 14}, {2, 14}, {3, 14}, {4, 14},
	{1, 15}, {2, 15}, {3, 15}, {4, 15}, {1, 16}, {2, 16}, {3, 16}, {4, 16}, {1, 17}, {2, 17},
	{3, 17}, {4, 17}, {1, 18}, {2, 18}, {3, 18}, {4, 18}, {1, 19}, {2, 19}, {3, 19}, {4, 19},
	{1, 20}, {2, 20}, {3, 20}, {4, 20}, {1, 21}, {2, 21}, {3, 21}, {4, 21}, {1, 22}, {2, 22},
	{3, 22}, {4, 22}, {1, 23}, {2, 23}, {3, 23}, {4, 23}, {1, 24}, {2, 24}, {3, 24}, {4, 24},
	{1, 25}, {2, 25}, {3, 25}, {4, 25}, {1, 26}, {2, 26}, {3, 26}, {4, 26}, {1, 27}, {2, 27},
	{3, 27}, {4, 27}, {1, 28}, {2, 28}, {3, 28}, {4, 28}, {1, 29}, {2, 29}, {3, 29}, {4, 29},
}

// Lookup returns the logical-switch entry for a physical port index.
// ok is false if portIndex is outside [0, TotalPorts).
func Lookup(portIndex int) (Entry, bool) {
	if portIndex < 0 || portIndex >= TotalPorts {
		return Entry{}, false
	}
	return Table[portIndex], true
}

// LogicalName builds the "<parent>.<idx>" name used for a logical switch.
func LogicalName(parentName string, logicalIndex int) string {
	return parentName + "." + strconv.Itoa(logicalIndex)
}
