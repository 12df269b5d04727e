package fabric

import (
	"strconv"
	"strings"
)

// switchTopoID parses a switch's two-token "plane.subnet" topology id
// (spec.md §6).
func switchTopoID(name, raw string) (plane, subnet int, err error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 2 {
		return 0, 0, newBuildErrorf(name, "TopoID", "switch topology id %q must have exactly 2 tokens (plane.subnet)", raw)
	}
	plane, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, newBuildErrorf(name, "TopoID", "invalid plane token %q: %v", parts[0], err)
	}
	subnet, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, newBuildErrorf(name, "TopoID", "invalid subnet token %q: %v", parts[1], err)
	}
	return plane, subnet, nil
}

// nodeTopoID parses an endpoint node's 3-4 token topology id
// "plane.x.y[.subnet]" (spec.md §6). If the subnet token is absent, the
// caller derives it from the node's first GCID's SID instead.
func nodeTopoID(name, raw string) (plane, x, y int, subnet *int, err error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 && len(parts) != 4 {
		return 0, 0, 0, nil, newBuildErrorf(name, "TopoID", "node topology id %q must have 3 or 4 tokens (plane.x.y[.subnet])", raw)
	}

	vals := make([]int, len(parts))
	for i, p := range parts {
		v, convErr := strconv.Atoi(p)
		if convErr != nil {
			return 0, 0, 0, nil, newBuildErrorf(name, "TopoID", "invalid token %q in %q: %v", p, raw, convErr)
		}
		vals[i] = v
	}

	plane, x, y = vals[0], vals[1], vals[2]
	if len(vals) == 4 {
		subnet = &vals[3]
	}
	return plane, x, y, subnet, nil
}
