package fabric

import (
	"sort"

	"github.com/memfabric/frouter/internal/portmap"
)

func portmapLogicalName(base string, index int) string {
	return portmap.LogicalName(base, index)
}

func sortInts(s []int) {
	sort.Ints(s)
}

func sortUint32s(s []uint32) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}

func sortStrings(s []string) {
	sort.Strings(s)
}
