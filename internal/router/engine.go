package router

import (
	"fmt"

	"github.com/memfabric/frouter/internal/ferrors"
)

// NewEngine builds the Engine for a named algorithm (spec.md §4.2,
// §9 "closed-set tagged variant" design note: the source's dynamic module
// loading becomes this closed switch instead of a filesystem lookup).
func NewEngine(algorithm string, params Parameters, vcMap []VCEntry) (*Engine, error) {
	switch algorithm {
	case "DOR":
		return newEngine(newDORRuleset(params), params, vcMap), nil
	case "DOAL":
		return newEngine(newDOALRuleset(params), params, vcMap), nil
	case "VDAL":
		return newEngine(newVDALRuleset(params), params, vcMap), nil
	default:
		return nil, ferrors.NewConfigError("Routing", "Parameters.Algorithm", fmt.Sprintf("unknown algorithm %q", algorithm))
	}
}
