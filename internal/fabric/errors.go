package fabric

import (
	"fmt"

	"github.com/memfabric/frouter/internal/ferrors"
)

func newBuildErrorf(entity, field, format string, args ...interface{}) error {
	return ferrors.NewConfigError(entity, field, fmt.Sprintf(format, args...))
}
