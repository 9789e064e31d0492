package introspect

import (
	"errors"
	"fmt"
)

var (
	ErrCatalogQuery    = errors.New("catalog query failed")
	ErrUnsupportedType = errors.New("unsupported field type")
)

// UnsupportedTypeError reports a RDB$FIELD_TYPE code the type mapper does not know.
type UnsupportedTypeError struct {
	Code int16
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported field type: %d", e.Code)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

func catalogError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCatalogQuery, op, err)
}
