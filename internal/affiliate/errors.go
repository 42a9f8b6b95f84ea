package affiliate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotImplemented marks a capability a network does not offer (merchant
// discovery, vouchers, offers). Adapters return it wrapped so callers can
// branch with errors.Is instead of mistaking the gap for zero results.
var ErrNotImplemented = errors.New("not implemented")

// UnmappedStatusError reports a raw status code absent from a network's
// status table. It aborts the whole batch: a partially-classified
// transaction set would misclassify revenue.
type UnmappedStatusError struct {
	Network string
	Code    string
}

func (e *UnmappedStatusError) Error() string {
	return fmt.Sprintf("%s: unmapped transaction status %q", e.Network, e.Code)
}

// FieldMapError reports a field-mapping table that does not cover every
// canonical field a normalizer needs. Raised at construction time so
// schema drift fails before any record is read.
type FieldMapError struct {
	Network string
	Missing []Field
}

func (e *FieldMapError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s: field map missing %s", e.Network, strings.Join(names, ", "))
}
