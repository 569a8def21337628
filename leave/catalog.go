package leave

import (
	"fmt"
	"strings"
)

// =============================================================================
// CATALOG - Immutable leave-type registry
// =============================================================================

// Catalog is the read-only registry of leave-type policies. It is built once
// at startup (from the factory or the store) and never mutated afterwards,
// so concurrent reads need no locking.
type Catalog struct {
	types map[TypeCode]LeaveType
	order []TypeCode
}

// NewCatalog builds a catalog, validating each policy. Codes must be unique
// and non-empty; numeric fields must be non-negative.
func NewCatalog(types []LeaveType) (*Catalog, error) {
	c := &Catalog{types: make(map[TypeCode]LeaveType, len(types))}
	for _, lt := range types {
		if strings.TrimSpace(string(lt.Code)) == "" {
			return nil, fmt.Errorf("leave type %q: empty code", lt.Name)
		}
		if _, dup := c.types[lt.Code]; dup {
			return nil, fmt.Errorf("leave type %s: duplicate code", lt.Code)
		}
		if lt.MinAdvanceNoticeDays < 0 {
			return nil, fmt.Errorf("leave type %s: negative advance notice", lt.Code)
		}
		if lt.MaxConsecutiveDays < 0 {
			return nil, fmt.Errorf("leave type %s: negative consecutive-day cap", lt.Code)
		}
		if lt.DocumentAfterDays.IsNegative() {
			return nil, fmt.Errorf("leave type %s: negative document threshold", lt.Code)
		}
		if lt.AnnualAllocationDays.IsNegative() {
			return nil, fmt.Errorf("leave type %s: negative annual allocation", lt.Code)
		}
		c.types[lt.Code] = lt
		c.order = append(c.order, lt.Code)
	}
	return c, nil
}

// Get returns the policy for code.
func (c *Catalog) Get(code TypeCode) (LeaveType, bool) {
	lt, ok := c.types[code]
	return lt, ok
}

// List returns all policies in registration order.
func (c *Catalog) List() []LeaveType {
	out := make([]LeaveType, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.types[code])
	}
	return out
}

// Len returns the number of registered policies.
func (c *Catalog) Len() int { return len(c.order) }
