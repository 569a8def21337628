/*
Package factory provides JSON to leave-type policy conversion.

PURPOSE:
  Converts JSON leave-type definitions into leave.LeaveType values and full
  catalogs. This keeps policy configuration out of code - HR can define
  types in JSON, the definitions live in the database, and the factory
  rebuilds the catalog at startup.

JSON SCHEMA:
  {
    "code": "SICK",
    "name": "Sick Leave",
    "color": "#e07a5f",
    "min_advance_notice_days": 0,
    "max_consecutive_days": 0,
    "requires_document": true,
    "document_after_days": 3,
    "annual_allocation_days": 10
  }

  document_after_days is only meaningful when requires_document is set: a
  document is then required for requests strictly longer than the threshold
  (0 = always required).

USAGE:
  f := factory.NewCatalogFactory()
  lt, err := f.ParseLeaveType(jsonStr)
  catalog, err := f.ParseCatalog(catalogJSON)

  // Or start from the built-in defaults:
  catalog, err := factory.DefaultCatalog()

SEE ALSO:
  - leave/catalog.go: The runtime registry the factory feeds
  - store/sqlite:     Persists the raw JSON per type
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// LeaveTypeJSON is the JSON representation of a leave-type policy.
type LeaveTypeJSON struct {
	Code                 string  `json:"code"`
	Name                 string  `json:"name"`
	Color                string  `json:"color,omitempty"`
	MinAdvanceNoticeDays int     `json:"min_advance_notice_days"`
	MaxConsecutiveDays   int     `json:"max_consecutive_days"`
	RequiresDocument     bool    `json:"requires_document"`
	DocumentAfterDays    float64 `json:"document_after_days,omitempty"`
	AnnualAllocationDays float64 `json:"annual_allocation_days"`
}

// =============================================================================
// FACTORY
// =============================================================================

type CatalogFactory struct{}

func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// ParseLeaveType converts one JSON definition into a policy.
func (f *CatalogFactory) ParseLeaveType(jsonStr string) (leave.LeaveType, error) {
	var raw LeaveTypeJSON
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return leave.LeaveType{}, fmt.Errorf("invalid leave type JSON: %w", err)
	}
	return f.build(raw)
}

// ParseCatalog converts a JSON array of definitions into a validated catalog.
func (f *CatalogFactory) ParseCatalog(jsonStr string) (*leave.Catalog, error) {
	var raws []LeaveTypeJSON
	if err := json.Unmarshal([]byte(jsonStr), &raws); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}

	types := make([]leave.LeaveType, 0, len(raws))
	for _, raw := range raws {
		lt, err := f.build(raw)
		if err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return leave.NewCatalog(types)
}

func (f *CatalogFactory) build(raw LeaveTypeJSON) (leave.LeaveType, error) {
	if strings.TrimSpace(raw.Code) == "" {
		return leave.LeaveType{}, fmt.Errorf("leave type %q: code is required", raw.Name)
	}
	if strings.TrimSpace(raw.Name) == "" {
		return leave.LeaveType{}, fmt.Errorf("leave type %s: name is required", raw.Code)
	}
	if raw.MinAdvanceNoticeDays < 0 || raw.MaxConsecutiveDays < 0 ||
		raw.DocumentAfterDays < 0 || raw.AnnualAllocationDays < 0 {
		return leave.LeaveType{}, fmt.Errorf("leave type %s: negative values not allowed", raw.Code)
	}

	return leave.LeaveType{
		Code:                 leave.TypeCode(strings.ToUpper(strings.TrimSpace(raw.Code))),
		Name:                 strings.TrimSpace(raw.Name),
		Color:                raw.Color,
		MinAdvanceNoticeDays: raw.MinAdvanceNoticeDays,
		MaxConsecutiveDays:   raw.MaxConsecutiveDays,
		RequiresDocument:     raw.RequiresDocument,
		DocumentAfterDays:    leave.DaysFromFloat(raw.DocumentAfterDays),
		AnnualAllocationDays: leave.DaysFromFloat(raw.AnnualAllocationDays),
	}, nil
}

// MarshalLeaveType renders a policy back to its JSON definition, for
// persisting catalog entries.
func MarshalLeaveType(lt leave.LeaveType) (string, error) {
	raw := LeaveTypeJSON{
		Code:                 string(lt.Code),
		Name:                 lt.Name,
		Color:                lt.Color,
		MinAdvanceNoticeDays: lt.MinAdvanceNoticeDays,
		MaxConsecutiveDays:   lt.MaxConsecutiveDays,
		RequiresDocument:     lt.RequiresDocument,
		DocumentAfterDays:    lt.DocumentAfterDays.Float64(),
		AnnualAllocationDays: lt.AnnualAllocationDays.Float64(),
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// =============================================================================
// DEFAULT CATALOG
// =============================================================================

// DefaultCatalogJSON is the built-in policy set used when the database has
// no leave types yet. The SICK document rule is the canonical
// duration-conditional case: no note needed for short absences, doctor's
// note for anything over 3 days.
const DefaultCatalogJSON = `[
  {
    "code": "ANNUAL",
    "name": "Annual Leave",
    "color": "#4f8a8b",
    "min_advance_notice_days": 7,
    "max_consecutive_days": 15,
    "requires_document": false,
    "annual_allocation_days": 20
  },
  {
    "code": "SICK",
    "name": "Sick Leave",
    "color": "#e07a5f",
    "min_advance_notice_days": 0,
    "max_consecutive_days": 0,
    "requires_document": true,
    "document_after_days": 3,
    "annual_allocation_days": 10
  },
  {
    "code": "CASUAL",
    "name": "Casual Leave",
    "color": "#f2cc8f",
    "min_advance_notice_days": 1,
    "max_consecutive_days": 3,
    "requires_document": false,
    "annual_allocation_days": 7
  },
  {
    "code": "MATERNITY",
    "name": "Maternity Leave",
    "color": "#81b29a",
    "min_advance_notice_days": 30,
    "max_consecutive_days": 0,
    "requires_document": true,
    "document_after_days": 0,
    "annual_allocation_days": 90
  },
  {
    "code": "UNPAID",
    "name": "Unpaid Leave",
    "color": "#9a8c98",
    "min_advance_notice_days": 3,
    "max_consecutive_days": 30,
    "requires_document": false,
    "annual_allocation_days": 30
  }
]`

// DefaultCatalog parses the built-in policy set.
func DefaultCatalog() (*leave.Catalog, error) {
	return NewCatalogFactory().ParseCatalog(DefaultCatalogJSON)
}
