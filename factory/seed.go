package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/leave-engine/leave"
)

// LoadOrSeed builds the runtime catalog from the store's persisted leave
// types. An empty store is seeded with the built-in defaults first, so a
// fresh database comes up with a working policy set.
func LoadOrSeed(ctx context.Context, store leave.CatalogStore) (*leave.Catalog, error) {
	f := NewCatalogFactory()

	recs, err := store.ListLeaveTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leave types: %w", err)
	}

	if len(recs) == 0 {
		catalog, err := f.ParseCatalog(DefaultCatalogJSON)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		for _, lt := range catalog.List() {
			cfg, err := MarshalLeaveType(lt)
			if err != nil {
				return nil, err
			}
			rec := leave.LeaveTypeRecord{
				Code:       string(lt.Code),
				Name:       lt.Name,
				ConfigJSON: cfg,
				CreatedAt:  now,
			}
			if err := store.SaveLeaveType(ctx, rec); err != nil {
				return nil, fmt.Errorf("seed leave type %s: %w", lt.Code, err)
			}
		}
		return catalog, nil
	}

	types := make([]leave.LeaveType, 0, len(recs))
	for _, rec := range recs {
		lt, err := f.ParseLeaveType(rec.ConfigJSON)
		if err != nil {
			return nil, fmt.Errorf("leave type %s: %w", rec.Code, err)
		}
		types = append(types, lt)
	}
	return leave.NewCatalog(types)
}
