package domain

import (
	"context"
	"errors"
)

// DefaultMaxLevels is the lineage vector length the accrual engine uses
// (spec.md §4.3).
const DefaultMaxLevels = 3

// LineageStore is the narrow collaborator ResolveLineage needs.
type LineageStore interface {
	GetReferrerID(ctx context.Context, userID int64) (*int64, error)
}

// ResolveLineage walks referrer_id up to maxLevels times starting from
// trader, returning a fixed-length vector with absent positions left nil
// (spec.md §4.3: "The result length is always N — padding with absent is
// part of the contract").
func ResolveLineage(ctx context.Context, store LineageStore, trader int64, maxLevels int) (Lineage, error) {
	var lineage Lineage
	current := trader

	for i := 0; i < maxLevels && i < len(lineage); i++ {
		parent, err := store.GetReferrerID(ctx, current)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return lineage, New(KindUnknownUser, "trader not found while resolving lineage")
			}
			return lineage, Wrap(KindStoreError, err)
		}
		if parent == nil {
			break
		}
		id := *parent
		lineage[i] = &id
		current = id
	}

	return lineage, nil
}
