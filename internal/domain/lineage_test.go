package domain

import (
	"context"
	"testing"
)

type fakeLineageStore struct {
	referrerOf map[int64]int64
}

func (f *fakeLineageStore) GetReferrerID(ctx context.Context, userID int64) (*int64, error) {
	parent, ok := f.referrerOf[userID]
	if !ok {
		return nil, nil
	}
	return &parent, nil
}

func TestResolveLineage(t *testing.T) {
	t.Run("full lineage", func(t *testing.T) {
		// A(1) -> B(2) -> C(3) -> D(4), D is trader
		store := &fakeLineageStore{referrerOf: map[int64]int64{2: 1, 3: 2, 4: 3}}

		lineage, err := ResolveLineage(context.Background(), store, 4, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []int64{3, 2, 1}
		for i, w := range want {
			if lineage[i] == nil || *lineage[i] != w {
				t.Errorf("lineage[%d] = %v, want %d", i, lineage[i], w)
			}
		}
	})

	t.Run("partial lineage padded with absent", func(t *testing.T) {
		// A(1) -> B(2), B is trader
		store := &fakeLineageStore{referrerOf: map[int64]int64{2: 1}}

		lineage, err := ResolveLineage(context.Background(), store, 2, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lineage[0] == nil || *lineage[0] != 1 {
			t.Errorf("lineage[0] = %v, want 1", lineage[0])
		}
		if lineage[1] != nil || lineage[2] != nil {
			t.Errorf("expected positions past the root to be absent: %v", lineage)
		}
	})

	t.Run("no referrer at all", func(t *testing.T) {
		store := &fakeLineageStore{referrerOf: map[int64]int64{}}

		lineage, err := ResolveLineage(context.Background(), store, 1, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range lineage {
			if lineage[i] != nil {
				t.Errorf("lineage[%d] = %v, want nil", i, lineage[i])
			}
		}
	})
}
