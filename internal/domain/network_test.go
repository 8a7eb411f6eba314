package domain

import (
	"context"
	"testing"
	"time"
)

type fakeNetworkStore struct {
	childrenOf map[int64][]NetworkUser
}

func (f *fakeNetworkStore) NetworkLevelUsers(ctx context.Context, referrerIDs []int64, limit int) ([]NetworkUser, error) {
	var out []NetworkUser
	for _, id := range referrerIDs {
		children := f.childrenOf[id]
		if len(children) > limit {
			children = children[:limit]
		}
		out = append(out, children...)
	}
	return out, nil
}

func TestDownline(t *testing.T) {
	now := time.Unix(0, 0)
	store := &fakeNetworkStore{
		childrenOf: map[int64][]NetworkUser{
			1: {{UserID: 2, Username: "b", JoinedAt: now}, {UserID: 3, Username: "c", JoinedAt: now}},
			2: {{UserID: 4, Username: "d", JoinedAt: now}},
			3: {},
		},
	}

	levels, err := Downline(context.Background(), store, 1, 3, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("got %d levels, want 3 (always maxLevels long)", len(levels))
	}
	if len(levels[0].Users) != 2 {
		t.Errorf("level 1 has %d users, want 2", len(levels[0].Users))
	}
	if len(levels[1].Users) != 1 {
		t.Errorf("level 2 has %d users, want 1", len(levels[1].Users))
	}
	if len(levels[2].Users) != 0 {
		t.Errorf("level 3 has %d users, want 0 (exhausted frontier, still present)", len(levels[2].Users))
	}
}

func TestDownlineEmptyRoot(t *testing.T) {
	store := &fakeNetworkStore{childrenOf: map[int64][]NetworkUser{}}

	levels, err := Downline(context.Background(), store, 1, 3, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("got %d levels, want 3 (always maxLevels long)", len(levels))
	}
	for i, level := range levels {
		if len(level.Users) != 0 {
			t.Errorf("level %d has %d users, want 0", i+1, len(level.Users))
		}
	}
}
