package domain

import (
	"context"
	"errors"
	"testing"
)

// fakeGraphStore is an in-memory GraphStore used to test AssignReferrer's
// rule logic without a database.
type fakeGraphStore struct {
	users      map[int64]*User
	byCode     map[string]int64
	referrerOf map[int64]int64
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{
		users:      make(map[int64]*User),
		byCode:     make(map[string]int64),
		referrerOf: make(map[int64]int64),
	}
}

func (f *fakeGraphStore) addUser(id int64, code string) {
	f.users[id] = &User{ID: id, ReferralCode: code}
	f.byCode[code] = id
}

func (f *fakeGraphStore) GetUserByReferralCode(ctx context.Context, code string) (*User, error) {
	id, ok := f.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return f.users[id], nil
}

func (f *fakeGraphStore) GetReferrerIDForUpdate(ctx context.Context, userID int64) (*int64, error) {
	parent, ok := f.referrerOf[userID]
	if !ok {
		return nil, nil
	}
	return &parent, nil
}

func (f *fakeGraphStore) SetReferrerID(ctx context.Context, childID, parentID int64) error {
	f.referrerOf[childID] = parentID
	return nil
}

func (f *fakeGraphStore) GetOrAssignReferralCode(ctx context.Context, userID int64) (string, error) {
	user, ok := f.users[userID]
	if !ok {
		return "", ErrNotFound
	}
	return user.ReferralCode, nil
}

func TestAssignReferrer(t *testing.T) {
	t.Run("links child to parent", func(t *testing.T) {
		store := newFakeGraphStore()
		store.addUser(1, "REF_AAAAAAAA")
		store.addUser(2, "REF_BBBBBBBB")

		parentID, err := AssignReferrer(context.Background(), store, 2, "REF_AAAAAAAA")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parentID != 1 {
			t.Errorf("parentID = %d, want 1", parentID)
		}
		if store.referrerOf[2] != 1 {
			t.Errorf("referrer not persisted")
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		store := newFakeGraphStore()
		store.addUser(2, "REF_BBBBBBBB")

		_, err := AssignReferrer(context.Background(), store, 2, "REF_NOPE0000")
		assertKind(t, err, KindUnknownCode)
	})

	t.Run("self referral rejected", func(t *testing.T) {
		store := newFakeGraphStore()
		store.addUser(1, "REF_AAAAAAAA")

		_, err := AssignReferrer(context.Background(), store, 1, "REF_AAAAAAAA")
		assertKind(t, err, KindSelfReferral)
	})

	t.Run("no overwrite", func(t *testing.T) {
		store := newFakeGraphStore()
		store.addUser(1, "REF_AAAAAAAA")
		store.addUser(2, "REF_BBBBBBBB")
		store.addUser(3, "REF_CCCCCCCC")
		store.referrerOf[2] = 1

		_, err := AssignReferrer(context.Background(), store, 2, "REF_CCCCCCCC")
		assertKind(t, err, KindAlreadyReferred)
	})

	t.Run("cycle rejected", func(t *testing.T) {
		store := newFakeGraphStore()
		store.addUser(1, "REF_AAAAAAAA")
		store.addUser(2, "REF_BBBBBBBB")
		store.addUser(3, "REF_CCCCCCCC")
		// A -> B -> C
		store.referrerOf[2] = 1
		store.referrerOf[3] = 2

		_, err := AssignReferrer(context.Background(), store, 1, "REF_CCCCCCCC")
		assertKind(t, err, KindCycle)

		if _, ok := store.referrerOf[1]; ok {
			t.Errorf("graph changed after rejected cycle")
		}
	})

	t.Run("store fault is not misreported as unknown_code", func(t *testing.T) {
		store := &failingGraphStore{err: errors.New("connection reset")}
		_, err := AssignReferrer(context.Background(), store, 2, "REF_AAAAAAAA")
		assertKind(t, err, KindStoreError)
	})
}

func TestGetOrAssignReferralCode(t *testing.T) {
	t.Run("returns existing code", func(t *testing.T) {
		store := newFakeGraphStore()
		store.addUser(1, "REF_AAAAAAAA")

		code, err := GetOrAssignReferralCode(context.Background(), store, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if code != "REF_AAAAAAAA" {
			t.Errorf("code = %q, want REF_AAAAAAAA", code)
		}
	})

	t.Run("unknown user maps to KindUnknownUser, not store_error", func(t *testing.T) {
		store := newFakeGraphStore()

		_, err := GetOrAssignReferralCode(context.Background(), store, 404)
		assertKind(t, err, KindUnknownUser)
	})

	t.Run("store fault still reported as store_error", func(t *testing.T) {
		store := &failingGraphStore{err: errors.New("connection reset")}

		_, err := GetOrAssignReferralCode(context.Background(), store, 1)
		assertKind(t, err, KindStoreError)
	})
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	var derr *Error
	if !errors.As(err, &derr) {
		t.Fatalf("error is not a *domain.Error: %v", err)
	}
	if derr.Kind != want {
		t.Errorf("kind = %s, want %s", derr.Kind, want)
	}
}

// failingGraphStore always returns a non-ErrNotFound error, simulating a
// transient store fault on the very first call.
type failingGraphStore struct{ err error }

func (f *failingGraphStore) GetUserByReferralCode(ctx context.Context, code string) (*User, error) {
	return nil, f.err
}
func (f *failingGraphStore) GetReferrerIDForUpdate(ctx context.Context, userID int64) (*int64, error) {
	return nil, f.err
}
func (f *failingGraphStore) SetReferrerID(ctx context.Context, childID, parentID int64) error {
	return f.err
}
func (f *failingGraphStore) GetOrAssignReferralCode(ctx context.Context, userID int64) (string, error) {
	return "", f.err
}
