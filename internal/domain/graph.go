package domain

import (
	"context"
	"errors"
)

// maxWalkDepth bounds the ancestor walk performed by AssignReferrer as a
// belt-and-braces measure; the forest invariant already bounds it to the
// tree's depth (spec.md §9).
const maxWalkDepth = 64

// GraphStore is the narrow collaborator AssignReferrer and
// GetOrAssignReferralCode need from the repository layer (C8). Callers
// bind it to a transaction-scoped *store.Repository so the whole
// operation runs inside one transaction (spec.md §4.2).
type GraphStore interface {
	GetUserByReferralCode(ctx context.Context, code string) (*User, error)
	GetReferrerIDForUpdate(ctx context.Context, userID int64) (*int64, error)
	SetReferrerID(ctx context.Context, childID, parentID int64) error
	GetOrAssignReferralCode(ctx context.Context, userID int64) (string, error)
}

// AssignReferrer implements C2's assign_referrer operation. The caller
// must invoke this inside a single transaction against a GraphStore bound
// to that transaction; on any returned error the caller must roll back.
func AssignReferrer(ctx context.Context, store GraphStore, childID int64, code string) (parentID int64, err error) {
	parent, err := store.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, New(KindUnknownCode, "no user found with that referral code")
		}
		return 0, Wrap(KindStoreError, err)
	}
	parentID = parent.ID

	if parentID == childID {
		return 0, New(KindSelfReferral, "a user cannot refer themselves")
	}

	existingReferrer, err := store.GetReferrerIDForUpdate(ctx, childID)
	if err != nil {
		return 0, Wrap(KindStoreError, err)
	}
	if existingReferrer != nil {
		return 0, New(KindAlreadyReferred, "child already has a referrer")
	}

	// Walk ancestors of parent; the forest invariant guarantees this can
	// only terminate at a root or revisit childID — any other revisit
	// would mean the invariant was already broken.
	current := parentID
	for depth := 0; depth < maxWalkDepth; depth++ {
		next, err := store.GetReferrerIDForUpdate(ctx, current)
		if err != nil {
			return 0, Wrap(KindStoreError, err)
		}
		if next == nil {
			break
		}
		if *next == childID {
			return 0, New(KindCycle, "assigning this referrer would create a cycle")
		}
		current = *next
	}

	if err := store.SetReferrerID(ctx, childID, parentID); err != nil {
		return 0, Wrap(KindStoreError, err)
	}

	return parentID, nil
}

// GetOrAssignReferralCode implements the other half of C2: return a
// user's existing code, or mint and persist a fresh one.
func GetOrAssignReferralCode(ctx context.Context, store GraphStore, userID int64) (string, error) {
	code, err := store.GetOrAssignReferralCode(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", New(KindUnknownUser, "user not found")
		}
		return "", Wrap(KindStoreError, err)
	}
	return code, nil
}
