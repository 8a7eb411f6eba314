package domain

import "context"

// DefaultLimitPerLevel bounds how many users a single downline level
// returns when the caller does not specify a limit (spec.md §4.7).
const DefaultLimitPerLevel = 50

// NetworkStore is the narrow collaborator Downline needs.
type NetworkStore interface {
	NetworkLevelUsers(ctx context.Context, referrerIDs []int64, limit int) ([]NetworkUser, error)
}

// Downline implements C7's breadth-first network walk: starting from root,
// expand one level at a time for exactly maxLevels iterations, capping each
// level at limitPerLevel users. Once the frontier is exhausted, remaining
// levels are still appended with an empty Users slice rather than omitted,
// so the result is always maxLevels long (spec.md §4.7).
func Downline(ctx context.Context, store NetworkStore, root int64, maxLevels int, limitPerLevel int) ([]NetworkLevel, error) {
	if limitPerLevel <= 0 {
		limitPerLevel = DefaultLimitPerLevel
	}

	levels := make([]NetworkLevel, 0, maxLevels)
	frontier := []int64{root}

	for depth := 1; depth <= maxLevels; depth++ {
		if len(frontier) == 0 {
			levels = append(levels, NetworkLevel{Level: depth, Users: nil})
			continue
		}

		users, err := store.NetworkLevelUsers(ctx, frontier, limitPerLevel)
		if err != nil {
			return nil, Wrap(KindStoreError, err)
		}

		levels = append(levels, NetworkLevel{Level: depth, Users: users})

		next := make([]int64, len(users))
		for i, u := range users {
			next[i] = u.UserID
		}
		frontier = next
	}

	return levels, nil
}
