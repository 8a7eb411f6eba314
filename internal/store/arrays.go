package store

import "github.com/lib/pq"

// pqStringArray and pqInt64Array adapt Go slices to the Postgres array
// literal lib/pq expects for = ANY($n) predicates.
func pqStringArray(s []string) any { return pq.Array(s) }
func pqInt64Array(s []int64) any   { return pq.Array(s) }
