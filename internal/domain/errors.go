// Package domain holds the pure and graph-shaped pieces of the accrual
// engine: error kinds, money formatting, the fee splitter, the referral
// graph, lineage resolution, and the network walker.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is the sentinel the store layer returns from single-row
// lookups that find nothing. Engine packages translate it into the
// appropriate domain Kind for the operation they were performing (an
// unknown-code lookup and an unknown-user lookup are both "not found" at
// the store layer, but distinct rule violations at the domain layer).
var ErrNotFound = errors.New("domain: not found")

// Kind identifies the category of a domain-level failure, per spec.md §7.
// Transport layers use it to pick an HTTP status; engine code inspects it
// only to re-classify a collaborator's error (the accrual engine turns
// unknown_user from the lineage walk into invalid_event).
type Kind string

const (
	KindUnknownUser      Kind = "unknown_user"
	KindUnknownCode      Kind = "unknown_code"
	KindAlreadyReferred  Kind = "already_referred"
	KindSelfReferral     Kind = "self_referral"
	KindCycle            Kind = "cycle"
	KindInvalidEvent     Kind = "invalid_event"
	KindNoBalance        Kind = "no_balance"
	KindNothingToClaim   Kind = "nothing_to_claim"
	KindMisconfigured    Kind = "misconfigured"
	KindConflictRetry    Kind = "conflict_retry"
	KindStoreError       Kind = "store_error"
)

// Error is the single error type surfaced by the core. It never panics on
// expected rule violations; unexpected faults are wrapped as KindStoreError.
type Error struct {
	Kind   Kind
	Detail string
	cause  error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a rule-violation error with no underlying cause.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap builds a store-fault error from an underlying cause.
func Wrap(kind Kind, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Detail: cause.Error(), cause: cause}
}

// Is lets callers write `errors.Is(err, domain.New(domain.KindCycle, ""))`-style
// checks: two *Error values match when their Kinds are equal, whatever their
// details. Most callers instead use errors.As(&domain.Error{}).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
