package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies expected business-rule failures. Every kernel
// operation surfaces failures as an *Error carrying one of these kinds;
// panics are reserved for internal invariant violations.
type ErrorKind string

// Canonical error kinds.
const (
	// KindValidation indicates bad input shape or range.
	KindValidation ErrorKind = "validation"
	// KindNotFound indicates a missing organization, product, lot, unit, or event.
	KindNotFound ErrorKind = "not_found"
	// KindInsufficientInventory indicates the requested quantity exceeds available stock.
	KindInsufficientInventory ErrorKind = "insufficient_inventory"
	// KindForbidden indicates the actor is not permitted for the organization or action.
	KindForbidden ErrorKind = "forbidden"
	// KindTimeWindowExceeded indicates the 24h recall window has expired.
	KindTimeWindowExceeded ErrorKind = "time_window_exceeded"
	// KindAlreadyReversed indicates a double recall or return attempt.
	KindAlreadyReversed ErrorKind = "already_reversed"
	// KindOwnershipViolation indicates units are no longer owned by the requester.
	KindOwnershipViolation ErrorKind = "ownership_violation"
	// KindConflict indicates concurrent modification detected by the store; safe to retry once.
	KindConflict ErrorKind = "conflict"
)

// Error is the typed failure returned by kernel operations. Details carries
// actionable values (available quantity, recall deadline) for display.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError constructs an Error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewValidation constructs a validation error.
func NewValidation(format string, args ...any) *Error {
	return NewError(KindValidation, format, args...)
}

// NewNotFound constructs a not-found error for the given entity reference.
func NewNotFound(entity EntityType, id string) *Error {
	return NewError(KindNotFound, "%s %q not found", entity, id)
}

// NewForbidden constructs a forbidden error.
func NewForbidden(format string, args ...any) *Error {
	return NewError(KindForbidden, format, args...)
}

// NewInsufficientInventory reports that fewer units are available than
// requested. The payload carries both figures so callers can display the
// actionable quantity.
func NewInsufficientInventory(productID string, requested, available int) *Error {
	err := NewError(KindInsufficientInventory,
		"product %s: requested %d units, %d available", productID, requested, available)
	err.Details = map[string]any{
		"product_id": productID,
		"requested":  requested,
		"available":  available,
	}
	return err
}

// NewTimeWindowExceeded reports that the recall window closed at deadline.
func NewTimeWindowExceeded(deadline time.Time) *Error {
	err := NewError(KindTimeWindowExceeded,
		"recall window closed at %s", deadline.UTC().Format(time.RFC3339))
	err.Details = map[string]any{"deadline": deadline.UTC()}
	return err
}

// NewAlreadyReversed reports a duplicate recall or return attempt.
func NewAlreadyReversed(entity EntityType, id string) *Error {
	return NewError(KindAlreadyReversed, "%s %q already reversed", entity, id)
}

// NewOwnershipViolation reports that the requester no longer owns the units.
func NewOwnershipViolation(format string, args ...any) *Error {
	return NewError(KindOwnershipViolation, format, args...)
}

// NewConflict reports a concurrent-modification failure that is safe to retry.
func NewConflict(format string, args ...any) *Error {
	return NewError(KindConflict, format, args...)
}

// KindOf extracts the ErrorKind from err, or "" when err is not a domain Error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a domain Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
