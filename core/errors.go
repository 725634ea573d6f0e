package core

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ForbiddenError denies an operation to the acting user. Reason says what
// was missing (ownership, role or capability) so callers can render it.
type ForbiddenError struct {
	Reason string
}

func NewForbiddenError(format string, args ...interface{}) error {
	return &ForbiddenError{Reason: fmt.Sprintf(format, args...)}
}

func (err ForbiddenError) Error() string { return "permission denied: " + err.Reason }

func IsForbidden(err error) bool {
	_, ok := errors.Cause(err).(*ForbiddenError)
	return ok
}

// InvalidTransitionError signals an event that is not defined for the
// entity's current state.
type InvalidTransitionError struct {
	State string
	Event string
}

func NewInvalidTransitionError(state, event string) error {
	return &InvalidTransitionError{State: state, Event: event}
}

func (err InvalidTransitionError) Error() string {
	return fmt.Sprintf("event %q is not allowed in state %q", err.Event, err.State)
}

func IsInvalidTransition(err error) bool {
	_, ok := errors.Cause(err).(*InvalidTransitionError)
	return ok
}

// GuardFailedError signals an event-specific precondition that was not met
// (e.g. an empty activity set, or a missing review comment).
type GuardFailedError struct {
	Event  string
	Reason string
}

func NewGuardFailedError(event, reason string) error {
	return &GuardFailedError{Event: event, Reason: reason}
}

func (err GuardFailedError) Error() string {
	return fmt.Sprintf("cannot %s: %s", err.Event, err.Reason)
}

func IsGuardFailed(err error) bool {
	_, ok := errors.Cause(err).(*GuardFailedError)
	return ok
}

// MutationWindowClosedError denies a write because the governing deadline
// for the entity's period has passed.
type MutationWindowClosedError struct {
	PeriodID int
	Category string
	DueDate  time.Time
}

func NewMutationWindowClosedError(periodID int, category string, dueDate time.Time) error {
	return &MutationWindowClosedError{PeriodID: periodID, Category: category, DueDate: dueDate}
}

func (err MutationWindowClosedError) Error() string {
	return fmt.Sprintf("the %s window for period %d closed on %s",
		err.Category, err.PeriodID, err.DueDate.Format("2006-01-02"))
}

func IsMutationWindowClosed(err error) bool {
	_, ok := errors.Cause(err).(*MutationWindowClosedError)
	return ok
}

// ConcurrentModificationError signals a lost optimistic-concurrency race:
// the entity changed between the caller's read and its write. Callers should
// reload and retry.
type ConcurrentModificationError struct {
	Entity string
	ID     int
}

func NewConcurrentModificationError(entity string, id int) error {
	return &ConcurrentModificationError{Entity: entity, ID: id}
}

func (err ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s %d was modified concurrently; reload and retry", err.Entity, err.ID)
}

func IsConcurrentModification(err error) bool {
	_, ok := errors.Cause(err).(*ConcurrentModificationError)
	return ok
}

type shutdown struct {
	message string
}

// NewShutdownError flags a fatal infrastructure failure; the server shuts
// down gracefully when it surfaces.
func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
