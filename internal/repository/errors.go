// Package repository defines the data access layer over MySQL along
// with error types reused across repositories.  These sentinel
// values let handlers distinguish failure scenarios: ErrForbidden
// means the caller does not own the resource, ErrConflict signals
// conflicting state (e.g. claiming an order someone else already
// claimed, or booking a unit that is held), and ErrUnavailable marks
// a unit that cannot be booked for the requested date.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on
// a resource they do not own.  Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because
// of conflicting state, such as claiming an already-claimed order.
// Handlers translate it into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrUnavailable is returned when a unit is held or already booked
// for the requested date.  Handlers translate it into HTTP 409 with
// a unit-specific message.
var ErrUnavailable = errors.New("unit unavailable")
