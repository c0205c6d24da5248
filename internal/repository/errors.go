// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrOverlap signals that a proposed task collides with an
// existing scheduled task on the same day, while ErrNotFound covers
// both missing rows and rows owned by a different account so that
// handlers never reveal the existence of someone else's data.
package repository

import "errors"

// ErrNotFound is returned when a row does not exist or belongs to a
// different account. Handlers should translate this into an HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrOverlap is returned when a task's proposed [start, start+duration)
// interval intersects another scheduled task of the same account on
// the same date. Handlers should translate this into an HTTP 409.
var ErrOverlap = errors.New("task overlaps an existing task")

// ErrEmailExists is returned when signup is attempted with an email
// address that is already registered.
var ErrEmailExists = errors.New("email already exists")
