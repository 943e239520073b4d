// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates a request was rejected at the boundary before any
// state mutation occurred.
var ErrValidation = errors.New("validation failed")

// ErrConfigConflict indicates two active guideline activations disagree on a
// project setting (e.g. clinical phase). It is surfaced to the user and never
// auto-resolved.
var ErrConfigConflict = errors.New("configuration conflict")
