package discovery

import "errors"

// Package-level sentinel errors for discovery operations.
var (
	// ErrClosed is not returned by Resolver, which has no Close method.
	ErrClosed = errors.New("discovery: closed")

	// ErrInvalidServiceType is returned for an unrecognized service type.
	ErrInvalidServiceType = errors.New("discovery: invalid service type")

	// ErrServiceNotFound is returned when a requested service instance is
	// not found within the lookup timeout.
	ErrServiceNotFound = errors.New("discovery: service not found")

	// ErrTimeout is returned when a browse or lookup operation times out.
	ErrTimeout = errors.New("discovery: operation timed out")
)
