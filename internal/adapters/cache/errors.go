package cache

import "errors"

// Sentinel kinds for cache errors. None of them escape Client; they travel
// between Client and its Backend only.
var (
	// ErrMiss is returned by Backend.Get when the key is absent or expired.
	ErrMiss = errors.New("cache miss")
	// ErrClosed is returned by a Backend after Close.
	ErrClosed = errors.New("cache backend closed")
)
