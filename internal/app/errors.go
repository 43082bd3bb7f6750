package service

import "errors"

var (
	// ErrNotStarted is returned by operations called before Start or after Stop.
	ErrNotStarted = errors.New("service not started")
	// ErrNoStore is returned by Start when no entity store was configured.
	ErrNoStore = errors.New("service has no entity store")
)
