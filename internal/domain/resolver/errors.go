package resolver

import "errors"

// ErrNoStore is returned when a Resolver is used without an entity store.
var ErrNoStore = errors.New("resolver has no entity store")
