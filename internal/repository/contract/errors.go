package contract

import "errors"

// ErrDuplicate is returned when a unique key (inbox message id per service,
// subscription id, result set id) is already taken.
var ErrDuplicate = errors.New("duplicate record")

// ErrExpired is returned when a result set is stored with an expiry that has
// already passed.
var ErrExpired = errors.New("result set already expired")
