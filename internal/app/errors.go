package service

import "errors"

// ErrInvalidRequest marks input the service refuses before touching any state.
var ErrInvalidRequest = errors.New("invalid request")
