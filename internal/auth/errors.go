package auth

import (
	"errors"
	"time"
)

// ErrInvalidCredentials never says which field was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type ErrRateLimited struct {
	Until time.Time
}

func (e ErrRateLimited) Error() string {
	return "login temporarily locked"
}
