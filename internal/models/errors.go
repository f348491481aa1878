package models

import "errors"

// Domain failures. Callers branch with errors.Is; services wrap these with
// fmt.Errorf("%w: ...") for context.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid pool state")
	ErrPoolExpired         = errors.New("pool expired")
	ErrPoolFull            = errors.New("pool is full")
	ErrAlreadyContributed  = errors.New("already contributed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrValidation          = errors.New("validation failed")
)
