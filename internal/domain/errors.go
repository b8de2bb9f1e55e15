package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidSide         = errors.New("invalid side")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrRateLimited         = errors.New("rate limited")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrLockHeld            = errors.New("lock already held")
	ErrWalletDisconnected  = errors.New("wallet not connected")
)
