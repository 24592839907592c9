package domain

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription request not found")
	ErrAlreadyCancelled     = errors.New("subscription already cancelled")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrStatusConflict       = errors.New("subscription status changed concurrently")
	ErrInvalidCustomerID    = errors.New("customer ID cannot be empty")
	ErrInvalidDuration      = errors.New("duration must be a positive number of days")
	ErrNoSelections         = errors.New("subscription must include at least one meal selection")
)
