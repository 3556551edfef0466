package store

import "errors"

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrSlotUnavailable     = errors.New("slot unavailable")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrNotBookingOwner     = errors.New("not booking owner")
	ErrAlreadyCancelled    = errors.New("booking already cancelled")
	ErrBookingNotCancelled = errors.New("booking not cancelled")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
)
