package domain

import "errors"

var (
	// ErrInvalidAmount is returned when a recharge amount is not positive.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientBalance is returned when a debit exceeds the card balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNotFound is returned by stores for an unknown account, route,
	// vehicle, driver or user.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique field (username, email, plate,
	// cpf, cnh, driver code) is already taken.
	ErrDuplicate = errors.New("already exists")

	// ErrValidation wraps malformed caller input.
	ErrValidation = errors.New("validation failed")
)
