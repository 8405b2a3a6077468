package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated,
	// e.g. opening an order for an existing tid or recording a second
	// payment for the same provider order id.
	ErrDuplicate = errors.New("entity already exists")
)
