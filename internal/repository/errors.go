package repository

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrJobAlreadyPaid is returned when the guarded paid update matches no
	// unpaid row.
	ErrJobAlreadyPaid = errors.New("job already paid")
)
