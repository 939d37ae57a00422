package account

import "errors"

var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrWeakPassword        = errors.New("password must be at least 8 characters and include a letter and a digit")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrInvalidWorkSchedule = errors.New("invalid work schedule")
	ErrDuplicateEmail      = errors.New("an account with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrAccountNotFound     = errors.New("account not found")
	ErrForbidden           = errors.New("only providers may perform this action")
)
