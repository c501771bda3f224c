package domain

import "errors"

var (
	ErrEmptyName              = errors.New("name is required")
	ErrInvalidWalletType      = errors.New("invalid wallet type")
	ErrMissingWallet          = errors.New("wallet is required")
	ErrMissingCategory        = errors.New("category is required")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInvalidTransactionType = errors.New("type must be Income or Expense")
	ErrInvalidDate            = errors.New("date must be formatted YYYY-MM-DD")
	ErrEmptyUsername          = errors.New("username is required")
	ErrInvalidUsername        = errors.New("username must be 3-32 characters of a-z, 0-9, '_', '.' or '-'")
	ErrEmptyFullName          = errors.New("full name is required")
	ErrInvalidPassword        = errors.New("password must be 6-72 characters")
	ErrUsernameTaken          = errors.New("username already exists")
	ErrUnknownWallet          = errors.New("wallet does not exist")
	ErrUnknownCategory        = errors.New("category does not exist")
)

// ValidationError is returned when input is rejected before any write happens
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError
func Invalid(err error) error {
	return &ValidationError{Err: err}
}

// IsValidation reports whether err was caused by rejected input
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
