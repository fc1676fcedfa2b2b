package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors gate operations before any side effect is attempted.
var (
	ErrWalletNotConnected  = errors.New("wallet not connected")
	ErrSellerWalletMissing = errors.New("seller has not connected a wallet")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientTons    = errors.New("requested amount exceeds available tons")
)

// ValidationError reports bad user input, caught before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// AuthError reports an identity provider rejection.
type AuthError struct {
	Reason string
	Cause  error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Cause }

// InvalidKeyError means a private key string matched none of the
// supported encodings.
type InvalidKeyError struct {
	Tried []string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("private key matched none of %d supported encodings", len(e.Tried))
}

// LedgerError wraps a failure from the ledger network or SDK. The cause
// is preserved opaquely for diagnostics.
type LedgerError struct {
	Op    string
	Cause error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Cause)
}

func (e *LedgerError) Unwrap() error { return e.Cause }

// BackingStoreError wraps a generic CRUD failure against the database
// or the key-value store.
type BackingStoreError struct {
	Op    string
	Cause error
}

func (e *BackingStoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *BackingStoreError) Unwrap() error { return e.Cause }

// IsValidation reports whether err is a user-input validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
