package security

import (
	"fmt"
)

// TokenError represents errors related to token operations
type TokenError struct {
	Operation string
	Message   string
	Err       error
}

func NewTokenError(operation, message string) *TokenError {
	return &TokenError{
		Operation: operation,
		Message:   message,
	}
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("token %s failed: %s", e.Operation, e.Message)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

func (e *TokenError) WithCause(err error) *TokenError {
	e.Err = err
	return e
}

// CryptoError represents errors from sealing or opening the token cache
type CryptoError struct {
	Operation string
	Message   string
	Err       error
}

func NewCryptoError(operation, message string) *CryptoError {
	return &CryptoError{
		Operation: operation,
		Message:   message,
	}
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto %s failed: %s", e.Operation, e.Message)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

func (e *CryptoError) WithCause(err error) *CryptoError {
	e.Err = err
	return e
}
