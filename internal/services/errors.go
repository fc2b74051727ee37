package services

import (
	"errors"
	"fmt"
)

// SignatureError means the delivery could not be authenticated. It is
// answered with 400 and never dispatched.
type SignatureError struct {
	Err error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("webhook signature verification failed: %v", e.Err)
}

func (e *SignatureError) Unwrap() error { return e.Err }

// ReferentialError means an entity the event points at does not exist
// locally, e.g. a Stripe customer with no linked user.
type ReferentialError struct {
	Entity string // user
	Field  string // customer
	Value  string
}

func (e *ReferentialError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s reference missing: %s is empty", e.Entity, e.Field)
	}
	return fmt.Sprintf("%s not found for %s %s", e.Entity, e.Field, e.Value)
}

// DataIntegrityError means the payload lacks a field needed to compute
// billing state.
type DataIntegrityError struct {
	ObjectID string
	Field    string
	Detail   string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("invalid %s in %s: %s", e.Field, e.ObjectID, e.Detail)
}

// PersistenceError wraps a failed write to the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ProviderError wraps a failed call to Stripe.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("stripe %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsSignatureError reports whether err is, or wraps, a SignatureError.
func IsSignatureError(err error) bool {
	var sigErr *SignatureError
	return errors.As(err, &sigErr)
}

// ErrorKind names the error class for logs and metrics labels.
func ErrorKind(err error) string {
	var (
		sigErr  *SignatureError
		refErr  *ReferentialError
		dataErr *DataIntegrityError
		perErr  *PersistenceError
		provErr *ProviderError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &sigErr):
		return "signature"
	case errors.As(err, &refErr):
		return "referential"
	case errors.As(err, &dataErr):
		return "data_integrity"
	case errors.As(err, &perErr):
		return "persistence"
	case errors.As(err, &provErr):
		return "provider"
	default:
		return "internal"
	}
}
