package lib

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Database errors
var (
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
)

// Checkout errors
var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrProductNotFound = errors.New("product not found")
	ErrCheckoutFailed  = errors.New("checkout failed")
)

// Auth errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
	ErrSessionIdle  = errors.New("session expired due to inactivity")
	ErrAuthRequired = errors.New("sign in to add items to your cart")
)

// SQLSTATE codes raised by our own SQL functions.
const (
	SQLStateEmptyCart       = "YS001"
	SQLStateProductNotFound = "YS002"
)

// ConstraintError carries a human message for a blocked write, e.g. deleting a referenced row.
type ConstraintError struct {
	Entity  string
	Message string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Message)
}

func (e *ConstraintError) Unwrap() error {
	return ErrConstraintViolation
}

func NewConstraintError(entity, message string) *ConstraintError {
	return &ConstraintError{Entity: entity, Message: message}
}

// SQLState extracts the SQLSTATE code from either postgres driver's error type.
func SQLState(err error) string {
	var pgdErr pgdriver.Error
	if errors.As(err, &pgdErr) {
		return pgdErr.Field('C')
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	return ""
}

func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	switch SQLState(err) {
	case "23505": // unique_violation
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	case "P0002": // no_data_found
		return ErrNotFound
	case SQLStateEmptyCart:
		return ErrEmptyCart
	case SQLStateProductNotFound:
		return ErrProductNotFound
	}
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}

// UserMessage returns the message safe to show to the caller.
func UserMessage(err error) string {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	switch {
	case errors.Is(err, ErrEmptyCart):
		return ErrEmptyCart.Error()
	case errors.Is(err, ErrProductNotFound):
		return ErrProductNotFound.Error()
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrConflict):
		return "already exists"
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrExpiredToken), errors.Is(err, ErrSessionIdle):
		return ErrUnauthorized.Error()
	}
	return "internal error"
}
