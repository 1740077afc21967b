// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/catalog-backend/internal/utils"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrProductNotFound    = fmt.Errorf("product: %w", ErrNotFound)
	ErrCategoryNotFound   = fmt.Errorf("category: %w", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("user: %w", ErrNotFound)
	ErrForbidden          = errors.New("not allowed to modify this resource")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError is returned for any client input the services reject.
// Nothing has been written when it is returned.
type ValidationError struct {
	Message string
	Fields  []utils.ValidationError
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func validationFromStruct(err error) error {
	fields := utils.GetValidationErrors(err)
	if len(fields) == 0 {
		return fmt.Errorf("validation failed: %w", err)
	}
	return &ValidationError{Message: fields[0].Message, Fields: fields}
}

// ConflictError reports a uniqueness violation. It matches ErrConflict with
// errors.Is.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func newConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// translateWriteError maps a unique index violation that slipped past the
// pre-checks onto a conflict.
func translateWriteError(err error, conflictMessage string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Message: conflictMessage}
	}
	return err
}
