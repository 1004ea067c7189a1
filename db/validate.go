// ABOUTME: Write-boundary validation shared by all repositories
// ABOUTME: Rejects unknown enum values and out-of-range numbers before they reach a table
package db

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateRecord(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
