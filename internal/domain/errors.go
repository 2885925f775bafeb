package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInsufficientData is returned when a model is trained on zero rows.
	ErrInsufficientData = errors.New("insufficient training data")
	ErrNotFound         = errors.New("not found")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidInput     = errors.New("invalid input")
)

// FeatureMismatchError reports an input whose width or encoding disagrees
// with the trained model.
type FeatureMismatchError struct {
	Want   int
	Got    int
	Detail string
}

func (e *FeatureMismatchError) Error() string {
	if e.Detail != "" {
		return "feature mismatch: " + e.Detail
	}
	return fmt.Sprintf("feature mismatch: got width %d, model expects %d", e.Got, e.Want)
}

type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

type UnknownStorageError struct {
	Storage string
}

func (e *UnknownStorageError) Error() string {
	return fmt.Sprintf("unknown storage location %q", e.Storage)
}

// InvalidDateError reports an acquisition date later than the as-of date.
type InvalidDateError struct {
	Acquired time.Time
	AsOf     time.Time
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("acquisition date %s is after %s",
		e.Acquired.Format(time.DateOnly), e.AsOf.Format(time.DateOnly))
}

// IsInputError reports whether err stems from caller-supplied values rather
// than an internal failure.
func IsInputError(err error) bool {
	var (
		cat     *UnknownCategoryError
		storage *UnknownStorageError
		date    *InvalidDateError
		feature *FeatureMismatchError
	)
	return errors.As(err, &cat) ||
		errors.As(err, &storage) ||
		errors.As(err, &date) ||
		errors.As(err, &feature) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidInput)
}
