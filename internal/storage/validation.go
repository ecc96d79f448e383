// Package storage provides the data persistence layer for datasets and
// training runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/pfm-classifier/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrEmptySlice         = errors.New("slice cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidRun         = errors.New("invalid training run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRows checks that every dataset row is labelled and named.
func validateRows(rows []model.RawTransaction) error {
	if rows == nil {
		return fmt.Errorf("%w: rows", ErrNilParameter)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: rows", ErrEmptySlice)
	}
	for i, r := range rows {
		if strings.TrimSpace(r.Merchant) == "" {
			return fmt.Errorf("row %d: %w: missing merchant", i, ErrInvalidTransaction)
		}
		if !r.Labeled() {
			return fmt.Errorf("row %d: %w: missing label", i, ErrInvalidTransaction)
		}
	}
	return nil
}

// validateRun validates a training run record.
func validateRun(run *TrainingRun) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ModelKind == "" {
		return fmt.Errorf("%w: missing model kind", ErrInvalidRun)
	}
	if run.ModelPath == "" {
		return fmt.Errorf("%w: missing model path", ErrInvalidRun)
	}
	return nil
}
