package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dataset passes. Every AppError built by the
// constructors below carries one of these in its cause chain.
var (
	ErrFileNotOpenable = errors.New("file not openable")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrMalformedRow    = errors.New("malformed row")
	ErrUnknownPostcode = errors.New("unknown postcode")
	ErrNoData          = errors.New("no data")
	ErrNotInitialized  = errors.New("not initialized")
)

// Is and As re-export the standard library helpers so callers that import
// this package under its own name do not need a second import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

// FileNotOpenable reports a path that does not resolve to a readable file.
func FileNotOpenable(path string, cause error) *AppError {
	wrapped := ErrFileNotOpenable
	if cause != nil {
		wrapped = fmt.Errorf("%w: %w", ErrFileNotOpenable, cause)
	}
	return NewAppError(ErrTypeIO, fmt.Sprintf("cannot open %s", path), wrapped).
		WithContext("path", path)
}

// UnknownColumn reports a column name missing from the declared or derived header.
func UnknownColumn(name string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("column %q not in header", name), ErrUnknownColumn).
		WithContext("column", name)
}

// MalformedRow reports a buffered-chunk line whose field count differs from
// the header, which usually means a field contains the delimiter.
func MalformedRow(line int64, got, want int) *AppError {
	msg := fmt.Sprintf("line %d has %d fields, header has %d; use the structured read for this file", line, got, want)
	return NewAppError(ErrTypeParsing, msg, ErrMalformedRow).
		WithContext("line", line).
		WithContext("fields", got).
		WithContext("header_fields", want)
}

// UnknownPostcode reports an outer postcode with no region mapping.
func UnknownPostcode(postcode string) *AppError {
	return NewAppError(ErrTypeLookup, fmt.Sprintf("no region for postcode %q", postcode), ErrUnknownPostcode).
		WithContext("postcode", postcode)
}

// NoData reports an aggregate requested before any contributing row was seen.
func NoData(aggregate string) *AppError {
	return NewAppError(ErrTypeState, fmt.Sprintf("%s has no data", aggregate), ErrNoData).
		WithContext("aggregate", aggregate)
}

// NotInitialized reports a lookup used before its table was populated.
func NotInitialized(what string) *AppError {
	return NewAppError(ErrTypeState, fmt.Sprintf("%s is not initialised", what), ErrNotInitialized)
}
