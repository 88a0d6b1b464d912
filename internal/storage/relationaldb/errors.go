package relationaldb

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDriver       = errors.New("invalid database driver")
	ErrMissingDSN          = errors.New("database dsn is required")
	ErrInvalidMaxOpenConns = errors.New("max open connections must be >= 0")
	ErrInvalidTimeout      = errors.New("timeout must be positive")
	ErrDatabaseClosed      = errors.New("database connection is closed")
	ErrInvalidLimit        = errors.New("invalid query limit")
)

// ErrorType categorises a DatabaseError.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeQuery
	ErrorTypeSchema
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeConfiguration:
		return "configuration"
	case ErrorTypeConnection:
		return "connection"
	case ErrorTypeQuery:
		return "query"
	case ErrorTypeSchema:
		return "schema"
	default:
		return "unknown"
	}
}

// DatabaseError provides detailed information about database errors
type DatabaseError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *DatabaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

func NewConfigurationError(op, msg string, cause error) *DatabaseError {
	return &DatabaseError{Type: ErrorTypeConfiguration, Operation: op, Message: msg, Cause: cause}
}

func NewConnectionError(op, msg string, cause error) *DatabaseError {
	return &DatabaseError{Type: ErrorTypeConnection, Operation: op, Message: msg, Cause: cause}
}

func NewQueryError(op, msg string, cause error) *DatabaseError {
	return &DatabaseError{Type: ErrorTypeQuery, Operation: op, Message: msg, Cause: cause}
}

func NewSchemaError(op, msg string, cause error) *DatabaseError {
	return &DatabaseError{Type: ErrorTypeSchema, Operation: op, Message: msg, Cause: cause}
}
