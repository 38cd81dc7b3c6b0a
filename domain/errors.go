package domain

import "fmt"

// DomainError carries an error code so callers can map failures onto the
// recovery taxonomy without string matching.
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e DomainError) Unwrap() error {
	return e.Cause
}

// Error codes. Parse, config and resolution errors are recoverable; fatal
// errors abort the run with a non-zero exit.
const (
	ErrCodeParseError      = "PARSE_ERROR"
	ErrCodeConfigError     = "CONFIG_ERROR"
	ErrCodeResolutionError = "RESOLUTION_ERROR"
	ErrCodeFatalError      = "FATAL_ERROR"
	ErrCodeOutputError     = "OUTPUT_ERROR"
	ErrCodeInvalidInput    = "INVALID_INPUT"
)

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{Code: code, Message: message, Cause: cause}
}

// NewParseError marks a single file as unparsable; the run continues
func NewParseError(file string, cause error) error {
	return NewDomainError(ErrCodeParseError, fmt.Sprintf("failed to parse file: %s", file), cause)
}

// NewConfigError marks a threshold entry as missing or malformed
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewFatalError aborts the whole analysis
func NewFatalError(message string, cause error) error {
	return NewDomainError(ErrCodeFatalError, message, cause)
}

// NewOutputError marks a report serialization failure
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewInvalidInputError marks bad CLI input
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// IsFatal reports whether err should abort the run
func IsFatal(err error) bool {
	if de, ok := err.(DomainError); ok {
		return de.Code == ErrCodeFatalError
	}
	return false
}
