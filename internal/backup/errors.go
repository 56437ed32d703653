package backup

import (
	"errors"
	"fmt"
)

// BackupError represents errors that occur during backup and restore
// operations
type BackupError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *BackupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause error
func (e *BackupError) Unwrap() error {
	return e.Cause
}

// ErrorKind represents different classes of backup errors
type ErrorKind string

const (
	ErrKindAlreadyRunning ErrorKind = "BACKUP_ALREADY_RUNNING"
	ErrKindWriteFailed    ErrorKind = "BACKUP_WRITE_FAILED"
	ErrKindNotFound       ErrorKind = "NOT_FOUND"
	ErrKindInvalidPayload ErrorKind = "INVALID_PAYLOAD"
	ErrKindStorage        ErrorKind = "STORAGE_ERROR"
	ErrKindCompression    ErrorKind = "COMPRESSION_ERROR"
	ErrKindEncryption     ErrorKind = "ENCRYPTION_ERROR"
	ErrKindCorruption     ErrorKind = "CORRUPTION_ERROR"
	ErrKindConfiguration  ErrorKind = "CONFIGURATION_ERROR"
	ErrKindValidation     ErrorKind = "VALIDATION_ERROR"
)

// NewBackupError creates a new BackupError
func NewBackupError(kind ErrorKind, message string, cause error) *BackupError {
	return &BackupError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

func NewAlreadyRunningError() *BackupError {
	return NewBackupError(ErrKindAlreadyRunning, "another backup or restore operation is in progress", nil)
}

func NewWriteFailedError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindWriteFailed, message, cause)
}

func NewNotFoundError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindNotFound, message, cause)
}

func NewInvalidPayloadError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindInvalidPayload, message, cause)
}

func NewStorageError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindStorage, message, cause)
}

func NewCompressionError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindCompression, message, cause)
}

func NewEncryptionError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindEncryption, message, cause)
}

func NewCorruptionError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindCorruption, message, cause)
}

func NewConfigurationError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindConfiguration, message, cause)
}

func NewValidationError(message string, cause error) *BackupError {
	return NewBackupError(ErrKindValidation, message, cause)
}

// KindOf returns the kind of err if it is a BackupError, or an empty
// kind otherwise.
func KindOf(err error) ErrorKind {
	var backupErr *BackupError
	if errors.As(err, &backupErr) {
		return backupErr.Kind
	}
	return ""
}

// IsAlreadyRunning reports whether err is the single-flight guard
// violation.
func IsAlreadyRunning(err error) bool {
	return KindOf(err) == ErrKindAlreadyRunning
}

// IsNotFound reports whether err indicates a missing backup record.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsRetryable determines if an error is worth retrying
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case ErrKindAlreadyRunning, ErrKindStorage, ErrKindWriteFailed:
		return true
	default:
		return false
	}
}

// IsPermanent determines if an error is permanent and should not be
// retried
func IsPermanent(err error) bool {
	switch KindOf(err) {
	case ErrKindInvalidPayload, ErrKindCorruption, ErrKindConfiguration, ErrKindValidation:
		return true
	default:
		return false
	}
}

// ValidationErrors represents a collection of configuration validation
// failures
type ValidationErrors []ValidationFailure

// ValidationFailure describes one invalid configuration field
type ValidationFailure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return fmt.Sprintf("validation error for field '%s': %s", e[0].Field, e[0].Message)
	}
	return fmt.Sprintf("%d validation errors: first is field '%s': %s", len(e), e[0].Field, e[0].Message)
}

// Add adds a validation failure to the collection
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationFailure{Field: field, Message: message})
}

// HasErrors returns true if there are validation failures
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}
