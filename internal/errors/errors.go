package errors

import "fmt"

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeConfig     ErrCode = "CONFIG_ERROR"
	ErrCodeCredential ErrCode = "CREDENTIAL_ERROR"
	ErrCodeClone      ErrCode = "CLONE_ERROR"
	ErrCodeSubmission ErrCode = "SUBMISSION_ERROR"
	ErrCodeNotFound   ErrCode = "NOT_FOUND"
	ErrCodeInternal   ErrCode = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new configuration error
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeConfig,
		Message: message,
		Err:     err,
	}
}

// NewCredentialError creates a new credential error
func NewCredentialError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeCredential,
		Message: message,
	}
}

// NewCloneError creates a new clone error
func NewCloneError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeClone,
		Message: message,
		Err:     err,
	}
}

// NewSubmissionError creates a new submission error
func NewSubmissionError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeSubmission,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeNotFound
	}
	return false
}

// IsConfigError checks if the error is a configuration error
func IsConfigError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeConfig
	}
	return false
}

// IsCredentialError checks if the error is a credential error
func IsCredentialError(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == ErrCodeCredential
	}
	return false
}
