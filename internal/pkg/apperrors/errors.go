package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Voucher errors. Verification denials are not errors: they travel as typed
// attempt outcomes in the response, so only the conditions that abort an
// operation get a sentinel here.
var (
	ErrVoucherNotFound = errors.New("voucher not found")
	ErrVoucherUsed     = errors.New("voucher already used")
	ErrSessionNotFound = errors.New("voucher session not found")
)

// Admission errors
var (
	ErrAdmissionNotFound = errors.New("admission record not found")
	ErrAlreadyProcessed  = errors.New("admission already processed")
	ErrYearMismatch      = errors.New("academic year mismatch for this voucher")
)

// Transaction errors
var (
	// ErrTransactionConflict means a conditional update lost a race against a
	// concurrent writer. The enclosing operation must fail, not fall back.
	ErrTransactionConflict = errors.New("transaction conflict")
)

// Academic errors
var (
	ErrAcademicYearNotFound = errors.New("academic year not found")
	ErrClassNotFound        = errors.New("class not found")
	ErrStreamNotFound       = errors.New("stream not found")
	ErrTermNotFound         = errors.New("term not found")
)

// Admin errors
var (
	ErrAdminNotFound = errors.New("admin not found")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewValidationError creates a new custom error for validation failures with a message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// CustomError pairs a sentinel error with a human readable message.
type CustomError struct {
	Err     error
	Message string
}

// Error returns the message of the custom error
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped sentinel error
func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is reports whether err matches target or any of the extra errors in errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
