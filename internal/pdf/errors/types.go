package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// PDFError represents a categorised failure raised while building the
// content model or while reading and writing form fields.
type PDFError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	FilePath    string    `json:"file_path,omitempty"`
	PageNumber  int       `json:"page_number,omitempty"`
	Field       string    `json:"field,omitempty"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of failures
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeStructural marks a layout node the traversal cannot handle.
	ErrorTypeStructural
	ErrorTypeMalformedPage
	ErrorTypeInvalidDocument
	ErrorTypeNoActiveDocument
	ErrorTypeNoFormFields
	ErrorTypeFieldNotFound
	ErrorTypeAmbiguousField
	ErrorTypeInvalidEncoding
	ErrorTypePageWrite
	ErrorTypeInvalidImage
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// Sentinel errors usable with errors.Is. A PDFError matches a sentinel
// when both carry the same ErrorType.
var (
	ErrStructural       = &PDFError{Type: ErrorTypeStructural, Message: "unhandled layout node"}
	ErrMalformedPage    = &PDFError{Type: ErrorTypeMalformedPage, Message: "malformed page"}
	ErrNoActiveDocument = &PDFError{Type: ErrorTypeNoActiveDocument, Message: "no active document"}
	ErrNoFormFields     = &PDFError{Type: ErrorTypeNoFormFields, Message: "document does not have input fields"}
	ErrFieldNotFound    = &PDFError{Type: ErrorTypeFieldNotFound, Message: "field not found"}
	ErrAmbiguousField   = &PDFError{Type: ErrorTypeAmbiguousField, Message: "ambiguous field name"}
	ErrPageWrite        = &PDFError{Type: ErrorTypePageWrite, Message: "page field update failed"}
)

// Error implements the error interface
func (e *PDFError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.PageNumber > 0 {
		msg += fmt.Sprintf(" (page %d)", e.PageNumber)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

// Unwrap returns the underlying cause, if any
func (e *PDFError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a PDFError of the same type
func (e *PDFError) Is(target error) bool {
	var t *PDFError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeStructural:
		return "STRUCTURAL"
	case ErrorTypeMalformedPage:
		return "MALFORMED_PAGE"
	case ErrorTypeInvalidDocument:
		return "INVALID_DOCUMENT"
	case ErrorTypeNoActiveDocument:
		return "NO_ACTIVE_DOCUMENT"
	case ErrorTypeNoFormFields:
		return "NO_FORM_FIELDS"
	case ErrorTypeFieldNotFound:
		return "FIELD_NOT_FOUND"
	case ErrorTypeAmbiguousField:
		return "AMBIGUOUS_FIELD"
	case ErrorTypeInvalidEncoding:
		return "INVALID_ENCODING"
	case ErrorTypePageWrite:
		return "PAGE_WRITE"
	case ErrorTypeInvalidImage:
		return "INVALID_IMAGE"
	default:
		return "UNKNOWN"
	}
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeStructural:
		return SeverityFatal
	case ErrorTypeMalformedPage, ErrorTypeInvalidDocument, ErrorTypeNoActiveDocument:
		return SeverityError
	case ErrorTypeFieldNotFound, ErrorTypeAmbiguousField, ErrorTypeNoFormFields:
		return SeverityError
	case ErrorTypePageWrite, ErrorTypeInvalidImage:
		return SeverityWarning
	case ErrorTypeInvalidEncoding:
		return SeverityInfo
	default:
		return SeverityError
	}
}

// IsRecoverable determines if an error type is handled without aborting
// the surrounding operation
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeStructural, ErrorTypeMalformedPage, ErrorTypeInvalidDocument:
		return false
	case ErrorTypeInvalidEncoding, ErrorTypePageWrite, ErrorTypeInvalidImage:
		return true
	case ErrorTypeFieldNotFound, ErrorTypeAmbiguousField, ErrorTypeNoFormFields:
		return true
	case ErrorTypeNoActiveDocument:
		return true
	default:
		return false
	}
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	e := NewPDFError(errorType, message)
	e.Context = context
	return e
}

// WrapError wraps a standard error as a PDFError
func WrapError(errorType ErrorType, message string, err error) *PDFError {
	e := NewPDFError(errorType, message)
	e.Err = err
	if err != nil {
		e.Context = err.Error()
	}
	return e
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// WithField adds the field name to an existing PDFError
func (e *PDFError) WithField(name string) *PDFError {
	e.Field = name
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PDFError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsCritical returns true if this error aborts the surrounding operation
func (e *PDFError) IsCritical() bool {
	return e.GetSeverity() == SeverityFatal || !e.Recoverable
}

// IsType reports whether err is a PDFError of the given type
func IsType(err error, errorType ErrorType) bool {
	var pe *PDFError
	if !stderrors.As(err, &pe) {
		return false
	}
	return pe.Type == errorType
}
