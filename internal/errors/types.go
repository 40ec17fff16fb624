package errors

import (
	"fmt"
	"time"
)

// ViewerError represents a failure surfaced to the user of the viewer
type ViewerError struct {
	Type        ErrorType `json:"type"`
	Message     string    `json:"message"`
	Context     string    `json:"context,omitempty"`
	Page        int       `json:"page,omitempty"`
	FilePath    string    `json:"file_path,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
	Err         error     `json:"-"`
}

// ErrorType represents the categories of viewer errors
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeLoadFailed
	ErrorTypeRenderFailed
	ErrorTypeUnsupportedDocument
	ErrorTypeInvalidPageRange
	ErrorTypeInvalidInput
	ErrorTypeEmptySelection
	ErrorTypeExportFailed
	ErrorTypeStorageFailed
)

// Error implements the error interface
func (e *ViewerError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type.String(), e.Message, e.Context)
	}
	return fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *ViewerError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeLoadFailed:
		return "LOAD_FAILED"
	case ErrorTypeRenderFailed:
		return "RENDER_FAILED"
	case ErrorTypeUnsupportedDocument:
		return "UNSUPPORTED_DOCUMENT"
	case ErrorTypeInvalidPageRange:
		return "INVALID_PAGE_RANGE"
	case ErrorTypeInvalidInput:
		return "INVALID_INPUT"
	case ErrorTypeEmptySelection:
		return "EMPTY_SELECTION"
	case ErrorTypeExportFailed:
		return "EXPORT_FAILED"
	case ErrorTypeStorageFailed:
		return "STORAGE_FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsRecoverable reports whether the viewer keeps working after an error of this type.
// Nothing in the annotation core is fatal; only unclassified errors are treated as such.
func (et ErrorType) IsRecoverable() bool {
	switch et {
	case ErrorTypeLoadFailed, ErrorTypeRenderFailed, ErrorTypeUnsupportedDocument:
		return true // collaborator failure, core state untouched
	case ErrorTypeInvalidPageRange, ErrorTypeInvalidInput, ErrorTypeEmptySelection:
		return true // user can retry
	case ErrorTypeExportFailed, ErrorTypeStorageFailed:
		return true
	default:
		return false
	}
}

// New creates a new ViewerError
func New(errorType ErrorType, message string) *ViewerError {
	return &ViewerError{
		Type:        errorType,
		Message:     message,
		Recoverable: errorType.IsRecoverable(),
		Timestamp:   time.Now(),
	}
}

// Wrap wraps a standard error as a ViewerError
func Wrap(errorType ErrorType, message string, err error) *ViewerError {
	e := New(errorType, message)
	e.Err = err
	if err != nil {
		e.Context = err.Error()
	}
	return e
}

// WithContext adds context to an existing ViewerError
func (e *ViewerError) WithContext(context string) *ViewerError {
	e.Context = context
	return e
}

// WithPage adds page number information to an existing ViewerError
func (e *ViewerError) WithPage(pageNumber int) *ViewerError {
	e.Page = pageNumber
	return e
}

// WithFile adds file path information to an existing ViewerError
func (e *ViewerError) WithFile(filePath string) *ViewerError {
	e.FilePath = filePath
	return e
}

// UserMessage returns the text shown in a user-facing alert
func (e *ViewerError) UserMessage() string {
	switch e.Type {
	case ErrorTypeLoadFailed:
		return "Failed to load the document, please check that the file is valid."
	case ErrorTypeRenderFailed:
		if e.Page > 0 {
			return fmt.Sprintf("Failed to render page %d.", e.Page)
		}
		return "Failed to render the page."
	case ErrorTypeUnsupportedDocument:
		return "Unsupported file type, please choose a PDF or Word document."
	case ErrorTypeInvalidPageRange:
		return "Invalid page range, use a format such as 1-5,8,10-15."
	case ErrorTypeEmptySelection:
		return "Please select at least one page."
	case ErrorTypeExportFailed:
		return "Export failed, please try again."
	default:
		return e.Message
	}
}

// As returns err as a *ViewerError when it is one
func As(err error) (*ViewerError, bool) {
	for err != nil {
		if ve, ok := err.(*ViewerError); ok {
			return ve, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsType reports whether err is a ViewerError of the given type
func IsType(err error, errorType ErrorType) bool {
	ve, ok := As(err)
	return ok && ve.Type == errorType
}
