package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is an error that knows how the CLI should treat it: the
// category picks the exit code and the severity picks the log level. The
// context is logged as attributes next to the message.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "[category:severity] message: cause".
func (e *ClassifiedError) Error() string {
	head := fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	if e.cause == nil {
		return head
	}
	return head + ": " + e.cause.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }
func (e *ClassifiedError) Message() string         { return e.message }
func (e *ClassifiedError) Cause() error            { return e.cause }
func (e *ClassifiedError) Context() ErrorContext   { return e.context }

// IsFatal reports whether the build must stop.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// AsClassified returns the outermost ClassifiedError wrapped by err.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if !stderrors.As(err, &classified) {
		return nil, false
	}
	return classified, true
}

// HasCategory reports whether err wraps a ClassifiedError of category.
func HasCategory(err error, category ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.category == category
}
