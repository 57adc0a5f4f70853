package framework

import "strings"

// AggregatedError collects errors from things running side by side.
type AggregatedError struct {
	Errors []error
}

// Error implements error.
func (e *AggregatedError) Error() string {
	switch len(e.Errors) {
	case 0:
		return ""
	case 1:
		return e.Errors[0].Error()
	}
	msg := make([]string, 0, len(e.Errors)+1)
	msg = append(msg, "multiple errors:")
	for _, err := range e.Errors {
		msg = append(msg, "  "+err.Error())
	}
	return strings.Join(msg, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *AggregatedError) Unwrap() []error {
	return e.Errors
}

// Add adds errors to be aggregated. nil will be skipped.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns aggregated error if any error happened.
func (e *AggregatedError) Aggregate() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
