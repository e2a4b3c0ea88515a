package services

import "fmt"

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// ProviderError reports a failed call to the text or video provider. Err may
// wrap a *MalformedContentError when the reply could not be parsed.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MalformedContentError is returned when a model reply is not valid JSON even
// after the repair pass.
type MalformedContentError struct {
	Err  error
	Text string
}

func (e *MalformedContentError) Error() string {
	return fmt.Sprintf("invalid JSON response from model: %v", e.Err)
}

func (e *MalformedContentError) Unwrap() error { return e.Err }

func requireFields(values map[string]string) error {
	fields := map[string]string{}
	for name, v := range values {
		if isBlank(v) {
			fields[name] = "is required"
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
