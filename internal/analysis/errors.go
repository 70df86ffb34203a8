package analysis

import "fmt"

// ConfigurationError means the model-client capability is not available.
// It is surfaced before any network call is attempted.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// ModelError wraps a transport or provider failure from the vision model.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model call failed: %v", e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// EmptyResponseError means the model call succeeded but returned no text.
type EmptyResponseError struct{}

func (e *EmptyResponseError) Error() string {
	return "model returned an empty response"
}

// ParseError means the model returned text that is not valid JSON. The raw
// text is kept for diagnostics and is never handed back to the caller.
type ParseError struct {
	Err error
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model response is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means well-formed JSON failed a schema or invariant
// check. Field names the offending field when one is known.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid chart read: %s", e.Reason)
	}
	return fmt.Sprintf("invalid chart read: field %q: %s", e.Field, e.Reason)
}
