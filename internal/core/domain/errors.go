package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates malformed input (bad URL, missing required field)
	ErrValidation = errors.New("validation failed")

	// ErrFetch indicates the policy page could not be retrieved
	ErrFetch = errors.New("fetch failed")

	// ErrExtraction indicates too little policy text could be extracted
	ErrExtraction = errors.New("extraction failed")

	// ErrProvider indicates every configured analysis provider failed
	ErrProvider = errors.New("analysis provider failed")

	// ErrPersistence indicates the policy store could not be written
	ErrPersistence = errors.New("persistence failed")

	// ErrConfiguration indicates a required collaborator is not configured
	ErrConfiguration = errors.New("configuration error")

	// ErrRateLimited indicates a provider rejected the call because of quota or rate limits
	ErrRateLimited = errors.New("rate limited")

	// ErrBlocked indicates a site answered with an anti-bot challenge instead of content
	ErrBlocked = errors.New("blocked by anti-bot protection")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")
)

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// PipelineError is the terminal error surfaced to callers of the analyze pipeline.
// Kind is one of the sentinel errors above; URL is the offending input.
type PipelineError struct {
	Kind    error
	URL     string
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", msg, e.URL, e.Err)
	}
	return fmt.Sprintf("%s (%s)", msg, e.URL)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *PipelineError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewValidationError builds a ValidationError for the given URL
func NewValidationError(url, message string) *PipelineError {
	return &PipelineError{Kind: ErrValidation, URL: url, Message: message}
}

// NewFetchError builds a FetchError wrapping the underlying cause
func NewFetchError(url, message string, err error) *PipelineError {
	return &PipelineError{Kind: ErrFetch, URL: url, Message: message, Err: err}
}

// NewExtractionError builds an ExtractionError for the given URL
func NewExtractionError(url, message string) *PipelineError {
	return &PipelineError{Kind: ErrExtraction, URL: url, Message: message}
}

// NewProviderError builds a ProviderError wrapping the last provider failure
func NewProviderError(url, message string, err error) *PipelineError {
	return &PipelineError{Kind: ErrProvider, URL: url, Message: message, Err: err}
}

// NewPersistenceError builds a PersistenceError wrapping the store failure
func NewPersistenceError(url, message string, err error) *PipelineError {
	return &PipelineError{Kind: ErrPersistence, URL: url, Message: message, Err: err}
}

// NewConfigurationError builds a ConfigurationError
func NewConfigurationError(url, message string) *PipelineError {
	return &PipelineError{Kind: ErrConfiguration, URL: url, Message: message}
}

// ErrorURL returns the URL carried by a PipelineError anywhere in the chain.
func ErrorURL(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.URL
	}
	return ""
}
