package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrForbidden          = fmt.Errorf("permission denied")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrNetwork            = fmt.Errorf("network error")
	ErrParse              = fmt.Errorf("invalid response body")
	ErrUpload             = fmt.Errorf("audio upload failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// Op names a backend operation and selects the user-facing message for its failures.
type Op string

const (
	OpCreate Op = "create"
	OpList   Op = "list"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpLogin  Op = "login"
	OpUpload Op = "upload"
)

var opMessages = map[Op]string{
	OpCreate: "Failed to save to the external database.",
	OpList:   "Failed to fetch from the external database.",
	OpUpdate: "Failed to update the external database.",
	OpDelete: "Failed to delete from the external database.",
	OpLogin:  "Invalid username or password.",
	OpUpload: "Failed to upload the audio file to the server.",
}

// MessageFor returns the user-facing message for a failed operation.
func MessageFor(op Op) string {
	if msg, ok := opMessages[op]; ok {
		return msg
	}
	return "Request to the external server failed."
}

// NetworkError is a transport-level failure: the request never produced a response.
type NetworkError struct {
	Op  Op
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrNetwork, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// Message returns the user-facing text for the failure.
func (e *NetworkError) Message() string { return MessageFor(e.Op) }

// RemoteError is a response with a non-2xx status.
type RemoteError struct {
	Op         Op
	StatusCode int
	Status     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrAPIRequest, e.Status)
}

func (e *RemoteError) Unwrap() error { return ErrAPIRequest }

// Message returns the user-facing text for the failure.
func (e *RemoteError) Message() string { return MessageFor(e.Op) }

// AuthError is a credential rejection by the backend. Status holds the HTTP status text, when there is one.
type AuthError struct {
	Reason string
	Status string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return ErrInvalidCredentials.Error()
	}
	return e.Reason
}

func (e *AuthError) Unwrap() error { return ErrInvalidCredentials }

// Message returns the user-facing text for the failure.
func (e *AuthError) Message() string { return MessageFor(OpLogin) }

// ParseError is a response body that could not be decoded as JSON.
type ParseError struct {
	Op  Op
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrParse, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// Message returns the user-facing text for the failure.
func (e *ParseError) Message() string { return MessageFor(e.Op) }

// UploadError wraps any failure of an audio upload and keeps the underlying kind reachable.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%v: %v", ErrUpload, e.Err)
}

func (e *UploadError) Unwrap() []error { return []error{ErrUpload, e.Err} }

// Message returns the user-facing text for the failure.
func (e *UploadError) Message() string { return MessageFor(OpUpload) }

// UserMessage extracts the user-facing message from err, falling back to err.Error().
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var m interface{ Message() string }
	if errors.As(err, &m) {
		return m.Message()
	}
	return err.Error()
}
