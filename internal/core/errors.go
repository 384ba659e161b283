package core

import "fmt"

// ErrInvalidInput indicates a domain-level input validation failure.
type ErrInvalidInput struct {
	Field   string
	Message string
}

func (e *ErrInvalidInput) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ErrClaimsUnavailable indicates that a bearer token could not be
// decoded into identity claims.
type ErrClaimsUnavailable struct {
	Reason string
	Err    error
}

func (e *ErrClaimsUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("claims unavailable: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("claims unavailable: %s", e.Reason)
}

func (e *ErrClaimsUnavailable) Unwrap() error {
	return e.Err
}

// DirectoryErrorKind classifies a failed user directory call.
type DirectoryErrorKind int

const (
	// DirectoryUnavailable covers timeouts, transport failures, 5xx
	// responses and malformed bodies.
	DirectoryUnavailable DirectoryErrorKind = iota
	// DirectoryNotFound means the directory has no record.
	DirectoryNotFound
	// DirectoryConflict means the record already exists.
	DirectoryConflict
	// DirectoryRejected means the directory refused the request as
	// invalid.
	DirectoryRejected
)

func (k DirectoryErrorKind) String() string {
	switch k {
	case DirectoryNotFound:
		return "not_found"
	case DirectoryConflict:
		return "conflict"
	case DirectoryRejected:
		return "rejected"
	default:
		return "unavailable"
	}
}

// ErrDirectory is returned by UserDirectory implementations.
// StatusCode is zero when no HTTP response was received.
type ErrDirectory struct {
	Op         string
	Kind       DirectoryErrorKind
	StatusCode int
	Err        error
}

func (e *ErrDirectory) Error() string {
	msg := fmt.Sprintf("directory %s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ErrDirectory) Unwrap() error {
	return e.Err
}
