package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// defaultDirectoryTimeout bounds each directory call when no timeout
// is configured.
const defaultDirectoryTimeout = 3 * time.Second

// UserDirectory is the external service holding durable user records.
// Implementations return *ErrDirectory for every failure so callers
// can classify it.
type UserDirectory interface {
	// Validate reports whether a record exists for externalID.
	Validate(ctx context.Context, externalID string) (bool, error)
	// Register creates a record. An existing record is reported as
	// an *ErrDirectory with Kind DirectoryConflict.
	Register(ctx context.Context, req RegistrationRequest) (*RegisteredUser, error)
}

// RegistrationOutcome is the result of a DirectoryClient.Register call.
type RegistrationOutcome int

const (
	RegistrationNotAttempted RegistrationOutcome = iota
	RegistrationCreated
	RegistrationConflict
	RegistrationSkipped
)

func (o RegistrationOutcome) String() string {
	switch o {
	case RegistrationCreated:
		return "created"
	case RegistrationConflict:
		return "conflict"
	case RegistrationSkipped:
		return "skipped"
	default:
		return "not_attempted"
	}
}

// DirectoryConfig holds the runtime parameters for a DirectoryClient.
type DirectoryConfig struct {
	Timeout time.Duration
}

// DirectoryClient applies the gateway's degradation rules on top of a
// UserDirectory: no method returns an error, every failure collapses
// into a value and at most one warning log.
type DirectoryClient struct {
	directory UserDirectory
	timeout   time.Duration
	log       *slog.Logger
}

// NewDirectoryClient returns a DirectoryClient bounded by cfg.Timeout.
func NewDirectoryClient(directory UserDirectory, cfg DirectoryConfig) *DirectoryClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDirectoryTimeout
	}
	return &DirectoryClient{
		directory: directory,
		timeout:   timeout,
		log:       slog.Default().With("component", "directory-client"),
	}
}

// Exists reports whether the directory holds a record for externalID.
// A not-found answer is false; any other failure is also false and is
// logged as a degraded existence check.
func (c *DirectoryClient) Exists(ctx context.Context, externalID string) bool {
	exists, err := invoke(ctx, c.timeout, "validate", func(ctx context.Context) (bool, error) {
		return c.directory.Validate(ctx, externalID)
	})
	if err == nil {
		return exists
	}

	if isDirectoryKind(err, DirectoryNotFound) {
		c.log.Debug("user not found in directory", "external_id", externalID)
		return false
	}

	c.log.Warn("directory existence check degraded", "external_id", externalID, "error", err)
	return false
}

// Register creates a user record. A conflict means the record already
// exists and counts as success; any other failure skips registration
// and is logged as degraded.
func (c *DirectoryClient) Register(ctx context.Context, req RegistrationRequest) (*RegisteredUser, RegistrationOutcome) {
	user, err := invoke(ctx, c.timeout, "register", func(ctx context.Context) (*RegisteredUser, error) {
		return c.directory.Register(ctx, req)
	})

	switch {
	case err == nil:
		c.log.Info("user registered in directory", "external_id", req.ExternalID)
		return user, RegistrationCreated
	case isDirectoryKind(err, DirectoryConflict):
		c.log.Info("user already registered, skipping", "external_id", req.ExternalID)
		return nil, RegistrationConflict
	default:
		c.log.Warn("directory registration degraded", "external_id", req.ExternalID, "error", err)
		return nil, RegistrationSkipped
	}
}

// invoke runs fn on its own goroutine under a timeout detached from
// the caller's cancellation, and returns as soon as either fn finishes
// or the timeout fires. A UserDirectory that ignores its context still
// cannot hold the request past the timeout. Panics become errors.
func invoke[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &ErrDirectory{Op: op, Kind: DirectoryUnavailable, Err: fmt.Errorf("panic: %v", r)}}
			}
		}()
		val, err := fn(ctx)
		done <- result{val: val, err: err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, &ErrDirectory{Op: op, Kind: DirectoryUnavailable, Err: ctx.Err()}
	}
}

func isDirectoryKind(err error, kind DirectoryErrorKind) bool {
	var dirErr *ErrDirectory
	return errors.As(err, &dirErr) && dirErr.Kind == kind
}
