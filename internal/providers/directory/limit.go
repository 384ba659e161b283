package directory

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/otterscale/otterscale-gateway/internal/core"
)

// limited bounds the number of in-flight calls to the wrapped
// directory. Waiting for a slot honours the caller's deadline.
type limited struct {
	next core.UserDirectory
	sem  *semaphore.Weighted
}

// Limit wraps next so that at most n calls run concurrently. n <= 0
// returns next unchanged.
func Limit(next core.UserDirectory, n int) core.UserDirectory {
	if n <= 0 {
		return next
	}
	return &limited{next: next, sem: semaphore.NewWeighted(int64(n))}
}

func (l *limited) Validate(ctx context.Context, externalID string) (bool, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return false, saturated("validate", err)
	}
	defer l.sem.Release(1)

	return l.next.Validate(ctx, externalID)
}

func (l *limited) Register(ctx context.Context, req core.RegistrationRequest) (*core.RegisteredUser, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, saturated("register", err)
	}
	defer l.sem.Release(1)

	return l.next.Register(ctx, req)
}

func saturated(op string, err error) error {
	return &core.ErrDirectory{Op: op, Kind: core.DirectoryUnavailable, Err: fmt.Errorf("directory pool saturated: %w", err)}
}
