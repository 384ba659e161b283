package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// recordingHandler is a slog.Handler that keeps every record so tests
// can count log events by message.
type recordingHandler struct {
	mu       sync.Mutex
	messages []string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.messages {
		if m == msg {
			n++
		}
	}
	return n
}

// fakeExtractor maps raw Authorization values to claims. Unknown
// values fail like a malformed token.
type fakeExtractor map[string]IdentityClaims

func (f fakeExtractor) Extract(authorization string) (IdentityClaims, error) {
	claims, ok := f[authorization]
	if !ok {
		return IdentityClaims{}, &ErrClaimsUnavailable{Reason: "malformed token"}
	}
	return claims, nil
}

// fakeDirectory is an in-memory UserDirectory. Registered IDs become
// visible to later Validate calls.
type fakeDirectory struct {
	mu          sync.Mutex
	records     map[string]bool
	validateErr error
	registerErr error
	block       bool

	validated  []string
	registered []RegistrationRequest
}

func newFakeDirectory(existing ...string) *fakeDirectory {
	d := &fakeDirectory{records: map[string]bool{}}
	for _, id := range existing {
		d.records[id] = true
	}
	return d
}

func (d *fakeDirectory) Validate(ctx context.Context, externalID string) (bool, error) {
	d.mu.Lock()
	d.validated = append(d.validated, externalID)
	block, err, exists := d.block, d.validateErr, d.records[externalID]
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return false, &ErrDirectory{Op: "validate", Kind: DirectoryUnavailable, Err: ctx.Err()}
	}
	if err != nil {
		return false, err
	}
	if !exists {
		return false, &ErrDirectory{Op: "validate", Kind: DirectoryNotFound, StatusCode: 404}
	}
	return true, nil
}

func (d *fakeDirectory) Register(ctx context.Context, req RegistrationRequest) (*RegisteredUser, error) {
	d.mu.Lock()
	d.registered = append(d.registered, req)
	block, err := d.block, d.registerErr
	if !block && err == nil {
		d.records[req.ExternalID] = true
	}
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, &ErrDirectory{Op: "register", Kind: DirectoryUnavailable, Err: ctx.Err()}
	}
	if err != nil {
		return nil, err
	}
	return &RegisteredUser{ID: "1", ExternalID: req.ExternalID, Email: req.Email}, nil
}

func (d *fakeDirectory) validateCalls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.validated...)
}

func (d *fakeDirectory) registerCalls() []RegistrationRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RegistrationRequest(nil), d.registered...)
}

var errBoom = errors.New("boom")
