package core

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"
)

const (
	tokenU42     = "Bearer u-42-token"
	tokenNoEmail = "Bearer no-email-token"
)

func testExtractor() fakeExtractor {
	return fakeExtractor{
		tokenU42:     {ExternalID: "u-42", Email: "a@x.com", FirstName: "A", LastName: "X"},
		tokenNoEmail: {ExternalID: "u-43"},
	}
}

func newTestReconcile(dir UserDirectory, timeout time.Duration, cfg ReconcileConfig) (*ReconcileUseCase, *recordingHandler) {
	client, h := newTestDirectoryClient(dir, timeout)
	uc := NewReconcileUseCase(testExtractor(), client, cfg)
	uc.log = slog.New(h)
	return uc, h
}

func TestReconcile_TokenAbsent(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	uc, _ := newTestReconcile(dir, time.Second, ReconcileConfig{})

	for _, callerID := range []string{"", "u-99"} {
		res := uc.Reconcile(context.Background(), "", callerID)
		if res.State != StateTokenAbsent {
			t.Fatalf("State = %s, want %s", res.State, StateTokenAbsent)
		}
		if res.Resolved() {
			t.Fatalf("Resolved() = true for callerID %q without token", callerID)
		}
	}

	if n := len(dir.validateCalls()) + len(dir.registerCalls()); n != 0 {
		t.Fatalf("directory calls = %d, want 0", n)
	}
}

func TestReconcile_ClaimsUnavailable(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	uc, _ := newTestReconcile(dir, time.Second, ReconcileConfig{})

	res := uc.Reconcile(context.Background(), "Bearer not-a-jwt", "")
	if res.State != StateClaimsUnavailable {
		t.Fatalf("State = %s, want %s", res.State, StateClaimsUnavailable)
	}
	if res.Resolved() {
		t.Fatal("Resolved() = true, want false")
	}
	if n := len(dir.validateCalls()); n != 0 {
		t.Fatalf("validate calls = %d, want 0", n)
	}
}

func TestReconcile_RegistersUnknownIdentity(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	uc, _ := newTestReconcile(dir, time.Second, ReconcileConfig{})

	res := uc.Reconcile(context.Background(), tokenU42, "")
	if !res.Resolved() || res.ExternalID != "u-42" {
		t.Fatalf("Reconcile() = %+v, want resolved u-42", res)
	}
	if res.Registration != RegistrationCreated {
		t.Fatalf("Registration = %s, want created", res.Registration)
	}

	calls := dir.registerCalls()
	if len(calls) != 1 {
		t.Fatalf("register calls = %d, want 1", len(calls))
	}
	if calls[0].Email != "a@x.com" || calls[0].ExternalID != "u-42" {
		t.Fatalf("register request = %+v", calls[0])
	}
	if calls[0].PlaceholderCredential == "" {
		t.Fatal("register request has no placeholder credential")
	}
}

func TestReconcile_KnownIdentitySkipsRegistration(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory("u-42")
	uc, _ := newTestReconcile(dir, time.Second, ReconcileConfig{})

	res := uc.Reconcile(context.Background(), tokenU42, "")
	if !res.Resolved() || res.ExternalID != "u-42" || !res.Exists {
		t.Fatalf("Reconcile() = %+v, want resolved existing u-42", res)
	}
	if res.Registration != RegistrationNotAttempted {
		t.Fatalf("Registration = %s, want not_attempted", res.Registration)
	}
	if n := len(dir.registerCalls()); n != 0 {
		t.Fatalf("register calls = %d, want 0", n)
	}
}

func TestReconcile_CallerIDTakesPrecedence(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	uc, _ := newTestReconcile(dir, time.Second, ReconcileConfig{})

	res := uc.Reconcile(context.Background(), tokenU42, "u-7")
	if res.ExternalID != "u-7" || !res.Resolved() {
		t.Fatalf("Reconcile() = %+v, want resolved u-7", res)
	}
	if got := dir.validateCalls(); len(got) != 1 || got[0] != "u-7" {
		t.Fatalf("validate calls = %v, want [u-7]", got)
	}
	// Registration data still comes from the token.
	if got := dir.registerCalls(); len(got) != 1 || got[0].ExternalID != "u-42" {
		t.Fatalf("register calls = %+v, want one for u-42", got)
	}
}

func TestReconcile_CallerIDWithoutClaimsDoesNotRegister(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	uc, _ := newTestReconcile(dir, time.Second, ReconcileConfig{})

	res := uc.Reconcile(context.Background(), "Bearer garbage", "u-7")
	if !res.Resolved() || res.ExternalID != "u-7" {
		t.Fatalf("Reconcile() = %+v, want resolved u-7", res)
	}
	if res.ClaimsAvailable {
		t.Fatal("ClaimsAvailable = true, want false")
	}
	if n := len(dir.validateCalls()); n != 1 {
		t.Fatalf("validate calls = %d, want 1", n)
	}
	if n := len(dir.registerCalls()); n != 0 {
		t.Fatalf("register calls = %d, want 0", n)
	}
}

func TestReconcile_SecondCallIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	uc, _ := newTestReconcile(dir, time.Second, ReconcileConfig{})

	first := uc.Reconcile(context.Background(), tokenU42, "")
	second := uc.Reconcile(context.Background(), tokenU42, first.ExternalID)

	if !second.Exists {
		t.Fatal("second call did not observe the registered record")
	}
	if n := len(dir.registerCalls()); n != 1 {
		t.Fatalf("register calls = %d, want 1", n)
	}
}

func TestReconcile_TrustCallerID(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	uc, _ := newTestReconcile(dir, time.Second, ReconcileConfig{TrustCallerID: true})

	res := uc.Reconcile(context.Background(), tokenU42, "u-7")
	if !res.Resolved() || res.ExternalID != "u-7" {
		t.Fatalf("Reconcile() = %+v, want resolved u-7", res)
	}
	if n := len(dir.validateCalls()) + len(dir.registerCalls()); n != 0 {
		t.Fatalf("directory calls = %d, want 0", n)
	}

	// Without a caller ID the directory is still consulted.
	res = uc.Reconcile(context.Background(), tokenU42, "")
	if res.Registration != RegistrationCreated {
		t.Fatalf("Registration = %s, want created", res.Registration)
	}
}

func TestReconcile_ClaimsWithoutEmailAreNotRegistered(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	uc, _ := newTestReconcile(dir, time.Second, ReconcileConfig{})

	res := uc.Reconcile(context.Background(), tokenNoEmail, "")
	if !res.Resolved() || res.ExternalID != "u-43" {
		t.Fatalf("Reconcile() = %+v, want resolved u-43", res)
	}
	if res.Registration != RegistrationSkipped {
		t.Fatalf("Registration = %s, want skipped", res.Registration)
	}
	if n := len(dir.registerCalls()); n != 0 {
		t.Fatalf("register calls = %d, want 0", n)
	}
}

func TestReconcile_DirectoryAlwaysTimesOut(t *testing.T) {
	t.Parallel()

	dir := newFakeDirectory()
	dir.block = true
	uc, h := newTestReconcile(dir, 25*time.Millisecond, ReconcileConfig{})

	start := time.Now()
	res := uc.Reconcile(context.Background(), tokenU42, "")
	elapsed := time.Since(start)

	if !res.Resolved() || res.ExternalID != "u-42" {
		t.Fatalf("Reconcile() = %+v, want resolved u-42", res)
	}
	if res.Registration != RegistrationSkipped {
		t.Fatalf("Registration = %s, want skipped", res.Registration)
	}
	if elapsed > time.Second {
		t.Fatalf("Reconcile() took %s, want two bounded timeouts", elapsed)
	}
	if got := h.count("directory existence check degraded"); got != 1 {
		t.Fatalf("degraded existence events = %d, want 1", got)
	}
	if got := h.count("directory registration degraded"); got > 1 {
		t.Fatalf("degraded registration events = %d, want at most 1", got)
	}
}

// racingDirectory holds every Validate call until all expected callers
// have checked, so each of them sees the identity as unknown. Register
// answers a duplicate with a conflict, as the real directory does.
type racingDirectory struct {
	checked sync.WaitGroup

	mu      sync.Mutex
	records map[string]bool
	regs    int
}

func newRacingDirectory(callers int) *racingDirectory {
	d := &racingDirectory{records: map[string]bool{}}
	d.checked.Add(callers)
	return d
}

func (d *racingDirectory) Validate(context.Context, string) (bool, error) {
	d.checked.Done()
	d.checked.Wait()
	return false, &ErrDirectory{Op: "validate", Kind: DirectoryNotFound, StatusCode: 404}
}

func (d *racingDirectory) Register(_ context.Context, req RegistrationRequest) (*RegisteredUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs++
	if d.records[req.ExternalID] {
		return nil, &ErrDirectory{Op: "register", Kind: DirectoryConflict, StatusCode: 409}
	}
	d.records[req.ExternalID] = true
	return &RegisteredUser{ID: "1", ExternalID: req.ExternalID, Email: req.Email}, nil
}

func TestReconcile_ConcurrentFirstRequestsBothSucceed(t *testing.T) {
	t.Parallel()

	dir := newRacingDirectory(2)
	uc, h := newTestReconcile(dir, 5*time.Second, ReconcileConfig{})

	results := make([]Reconciliation, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = uc.Reconcile(context.Background(), tokenU42, "")
		}()
	}
	wg.Wait()

	outcomes := make([]string, 0, len(results))
	for _, res := range results {
		if !res.Resolved() || res.ExternalID != "u-42" {
			t.Fatalf("Reconcile() = %+v, want resolved u-42", res)
		}
		outcomes = append(outcomes, res.Registration.String())
	}
	slices.Sort(outcomes)

	if want := []string{"conflict", "created"}; !slices.Equal(outcomes, want) {
		t.Fatalf("registration outcomes = %v, want %v", outcomes, want)
	}
	if dir.regs != 2 {
		t.Fatalf("register calls = %d, want 2", dir.regs)
	}
	if got := h.count("directory registration degraded"); got != 0 {
		t.Fatalf("degraded registration events = %d, want 0", got)
	}
}

func TestReconcileState_String(t *testing.T) {
	t.Parallel()

	if got := StateHeaderInjected.String(); got != "header_injected" {
		t.Fatalf("String() = %q", got)
	}
	if got := ReconcileState(0).String(); got != "unknown" {
		t.Fatalf("String() = %q", got)
	}
}
