package core

import (
	"context"
	"log/slog"
)

// ReconcileState is a step of the identity reconciliation state
// machine. States are visited in order with no loops.
type ReconcileState int

const (
	StateTokenAbsent ReconcileState = iota + 1
	StateClaimsUnavailable
	StateIdentityResolved
	StateExistenceChecked
	StateRegistrationAttempted
	StateHeaderInjected
)

func (s ReconcileState) String() string {
	switch s {
	case StateTokenAbsent:
		return "token_absent"
	case StateClaimsUnavailable:
		return "claims_unavailable"
	case StateIdentityResolved:
		return "identity_resolved"
	case StateExistenceChecked:
		return "existence_checked"
	case StateRegistrationAttempted:
		return "registration_attempted"
	case StateHeaderInjected:
		return "header_injected"
	default:
		return "unknown"
	}
}

// Reconciliation is the outcome of one request's reconciliation.
type Reconciliation struct {
	State           ReconcileState
	ExternalID      string
	ClaimsAvailable bool
	Exists          bool
	Registration    RegistrationOutcome
	User            *RegisteredUser
}

// Resolved reports whether a canonical identity should be injected.
func (r Reconciliation) Resolved() bool {
	return r.State == StateHeaderInjected && r.ExternalID != ""
}

// ReconcileConfig holds reconciliation policy.
type ReconcileConfig struct {
	// TrustCallerID propagates a caller supplied identity without
	// consulting the directory.
	TrustCallerID bool
}

// ReconcileUseCase resolves the canonical identity of a request and
// makes sure the directory holds a record for it. It never fails:
// every collaborator error degrades into a state.
type ReconcileUseCase struct {
	claims        ClaimsExtractor
	directory     *DirectoryClient
	trustCallerID bool
	log           *slog.Logger
}

// NewReconcileUseCase returns a ReconcileUseCase.
func NewReconcileUseCase(claims ClaimsExtractor, directory *DirectoryClient, cfg ReconcileConfig) *ReconcileUseCase {
	return &ReconcileUseCase{
		claims:        claims,
		directory:     directory,
		trustCallerID: cfg.TrustCallerID,
		log:           slog.Default().With("component", "reconcile"),
	}
}

// Reconcile runs the state machine for one request. authorization is
// the raw Authorization header and callerID the inbound X-User-ID,
// either may be empty. A caller supplied ID takes precedence over the
// token subject; the token still supplies registration data.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, authorization, callerID string) Reconciliation {
	var res Reconciliation
	step := func(s ReconcileState) {
		res.State = s
		uc.log.Debug("reconcile", "state", s.String(), "external_id", res.ExternalID)
	}

	if authorization == "" {
		step(StateTokenAbsent)
		return res
	}

	claims, err := uc.claims.Extract(authorization)
	if err != nil {
		uc.log.Debug("bearer token carries no usable claims", "error", err)
	}
	res.ClaimsAvailable = err == nil

	res.ExternalID = callerID
	if res.ExternalID == "" && res.ClaimsAvailable {
		res.ExternalID = claims.ExternalID
	}
	if res.ExternalID == "" {
		step(StateClaimsUnavailable)
		return res
	}
	step(StateIdentityResolved)

	if uc.trustCallerID && callerID != "" {
		step(StateHeaderInjected)
		return res
	}

	res.Exists = uc.directory.Exists(ctx, res.ExternalID)
	step(StateExistenceChecked)

	if !res.Exists && res.ClaimsAvailable {
		res.User, res.Registration = uc.register(ctx, claims)
		step(StateRegistrationAttempted)
	}

	step(StateHeaderInjected)
	return res
}

func (uc *ReconcileUseCase) register(ctx context.Context, claims IdentityClaims) (*RegisteredUser, RegistrationOutcome) {
	if !claims.Registrable() {
		uc.log.Info("claims lack an email, skipping registration", "external_id", claims.ExternalID)
		return nil, RegistrationSkipped
	}
	return uc.directory.Register(ctx, NewRegistrationRequest(claims))
}
