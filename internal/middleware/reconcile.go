package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/otterscale/otterscale-gateway/internal/core"
	"github.com/otterscale/otterscale-gateway/internal/identity"
)

// UserIDHeader carries the canonical caller identity to upstream
// services.
const UserIDHeader = "X-User-ID"

const meterName = "github.com/otterscale/otterscale-gateway/internal/middleware"

// Reconciler resolves the canonical identity of a request.
type Reconciler interface {
	Reconcile(ctx context.Context, authorization, callerID string) core.Reconciliation
}

// Reconcile is the HTTP face of the reconciliation state machine. It
// never rejects a request: either the original request is forwarded
// untouched or a decorated copy carrying X-User-ID is.
type Reconcile struct {
	reconciler Reconciler
	requests   metric.Int64Counter
	log        *slog.Logger
}

// NewReconcile returns a Reconcile middleware backed by uc.
func NewReconcile(uc *core.ReconcileUseCase) (*Reconcile, error) {
	return newReconcile(uc)
}

func newReconcile(r Reconciler) (*Reconcile, error) {
	requests, err := otel.Meter(meterName).Int64Counter(
		"gateway.reconcile.requests",
		metric.WithDescription("Requests seen by the identity reconciliation filter, by terminal state and registration outcome."),
	)
	if err != nil {
		return nil, fmt.Errorf("create reconcile counter: %w", err)
	}

	return &Reconcile{
		reconciler: r,
		requests:   requests,
		log:        slog.Default().With("component", "reconcile-filter"),
	}, nil
}

// Wrap returns next guarded by identity reconciliation.
func (m *Reconcile) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := m.reconciler.Reconcile(r.Context(), r.Header.Get("Authorization"), r.Header.Get(UserIDHeader))

		m.requests.Add(r.Context(), 1, metric.WithAttributes(
			attribute.String("state", res.State.String()),
			attribute.String("registration", res.Registration.String()),
		))

		if !res.Resolved() {
			next.ServeHTTP(w, r)
			return
		}

		m.log.Debug("identity resolved",
			"external_id", res.ExternalID,
			"exists", res.Exists,
			"registration", res.Registration.String(),
		)

		ctx := identity.WithExternalID(r.Context(), res.ExternalID)
		overlay := NewHeaderOverlay(r.Header).With(UserIDHeader, res.ExternalID)
		next.ServeHTTP(w, overlay.Request(ctx, r))
	})
}
