package services

import (
	"context"

	"github.com/storelens/multicurrency/internal/core/domain"
)

// SelectionSvc is the per-request currency selection state machine.
type SelectionSvc interface {
	// Resolve determines the active currency for the request, applying the
	// precedence order: compatibility override, URL parameter, stored
	// selection, geolocation, store default.
	Resolve(ctx context.Context, state *domain.RequestState) domain.Currency

	// UpdateSelected records an explicit currency choice. Non-enabled codes
	// are silently ignored. When persist is true the choice is written to
	// the session or user metadata store, and a cart recalculation is
	// scheduled exactly once per change.
	UpdateSelected(ctx context.Context, state *domain.RequestState, code string, persist bool) error

	// FlushDeferred runs any recalculation that was deferred because the
	// request was not yet bootstrapped. Called at end of request.
	FlushDeferred(ctx context.Context, state *domain.RequestState)

	// VaryCookie returns the name and value of the output-only cache-vary
	// cookie recording the active code and rate.
	VaryCookie(currency domain.Currency) (name, value string)
}
