package queries

import (
	"context"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	gocommand "github.com/goliatone/go-command"
)

type viewService interface {
	View(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.View, error)
}

// ViewQuery resolves the active tab of a session.
type ViewQuery struct {
	service viewService
}

// NewViewQuery builds the query.
func NewViewQuery(service viewService) *ViewQuery {
	return &ViewQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.View] = (*ViewQuery)(nil)

// Query resolves the view for the viewer.
func (q *ViewQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.View, error) {
	return q.service.View(ctx, viewer)
}

type stateService interface {
	State(ctx context.Context, id string) (dashboard.UIState, error)
}

// SessionStateQuery returns the raw UI state of a session.
type SessionStateQuery struct {
	service stateService
}

// NewSessionStateQuery builds the query.
func NewSessionStateQuery(service stateService) *SessionStateQuery {
	return &SessionStateQuery{service: service}
}

var _ gocommand.Querier[dashboard.ViewerContext, dashboard.UIState] = (*SessionStateQuery)(nil)

// Query loads the viewer's session.
func (q *SessionStateQuery) Query(ctx context.Context, viewer dashboard.ViewerContext) (dashboard.UIState, error) {
	return q.service.State(ctx, viewer.SessionID)
}
