package dashboard

import "context"

// Channels tag which surface triggered an action.
const (
	ChannelHTTP   = "http"
	ChannelRouter = "router"
)

// Operator identifies who acted on the dashboard. Transports attach it to the
// request context and activity events carry it as actor and channel.
type Operator struct {
	SessionID string
	Channel   string
}

type operatorKey struct{}

// WithOperator returns a context carrying op.
func WithOperator(ctx context.Context, op Operator) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, operatorKey{}, op)
}

// OperatorFrom returns the operator attached to ctx, if any.
func OperatorFrom(ctx context.Context) (Operator, bool) {
	if ctx == nil {
		return Operator{}, false
	}
	op, ok := ctx.Value(operatorKey{}).(Operator)
	return op, ok
}
