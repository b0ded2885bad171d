package events

import "context"

type correlationKey struct{}

// ContextWithCorrelationID stores the request correlation id so events emitted
// while serving the request carry it.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
