package visitor

import "context"

type cycleKey struct{}

// WithCycle tags ctx with the poll cycle that produced an observation.
func WithCycle(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleKey{}, id)
}

// CycleFrom returns the cycle id set by WithCycle, or "".
func CycleFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(cycleKey{}).(string)
	return id
}
