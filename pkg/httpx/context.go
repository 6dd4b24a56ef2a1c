package httpx

import "context"

type ctxKey string

const ctxKeyPrincipalID ctxKey = "principal_id"

// WithPrincipalID records the signed-in principal on ctx for downstream
// middleware such as per-user rate limiting.
func WithPrincipalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipalID, id)
}

// PrincipalIDFromContext returns the id set by WithPrincipalID, or "".
func PrincipalIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyPrincipalID).(string); ok {
		return v
	}
	return ""
}
