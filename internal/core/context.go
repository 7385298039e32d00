package core

import "context"

type contextKey string

const ctxKeyIdentity contextKey = "identity"

// ContextWithIdentity attaches the requesting identity to ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns the identity stored in ctx, or Anonymous.
func IdentityFromContext(ctx context.Context) Identity {
	if v, ok := ctx.Value(ctxKeyIdentity).(Identity); ok {
		return v
	}
	return Anonymous()
}
