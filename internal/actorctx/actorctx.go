package actorctx

import "context"

type accountKey struct{}

// WithAccountID records the authenticated account on a request context
// so services and loggers below the HTTP layer can see who acted.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountKey{}, accountID)
}

func AccountIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accountKey{}).(string)
	return v, ok && v != ""
}
