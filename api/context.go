package api

import (
	"context"

	"github.com/rpupo63/projecthub-backend/auth"
)

type keyType string

const identityKey keyType = "identity"

// ctxWithIdentity adds the verified caller to the context
func ctxWithIdentity(ctx context.Context, identity *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// identityFromCtx returns the verified caller, or nil for anonymous requests
func identityFromCtx(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey).(*auth.Identity)
	return identity
}
