package httpapi

import (
	"context"

	"github.com/riskibarqy/career-coach/internal/domain/user"
)

type principalKey struct{}

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// principalFromContext reports false unless RequireAuth stored a principal
// with a subject.
func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	if !ok || p.ExternalID == "" {
		return user.Principal{}, false
	}
	return p, true
}
