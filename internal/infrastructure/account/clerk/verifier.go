package clerk

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/riskibarqy/career-coach/internal/domain/user"
	"github.com/riskibarqy/career-coach/internal/usecase"
)

type VerifierConfig struct {
	// PublicKeyPEM is the instance's JWT verification key in PEM form.
	PublicKeyPEM      string
	AuthorizedParties []string
	Leeway            time.Duration
	CacheTTL          time.Duration
}

// Verifier validates Clerk session tokens offline and caches the resulting
// principal until the token expires or CacheTTL passes, whichever is first.
type Verifier struct {
	key     *rsa.PublicKey
	parties map[string]struct{}
	parser  *jwt.Parser
	cache   *gocache.Cache
	ttl     time.Duration
	now     func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	AuthorizedParty string `json:"azp,omitempty"`
	SessionID       string `json:"sid,omitempty"`
}

func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	pem := strings.ReplaceAll(strings.TrimSpace(cfg.PublicKeyPEM), `\n`, "\n")
	if pem == "" {
		return nil, fmt.Errorf("clerk jwt public key is required")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("parse clerk jwt public key: %w", err)
	}

	parties := make(map[string]struct{}, len(cfg.AuthorizedParties))
	for _, p := range cfg.AuthorizedParties {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			parties[p] = struct{}{}
		}
	}

	ttl := cfg.CacheTTL
	if ttl < 0 {
		ttl = 0
	}

	v := &Verifier{
		key:     key,
		parties: parties,
		cache:   gocache.New(ttl, time.Minute),
		ttl:     ttl,
		now:     time.Now,
	}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	return v, nil
}

func (v *Verifier) Verify(_ context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	cacheKey := hashToken(token)
	if cached, ok := v.cache.Get(cacheKey); ok {
		if principal, ok := cached.(user.Principal); ok {
			return principal, nil
		}
	}

	var claims sessionClaims
	if _, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}); err != nil {
		return user.Principal{}, fmt.Errorf("%w: %v", usecase.ErrUnauthorized, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return user.Principal{}, fmt.Errorf("%w: token has no subject", usecase.ErrUnauthorized)
	}
	if len(v.parties) > 0 && claims.AuthorizedParty != "" {
		if _, ok := v.parties[strings.TrimRight(claims.AuthorizedParty, "/")]; !ok {
			return user.Principal{}, fmt.Errorf("%w: unexpected authorized party %q", usecase.ErrUnauthorized, claims.AuthorizedParty)
		}
	}

	principal := user.Principal{ExternalID: claims.Subject, SessionID: claims.SessionID}
	if v.ttl > 0 && claims.ExpiresAt != nil {
		ttl := claims.ExpiresAt.Sub(v.now())
		if ttl > v.ttl {
			ttl = v.ttl
		}
		if ttl > 0 {
			v.cache.Set(cacheKey, principal, ttl)
		}
	}

	return principal, nil
}
