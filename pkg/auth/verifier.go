package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/aquamesh/aquaview-backend/pkg/config"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrTokenUse     = errors.New("unsupported token_use")
	ErrClient       = errors.New("token issued to another client")
	ErrSubject      = errors.New("token has no subject")
)

var signingMethods = []string{jwt.SigningMethodRS256.Alg()}

// Verifier validates Cognito issued JWTs against the pool's key set.
type Verifier struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	clientID string
	now      func() time.Time
}

// NewVerifier builds a verifier over an arbitrary key lookup. An empty
// clientID skips the audience check.
func NewVerifier(kf jwt.Keyfunc, issuer, clientID string) (*Verifier, error) {
	if kf == nil {
		return nil, fmt.Errorf("keyfunc required")
	}
	if strings.TrimSpace(issuer) == "" {
		return nil, fmt.Errorf("issuer required")
	}
	return &Verifier{
		keyfunc:  kf,
		issuer:   issuer,
		clientID: strings.TrimSpace(clientID),
		now:      time.Now,
	}, nil
}

// NewCognitoVerifier fetches and refreshes the pool JWKS in the background
// until ctx is cancelled.
func NewCognitoVerifier(ctx context.Context, cfg config.CognitoConfig) (*Verifier, error) {
	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.KeySetURL()})
	if err != nil {
		return nil, fmt.Errorf("load cognito jwks: %w", err)
	}
	return NewVerifier(jwks.Keyfunc, cfg.Issuer(), cfg.ClientID)
}

// Verify parses raw and returns its claims when the signature, issuer,
// expiry, token use and client all check out.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, v.keyfunc,
		jwt.WithValidMethods(signingMethods),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, err
	}

	if claims.TokenUse != TokenUseID && claims.TokenUse != TokenUseAccess {
		return nil, fmt.Errorf("%w %q", ErrTokenUse, claims.TokenUse)
	}
	if v.clientID != "" && !slices.Contains(claims.audience(), v.clientID) {
		return nil, ErrClient
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrSubject
	}
	return claims, nil
}

// BearerToken strips an optional "Bearer " prefix from an Authorization
// header value.
func BearerToken(header string) string {
	token := strings.TrimSpace(header)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
