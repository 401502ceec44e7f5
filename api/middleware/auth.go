package middleware

import (
	"net/http"

	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/internal/authz"
	pkgAuth "github.com/aquamesh/aquaview-backend/pkg/auth"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

// TokenVerifier validates identity tokens.
type TokenVerifier interface {
	Verify(raw string) (*pkgAuth.Claims, error)
}

// Auth validates a Cognito bearer token and seeds the request context with
// the caller's principal.
func Auth(verifier TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := pkgAuth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			principal := authz.Principal{
				Subject:  claims.Subject,
				Username: claims.Username(),
				Email:    claims.Email,
				Groups:   claims.Groups,
			}
			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.Subject)
				if len(principal.Groups) > 0 {
					ctx = logg.WithActorGroups(ctx, principal.Groups)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
