package middleware

import (
	"context"
	"net/http"

	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/users"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

// SetupRedirect is where the client sends users who have not finished setup.
const SetupRedirect = "/profile-completion"

// ProfileLookup loads a user profile on behalf of a principal.
type ProfileLookup interface {
	Get(ctx context.Context, p authz.Principal, id string) (*users.UserDTO, error)
}

// RequireSetupComplete blocks the request until the caller's setup stage is
// COMPLETE.
func RequireSetupComplete(profiles ProfileLookup, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if profiles == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
				return
			}
			p := PrincipalFromContext(ctx)
			user, err := profiles.Get(ctx, p, p.Subject)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !user.SetupComplete {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeForbidden, "profile setup incomplete").
						WithDetails(map[string]any{"redirect": SetupRedirect, "userSetupStage": user.UserSetupStage}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
