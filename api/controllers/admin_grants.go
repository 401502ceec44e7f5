package controllers

import (
	"net/http"

	"github.com/aquamesh/aquaview-backend/api/middleware"
	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/api/validators"
	"github.com/aquamesh/aquaview-backend/internal/provisioning"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

func AdminGrantList(svc provisioning.GrantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin grant service unavailable"))
			return
		}

		rows, err := svc.List(ctx, middleware.PrincipalFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminGrantCreate records an email that becomes global admin at signup.
func AdminGrantCreate(svc provisioning.GrantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin grant service unavailable"))
			return
		}

		var payload provisioning.GrantInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		grant, err := svc.Create(ctx, middleware.PrincipalFromContext(ctx), payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, grant)
	}
}
