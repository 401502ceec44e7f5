package controllers

import (
	"net/http"
	"strings"

	"github.com/aquamesh/aquaview-backend/api/middleware"
	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/api/validators"
	"github.com/aquamesh/aquaview-backend/internal/memberships"
	"github.com/aquamesh/aquaview-backend/internal/users"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
	"github.com/aquamesh/aquaview-backend/pkg/pagination"
)

// UserMe returns the caller's profile and stamps the last login time.
func UserMe(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		user, err := svc.Me(ctx, middleware.PrincipalFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

type profileUpdateRequest struct {
	FirstName      *string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName       *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	PhoneNumber    *string `json:"phoneNumber,omitempty" validate:"omitempty,e164"`
	ProfilePicture *string `json:"profilePicture,omitempty" validate:"omitempty,max=2048"`
	Industry       *string `json:"industry,omitempty" validate:"omitempty,max=100"`
	JobTitle       *string `json:"jobTitle,omitempty" validate:"omitempty,max=100"`
	Bio            *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Location       *string `json:"location,omitempty" validate:"omitempty,max=200"`
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func (req profileUpdateRequest) toInput() users.UpdateProfileInput {
	return users.UpdateProfileInput{
		FirstName:      trimmed(req.FirstName),
		LastName:       trimmed(req.LastName),
		PhoneNumber:    trimmed(req.PhoneNumber),
		ProfilePicture: trimmed(req.ProfilePicture),
		Industry:       trimmed(req.Industry),
		JobTitle:       trimmed(req.JobTitle),
		Bio:            trimmed(req.Bio),
		Location:       trimmed(req.Location),
	}
}

// UserUpdateProfile patches the caller's profile fields.
func UserUpdateProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var payload profileUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(ctx)
		user, err := svc.UpdateProfile(ctx, p, p.Subject, payload.toInput())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

type setupStageRequest struct {
	Stage string `json:"userSetupStage" validate:"required"`
}

// UserAdvanceSetupStage moves the caller through the profile wizard.
func UserAdvanceSetupStage(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var payload setupStageRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(ctx)
		user, err := svc.AdvanceSetupStage(ctx, p, p.Subject, payload.Stage)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// UserOrganizations lists the caller's memberships with organization names.
func UserOrganizations(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		rows, err := svc.ListMine(ctx, middleware.PrincipalFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AdminListUsers pages through every user.
func AdminListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.List(ctx, middleware.PrincipalFromContext(ctx), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
