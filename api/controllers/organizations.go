package controllers

import (
	"net/http"

	"github.com/aquamesh/aquaview-backend/api/middleware"
	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/api/validators"
	"github.com/aquamesh/aquaview-backend/internal/organizations"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

type organizationRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Logo        *string `json:"logo,omitempty" validate:"omitempty,max=2048"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	State       *string `json:"state,omitempty"`
	ZipCode     *string `json:"zipCode,omitempty"`
	Country     *string `json:"country,omitempty"`
	Website     *string `json:"website,omitempty" validate:"omitempty,url"`
	Industry    *string `json:"industry,omitempty"`
	Size        *int    `json:"size,omitempty" validate:"omitempty,min=0"`
}

func (req organizationRequest) toFields() organizations.Fields {
	return organizations.Fields{
		Name:        trimmed(req.Name),
		Description: trimmed(req.Description),
		Logo:        trimmed(req.Logo),
		Address:     trimmed(req.Address),
		City:        trimmed(req.City),
		State:       trimmed(req.State),
		ZipCode:     trimmed(req.ZipCode),
		Country:     trimmed(req.Country),
		Website:     trimmed(req.Website),
		Industry:    trimmed(req.Industry),
		Size:        req.Size,
	}
}

// OrganizationList returns the basic directory used by the setup wizard.
func OrganizationList(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization service unavailable"))
			return
		}

		rows, err := svc.ListBasic(ctx, middleware.PrincipalFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func OrganizationGet(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		org, err := svc.Get(ctx, middleware.PrincipalFromContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}

// OrganizationUpdate patches an organization. Owners and admins of the
// organization may call it.
func OrganizationUpdate(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload organizationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		org, err := svc.Update(ctx, middleware.PrincipalFromContext(ctx), id, payload.toFields())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, org)
	}
}

type organizationCreateRequest struct {
	organizationRequest
	Name    string `json:"name" validate:"required,max=200"`
	OwnerID string `json:"ownerId,omitempty"`
}

// AdminOrganizationCreate creates an organization. The named owner, or the
// calling admin when omitted, joins as Owner.
func AdminOrganizationCreate(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization service unavailable"))
			return
		}

		var payload organizationCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(ctx)
		fields := payload.toFields()
		fields.Name = &payload.Name
		org, err := svc.Create(ctx, p, fields, payload.OwnerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, org)
	}
}

func OrganizationSensors(svc organizations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "organization service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListSensors(ctx, middleware.PrincipalFromContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
