package controllers

import (
	"net/http"

	"github.com/aquamesh/aquaview-backend/api/middleware"
	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/api/validators"
	"github.com/aquamesh/aquaview-backend/internal/memberships"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

func joinStatus(res memberships.JoinResult) int {
	if res.Inserted() {
		return http.StatusCreated
	}
	return http.StatusOK
}

// MembershipJoin adds the caller to an organization. Repeating the call
// returns the existing membership.
func MembershipJoin(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		res, err := svc.Join(ctx, middleware.PrincipalFromContext(ctx), orgID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, joinStatus(res), res)
	}
}

func MembershipLeave(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Leave(ctx, middleware.PrincipalFromContext(ctx), orgID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func MembershipListMembers(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := svc.ListMembers(ctx, middleware.PrincipalFromContext(ctx), orgID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

// MembershipAddMember lets organization managers add another user.
func MembershipAddMember(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload addMemberRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		res, err := svc.AddMember(ctx, middleware.PrincipalFromContext(ctx), orgID, memberships.AddMemberInput{
			UserID: payload.UserID,
			Role:   payload.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, joinStatus(res), res)
	}
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func MembershipUpdateRole(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := validators.PathString(r, "userID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload updateRoleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.UpdateRole(ctx, middleware.PrincipalFromContext(ctx), orgID, userID, payload.Role)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func MembershipRemoveMember(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		orgID, err := validators.PathUUID(r, "orgID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID, err := validators.PathString(r, "userID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.RemoveMember(ctx, middleware.PrincipalFromContext(ctx), orgID, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
