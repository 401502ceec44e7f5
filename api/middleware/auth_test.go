package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	"github.com/aquamesh/aquaview-backend/internal/users"
	"github.com/aquamesh/aquaview-backend/pkg/auth"
	"github.com/aquamesh/aquaview-backend/pkg/enums"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
)

type stubVerifier struct {
	claims *auth.Claims
	err    error
	got    string
}

func (s *stubVerifier) Verify(raw string) (*auth.Claims, error) {
	s.got = raw
	return s.claims, s.err
}

func okHandler(capture *authz.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = PrincipalFromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	return payload.Error.Code
}

func TestAuthRejectsMissingToken(t *testing.T) {
	verifier := &stubVerifier{}
	resp := httptest.NewRecorder()
	Auth(verifier, nil)(okHandler(nil)).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, verifier.got)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	verifier := &stubVerifier{err: jwt.ErrTokenExpired}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	resp := httptest.NewRecorder()
	Auth(verifier, nil)(okHandler(nil)).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeUnauthorized), errorCode(t, resp.Body.Bytes()))
	assert.Equal(t, "expired", verifier.got)
}

func TestAuthSeedsPrincipal(t *testing.T) {
	verifier := &stubVerifier{claims: &auth.Claims{
		CognitoUsername:  "alice",
		Email:            "alice@example.com",
		Groups:           []string{"GLOBAL_ADMIN"},
		TokenUse:         auth.TokenUseID,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "U1"},
	}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp := httptest.NewRecorder()
	var got authz.Principal
	Auth(verifier, nil)(okHandler(&got)).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, authz.Principal{Subject: "U1", Username: "alice", Email: "alice@example.com", Groups: []string{"GLOBAL_ADMIN"}}, got)
	assert.Equal(t, "U1::alice", got.OwnerIdentity())
}

func TestRequireGroup(t *testing.T) {
	mw := RequireGroup("GLOBAL_ADMIN", nil)
	cases := map[string]struct {
		principal authz.Principal
		status    int
	}{
		"anonymous": {authz.Principal{}, http.StatusUnauthorized},
		"member":    {authz.Principal{Subject: "U1", Username: "alice"}, http.StatusForbidden},
		"admin":     {authz.Principal{Subject: "U3", Username: "root", Groups: []string{"GLOBAL_ADMIN"}}, http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			req = req.WithContext(WithPrincipal(req.Context(), tc.principal))
			resp := httptest.NewRecorder()
			mw(okHandler(nil)).ServeHTTP(resp, req)
			assert.Equal(t, tc.status, resp.Code)
		})
	}
}

type stubProfiles struct {
	user *users.UserDTO
	err  error
}

func (s stubProfiles) Get(context.Context, authz.Principal, string) (*users.UserDTO, error) {
	return s.user, s.err
}

func TestRequireSetupComplete(t *testing.T) {
	alice := authz.Principal{Subject: "U1", Username: "alice"}
	serve := func(profiles ProfileLookup) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil)
		req = req.WithContext(WithPrincipal(req.Context(), alice))
		resp := httptest.NewRecorder()
		RequireSetupComplete(profiles, nil)(okHandler(nil)).ServeHTTP(resp, req)
		return resp
	}

	resp := serve(stubProfiles{user: &users.UserDTO{ID: "U1", UserSetupStage: enums.SetupStageBasicInfo}})
	require.Equal(t, http.StatusForbidden, resp.Code)
	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, string(pkgerrors.CodeForbidden), payload.Error.Code)
	assert.Equal(t, SetupRedirect, payload.Error.Details["redirect"])

	resp = serve(stubProfiles{user: &users.UserDTO{ID: "U1", UserSetupStage: enums.SetupStageComplete, SetupComplete: true}})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = serve(stubProfiles{err: pkgerrors.Wrap(pkgerrors.CodeNotFound, errors.New("missing"), "user not found")})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
