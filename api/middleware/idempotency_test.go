package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquamesh/aquaview-backend/internal/authz"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	pkgredis "github.com/aquamesh/aquaview-backend/pkg/redis"
)

const orgsPath = "/api/v1/admin/organizations"

func newIdempotencyStore(t *testing.T) (*pkgredis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := pkgredis.NewFromRedis(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func idempotentRequest(subject, path, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	if subject != "" {
		req = req.WithContext(WithPrincipal(req.Context(), authz.Principal{Subject: subject, Username: subject}))
	}
	return req
}

type countingHandler struct {
	calls  int
	status int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.calls++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	_, _ = w.Write([]byte(`{"call":` + strconv.Itoa(h.calls) + `}`))
}

func recorderErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestRequiresIdempotency(t *testing.T) {
	cases := map[string]struct {
		method string
		path   string
		want   bool
	}{
		"create organization":  {http.MethodPost, orgsPath, true},
		"trailing slash":       {http.MethodPost, orgsPath + "/", true},
		"create admin grant":   {http.MethodPost, "/api/v1/admin/admin-grants", true},
		"list admin grants":    {http.MethodGet, "/api/v1/admin/admin-grants", false},
		"join organization":    {http.MethodPost, "/api/v1/organizations/abc/join", false},
		"acknowledge an alert": {http.MethodPost, "/api/v1/alerts/abc/acknowledge", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			assert.Equal(t, tc.want, requiresIdempotency(req))
		})
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	store, _ := newIdempotencyStore(t)
	h := &countingHandler{status: http.StatusCreated}

	rec := httptest.NewRecorder()
	Idempotency(store, nil)(h).ServeHTTP(rec, idempotentRequest("U1", orgsPath, "", `{}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), recorderErrorCode(t, rec))
	assert.Zero(t, h.calls)

	rec = httptest.NewRecorder()
	Idempotency(store, nil)(h).ServeHTTP(rec, idempotentRequest("U1", orgsPath, strings.Repeat("k", maxKeyLength+1), `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, h.calls)
}

func TestIdempotencyReplaysSuccessfulResponse(t *testing.T) {
	store, srv := newIdempotencyStore(t)
	h := &countingHandler{status: http.StatusCreated}
	mw := Idempotency(store, nil)(h)

	first := httptest.NewRecorder()
	mw.ServeHTTP(first, idempotentRequest("U1", orgsPath, "abc", `{"name":"Reef"}`))
	require.Equal(t, http.StatusCreated, first.Code)

	replay := httptest.NewRecorder()
	mw.ServeHTTP(replay, idempotentRequest("U1", orgsPath, "abc", `{"name":"Reef"}`))

	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, h.calls)

	key := store.IdempotencyKey("U1|POST|"+orgsPath, "abc")
	ttl := srv.TTL(key)
	assert.Greater(t, ttl, time.Hour, "stored record outlives the reservation")
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	store, _ := newIdempotencyStore(t)
	h := &countingHandler{status: http.StatusCreated}
	mw := Idempotency(store, nil)(h)

	mw.ServeHTTP(httptest.NewRecorder(), idempotentRequest("U1", orgsPath, "xyz", `{"name":"Reef"}`))

	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, idempotentRequest("U1", orgsPath, "xyz", `{"name":"Kelp"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), recorderErrorCode(t, rec))
	assert.Equal(t, 1, h.calls)
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	store, srv := newIdempotencyStore(t)
	h := &countingHandler{status: http.StatusBadRequest}
	mw := Idempotency(store, nil)(h)

	mw.ServeHTTP(httptest.NewRecorder(), idempotentRequest("U1", orgsPath, "retry", `{}`))
	assert.False(t, srv.Exists(store.IdempotencyKey("U1|POST|"+orgsPath, "retry")))

	h.status = http.StatusCreated
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, idempotentRequest("U1", orgsPath, "retry", `{}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, h.calls)
}

func TestIdempotencyReportsInFlightRequest(t *testing.T) {
	store, _ := newIdempotencyStore(t)
	key := store.IdempotencyKey("U1|POST|"+orgsPath, "busy")
	require.NoError(t, store.Set(context.Background(), key, pendingMarker, time.Minute))

	h := &countingHandler{status: http.StatusCreated}
	rec := httptest.NewRecorder()
	Idempotency(store, nil)(h).ServeHTTP(rec, idempotentRequest("U1", orgsPath, "busy", `{}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), recorderErrorCode(t, rec))
	assert.Zero(t, h.calls)
}

func TestIdempotencyScopesKeysPerCaller(t *testing.T) {
	store, _ := newIdempotencyStore(t)
	h := &countingHandler{status: http.StatusCreated}
	mw := Idempotency(store, nil)(h)

	for _, subject := range []string{"U1", "U2"} {
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, idempotentRequest(subject, "/api/v1/admin/admin-grants", "same", `{"email":"a@b.c"}`))
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	assert.Equal(t, 2, h.calls)
}

func TestIdempotencySkipsOtherRoutesAndMissingStore(t *testing.T) {
	h := &countingHandler{status: http.StatusOK}

	rec := httptest.NewRecorder()
	Idempotency(nil, nil)(h).ServeHTTP(rec, idempotentRequest("U1", orgsPath, "", `{}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	store, _ := newIdempotencyStore(t)
	rec = httptest.NewRecorder()
	Idempotency(store, nil)(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sensors", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, h.calls)
}
