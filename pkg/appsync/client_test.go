package appsync

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	creds := credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "session-token")
	client, err := NewWithCredentials(url, "us-west-2", creds, Options{Timeout: 2 * time.Second, Now: fixedNow})
	require.NoError(t, err)
	return client
}

func TestListSignsAndReturnsItemsVerbatim(t *testing.T) {
	var gotBody map[string]any
	var gotAuth, gotDate, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotDate = r.Header.Get("X-Amz-Date")
		gotToken = r.Header.Get("X-Amz-Security-Token")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":{"things":{"items":[{"id":"b","v":1.50},{"id":"a","nested":{"k":[1,2]}}]}}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/graphql")
	res, err := client.List(context.Background(), "query Q { things { items { id } } }", map[string]any{"sensorId": "S1"}, "things")
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, `{"id":"b","v":1.50}`, string(res.Items[0]))
	assert.Equal(t, `{"id":"a","nested":{"k":[1,2]}}`, string(res.Items[1]))

	assert.True(t, strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20260102/us-west-2/appsync/aws4_request"), gotAuth)
	assert.Equal(t, "20260102T030405Z", gotDate)
	assert.Equal(t, "session-token", gotToken)
	assert.Equal(t, "query Q { things { items { id } } }", gotBody["query"])
	assert.Equal(t, map[string]any{"sensorId": "S1"}, gotBody["variables"])
}

func TestListMissingShapeYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"things":null},"errors":[{"message":"Not Authorized"}]}`)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL).List(context.Background(), "q", nil, "things")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Not Authorized", res.Errors[0].Message)
}

func TestListFailures(t *testing.T) {
	t.Run("status without json body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		_, err := newTestClient(t, srv.URL).List(context.Background(), "q", nil, "things")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("parse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		}))
		defer srv.Close()
		_, err := newTestClient(t, srv.URL).List(context.Background(), "q", nil, "things")
		require.Error(t, err)
	})

	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()
		_, err := newTestClient(t, url).List(context.Background(), "q", nil, "things")
		require.Error(t, err)
	})
}

func TestNewWithCredentialsValidates(t *testing.T) {
	_, err := NewWithCredentials(" ", "us-east-1", credentials.NewStaticCredentialsProvider("a", "b", ""), Options{})
	require.Error(t, err)
	_, err = NewWithCredentials("https://example.com/graphql", "us-east-1", nil, Options{})
	require.Error(t, err)
}

func TestListNonSuccessStatusWithJSONBodyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"errors":[{"errorType":"UnauthorizedException","message":"Permission denied"}]}`)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL).List(context.Background(), "q", nil, "things")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, []json.RawMessage{}, res.Items)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Permission denied", res.Errors[0].Message)
}
