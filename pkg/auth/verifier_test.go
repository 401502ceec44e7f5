package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_pool"
	testClient = "client-123"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestVerifier(t *testing.T) (*Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v, err := NewVerifier(func(*jwt.Token) (any, error) { return &key.PublicKey, nil }, testIssuer, testClient)
	require.NoError(t, err)
	v.now = func() time.Time { return testNow }
	return v, key
}

func idClaims() Claims {
	return Claims{
		CognitoUsername: "alice",
		Groups:          []string{"GLOBAL_ADMIN"},
		Email:           "alice@example.com",
		TokenUse:        TokenUseID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "U1",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testClient},
			IssuedAt:  jwt.NewNumericDate(testNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	}
}

func sign(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestVerifyIDToken(t *testing.T) {
	v, key := newTestVerifier(t)

	claims, err := v.Verify(sign(t, key, idClaims()))
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.Subject)
	assert.Equal(t, "alice", claims.Username())
	assert.Equal(t, []string{"GLOBAL_ADMIN"}, claims.Groups)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestVerifyAccessToken(t *testing.T) {
	v, key := newTestVerifier(t)
	c := idClaims()
	c.TokenUse = TokenUseAccess
	c.CognitoUsername = ""
	c.AccessUsername = "alice"
	c.Audience = nil
	c.ClientID = testClient

	claims, err := v.Verify(sign(t, key, c))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username())
}

func TestVerifyRejects(t *testing.T) {
	v, key := newTestVerifier(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cases := map[string]struct {
		token string
		is    error
	}{
		"empty": {token: "", is: ErrMissingToken},
		"expired": {token: func() string {
			c := idClaims()
			c.ExpiresAt = jwt.NewNumericDate(testNow.Add(-time.Second))
			return sign(t, key, c)
		}(), is: jwt.ErrTokenExpired},
		"issuer": {token: func() string {
			c := idClaims()
			c.Issuer = "https://evil.example.com"
			return sign(t, key, c)
		}(), is: jwt.ErrTokenInvalidIssuer},
		"signature": {token: sign(t, other, idClaims()), is: jwt.ErrTokenSignatureInvalid},
		"token use": {token: func() string {
			c := idClaims()
			c.TokenUse = "refresh"
			return sign(t, key, c)
		}(), is: ErrTokenUse},
		"client": {token: func() string {
			c := idClaims()
			c.Audience = jwt.ClaimStrings{"someone-else"}
			return sign(t, key, c)
		}(), is: ErrClient},
		"subject": {token: func() string {
			c := idClaims()
			c.Subject = ""
			return sign(t, key, c)
		}(), is: ErrSubject},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tc.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.is), "got %v", err)
		})
	}
}

func TestVerifyRejectsHMAC(t *testing.T) {
	v, _ := newTestVerifier(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, idClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "abc", BearerToken("abc"))
	assert.Equal(t, "", BearerToken("  "))
}

func TestNewVerifierValidates(t *testing.T) {
	_, err := NewVerifier(nil, testIssuer, "")
	assert.Error(t, err)
	_, err = NewVerifier(func(*jwt.Token) (any, error) { return nil, nil }, " ", "")
	assert.Error(t, err)
}
