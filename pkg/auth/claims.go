package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Token uses issued by Cognito user pools.
const (
	TokenUseID     = "id"
	TokenUseAccess = "access"
)

// Claims is the subset of a Cognito id or access token the API reads.
type Claims struct {
	CognitoUsername string   `json:"cognito:username,omitempty"`
	AccessUsername  string   `json:"username,omitempty"`
	Groups          []string `json:"cognito:groups,omitempty"`
	Email           string   `json:"email,omitempty"`
	TokenUse        string   `json:"token_use"`
	ClientID        string   `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

// Username returns the pool username. Id tokens carry cognito:username and
// access tokens carry username.
func (c *Claims) Username() string {
	if name := strings.TrimSpace(c.CognitoUsername); name != "" {
		return name
	}
	return strings.TrimSpace(c.AccessUsername)
}

// audience is the app client the token was issued to.
func (c *Claims) audience() []string {
	if c.TokenUse == TokenUseAccess {
		if c.ClientID == "" {
			return nil
		}
		return []string{c.ClientID}
	}
	return c.Audience
}
