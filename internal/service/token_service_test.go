package service_test

import (
	"testing"
	"time"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"gotest.tools/v3/assert"
)

const tokenIssuer = "https://auth.example.com"

func newTokenFixture(t *testing.T) *service.TokenService {
	t.Helper()

	tokens := service.NewTokenService(service.TokenServiceConfig{
		Issuer:            tokenIssuer,
		AccessTokenExpiry: 1800,
		Database:          newTestDatabase(t),
	})

	err := tokens.Init()
	assert.NilError(t, err)

	return tokens
}

func tokenTestRequest(scope string) *model.AuthorizationRequest {
	now := time.Now()
	return &model.AuthorizationRequest{
		ID:        "req-1",
		Flow:      model.FlowBackchannel,
		ClientID:  "client-1",
		Scope:     scope,
		Status:    model.StatusApproved,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(5 * time.Minute).Unix(),
	}
}

func parseToken(t *testing.T, tokens *service.TokenService, tokenString string) jwt.MapClaims {
	t.Helper()

	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return tokens.ResolveKey(tokenIssuer, "")
	}, jwt.WithValidMethods([]string{"RS256"}))
	assert.NilError(t, err)
	assert.Assert(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.Assert(t, ok)

	return claims
}

func TestIssueTokens(t *testing.T) {
	tokens := newTokenFixture(t)

	identity := config.Identity{UserID: "user-1", Subject: "subject-1"}

	response, err := tokens.IssueTokens(tokenTestRequest("openid profile"), identity, "nonce-1")
	assert.NilError(t, err)

	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, 1800, response.ExpiresIn)
	assert.Equal(t, "openid profile", response.Scope)

	claims := parseToken(t, tokens, response.AccessToken)
	assert.Equal(t, "subject-1", claims["sub"])
	assert.Equal(t, tokenIssuer, claims["iss"])
	assert.Equal(t, "client-1", claims["aud"])
	assert.Equal(t, "openid profile", claims["scope"])
	assert.Equal(t, "client-1", claims["client_id"])

	idClaims := parseToken(t, tokens, response.IDToken)
	assert.Equal(t, "subject-1", idClaims["sub"])
	assert.Equal(t, "nonce-1", idClaims["nonce"])
}

func TestIssueTokensWithoutOpenIDScope(t *testing.T) {
	tokens := newTokenFixture(t)

	identity := config.Identity{UserID: "user-1", Subject: "subject-1"}

	response, err := tokens.IssueTokens(tokenTestRequest("profile"), identity, "")
	assert.NilError(t, err)

	assert.Assert(t, response.AccessToken != "")
	assert.Equal(t, "", response.IDToken)
}

func TestSigningKeyPersistence(t *testing.T) {
	database := newTestDatabase(t)

	first := service.NewTokenService(service.TokenServiceConfig{
		Issuer:   tokenIssuer,
		Database: database,
	})
	err := first.Init()
	assert.NilError(t, err)

	second := service.NewTokenService(service.TokenServiceConfig{
		Issuer:   tokenIssuer,
		Database: database,
	})
	err = second.Init()
	assert.NilError(t, err)

	firstKeys := first.GetJWKS()["keys"].([]any)
	secondKeys := second.GetJWKS()["keys"].([]any)

	assert.DeepEqual(t, firstKeys, secondKeys)
}

func TestResolveKeyForeignIssuer(t *testing.T) {
	tokens := newTokenFixture(t)

	_, err := tokens.ResolveKey("https://someone-else.example.com", "")
	assert.Assert(t, err != nil)
}
