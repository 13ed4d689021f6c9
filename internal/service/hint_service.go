package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Typed hint validation failures
var (
	ErrHintExpired          = errors.New("hint token expired")
	ErrHintNotYetValid      = errors.New("hint token not yet valid")
	ErrHintBadSignature     = errors.New("hint token signature invalid")
	ErrHintIssuerMismatch   = errors.New("hint token issuer mismatch")
	ErrHintAudienceMismatch = errors.New("hint token audience mismatch")
	ErrHintMissingClaim     = errors.New("hint token missing required claim")
)

// Only asymmetric algorithms are acceptable for hint tokens. "none" and the
// HMAC family are rejected before any key is resolved.
var allowedHintMethods = []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512", "EdDSA"}

// KeyResolver returns the verification key for a hint token. Resolution
// against the issuer's published keys is a collaborator concern.
type KeyResolver interface {
	ResolveKey(issuer string, kid string) (any, error)
}

type HintServiceConfig struct {
	Issuer string
	Keys   KeyResolver
	// Clock defaults to time.Now, overridable in tests
	Clock func() time.Time
}

// HintService checks the claims of pre-signed identity assertions supplied at
// initiation time: self-issued id_token_hint and third-party login_hint_token.
type HintService struct {
	config HintServiceConfig
	clock  func() time.Time
}

func NewHintService(config HintServiceConfig) *HintService {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &HintService{
		config: config,
		clock:  clock,
	}
}

// VerifyIDTokenHint validates a hint previously issued by this server. The
// resolved subject identifier is returned on success.
func (hs *HintService) VerifyIDTokenHint(tokenString string) (string, error) {
	claims, err := hs.parse(tokenString)
	if err != nil {
		return "", err
	}

	issuer, ok := claims["iss"].(string)
	if !ok || issuer == "" {
		return "", ErrHintMissingClaim
	}
	if issuer != hs.config.Issuer {
		return "", ErrHintIssuerMismatch
	}

	return hs.subject(claims)
}

// VerifyLoginHintToken validates a hint issued by a trusted third party for
// this server, so the audience rather than the issuer must match.
func (hs *HintService) VerifyLoginHintToken(tokenString string) (string, error) {
	claims, err := hs.parse(tokenString)
	if err != nil {
		return "", err
	}

	if !hs.audienceMatches(claims) {
		return "", ErrHintAudienceMismatch
	}

	return hs.subject(claims)
}

func (hs *HintService) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, ErrHintMissingClaim
		}

		issuer, _ := claims["iss"].(string)
		kid, _ := token.Header["kid"].(string)

		return hs.config.Keys.ResolveKey(issuer, kid)
	}, jwt.WithValidMethods(allowedHintMethods), jwt.WithTimeFunc(hs.clock))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrHintExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrHintNotYetValid
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrHintBadSignature
		default:
			return nil, fmt.Errorf("%w: %w", ErrHintBadSignature, err)
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrHintMissingClaim
	}

	return claims, nil
}

func (hs *HintService) subject(claims jwt.MapClaims) (string, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrHintMissingClaim
	}
	return sub, nil
}

func (hs *HintService) audienceMatches(claims jwt.MapClaims) bool {
	switch aud := claims["aud"].(type) {
	case string:
		return aud == hs.config.Issuer
	case []any:
		for _, entry := range aud {
			if value, ok := entry.(string); ok && value == hs.config.Issuer {
				return true
			}
		}
	}
	return false
}
