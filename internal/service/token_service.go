package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	IDToken     string `json:"id_token,omitempty"`
}

type TokenServiceConfig struct {
	Issuer            string
	AccessTokenExpiry int
	IDTokenExpiry     int
	Database          *gorm.DB
}

// TokenService signs the final access and ID tokens for a claimed
// authorization request. The signing key is persisted so JWKS stays stable
// across restarts.
type TokenService struct {
	config     TokenServiceConfig
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewTokenService(config TokenServiceConfig) *TokenService {
	return &TokenService{
		config: config,
	}
}

func (ts *TokenService) Init() error {
	var key model.SigningKey
	err := ts.config.Database.Order("id").First(&key).Error

	if err == nil {
		block, _ := pem.Decode([]byte(key.PrivateKey))
		if block == nil {
			return errors.New("failed to decode stored signing key")
		}

		privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return fmt.Errorf("failed to parse stored signing key: %w", err)
		}

		ts.privateKey = privateKey
		ts.publicKey = &privateKey.PublicKey
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load signing key: %w", err)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})

	record := model.SigningKey{
		PrivateKey: string(keyPEM),
		CreatedAt:  time.Now().Unix(),
	}

	if err := ts.config.Database.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to store signing key: %w", err)
	}

	ts.privateKey = privateKey
	ts.publicKey = &privateKey.PublicKey

	log.Info().Msg("Token service initialized with new RSA key pair")
	return nil
}

// IssueTokens builds the token response for a claimed request.
func (ts *TokenService) IssueTokens(record *model.AuthorizationRequest, identity config.Identity, nonce string) (*TokenResponse, error) {
	accessToken, err := ts.generateAccessToken(record, identity)
	if err != nil {
		return nil, err
	}

	idToken, err := ts.generateIDToken(record, identity, nonce)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   ts.accessTokenExpiry(),
		Scope:       record.Scope,
		IDToken:     idToken,
	}, nil
}

func (ts *TokenService) generateAccessToken(record *model.AuthorizationRequest, identity config.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       identity.Subject,
		"iss":       ts.config.Issuer,
		"aud":       record.ClientID,
		"exp":       now.Add(time.Duration(ts.accessTokenExpiry()) * time.Second).Unix(),
		"iat":       now.Unix(),
		"scope":     record.Scope,
		"client_id": record.ClientID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	accessToken, err := token.SignedString(ts.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return accessToken, nil
}

func (ts *TokenService) generateIDToken(record *model.AuthorizationRequest, identity config.Identity, nonce string) (string, error) {
	if !utils.Contains(utils.SplitScopes(record.Scope), "openid") {
		return "", nil
	}

	expiry := ts.config.IDTokenExpiry
	if expiry <= 0 {
		expiry = 3600
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":       identity.Subject,
		"iss":       ts.config.Issuer,
		"aud":       record.ClientID,
		"exp":       now.Add(time.Duration(expiry) * time.Second).Unix(),
		"iat":       now.Unix(),
		"auth_time": now.Unix(),
	}

	if nonce != "" {
		claims["nonce"] = nonce
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	idToken, err := token.SignedString(ts.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign ID token: %w", err)
	}

	return idToken, nil
}

// ResolveKey implements the hint verification key resolver for self-issued
// hint tokens. Keys of foreign issuers are not resolvable.
func (ts *TokenService) ResolveKey(issuer string, kid string) (any, error) {
	if issuer != "" && issuer != ts.config.Issuer {
		return nil, fmt.Errorf("no keys available for issuer %s", issuer)
	}
	return ts.publicKey, nil
}

func (ts *TokenService) GetJWKS() map[string]any {
	n := ts.publicKey.N
	e := ts.publicKey.E

	eBytes := []byte{byte(e >> 16), byte(e >> 8), byte(e)}

	jwk := map[string]any{
		"kty": "RSA",
		"use": "sig",
		"kid": "default",
		"n":   base64.RawURLEncoding.EncodeToString(n.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(eBytes),
		"alg": "RS256",
	}

	return map[string]any{
		"keys": []any{jwk},
	}
}

func (ts *TokenService) GetIssuer() string {
	return ts.config.Issuer
}

func (ts *TokenService) accessTokenExpiry() int {
	if ts.config.AccessTokenExpiry <= 0 {
		return 3600
	}
	return ts.config.AccessTokenExpiry
}
