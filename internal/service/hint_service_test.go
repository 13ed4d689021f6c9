package service_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/oobauth/oobauth/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"gotest.tools/v3/assert"
)

const hintIssuer = "https://auth.example.com"

type staticKeyResolver struct {
	key any
}

func (r staticKeyResolver) ResolveKey(issuer string, kid string) (any, error) {
	return r.key, nil
}

func newHintFixture(t *testing.T) (*service.HintService, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NilError(t, err)

	hints := service.NewHintService(service.HintServiceConfig{
		Issuer: hintIssuer,
		Keys:   staticKeyResolver{key: &key.PublicKey},
	})

	return hints, key
}

func signHint(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	assert.NilError(t, err)

	return signed
}

func TestVerifyIDTokenHint(t *testing.T) {
	hints, key := newHintFixture(t)

	tokenString := signHint(t, key, jwt.MapClaims{
		"iss": hintIssuer,
		"sub": "subject-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	subject, err := hints.VerifyIDTokenHint(tokenString)
	assert.NilError(t, err)
	assert.Equal(t, "subject-1", subject)
}

func TestVerifyIDTokenHintIssuerMismatch(t *testing.T) {
	hints, key := newHintFixture(t)

	tokenString := signHint(t, key, jwt.MapClaims{
		"iss": "https://someone-else.example.com",
		"sub": "subject-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := hints.VerifyIDTokenHint(tokenString)
	assert.ErrorIs(t, err, service.ErrHintIssuerMismatch)
}

func TestVerifyIDTokenHintExpired(t *testing.T) {
	hints, key := newHintFixture(t)

	tokenString := signHint(t, key, jwt.MapClaims{
		"iss": hintIssuer,
		"sub": "subject-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := hints.VerifyIDTokenHint(tokenString)
	assert.ErrorIs(t, err, service.ErrHintExpired)
}

func TestVerifyIDTokenHintBadSignature(t *testing.T) {
	hints, _ := newHintFixture(t)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NilError(t, err)

	tokenString := signHint(t, otherKey, jwt.MapClaims{
		"iss": hintIssuer,
		"sub": "subject-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err = hints.VerifyIDTokenHint(tokenString)
	assert.ErrorIs(t, err, service.ErrHintBadSignature)
}

func TestVerifyIDTokenHintRejectsSymmetricAlg(t *testing.T) {
	hints, _ := newHintFixture(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": hintIssuer,
		"sub": "subject-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("shared-secret"))
	assert.NilError(t, err)

	_, err = hints.VerifyIDTokenHint(signed)
	assert.Assert(t, err != nil)
}

func TestVerifyIDTokenHintMissingSubject(t *testing.T) {
	hints, key := newHintFixture(t)

	tokenString := signHint(t, key, jwt.MapClaims{
		"iss": hintIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := hints.VerifyIDTokenHint(tokenString)
	assert.ErrorIs(t, err, service.ErrHintMissingClaim)
}

func TestVerifyLoginHintToken(t *testing.T) {
	hints, key := newHintFixture(t)

	tokenString := signHint(t, key, jwt.MapClaims{
		"iss": "https://partner.example.com",
		"aud": hintIssuer,
		"sub": "subject-2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	subject, err := hints.VerifyLoginHintToken(tokenString)
	assert.NilError(t, err)
	assert.Equal(t, "subject-2", subject)
}

func TestVerifyLoginHintTokenAudienceList(t *testing.T) {
	hints, key := newHintFixture(t)

	tokenString := signHint(t, key, jwt.MapClaims{
		"iss": "https://partner.example.com",
		"aud": []string{"https://other.example.com", hintIssuer},
		"sub": "subject-2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	subject, err := hints.VerifyLoginHintToken(tokenString)
	assert.NilError(t, err)
	assert.Equal(t, "subject-2", subject)
}

func TestVerifyLoginHintTokenAudienceMismatch(t *testing.T) {
	hints, key := newHintFixture(t)

	tokenString := signHint(t, key, jwt.MapClaims{
		"iss": "https://partner.example.com",
		"aud": "https://other.example.com",
		"sub": "subject-2",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := hints.VerifyLoginHintToken(tokenString)
	assert.ErrorIs(t, err, service.ErrHintAudienceMismatch)
}

func TestHintClockOverride(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NilError(t, err)

	issuedAt := time.Unix(1600000000, 0)

	hints := service.NewHintService(service.HintServiceConfig{
		Issuer: hintIssuer,
		Keys:   staticKeyResolver{key: &key.PublicKey},
		Clock:  func() time.Time { return issuedAt },
	})

	tokenString := signHint(t, key, jwt.MapClaims{
		"iss": hintIssuer,
		"sub": "subject-1",
		"exp": issuedAt.Add(time.Minute).Unix(),
	})

	subject, err := hints.VerifyIDTokenHint(tokenString)
	assert.NilError(t, err)
	assert.Equal(t, "subject-1", subject)
}
