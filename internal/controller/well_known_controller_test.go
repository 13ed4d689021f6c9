package controller_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oobauth/oobauth/internal/config"

	"gotest.tools/v3/assert"
)

func (app *testApp) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	assert.NilError(t, err)

	recorder := httptest.NewRecorder()
	app.router.ServeHTTP(recorder, req)
	return recorder
}

func TestDiscoveryDocument(t *testing.T) {
	app := newTestApp(t)

	recorder := app.get(t, "/api/.well-known/openid-configuration")
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, testAppURL, body["issuer"])
	assert.Equal(t, testAppURL+"/api/token", body["token_endpoint"])
	assert.Equal(t, testAppURL+"/api/bc-authorize", body["backchannel_authentication_endpoint"])
	assert.Equal(t, testAppURL+"/api/device/authorize", body["device_authorization_endpoint"])
	assert.Equal(t, testAppURL+"/api/oidc/jwks", body["jwks_uri"])
	assert.Equal(t, false, body["backchannel_user_code_parameter_supported"])

	grantTypes, ok := body["grant_types_supported"].([]any)
	assert.Assert(t, ok)

	found := map[string]bool{}
	for _, grantType := range grantTypes {
		found[grantType.(string)] = true
	}
	assert.Assert(t, found[config.GrantTypeCIBA])
	assert.Assert(t, found[config.GrantTypeDeviceCode])

	modes, ok := body["backchannel_token_delivery_modes_supported"].([]any)
	assert.Assert(t, ok)
	assert.Equal(t, 3, len(modes))
}

func TestJWKSEndpoint(t *testing.T) {
	app := newTestApp(t)

	recorder := app.get(t, "/api/oidc/jwks")
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	keys, ok := body["keys"].([]any)
	assert.Assert(t, ok)
	assert.Equal(t, 1, len(keys))

	key, ok := keys[0].(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, "RSA", key["kty"])
	assert.Equal(t, "sig", key["use"])
	assert.Equal(t, "RS256", key["alg"])

	modulus, ok := key["n"].(string)
	assert.Assert(t, ok && modulus != "")
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	recorder := app.get(t, "/api/health")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "ok", decodeBody(t, recorder)["status"])
}
