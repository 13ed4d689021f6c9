package controller_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func (app *testApp) initiateDevice(t *testing.T) (string, string) {
	t.Helper()

	recorder := app.postForm(t, "/api/device/authorize", url.Values{
		"scope": {"openid"},
	}, "poll-client", "poll-secret")
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	deviceCode, ok := body["device_code"].(string)
	assert.Assert(t, ok && deviceCode != "")
	userCode, ok := body["user_code"].(string)
	assert.Assert(t, ok && userCode != "")

	return deviceCode, userCode
}

func TestDeviceAuthorizeEndpoint(t *testing.T) {
	app := newTestApp(t)

	recorder := app.postForm(t, "/api/device/authorize", url.Values{
		"scope": {"openid"},
	}, "poll-client", "poll-secret")
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, testAppURL+"/device", body["verification_uri"])
	assert.Equal(t, float64(300), body["expires_in"])
	assert.Equal(t, float64(5), body["interval"])

	verificationURIComplete, ok := body["verification_uri_complete"].(string)
	assert.Assert(t, ok && strings.HasPrefix(verificationURIComplete, testAppURL+"/device?user_code="))
}

func TestDeviceAuthorizeRequiresClientAuth(t *testing.T) {
	app := newTestApp(t)

	recorder := app.postForm(t, "/api/device/authorize", url.Values{
		"scope": {"openid"},
	}, "", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestDeviceVerifyApprove(t *testing.T) {
	app := newTestApp(t)

	deviceCode, userCode := app.initiateDevice(t)

	// The operator UI may submit the code in any case
	recorder := app.postJSON(t, "/api/device/verify", map[string]any{
		"user_code": strings.ToLower(userCode),
		"approve":   true,
		"user_id":   "user-1",
		"subject":   "subject-1",
	}, testOperatorToken)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "approved", decodeBody(t, recorder)["status"])

	record, err := app.store.GetByID(deviceCode)
	assert.NilError(t, err)
	assert.Equal(t, "subject-1", record.Subject)

	// The code was already used
	recorder = app.postJSON(t, "/api/device/verify", map[string]any{
		"user_code": userCode,
		"approve":   true,
		"user_id":   "user-2",
		"subject":   "subject-2",
	}, testOperatorToken)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestDeviceVerifyDeny(t *testing.T) {
	app := newTestApp(t)

	_, userCode := app.initiateDevice(t)

	recorder := app.postJSON(t, "/api/device/verify", map[string]any{
		"user_code": userCode,
		"approve":   false,
		"reason":    "not recognized",
	}, testOperatorToken)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "denied", decodeBody(t, recorder)["status"])
}

func TestDeviceVerifyApproveRequiresIdentity(t *testing.T) {
	app := newTestApp(t)

	_, userCode := app.initiateDevice(t)

	recorder := app.postJSON(t, "/api/device/verify", map[string]any{
		"user_code": userCode,
		"approve":   true,
	}, testOperatorToken)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestDeviceVerifyMalformedCode(t *testing.T) {
	app := newTestApp(t)

	recorder := app.postJSON(t, "/api/device/verify", map[string]any{
		"user_code": "not a code",
		"approve":   true,
		"user_id":   "user-1",
		"subject":   "subject-1",
	}, testOperatorToken)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "invalid_request", decodeBody(t, recorder)["error"])
}

func TestDeviceVerifyUnknownCode(t *testing.T) {
	app := newTestApp(t)

	recorder := app.postJSON(t, "/api/device/verify", map[string]any{
		"user_code": "ZZZZ-ZZZZ",
		"approve":   true,
		"user_id":   "user-1",
		"subject":   "subject-1",
	}, testOperatorToken)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "expired_token", decodeBody(t, recorder)["error"])
}

func TestDeviceVerifyRequiresOperatorToken(t *testing.T) {
	app := newTestApp(t)

	_, userCode := app.initiateDevice(t)

	recorder := app.postJSON(t, "/api/device/verify", map[string]any{
		"user_code": userCode,
		"approve":   true,
		"user_id":   "user-1",
		"subject":   "subject-1",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
