package service_test

import (
	"testing"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/service"

	"gotest.tools/v3/assert"
)

func newTestClientService(t *testing.T, clients map[string]config.ClientConfig) *service.ClientService {
	t.Helper()

	clientService := service.NewClientService(service.ClientServiceConfig{
		Database: newTestDatabase(t),
	})

	err := clientService.SyncClientsFromConfig(clients)
	assert.NilError(t, err)

	return clientService
}

func TestSyncClientsFromConfig(t *testing.T) {
	clients := newTestClientService(t, map[string]config.ClientConfig{
		"acme-tv": {
			ClientID:     "acme-tv",
			ClientSecret: "tv-secret",
			Name:         "Acme TV",
			GrantTypes:   []string{config.GrantTypeDeviceCode},
			Scopes:       []string{"openid"},
		},
		"acme-bank": {
			ClientID:             "acme-bank",
			ClientSecret:         "bank-secret",
			TokenDeliveryModes:   []string{model.ModePing, model.ModePoll},
			NotificationEndpoint: "https://bank.example.com/ciba-callback",
		},
		"no-secret": {
			ClientID: "no-secret",
		},
	})

	tv, err := clients.GetClient("acme-tv")
	assert.NilError(t, err)
	assert.Equal(t, "Acme TV", tv.ClientName)
	assert.Assert(t, clients.ValidateGrantType(tv, config.GrantTypeDeviceCode))
	assert.Assert(t, !clients.ValidateGrantType(tv, config.GrantTypeCIBA))

	// Defaults fill in for omitted fields
	bank, err := clients.GetClient("acme-bank")
	assert.NilError(t, err)
	assert.Equal(t, "acme-bank", bank.ClientName)
	assert.Assert(t, clients.ValidateGrantType(bank, config.GrantTypeCIBA))
	assert.Assert(t, clients.ValidateDeliveryMode(bank, model.ModePing))
	assert.Assert(t, !clients.ValidateDeliveryMode(bank, model.ModePush))
	assert.Equal(t, "https://bank.example.com/ciba-callback", bank.NotificationEndpoint)

	// Clients without a secret are not provisioned
	_, err = clients.GetClient("no-secret")
	assert.ErrorIs(t, err, service.ErrClientNotFound)

	_, err = clients.GetClient("unknown")
	assert.ErrorIs(t, err, service.ErrClientNotFound)
}

func TestVerifyClientSecret(t *testing.T) {
	clients := newTestClientService(t, map[string]config.ClientConfig{
		"acme-tv": {
			ClientID:     "acme-tv",
			ClientSecret: "tv-secret",
		},
	})

	client, err := clients.GetClient("acme-tv")
	assert.NilError(t, err)

	assert.Assert(t, clients.VerifyClientSecret(client, "tv-secret"))
	assert.Assert(t, !clients.VerifyClientSecret(client, "wrong"))
	assert.Assert(t, !clients.VerifyClientSecret(client, ""))
}

func TestValidateScope(t *testing.T) {
	clients := newTestClientService(t, map[string]config.ClientConfig{
		"acme-tv": {
			ClientID:     "acme-tv",
			ClientSecret: "tv-secret",
			Scopes:       []string{"openid", "profile"},
		},
	})

	client, err := clients.GetClient("acme-tv")
	assert.NilError(t, err)

	scopes, err := clients.ValidateScope(client, "openid profile email")
	assert.NilError(t, err)
	assert.DeepEqual(t, []string{"openid", "profile"}, scopes)

	scopes, err = clients.ValidateScope(client, "email")
	assert.NilError(t, err)
	assert.Equal(t, 0, len(scopes))
}
