package bootstrap

import (
	"fmt"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/utils"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type BootstrapApp struct {
	config  config.Config
	context struct {
		issuer  string
		clients map[string]config.ClientConfig
	}
	services Services
}

func NewBootstrapApp(config config.Config) *BootstrapApp {
	return &BootstrapApp{
		config: config,
	}
}

func (app *BootstrapApp) Setup() error {
	// Issuer defaults to the public URL
	app.context.issuer = app.config.Issuer

	if app.context.issuer == "" {
		app.context.issuer = app.config.AppURL
	}

	// Registered clients
	clients, err := app.loadClients()

	if err != nil {
		return fmt.Errorf("failed to load clients: %w", err)
	}

	if len(clients) == 0 {
		log.Warn().Msg("No clients configured, every authorization request will be rejected")
	}

	app.context.clients = clients

	// Dumps
	log.Trace().Interface("config", app.config).Msg("Config dump")
	log.Trace().Str("issuer", app.context.issuer).Msg("Issuer")

	// Services
	services, err := app.initServices()

	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	app.services = services

	// Router
	router, err := app.setupRouter()

	if err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	// Expiry sweeper
	log.Debug().Msg("Starting expiry sweeper")
	app.services.sweeperService.Start()

	// Start server
	address := fmt.Sprintf("%s:%d", app.config.Address, app.config.Port)
	log.Info().Msgf("Starting server on %s", address)
	if err := router.Run(address); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	return nil
}

func (app *BootstrapApp) loadClients() (map[string]config.ClientConfig, error) {
	if app.config.ClientsFile == "" {
		return map[string]config.ClientConfig{}, nil
	}

	loader := viper.New()
	loader.SetConfigFile(app.config.ClientsFile)

	if err := loader.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read clients file: %w", err)
	}

	var clientsFile config.ClientsFile

	if err := loader.Unmarshal(&clientsFile); err != nil {
		return nil, fmt.Errorf("failed to parse clients file: %w", err)
	}

	clients := clientsFile.Clients

	for id, client := range clients {
		if client.ClientID == "" {
			client.ClientID = id
		}

		secret := utils.GetSecret(client.ClientSecret, client.ClientSecretFile)
		client.ClientSecret = secret
		client.ClientSecretFile = ""

		clients[id] = client
	}

	return clients, nil
}
