package bootstrap

import (
	"github.com/oobauth/oobauth/internal/service"
)

type Services struct {
	databaseService     *service.DatabaseService
	requestStoreService *service.RequestStoreService
	clientService       *service.ClientService
	tokenService        *service.TokenService
	hintService         *service.HintService
	notifierService     *service.NotifierService
	decisionService     *service.DecisionService
	backchannelService  *service.BackchannelService
	deviceService       *service.DeviceService
	grantService        *service.GrantService
	sweeperService      *service.SweeperService
}

func (app *BootstrapApp) initServices() (Services, error) {
	services := Services{}

	databaseService := service.NewDatabaseService(service.DatabaseServiceConfig{
		DatabasePath: app.config.DatabasePath,
	})

	err := databaseService.Init()

	if err != nil {
		return Services{}, err
	}

	services.databaseService = databaseService

	database := databaseService.GetDatabase()

	requestStoreService := service.NewRequestStoreService(service.RequestStoreServiceConfig{
		Database: database,
	})

	services.requestStoreService = requestStoreService

	clientService := service.NewClientService(service.ClientServiceConfig{
		Database: database,
	})

	err = clientService.SyncClientsFromConfig(app.context.clients)

	if err != nil {
		return Services{}, err
	}

	services.clientService = clientService

	tokenService := service.NewTokenService(service.TokenServiceConfig{
		Issuer:            app.context.issuer,
		AccessTokenExpiry: app.config.AccessTokenExpiry,
		IDTokenExpiry:     app.config.IDTokenExpiry,
		Database:          database,
	})

	err = tokenService.Init()

	if err != nil {
		return Services{}, err
	}

	services.tokenService = tokenService

	hintService := service.NewHintService(service.HintServiceConfig{
		Issuer: app.context.issuer,
		Keys:   tokenService,
	})

	services.hintService = hintService

	notifierService := service.NewNotifierService(service.NotifierServiceConfig{
		Retries: app.config.NotificationRetries,
	}, requestStoreService, tokenService)

	services.notifierService = notifierService

	decisionService := service.NewDecisionService(service.DecisionServiceConfig{}, requestStoreService, notifierService)

	services.decisionService = decisionService

	backchannelService := service.NewBackchannelService(service.BackchannelServiceConfig{
		DefaultExpiry: app.config.DefaultExpiry,
		MaxExpiry:     app.config.MaxExpiry,
		PollInterval:  app.config.PollInterval,
	}, requestStoreService, clientService, hintService)

	services.backchannelService = backchannelService

	deviceService := service.NewDeviceService(service.DeviceServiceConfig{
		AppURL:        app.config.AppURL,
		DefaultExpiry: app.config.DefaultExpiry,
		MaxExpiry:     app.config.MaxExpiry,
		PollInterval:  app.config.PollInterval,
	}, requestStoreService, clientService)

	services.deviceService = deviceService

	grantService := service.NewGrantService(service.GrantServiceConfig{}, requestStoreService)

	services.grantService = grantService

	sweeperService := service.NewSweeperService(service.SweeperServiceConfig{
		SweepInterval:  app.config.SweepInterval,
		RetentionGrace: app.config.RetentionGrace,
	}, requestStoreService)

	services.sweeperService = sweeperService

	return services, nil
}
