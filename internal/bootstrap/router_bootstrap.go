package bootstrap

import (
	"fmt"
	"strings"

	"github.com/oobauth/oobauth/internal/controller"
	"github.com/oobauth/oobauth/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (app *BootstrapApp) setupRouter() (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if len(app.config.TrustedProxies) > 0 {
		err := engine.SetTrustedProxies(strings.Split(app.config.TrustedProxies, ","))

		if err != nil {
			return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
		}
	}

	zerologMiddleware := middleware.NewZerologMiddleware()
	engine.Use(zerologMiddleware.Middleware())

	apiRouter := engine.Group("/api")

	operatorMiddleware := middleware.NewOperatorMiddleware(middleware.OperatorMiddlewareConfig{
		Token: app.config.OperatorToken,
	})

	decisionRouter := engine.Group("/api")
	decisionRouter.Use(operatorMiddleware.Middleware())

	backchannelController := controller.NewBackchannelController(controller.BackchannelControllerConfig{}, apiRouter, decisionRouter, app.services.backchannelService, app.services.decisionService, app.services.clientService)

	backchannelController.SetupRoutes()

	deviceController := controller.NewDeviceController(controller.DeviceControllerConfig{}, apiRouter, decisionRouter, app.services.deviceService, app.services.decisionService, app.services.clientService)

	deviceController.SetupRoutes()

	tokenController := controller.NewTokenController(controller.TokenControllerConfig{}, apiRouter, app.services.grantService, app.services.tokenService, app.services.clientService)

	tokenController.SetupRoutes()

	wellKnownController := controller.NewWellKnownController(controller.WellKnownControllerConfig{
		AppURL: app.config.AppURL,
	}, apiRouter, app.services.tokenService)

	wellKnownController.SetupRoutes()

	healthController := controller.NewHealthController(apiRouter)

	healthController.SetupRoutes()

	return engine, nil
}
