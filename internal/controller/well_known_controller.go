package controller

import (
	"fmt"
	"net/http"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/service"

	"github.com/gin-gonic/gin"
)

type WellKnownControllerConfig struct {
	AppURL string
}

type WellKnownController struct {
	config WellKnownControllerConfig
	router *gin.RouterGroup
	tokens *service.TokenService
}

func NewWellKnownController(config WellKnownControllerConfig, router *gin.RouterGroup, tokens *service.TokenService) *WellKnownController {
	return &WellKnownController{
		config: config,
		router: router,
		tokens: tokens,
	}
}

func (controller *WellKnownController) SetupRoutes() {
	controller.router.GET("/.well-known/openid-configuration", controller.discoveryHandler)
	controller.router.GET("/oidc/jwks", controller.jwksHandler)
}

func (controller *WellKnownController) discoveryHandler(c *gin.Context) {
	appURL := controller.config.AppURL

	c.JSON(http.StatusOK, gin.H{
		"issuer":                              controller.tokens.GetIssuer(),
		"token_endpoint":                      fmt.Sprintf("%s/api/token", appURL),
		"jwks_uri":                            fmt.Sprintf("%s/api/oidc/jwks", appURL),
		"backchannel_authentication_endpoint": fmt.Sprintf("%s/api/bc-authorize", appURL),
		"device_authorization_endpoint":       fmt.Sprintf("%s/api/device/authorize", appURL),
		"grant_types_supported":               []string{config.GrantTypeCIBA, config.GrantTypeDeviceCode},
		"backchannel_token_delivery_modes_supported": []string{model.ModePoll, model.ModePing, model.ModePush},
		"backchannel_user_code_parameter_supported":  false,
		"token_endpoint_auth_methods_supported":      []string{"client_secret_basic", "client_secret_post"},
		"id_token_signing_alg_values_supported":      []string{"RS256"},
		"scopes_supported":                           []string{"openid", "profile", "email"},
		"response_types_supported":                   []string{"token", "id_token"},
		"subject_types_supported":                    []string{"public"},
	})
}

func (controller *WellKnownController) jwksHandler(c *gin.Context) {
	c.JSON(http.StatusOK, controller.tokens.GetJWKS())
}
