package controller

import (
	"net/http"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/service"

	"github.com/gin-gonic/gin"
)

type TokenControllerConfig struct{}

type TokenController struct {
	config  TokenControllerConfig
	router  *gin.RouterGroup
	grants  *service.GrantService
	tokens  *service.TokenService
	clients *service.ClientService
}

func NewTokenController(config TokenControllerConfig, router *gin.RouterGroup, grants *service.GrantService, tokens *service.TokenService, clients *service.ClientService) *TokenController {
	return &TokenController{
		config:  config,
		router:  router,
		grants:  grants,
		tokens:  tokens,
		clients: clients,
	}
}

func (controller *TokenController) SetupRoutes() {
	controller.router.POST("/token", controller.tokenHandler)
}

type tokenRequest struct {
	GrantType  string `form:"grant_type"`
	AuthReqID  string `form:"auth_req_id"`
	DeviceCode string `form:"device_code"`
}

func (controller *TokenController) tokenHandler(c *gin.Context) {
	client, oauthErr := authenticateClient(c, controller.clients)
	if oauthErr != nil {
		respondOAuthError(c, oauthErr)
		return
	}

	var request tokenRequest
	if err := c.ShouldBind(&request); err != nil {
		respondOAuthError(c, service.NewOAuthError(service.ErrorInvalidRequest, "Malformed request body"))
		return
	}

	var id string

	switch request.GrantType {
	case config.GrantTypeCIBA:
		id = request.AuthReqID
		if id == "" {
			respondOAuthError(c, service.NewOAuthError(service.ErrorInvalidRequest, "auth_req_id is required"))
			return
		}
	case config.GrantTypeDeviceCode:
		id = request.DeviceCode
		if id == "" {
			respondOAuthError(c, service.NewOAuthError(service.ErrorInvalidRequest, "device_code is required"))
			return
		}
	default:
		respondOAuthError(c, service.NewOAuthError(service.ErrorUnsupportedGrantType, "Unsupported grant type"))
		return
	}

	if !controller.clients.ValidateGrantType(client, request.GrantType) {
		respondOAuthError(c, service.NewOAuthError(service.ErrorUnauthorizedClient, "Client is not allowed to use this grant type"))
		return
	}

	result, err := controller.grants.Redeem(client, id)
	if err != nil {
		respondOAuthError(c, err)
		return
	}

	response, err := controller.tokens.IssueTokens(result.Request, result.Identity, result.Nonce)
	if err != nil {
		respondOAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
