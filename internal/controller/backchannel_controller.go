package controller

import (
	"net/http"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/service"

	"github.com/gin-gonic/gin"
)

type BackchannelControllerConfig struct{}

type BackchannelController struct {
	config      BackchannelControllerConfig
	router      *gin.RouterGroup
	decisions   *gin.RouterGroup
	backchannel *service.BackchannelService
	decision    *service.DecisionService
	clients     *service.ClientService
}

func NewBackchannelController(config BackchannelControllerConfig, router *gin.RouterGroup, decisions *gin.RouterGroup, backchannel *service.BackchannelService, decision *service.DecisionService, clients *service.ClientService) *BackchannelController {
	return &BackchannelController{
		config:      config,
		router:      router,
		decisions:   decisions,
		backchannel: backchannel,
		decision:    decision,
		clients:     clients,
	}
}

func (controller *BackchannelController) SetupRoutes() {
	controller.router.POST("/bc-authorize", controller.authorizeHandler)

	cibaGroup := controller.decisions.Group("/ciba")
	cibaGroup.POST("/approve", controller.approveHandler)
	cibaGroup.POST("/deny", controller.denyHandler)
}

func (controller *BackchannelController) authorizeHandler(c *gin.Context) {
	client, oauthErr := authenticateClient(c, controller.clients)
	if oauthErr != nil {
		respondOAuthError(c, oauthErr)
		return
	}

	var request service.BackchannelAuthRequest
	if err := c.ShouldBind(&request); err != nil {
		respondOAuthError(c, service.NewOAuthError(service.ErrorInvalidRequest, "Malformed request body"))
		return
	}

	response, err := controller.backchannel.Initiate(client, request)
	if err != nil {
		respondOAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

type approveRequest struct {
	AuthReqID string `json:"auth_req_id"`
	UserID    string `json:"user_id"`
	Subject   string `json:"subject"`
	Nonce     string `json:"nonce"`
}

func (controller *BackchannelController) approveHandler(c *gin.Context) {
	var request approveRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed request body"})
		return
	}

	if request.AuthReqID == "" || request.UserID == "" || request.Subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auth_req_id, user_id and subject are required"})
		return
	}

	identity := config.Identity{
		UserID:  request.UserID,
		Subject: request.Subject,
	}

	err := controller.decision.Approve(request.AuthReqID, identity, request.Nonce)
	if err != nil {
		respondDecisionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

type denyRequest struct {
	AuthReqID string `json:"auth_req_id"`
	Reason    string `json:"reason"`
}

func (controller *BackchannelController) denyHandler(c *gin.Context) {
	var request denyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed request body"})
		return
	}

	if request.AuthReqID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auth_req_id is required"})
		return
	}

	err := controller.decision.Deny(request.AuthReqID, request.Reason)
	if err != nil {
		respondDecisionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "denied"})
}
