package controller

import (
	"net/http"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/service"

	"github.com/gin-gonic/gin"
)

type DeviceControllerConfig struct{}

type DeviceController struct {
	config    DeviceControllerConfig
	router    *gin.RouterGroup
	decisions *gin.RouterGroup
	device    *service.DeviceService
	decision  *service.DecisionService
	clients   *service.ClientService
}

func NewDeviceController(config DeviceControllerConfig, router *gin.RouterGroup, decisions *gin.RouterGroup, device *service.DeviceService, decision *service.DecisionService, clients *service.ClientService) *DeviceController {
	return &DeviceController{
		config:    config,
		router:    router,
		decisions: decisions,
		device:    device,
		decision:  decision,
		clients:   clients,
	}
}

func (controller *DeviceController) SetupRoutes() {
	controller.router.POST("/device/authorize", controller.authorizeHandler)
	controller.decisions.POST("/device/verify", controller.verifyHandler)
}

func (controller *DeviceController) authorizeHandler(c *gin.Context) {
	client, oauthErr := authenticateClient(c, controller.clients)
	if oauthErr != nil {
		respondOAuthError(c, oauthErr)
		return
	}

	var request service.DeviceAuthRequest
	if err := c.ShouldBind(&request); err != nil {
		respondOAuthError(c, service.NewOAuthError(service.ErrorInvalidRequest, "Malformed request body"))
		return
	}

	response, err := controller.device.Initiate(client, request)
	if err != nil {
		respondOAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

type verifyRequest struct {
	UserCode string `json:"user_code"`
	Approve  bool   `json:"approve"`
	UserID   string `json:"user_id"`
	Subject  string `json:"subject"`
	Reason   string `json:"reason"`
}

func (controller *DeviceController) verifyHandler(c *gin.Context) {
	var request verifyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed request body"})
		return
	}

	if request.UserCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_code is required"})
		return
	}

	record, err := controller.device.ResolveUserCode(request.UserCode)
	if err != nil {
		respondOAuthError(c, err)
		return
	}

	if record.Status != model.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Authorization request already decided"})
		return
	}

	if request.Approve {
		if request.UserID == "" || request.Subject == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and subject are required for approval"})
			return
		}

		identity := config.Identity{
			UserID:  request.UserID,
			Subject: request.Subject,
		}

		if err := controller.decision.Approve(record.ID, identity, ""); err != nil {
			respondDecisionError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "approved"})
		return
	}

	if err := controller.decision.Deny(record.ID, request.Reason); err != nil {
		respondDecisionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "denied"})
}
