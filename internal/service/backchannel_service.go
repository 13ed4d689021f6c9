package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/utils"
	"github.com/oobauth/oobauth/internal/utils/tlog"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxBindingMessageLength = 140

type BackchannelAuthRequest struct {
	ClientID                string `form:"client_id"`
	Scope                   string `form:"scope"`
	LoginHint               string `form:"login_hint"`
	LoginHintToken          string `form:"login_hint_token"`
	IDTokenHint             string `form:"id_token_hint"`
	BindingMessage          string `form:"binding_message"`
	AcrValues               string `form:"acr_values"`
	ClientNotificationToken string `form:"client_notification_token"`
	RequestedExpiry         int    `form:"requested_expiry"`
}

type BackchannelAuthResponse struct {
	AuthReqID string `json:"auth_req_id"`
	ExpiresIn int    `json:"expires_in"`
	Interval  int    `json:"interval,omitempty"`
}

type BackchannelServiceConfig struct {
	DefaultExpiry int
	MaxExpiry     int
	PollInterval  int
}

// BackchannelService builds and persists CIBA authentication requests.
type BackchannelService struct {
	config  BackchannelServiceConfig
	store   *RequestStoreService
	clients *ClientService
	hints   *HintService
}

func NewBackchannelService(config BackchannelServiceConfig, store *RequestStoreService, clients *ClientService, hints *HintService) *BackchannelService {
	return &BackchannelService{
		config:  config,
		store:   store,
		clients: clients,
		hints:   hints,
	}
}

// Initiate validates the request against the registered client and creates a
// pending authorization request. The client is already authenticated.
func (bs *BackchannelService) Initiate(client *model.Client, request BackchannelAuthRequest) (*BackchannelAuthResponse, error) {
	if !bs.clients.ValidateGrantType(client, config.GrantTypeCIBA) {
		return nil, NewOAuthError(ErrorUnauthorizedClient, "Client is not authorized for the CIBA grant type")
	}

	scopes, err := bs.clients.ValidateScope(client, request.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to validate scope: %w", err)
	}

	if !utils.Contains(scopes, "openid") {
		return nil, NewOAuthError(ErrorInvalidScope, "The openid scope is required")
	}

	if len(request.BindingMessage) > maxBindingMessageLength {
		return nil, NewOAuthError(ErrorInvalidBindingMessage, "Binding message exceeds 140 characters")
	}

	// Hint precedence: self-issued identity hint, then third-party login hint
	// token, then a free-text hint resolved during human approval.
	hintSubject := ""

	switch {
	case request.IDTokenHint != "":
		hintSubject, err = bs.hints.VerifyIDTokenHint(request.IDTokenHint)
		if err != nil {
			return nil, NewOAuthError(ErrorInvalidRequest, fmt.Sprintf("Invalid id_token_hint: %s", hintError(err)))
		}
	case request.LoginHintToken != "":
		hintSubject, err = bs.hints.VerifyLoginHintToken(request.LoginHintToken)
		if err != nil {
			return nil, NewOAuthError(ErrorInvalidRequest, fmt.Sprintf("Invalid login_hint_token: %s", hintError(err)))
		}
	case request.LoginHint != "":
		hintSubject = request.LoginHint
	default:
		return nil, NewOAuthError(ErrorInvalidRequest, "One of id_token_hint, login_hint_token or login_hint is required")
	}

	deliveryMode, err := bs.selectDeliveryMode(client, request.ClientNotificationToken)
	if err != nil {
		return nil, err
	}

	expiresIn := clampExpiry(request.RequestedExpiry, bs.config.DefaultExpiry, bs.config.MaxExpiry)
	interval := pollInterval(expiresIn, bs.config.PollInterval)
	now := time.Now()

	record := &model.AuthorizationRequest{
		ID:             uuid.New().String(),
		Flow:           model.FlowBackchannel,
		ClientID:       client.ClientID,
		Scope:          utils.JoinScopes(scopes),
		Status:         model.StatusPending,
		DeliveryMode:   deliveryMode,
		BindingMessage: request.BindingMessage,
		AcrValues:      request.AcrValues,
		CreatedAt:      now.Unix(),
		ExpiresAt:      now.Add(time.Duration(expiresIn) * time.Second).Unix(),
		Interval:       interval,
	}

	if deliveryMode != model.ModePoll {
		record.NotificationEndpoint = client.NotificationEndpoint
		record.NotificationToken = request.ClientNotificationToken
	}

	if err := bs.store.Create(record); err != nil {
		return nil, fmt.Errorf("failed to create authorization request: %w", err)
	}

	log.Debug().Str("request_id", record.ID).Str("hint_subject", hintSubject).Msg("Backchannel request initiated")
	tlog.AuditRequestCreated(model.FlowBackchannel, record.ID, client.ClientID, deliveryMode)

	response := &BackchannelAuthResponse{
		AuthReqID: record.ID,
		ExpiresIn: expiresIn,
	}

	if deliveryMode == model.ModePoll {
		response.Interval = interval
	}

	return response, nil
}

func (bs *BackchannelService) selectDeliveryMode(client *model.Client, notificationToken string) (string, error) {
	if notificationToken == "" {
		if !bs.clients.ValidateDeliveryMode(client, model.ModePoll) {
			return "", NewOAuthError(ErrorInvalidRequest, "Client does not support the poll delivery mode")
		}
		return model.ModePoll, nil
	}

	if client.NotificationEndpoint == "" {
		return "", NewOAuthError(ErrorInvalidRequest, "Client has no registered notification endpoint")
	}

	if bs.clients.ValidateDeliveryMode(client, model.ModePing) {
		return model.ModePing, nil
	}
	if bs.clients.ValidateDeliveryMode(client, model.ModePush) {
		return model.ModePush, nil
	}

	return "", NewOAuthError(ErrorInvalidRequest, "Unsupported delivery mode")
}

func clampExpiry(requested int, fallback int, max int) int {
	expiry := requested
	if expiry <= 0 {
		expiry = fallback
	}
	if expiry > max {
		expiry = max
	}
	return expiry
}

// pollInterval derives the minimum poll spacing from the expiry window,
// bounded below so short-lived requests cannot trigger poll storms.
func pollInterval(expiresIn int, floor int) int {
	interval := expiresIn / 60
	if interval < floor {
		interval = floor
	}
	return interval
}

func hintError(err error) string {
	for _, sentinel := range []error{ErrHintExpired, ErrHintNotYetValid, ErrHintIssuerMismatch, ErrHintAudienceMismatch, ErrHintMissingClaim, ErrHintBadSignature} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "verification failed"
}
