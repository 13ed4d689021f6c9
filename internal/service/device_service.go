package service

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/utils"
	"github.com/oobauth/oobauth/internal/utils/tlog"

	"github.com/google/uuid"
)

const userCodeRetries = 5

type DeviceAuthRequest struct {
	ClientID string `form:"client_id"`
	Scope    string `form:"scope"`
}

type DeviceAuthResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

type DeviceServiceConfig struct {
	AppURL        string
	DefaultExpiry int
	MaxExpiry     int
	PollInterval  int
}

// DeviceService builds and persists device authorization requests. The
// device flow is the second instance of the same request engine: the record
// additionally carries a short human-typable code.
type DeviceService struct {
	config  DeviceServiceConfig
	store   *RequestStoreService
	clients *ClientService
}

func NewDeviceService(config DeviceServiceConfig, store *RequestStoreService, clients *ClientService) *DeviceService {
	return &DeviceService{
		config:  config,
		store:   store,
		clients: clients,
	}
}

func (ds *DeviceService) Initiate(client *model.Client, request DeviceAuthRequest) (*DeviceAuthResponse, error) {
	if !ds.clients.ValidateGrantType(client, config.GrantTypeDeviceCode) {
		return nil, NewOAuthError(ErrorUnauthorizedClient, "Client is not authorized for the device code grant type")
	}

	scopes, err := ds.clients.ValidateScope(client, request.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to validate scope: %w", err)
	}

	if !utils.Contains(scopes, "openid") {
		return nil, NewOAuthError(ErrorInvalidScope, "The openid scope is required")
	}

	expiresIn := clampExpiry(0, ds.config.DefaultExpiry, ds.config.MaxExpiry)
	interval := pollInterval(expiresIn, ds.config.PollInterval)
	now := time.Now()

	record := &model.AuthorizationRequest{
		Flow:         model.FlowDevice,
		ClientID:     client.ClientID,
		Scope:        utils.JoinScopes(scopes),
		Status:       model.StatusPending,
		DeliveryMode: model.ModePoll,
		CreatedAt:    now.Unix(),
		ExpiresAt:    now.Add(time.Duration(expiresIn) * time.Second).Unix(),
		Interval:     interval,
	}

	// The user code is unique among live records, so regenerate on the
	// rare collision.
	for attempt := 0; ; attempt++ {
		record.ID = uuid.New().String()

		userCode, err := utils.GenerateUserCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate user code: %w", err)
		}
		record.UserCode = userCode

		err = ds.store.Create(record)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrRequestExists) || attempt >= userCodeRetries {
			return nil, fmt.Errorf("failed to create authorization request: %w", err)
		}
	}

	tlog.AuditRequestCreated(model.FlowDevice, record.ID, client.ClientID, model.ModePoll)

	return &DeviceAuthResponse{
		DeviceCode:              record.ID,
		UserCode:                record.UserCode,
		VerificationURI:         ds.verificationURI(),
		VerificationURIComplete: ds.verificationURI() + "?user_code=" + url.QueryEscape(record.UserCode),
		ExpiresIn:               expiresIn,
		Interval:                interval,
	}, nil
}

// ResolveUserCode normalizes a user-typed code and looks up the live record
// behind it. Malformed codes are rejected before any store lookup.
func (ds *DeviceService) ResolveUserCode(code string) (*model.AuthorizationRequest, error) {
	normalized, err := utils.NormalizeUserCode(code)
	if err != nil {
		return nil, NewOAuthError(ErrorInvalidRequest, "Malformed user code")
	}

	record, err := ds.store.GetByUserCode(normalized)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return nil, NewOAuthError(ErrorExpiredToken, "Unknown or expired user code")
		}
		return nil, fmt.Errorf("failed to resolve user code: %w", err)
	}

	return record, nil
}

func (ds *DeviceService) verificationURI() string {
	return ds.config.AppURL + "/device"
}
