package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/utils/tlog"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

type NotifierServiceConfig struct {
	// Retries bounds delivery attempts, default 5
	Retries int
	// InitialInterval seeds the exponential backoff, default 500ms
	InitialInterval time.Duration
}

// NotifierService delivers the outcome of a ping or push request to the
// client's registered notification endpoint. Delivery is retried with
// backoff; exhaustion is recorded as a delivery failure instead of being
// silently dropped.
type NotifierService struct {
	config NotifierServiceConfig
	store  *RequestStoreService
	tokens *TokenService
	client *http.Client
}

func NewNotifierService(config NotifierServiceConfig, store *RequestStoreService, tokens *TokenService) *NotifierService {
	if config.Retries <= 0 {
		config.Retries = 5
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = 500 * time.Millisecond
	}
	return &NotifierService{
		config: config,
		store:  store,
		tokens: tokens,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (ns *NotifierService) NotifyOutcome(record *model.AuthorizationRequest) error {
	payload, err := ns.buildPayload(record)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	operation := func() (struct{}, error) {
		return struct{}{}, ns.deliver(record, body)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = ns.config.InitialInterval

	_, err = backoff.Retry(context.Background(), operation, backoff.WithBackOff(exp), backoff.WithMaxTries(uint(ns.config.Retries)))
	if err != nil {
		tlog.AuditDeliveryFailure(record.ID, record.NotificationEndpoint, ns.config.Retries)
		return fmt.Errorf("notification delivery failed after %d attempts: %w", ns.config.Retries, err)
	}

	log.Debug().Str("request_id", record.ID).Str("mode", record.DeliveryMode).Msg("Notification delivered")
	return nil
}

func (ns *NotifierService) buildPayload(record *model.AuthorizationRequest) (map[string]any, error) {
	payload := map[string]any{
		"auth_req_id": record.ID,
	}

	switch record.Status {
	case model.StatusDenied:
		payload["error"] = ErrorAccessDenied
		payload["error_description"] = "The user denied the authorization request"
		return payload, nil
	case model.StatusApproved:
		if record.DeliveryMode != model.ModePush {
			return payload, nil
		}
	default:
		return nil, fmt.Errorf("no notification for request in state %s", record.Status)
	}

	// Push delivery hands the tokens over directly, so the one-time claim
	// happens here instead of at the token endpoint.
	identity, nonce, err := ns.store.ClaimToken(record.ID)
	if err != nil {
		if errors.Is(err, ErrAlreadyClaimed) {
			return nil, fmt.Errorf("token already claimed for push delivery: %w", err)
		}
		return nil, fmt.Errorf("failed to claim token for push delivery: %w", err)
	}

	tokens, err := ns.tokens.IssueTokens(record, identity, nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens for push delivery: %w", err)
	}

	payload["access_token"] = tokens.AccessToken
	payload["token_type"] = tokens.TokenType
	payload["expires_in"] = tokens.ExpiresIn
	if tokens.IDToken != "" {
		payload["id_token"] = tokens.IDToken
	}

	return payload, nil
}

func (ns *NotifierService) deliver(record *model.AuthorizationRequest, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, record.NotificationEndpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+record.NotificationToken)

	res, err := ns.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %s", res.Status)
	}

	return nil
}
