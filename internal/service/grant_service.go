package service

import (
	"errors"
	"fmt"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/utils/tlog"
)

// GrantResult carries the resolved identity of a successfully claimed
// request to the token issuer.
type GrantResult struct {
	Request  *model.AuthorizationRequest
	Identity config.Identity
	Nonce    string
}

type GrantServiceConfig struct{}

// GrantService is the polling-side contract consumed by the token endpoint.
// Every failure is returned as an OAuthError carrying the standard error
// vocabulary, so the endpoint only has to serialize it.
type GrantService struct {
	config GrantServiceConfig
	store  *RequestStoreService
}

func NewGrantService(config GrantServiceConfig, store *RequestStoreService) *GrantService {
	return &GrantService{
		config: config,
		store:  store,
	}
}

// Redeem observes the state of a request on behalf of the authenticated
// client and, if approved, atomically claims the one-time token grant.
func (gs *GrantService) Redeem(client *model.Client, id string) (*GrantResult, error) {
	status, err := gs.store.RecordPoll(id)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlowDown):
			return nil, NewOAuthError(ErrorSlowDown, "Polling faster than the allowed interval")
		case errors.Is(err, ErrRequestNotFound):
			return nil, NewOAuthError(ErrorExpiredToken, "The authorization request has expired")
		default:
			return nil, fmt.Errorf("failed to record poll: %w", err)
		}
	}

	record, err := gs.store.GetByID(id)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return nil, NewOAuthError(ErrorExpiredToken, "The authorization request has expired")
		}
		return nil, fmt.Errorf("failed to load authorization request: %w", err)
	}

	if record.ClientID != client.ClientID {
		return nil, NewOAuthError(ErrorInvalidGrant, "The authorization request belongs to another client")
	}

	switch status {
	case model.StatusPending:
		return nil, NewOAuthError(ErrorAuthorizationPending, "The authorization request is pending user approval")
	case model.StatusDenied:
		return nil, NewOAuthError(ErrorAccessDenied, "The user denied the authorization request")
	case model.StatusExpired:
		return nil, NewOAuthError(ErrorExpiredToken, "The authorization request has expired")
	}

	identity, nonce, err := gs.store.ClaimToken(id)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyClaimed):
			// Replay prevention boundary: a second claim for the same
			// approval is an invalid grant, full stop.
			tlog.AuditReplayAttempt(id, client.ClientID)
			return nil, NewOAuthError(ErrorInvalidGrant, "A token was already issued for this authorization request")
		case errors.Is(err, ErrNotApproved), errors.Is(err, ErrRequestNotFound):
			return nil, NewOAuthError(ErrorExpiredToken, "The authorization request has expired")
		default:
			return nil, fmt.Errorf("failed to claim token: %w", err)
		}
	}

	tlog.AuditTokenIssued(id, client.ClientID, identity.Subject)

	return &GrantResult{
		Request:  record,
		Identity: identity,
		Nonce:    nonce,
	}, nil
}
