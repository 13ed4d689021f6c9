package service

import (
	"errors"
	"fmt"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/utils/tlog"

	"github.com/rs/zerolog/log"
)

type DecisionServiceConfig struct{}

// DecisionService applies a human approval or denial to a pending request.
// Notification dispatch for ping/push requests is fire-and-forget: a delivery
// failure never rolls back the decision.
type DecisionService struct {
	config   DecisionServiceConfig
	store    *RequestStoreService
	notifier *NotifierService
}

func NewDecisionService(config DecisionServiceConfig, store *RequestStoreService, notifier *NotifierService) *DecisionService {
	return &DecisionService{
		config:   config,
		store:    store,
		notifier: notifier,
	}
}

func (dcs *DecisionService) Approve(id string, identity config.Identity, nonce string) error {
	err := dcs.store.Approve(id, identity, nonce)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			tlog.AuditStateConflict(id, "approve")
		}
		return err
	}

	tlog.AuditDecision(id, "approved", identity.UserID)

	record, err := dcs.store.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to reload approved request: %w", err)
	}

	if record.DeliveryMode == model.ModePing || record.DeliveryMode == model.ModePush {
		go func() {
			if err := dcs.notifier.NotifyOutcome(record); err != nil {
				log.Error().Err(err).Str("request_id", record.ID).Msg("Failed to deliver approval notification")
			}
		}()
	}

	return nil
}

func (dcs *DecisionService) Deny(id string, reason string) error {
	err := dcs.store.Deny(id, reason)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			tlog.AuditStateConflict(id, "deny")
		}
		return err
	}

	tlog.AuditDecision(id, "denied", "")

	record, err := dcs.store.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to reload denied request: %w", err)
	}

	if record.DeliveryMode == model.ModePing || record.DeliveryMode == model.ModePush {
		go func() {
			if err := dcs.notifier.NotifyOutcome(record); err != nil {
				log.Error().Err(err).Str("request_id", record.ID).Msg("Failed to deliver denial notification")
			}
		}()
	}

	return nil
}
