package service

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/oobauth/oobauth/internal/config"
	"github.com/oobauth/oobauth/internal/model"

	"gorm.io/gorm"
)

// State-conflict sentinels. Callers must not retry these with the same
// intent. Database I/O errors are returned wrapped and may be retried.
var (
	ErrRequestNotFound = errors.New("authorization request not found")
	ErrRequestExists   = errors.New("authorization request already exists")
	ErrInvalidState    = errors.New("authorization request is not pending")
	ErrNotApproved     = errors.New("authorization request is not approved")
	ErrAlreadyClaimed  = errors.New("token already claimed for authorization request")
	ErrSlowDown        = errors.New("polling faster than the allowed interval")
)

const (
	storeShards       = 64
	slowDownIncrement = 5  // seconds added to the interval per violation
	maxPollInterval   = 60 // seconds
)

type RequestStoreServiceConfig struct {
	Database *gorm.DB
	// Clock defaults to time.Now, overridable in tests
	Clock func() time.Time
}

// RequestStoreService is the single authoritative state container for
// in-flight authorization requests. Every mutation for a given request id is
// serialized through a sharded mutex and additionally guarded by a
// conditional UPDATE, so two conflicting operations can never both succeed.
type RequestStoreService struct {
	config RequestStoreServiceConfig
	clock  func() time.Time
	locks  [storeShards]sync.Mutex
}

func NewRequestStoreService(config RequestStoreServiceConfig) *RequestStoreService {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &RequestStoreService{
		config: config,
		clock:  clock,
	}
}

func (rs *RequestStoreService) lockFor(id string) *sync.Mutex {
	hash := fnv.New32a()
	hash.Write([]byte(id))
	return &rs.locks[hash.Sum32()%storeShards]
}

func (rs *RequestStoreService) expired(req *model.AuthorizationRequest) bool {
	return rs.clock().Unix() > req.ExpiresAt
}

func (rs *RequestStoreService) load(id string) (*model.AuthorizationRequest, error) {
	var req model.AuthorizationRequest
	err := rs.config.Database.Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load authorization request: %w", err)
	}
	return &req, nil
}

func (rs *RequestStoreService) Create(req *model.AuthorizationRequest) error {
	lock := rs.lockFor(req.ID)
	lock.Lock()
	defer lock.Unlock()

	var count int64
	err := rs.config.Database.Model(&model.AuthorizationRequest{}).Where("id = ?", req.ID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check authorization request id: %w", err)
	}
	if count > 0 {
		return ErrRequestExists
	}

	if req.UserCode != "" {
		err = rs.config.Database.Model(&model.AuthorizationRequest{}).
			Where("user_code = ? AND status IN ? AND expires_at > ?", req.UserCode, []string{model.StatusPending, model.StatusApproved}, rs.clock().Unix()).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check user code: %w", err)
		}
		if count > 0 {
			return ErrRequestExists
		}
	}

	if err := rs.config.Database.Create(req).Error; err != nil {
		return fmt.Errorf("failed to create authorization request: %w", err)
	}

	return nil
}

// GetByID treats a TTL-expired record as missing, regardless of whether the
// sweeper has caught up with it.
func (rs *RequestStoreService) GetByID(id string) (*model.AuthorizationRequest, error) {
	req, err := rs.load(id)
	if err != nil {
		return nil, err
	}
	if rs.expired(req) {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

func (rs *RequestStoreService) GetByUserCode(code string) (*model.AuthorizationRequest, error) {
	var req model.AuthorizationRequest
	err := rs.config.Database.Where("user_code = ? AND expires_at >= ?", code, rs.clock().Unix()).Order("created_at DESC").First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load authorization request: %w", err)
	}
	if rs.expired(&req) {
		return nil, ErrRequestNotFound
	}
	return &req, nil
}

func (rs *RequestStoreService) Approve(id string, identity config.Identity, nonce string) error {
	lock := rs.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	req, err := rs.load(id)
	if err != nil {
		return err
	}
	if rs.expired(req) {
		return ErrRequestNotFound
	}
	if req.Status != model.StatusPending {
		return ErrInvalidState
	}

	result := rs.config.Database.Model(&model.AuthorizationRequest{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(map[string]interface{}{
			"status":  model.StatusApproved,
			"user_id": identity.UserID,
			"subject": identity.Subject,
			"nonce":   nonce,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to approve authorization request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidState
	}

	return nil
}

func (rs *RequestStoreService) Deny(id string, reason string) error {
	lock := rs.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	req, err := rs.load(id)
	if err != nil {
		return err
	}
	if rs.expired(req) {
		return ErrRequestNotFound
	}
	if req.Status != model.StatusPending {
		return ErrInvalidState
	}

	result := rs.config.Database.Model(&model.AuthorizationRequest{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(map[string]interface{}{
			"status":      model.StatusDenied,
			"deny_reason": reason,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to deny authorization request: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInvalidState
	}

	return nil
}

// RecordPoll enforces the minimum spacing between polls and returns the
// current status. A violation widens the stored interval by five seconds (up
// to a cap) and returns ErrSlowDown without advancing the poll bookkeeping.
func (rs *RequestStoreService) RecordPoll(id string) (string, error) {
	lock := rs.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	req, err := rs.load(id)
	if err != nil {
		return "", err
	}
	if rs.expired(req) {
		return "", ErrRequestNotFound
	}

	now := rs.clock().Unix()

	if req.LastPollAt > 0 && now-req.LastPollAt < int64(req.Interval) {
		widened := req.Interval + slowDownIncrement
		if widened > maxPollInterval {
			widened = maxPollInterval
		}
		if widened != req.Interval {
			err = rs.config.Database.Model(&model.AuthorizationRequest{}).
				Where("id = ?", id).
				Update("interval", widened).Error
			if err != nil {
				return "", fmt.Errorf("failed to widen poll interval: %w", err)
			}
		}
		return "", ErrSlowDown
	}

	err = rs.config.Database.Model(&model.AuthorizationRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"poll_count":   gorm.Expr("poll_count + 1"),
			"last_poll_at": now,
		}).Error
	if err != nil {
		return "", fmt.Errorf("failed to record poll: %w", err)
	}

	return req.Status, nil
}

// ClaimToken flips the single-use token guard. It succeeds at most once per
// request, which is what makes a replayed grant detectable.
func (rs *RequestStoreService) ClaimToken(id string) (config.Identity, string, error) {
	lock := rs.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	req, err := rs.load(id)
	if err != nil {
		return config.Identity{}, "", err
	}
	if rs.expired(req) {
		return config.Identity{}, "", ErrRequestNotFound
	}
	if req.Status != model.StatusApproved {
		return config.Identity{}, "", ErrNotApproved
	}
	if req.TokenIssued {
		return config.Identity{}, "", ErrAlreadyClaimed
	}

	result := rs.config.Database.Model(&model.AuthorizationRequest{}).
		Where("id = ? AND status = ? AND token_issued = ?", id, model.StatusApproved, false).
		Updates(map[string]interface{}{
			"token_issued":    true,
			"token_issued_at": rs.clock().Unix(),
		})

	if result.Error != nil {
		return config.Identity{}, "", fmt.Errorf("failed to claim token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return config.Identity{}, "", ErrAlreadyClaimed
	}

	identity := config.Identity{
		UserID:  req.UserID,
		Subject: req.Subject,
	}

	return identity, req.Nonce, nil
}

func (rs *RequestStoreService) Delete(id string) error {
	lock := rs.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	err := rs.config.Database.Where("id = ?", id).Delete(&model.AuthorizationRequest{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete authorization request: %w", err)
	}
	return nil
}

// SweepExpired moves TTL-expired non-terminal requests to the expired state.
// Safe to run concurrently with live traffic: the conditional update only
// ever loses against an approve or deny that reached the row first.
func (rs *RequestStoreService) SweepExpired(now time.Time) (int64, error) {
	result := rs.config.Database.Model(&model.AuthorizationRequest{}).
		Where("expires_at < ? AND status IN ?", now.Unix(), []string{model.StatusPending, model.StatusApproved}).
		Update("status", model.StatusExpired)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep expired requests: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// DeleteRetired removes records whose retention grace period has passed.
// Terminal records are kept until then so a replayed claim still observes
// ErrAlreadyClaimed instead of a generic not-found.
func (rs *RequestStoreService) DeleteRetired(now time.Time, grace time.Duration) (int64, error) {
	cutoff := now.Add(-grace).Unix()

	result := rs.config.Database.
		Where("expires_at < ?", cutoff).
		Delete(&model.AuthorizationRequest{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete retired requests: %w", result.Error)
	}

	return result.RowsAffected, nil
}
