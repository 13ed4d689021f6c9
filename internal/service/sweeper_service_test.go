package service_test

import (
	"testing"
	"time"

	"github.com/oobauth/oobauth/internal/model"
	"github.com/oobauth/oobauth/internal/service"

	"gorm.io/gorm"
	"gotest.tools/v3/assert"
)

func TestSweeperSweep(t *testing.T) {
	clock := newFakeClock()
	database := newTestDatabase(t)

	store := service.NewRequestStoreService(service.RequestStoreServiceConfig{
		Database: database,
		Clock:    clock.Now,
	})

	sweeper := service.NewSweeperService(service.SweeperServiceConfig{
		SweepInterval:  1,
		RetentionGrace: 30,
	}, store)

	record := pendingRequest("req-1", clock.Now())
	record.ExpiresAt = clock.Now().Add(60 * time.Second).Unix()

	err := store.Create(record)
	assert.NilError(t, err)

	// Past expiry the sweep flips the physical state to expired
	clock.Advance(61 * time.Second)
	sweeper.Sweep(clock.Now())

	var reloaded model.AuthorizationRequest
	err = database.Where("id = ?", "req-1").First(&reloaded).Error
	assert.NilError(t, err)
	assert.Equal(t, model.StatusExpired, reloaded.Status)

	// Past the retention grace the record is gone for good
	clock.Advance(30 * time.Second)
	sweeper.Sweep(clock.Now())

	err = database.Where("id = ?", "req-1").First(&reloaded).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSweeperStartStop(t *testing.T) {
	clock := newFakeClock()

	sweeper := service.NewSweeperService(service.SweeperServiceConfig{
		SweepInterval:  1,
		RetentionGrace: 30,
	}, newTestStore(t, clock))

	sweeper.Start()
	sweeper.Stop()
}
