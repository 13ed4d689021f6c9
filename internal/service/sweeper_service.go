package service

import (
	"time"

	"github.com/rs/zerolog/log"
)

type SweeperServiceConfig struct {
	// SweepInterval between runs, in seconds
	SweepInterval int
	// RetentionGrace keeps terminal records queryable after expiry, in seconds
	RetentionGrace int
}

// SweeperService reconciles physically stored records with their TTL. The
// store already treats stale records as expired on every read, so the
// sweeper only has to catch up the physical state and eventually drop
// records that are past their retention grace.
type SweeperService struct {
	config SweeperServiceConfig
	store  *RequestStoreService
	stop   chan struct{}
}

func NewSweeperService(config SweeperServiceConfig, store *RequestStoreService) *SweeperService {
	return &SweeperService{
		config: config,
		store:  store,
		stop:   make(chan struct{}),
	}
}

func (ss *SweeperService) Start() {
	go ss.run()
}

func (ss *SweeperService) Stop() {
	close(ss.stop)
}

func (ss *SweeperService) run() {
	ticker := time.NewTicker(time.Duration(ss.config.SweepInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ss.Sweep(time.Now())
		case <-ss.stop:
			return
		}
	}
}

// Sweep runs a single reconciliation pass.
func (ss *SweeperService) Sweep(now time.Time) {
	expired, err := ss.store.SweepExpired(now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep expired authorization requests")
	} else if expired > 0 {
		log.Debug().Int64("count", expired).Msg("Expired stale authorization requests")
	}

	deleted, err := ss.store.DeleteRetired(now, time.Duration(ss.config.RetentionGrace)*time.Second)
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete retired authorization requests")
	} else if deleted > 0 {
		log.Debug().Int64("count", deleted).Msg("Deleted retired authorization requests")
	}
}
