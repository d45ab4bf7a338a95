package reconciliation

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
	"github.com/bazaar-service/bazaar_service/pkg/logger"
)

// NetworkLister provides the networks eligible for scheduled reconciliation.
type NetworkLister interface {
	ListEnabled(ctx context.Context) ([]*entities.Network, error)
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	Schedule    string        // cron expression, e.g. "@every 1m"
	PassTimeout time.Duration // upper bound for one full sweep
}

// Scheduler triggers a reconciliation pass for every enabled network on a
// cron schedule. Networks are reconciled in parallel; the per-network lock
// inside the service keeps same-network passes from overlapping.
type Scheduler struct {
	service  *Service
	networks NetworkLister
	logger   *logger.Logger
	config   SchedulerConfig

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a reconciliation scheduler.
func NewScheduler(service *Service, networks NetworkLister, logger *logger.Logger, config SchedulerConfig) *Scheduler {
	if config.Schedule == "" {
		config.Schedule = "@every 1m"
	}
	if config.PassTimeout == 0 {
		config.PassTimeout = 5 * time.Minute
	}
	return &Scheduler{
		service:  service,
		networks: networks,
		logger:   logger,
		config:   config,
		cron:     cron.New(),
	}
}

// Start registers the cron job and begins scheduling.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.running = true

	s.logger.Info("Reconciliation scheduler started", "schedule", s.config.Schedule)
	return nil
}

// Stop stops scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("Reconciliation scheduler stopped")
}

// runOnce reconciles every enabled network, one goroutine per network.
func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.PassTimeout)
	defer cancel()

	networks, err := s.networks.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("Failed to list networks for reconciliation", "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, network := range networks {
		wg.Add(1)
		go func(chainID int64, name string) {
			defer wg.Done()
			err := s.service.ReconcileNetwork(ctx, chainID)
			switch {
			case err == nil:
			case apperrors.IsConflict(err):
				// Previous pass for this network still holds the lock.
				s.logger.Debug("Skipping network, pass in progress", "network", name)
			default:
				s.logger.Error("Reconciliation pass failed", "network", name, "error", err)
			}
		}(network.ChainID, network.Name)
	}
	wg.Wait()
}
