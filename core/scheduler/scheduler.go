package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/model"
)

// PricePoller fetches the latest day-ahead prices for one area.
type PricePoller interface {
	Poll(ctx context.Context, area string) ([]model.PriceUpdate, error)
}

// PriceLoader stores fetched prices and triggers the replan fan-out.
type PriceLoader interface {
	Load(ctx context.Context, priceCode string, updates []model.PriceUpdate) error
}

// AccountSweeper replans every vehicle of every account.
type AccountSweeper interface {
	Accounts(ctx context.Context) ([]uuid.UUID, error)
	RefreshAccount(ctx context.Context, accountID uuid.UUID) error
}

// Scheduler runs the recurring jobs until its context is canceled.
type Scheduler struct {
	cfg    Config
	poller PricePoller
	loader PriceLoader
	sweep  AccountSweeper
	log    logger.Logger
	now    func() time.Time
}

// New creates a Scheduler. poller/loader or sweep may be nil to disable the
// corresponding job.
func New(cfg Config, poller PricePoller, loader PriceLoader, sweep AccountSweeper, log logger.Logger) *Scheduler {
	cfg.SetDefaults()
	return &Scheduler{
		cfg:    cfg,
		poller: poller,
		loader: loader,
		sweep:  sweep,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	pollEnabled := s.poller != nil && s.loader != nil && s.cfg.PricePollMinutes > 0 && len(s.cfg.PriceAreas) > 0
	sweepEnabled := s.sweep != nil && s.cfg.NightlySweepHour >= 0

	var pollCh <-chan time.Time
	if pollEnabled {
		ticker := time.NewTicker(time.Duration(s.cfg.PricePollMinutes) * time.Minute)
		defer ticker.Stop()
		pollCh = ticker.C
		s.pollPrices(ctx)
	}

	var sweepTimer *time.Timer
	var sweepCh <-chan time.Time
	if sweepEnabled {
		sweepTimer = time.NewTimer(s.untilSweep())
		defer sweepTimer.Stop()
		sweepCh = sweepTimer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollCh:
			s.pollPrices(ctx)
		case <-sweepCh:
			s.runSweep(ctx)
			sweepTimer.Reset(s.untilSweep())
		}
	}
}

// untilSweep returns the duration to the next sweep hour.
func (s *Scheduler) untilSweep() time.Duration {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.NightlySweepHour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

func (s *Scheduler) pollPrices(ctx context.Context) {
	for _, area := range s.cfg.PriceAreas {
		updates, err := s.poller.Poll(ctx, area)
		if err != nil {
			s.log.Errorf("price poll %s: %v", area, err)
			continue
		}
		if len(updates) == 0 {
			continue
		}
		if err := s.loader.Load(ctx, area, updates); err != nil {
			s.log.Errorf("price load %s: %v", area, err)
		}
	}
}

func (s *Scheduler) runSweep(ctx context.Context) {
	accounts, err := s.sweep.Accounts(ctx)
	if err != nil {
		s.log.Errorf("nightly sweep accounts: %v", err)
		return
	}
	for _, a := range accounts {
		if err := s.sweep.RefreshAccount(ctx, a); err != nil {
			s.log.Errorf("nightly sweep %s: %v", a, err)
		}
	}
	s.log.Infof("nightly sweep finished for %d accounts", len(accounts))
}
