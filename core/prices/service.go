// Package prices handles the price ingress: loading hour-aligned price
// points for an area and fanning the refresh out to affected vehicles.
package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/voltplan/voltplan/core/events"
	"github.com/voltplan/voltplan/core/logger"
	"github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/store"
	"github.com/voltplan/voltplan/internal/eventbus"
)

// Identity names the caller of a mutation.
type Identity string

// IdentityService is the internal service identity price mutations require.
const IdentityService Identity = "service"

// Refresher fans a price update out to the affected vehicles.
type Refresher interface {
	PriceListRefreshed(ctx context.Context, priceCode string) error
}

// Service loads price lists and triggers replans.
type Service struct {
	store store.Store
	orch  Refresher
	log   logger.Logger
	bus   eventbus.EventBus
	sink  metrics.MetricsSink
}

// New creates a price service. orch, bus and sink may be nil.
func New(st store.Store, orch Refresher, log logger.Logger, bus eventbus.EventBus, sink metrics.MetricsSink) *Service {
	return &Service{store: st, orch: orch, log: log, bus: bus, sink: sink}
}

// UpdatePrice stores the points for the price code and announces the
// refresh. Only the internal service identity may mutate prices.
func (s *Service) UpdatePrice(ctx context.Context, identity Identity, priceCode string, updates []model.PriceUpdate) error {
	if identity != IdentityService {
		return store.NewError(store.KindAuthDenied, "update_price", fmt.Errorf("identity %q", identity))
	}
	if priceCode == "" {
		return store.NewError(store.KindInvalidInput, "update_price", fmt.Errorf("price code required"))
	}
	points := make([]model.PricePoint, 0, len(updates))
	for _, u := range updates {
		if !u.StartAt.Equal(u.StartAt.Truncate(time.Hour)) {
			return store.NewError(store.KindInvalidInput, "update_price",
				fmt.Errorf("price point %s is not hour aligned", u.StartAt))
		}
		points = append(points, model.PricePoint{
			PriceCode: priceCode,
			Ts:        u.StartAt.UTC(),
			Price:     model.ScalePrice(u.Price),
		})
	}
	if err := s.store.UpdatePriceList(ctx, priceCode, points); err != nil {
		return fmt.Errorf("update price list: %w", err)
	}

	latest, err := s.store.LatestPriceTs(ctx, priceCode)
	if err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("latest price ts: %w", err)
	}
	if s.bus != nil {
		s.bus.Publish(events.PriceListUpdated{PriceCode: priceCode, LatestTs: latest})
	}
	if s.sink != nil {
		_ = s.sink.RecordPriceFeed(metrics.PriceFeedEvent{PriceCode: priceCode, Points: len(points), Time: time.Now().UTC()})
	}
	s.log.Infof("price list %s refreshed with %d points", priceCode, len(points))
	if s.orch != nil {
		return s.orch.PriceListRefreshed(ctx, priceCode)
	}
	return nil
}
