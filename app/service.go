// Package app wires the control plane together: gateway, engines, workers,
// connectors and the HTTP surface.
package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voltplan/voltplan/api/ingress"
	"github.com/voltplan/voltplan/api/plans"
	"github.com/voltplan/voltplan/api/vehicles"
	"github.com/voltplan/voltplan/app/plugins"
	"github.com/voltplan/voltplan/auth"
	"github.com/voltplan/voltplan/config"
	"github.com/voltplan/voltplan/connectors"
	"github.com/voltplan/voltplan/connectors/clients/dayahead"
	"github.com/voltplan/voltplan/connectors/factory"
	"github.com/voltplan/voltplan/core/events"
	"github.com/voltplan/voltplan/core/ingest"
	corekpi "github.com/voltplan/voltplan/core/kpi"
	coremetrics "github.com/voltplan/voltplan/core/metrics"
	"github.com/voltplan/voltplan/core/model"
	"github.com/voltplan/voltplan/core/monitoring"
	"github.com/voltplan/voltplan/core/planlog"
	"github.com/voltplan/voltplan/core/planner"
	"github.com/voltplan/voltplan/core/prediction"
	"github.com/voltplan/voltplan/core/prices"
	"github.com/voltplan/voltplan/core/replan"
	"github.com/voltplan/voltplan/core/scheduler"
	"github.com/voltplan/voltplan/core/stats"
	"github.com/voltplan/voltplan/core/store"
	vehiclestatus "github.com/voltplan/voltplan/core/vehiclestatus"
	infrakpi "github.com/voltplan/voltplan/infra/kpi"
	"github.com/voltplan/voltplan/infra/logger"
	"github.com/voltplan/voltplan/infra/metrics"
	inframon "github.com/voltplan/voltplan/infra/monitoring"
	inframqtt "github.com/voltplan/voltplan/infra/mqtt"
	"github.com/voltplan/voltplan/infra/postgres"
	"github.com/voltplan/voltplan/internal/eventbus"
)

// Service owns the control plane components and their lifecycles.
type Service struct {
	cfg       *config.Config
	store     *postgres.Store
	orch      *replan.Orchestrator
	ingestor  *ingest.Ingestor
	prices    *prices.Service
	sched     *scheduler.Scheduler
	statuses  vehiclestatus.Store
	audit     planlog.Store
	kpi       corekpi.Store
	kpiCloser func() error
	bus       eventbus.EventBus
	publisher inframqtt.Publisher
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := inframon.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	monitoring.Init(mon)

	db, err := postgres.New(ctx, cfg.Database.DSN(), logger.New("postgres"))
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	audit, err := newAuditStore(cfg.Audit)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("plan audit store: %w", err)
	}
	kpiStore, err := infrakpi.NewSQLiteStore(cfg.KPI.Path)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kpi store: %w", err)
	}

	bus := eventbus.New()
	statsEngine := stats.NewEngine(db, logger.New("stats"), nil)
	var predictor prediction.Engine = prediction.NewHistoryEngine(db)
	if cfg.Prediction.Type != "" {
		f, ok := plugins.Predictions[cfg.Prediction.Type]
		if !ok {
			db.Close()
			return nil, fmt.Errorf("unknown prediction plugin %q", cfg.Prediction.Type)
		}
		predictor, err = f(cfg.Prediction.Type, cfg.Prediction.Conf)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("prediction plugin: %w", err)
		}
	}
	plannerEngine := planner.New(db, statsEngine, predictor, logger.New("planner"), bus, nil)
	orch := replan.New(db, plannerEngine, logger.New("replan"), bus, sink, audit)
	ingestor := ingest.New(db, logger.New("ingest"), orch, statsAdapter{db: db, engine: statsEngine}, bus)
	ingestor.SetSink(sink)
	priceSvc := prices.New(db, orch, logger.New("prices"), bus, sink)

	var publisher inframqtt.Publisher
	if cfg.MQTT.Enabled {
		publisher, err = inframqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}

	sched := scheduler.New(cfg.Scheduler,
		pricePoller{cfg: cfg.Scheduler},
		priceLoader{svc: priceSvc},
		accountSweeper{store: db, orch: orch},
		logger.New("scheduler"))

	return &Service{
		cfg:       cfg,
		store:     db,
		orch:      orch,
		ingestor:  ingestor,
		prices:    priceSvc,
		sched:     sched,
		statuses:  vehiclestatus.NewMemoryStore(),
		audit:     audit,
		kpi:       kpiStore,
		kpiCloser: kpiStore.Close,
		bus:       bus,
		publisher: publisher,
		log:       logg,
	}, nil
}

func newAuditStore(cfg config.AuditConfig) (planlog.Store, error) {
	if cfg.Backend == "jsonl" && cfg.MaxSizeMB > 0 {
		return planlog.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	f, ok := plugins.PlanLogStores[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
	return f(cfg.Backend, map[string]any{"path": cfg.Path})
}

// Run starts the workers and the HTTP server, blocking until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.sched.Run(ctx)
	go s.watchStatus(ctx)
	if s.publisher != nil {
		bridge := inframqtt.NewActionBridge(s.publisher, s.cfg.Provider.Name)
		go bridge.Run(ctx, s.bus)
	}
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/api/telemetry", ingress.NewTelemetryHandler(s.ingestor))
	mux.Handle("/api/prices/", ingress.NewPriceHandler(s.prices, s.cfg.Server.Token))
	mux.Handle("/api/vehicles/status", vehicles.NewStatusHandler(s.statuses))
	configHandler := vehicles.NewConfigHandler(s.store, s.orch)
	kpiHandler := vehicles.NewKPIHandler(s.kpi)
	mux.Handle("/api/vehicles/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/kpis") {
			kpiHandler.ServeHTTP(w, r)
			return
		}
		configHandler.ServeHTTP(w, r)
	}))
	mux.Handle("/api/plans/logs", plans.NewLogHandler(s.audit, s.cfg.Server.Token))

	srv := &http.Server{Addr: s.cfg.Server.Addr(), Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("http shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", s.cfg.Server.Addr())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// watchStatus mirrors published plans into the status store for the API.
func (s *Service) watchStatus(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if cc, ok := ev.(events.ConnectionClosed); ok {
				s.recordKPI(ctx, cc)
				continue
			}
			pu, ok := ev.(events.PlanUpdated)
			if !ok {
				continue
			}
			st := vehiclestatus.Status{
				VehicleID:   pu.VehicleID,
				SmartStatus: pu.SmartStatus,
				Plan:        pu.Plan,
				UpdatedAt:   pu.Time,
			}
			if v, err := s.store.GetVehicle(ctx, pu.VehicleID); err == nil {
				st.AccountID = v.AccountID
				st.Name = v.Name
				st.Level = v.Level
				st.Connected = v.Connected
			}
			s.statuses.Set(st)
		}
	}
}

// recordKPI folds a just-closed connection into the daily KPI store.
func (s *Service) recordKPI(ctx context.Context, cc events.ConnectionClosed) {
	conn, err := s.store.GetConnection(ctx, cc.ConnectedID)
	if err != nil {
		s.log.Warnf("kpi connection %s: %v", cc.ConnectedID, err)
		return
	}
	rec := corekpi.Record{
		VehicleID: conn.VehicleID.String(),
		Date:      corekpi.Day(conn.EndTs),
		Cost:      conn.Cost,
		Saved:     conn.Saved,
		EnergyKWh: conn.EnergyUsed / 60000,
	}
	if err := s.kpi.Add(rec); err != nil {
		s.log.Warnf("kpi add: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.orch.Close()
	s.bus.Close()
	if s.publisher != nil {
		s.publisher.Close()
	}
	if s.audit != nil {
		if err := s.audit.Close(); err != nil {
			return err
		}
	}
	if s.kpiCloser != nil {
		if err := s.kpiCloser(); err != nil {
			return err
		}
	}
	s.store.Close()
	monitoring.Flush(2 * time.Second)
	return nil
}

// statsAdapter lets the ingestor invalidate statistics without knowing the
// engine's vehicle/location plumbing.
type statsAdapter struct {
	db     store.Store
	engine *stats.Engine
}

func (a statsAdapter) CreateNewStatsFor(ctx context.Context, vehicleID, locationID uuid.UUID) error {
	v, err := a.db.GetVehicle(ctx, vehicleID)
	if err != nil {
		return err
	}
	loc, err := a.db.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	_, err = a.engine.CreateNewStats(ctx, v, loc)
	return err
}

// pricePoller fetches day-ahead prices through the configured connector.
type pricePoller struct {
	cfg scheduler.Config
}

func (p pricePoller) Poll(ctx context.Context, area string) ([]model.PriceUpdate, error) {
	client, err := factory.NewPriceClient(p.cfg.Connector)
	if err != nil {
		return nil, err
	}
	var cred *auth.ClientCred
	if p.cfg.Auth.ClientID != "" {
		cred = auth.NewClientCred(p.cfg.Auth)
	}
	now := time.Now().UTC().Truncate(time.Hour)
	return client.Fetch(cred,
		dayahead.WithBaseURL(p.cfg.PriceAPIURL),
		dayahead.WithArea(area),
		dayahead.WithStartDate(now),
		dayahead.WithEndDate(now.Add(36*time.Hour)),
	)
}

var _ connectors.PriceClient = (*dayahead.Client)(nil)

// priceLoader feeds fetched prices through the price service.
type priceLoader struct {
	svc *prices.Service
}

func (l priceLoader) Load(ctx context.Context, priceCode string, updates []model.PriceUpdate) error {
	return l.svc.UpdatePrice(ctx, prices.IdentityService, priceCode, updates)
}

// accountSweeper replans all accounts for the nightly job.
type accountSweeper struct {
	store store.Store
	orch  *replan.Orchestrator
}

func (a accountSweeper) Accounts(ctx context.Context) ([]uuid.UUID, error) {
	return a.store.Accounts(ctx)
}

func (a accountSweeper) RefreshAccount(ctx context.Context, accountID uuid.UUID) error {
	return a.orch.RefreshAccount(ctx, accountID)
}
