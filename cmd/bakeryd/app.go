package main

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/goliatone/go-bakeryops/components/dashboard"
	"github.com/goliatone/go-bakeryops/components/dashboard/httpapi"
	"github.com/goliatone/go-bakeryops/components/liveops"
	"github.com/goliatone/go-bakeryops/components/synclog"
	"github.com/goliatone/go-bakeryops/pkg/activity"
	"github.com/goliatone/go-bakeryops/pkg/activity/usersink"
	"github.com/goliatone/go-bakeryops/pkg/config"
	dashboardpkg "github.com/goliatone/go-bakeryops/pkg/dashboard"
	notifyamqp "github.com/goliatone/go-bakeryops/pkg/notify/amqp"
	"github.com/goliatone/go-bakeryops/pkg/telemetry"
)

const chartCacheTTL = 30 * time.Second

// app holds the wired components of one daemon run.
type app struct {
	cfg        config.Config
	logger     *zap.Logger
	store      *synclog.SQLStore
	feed       *liveops.Generator
	broadcast  *liveops.Broadcaster
	publisher  *notifyamqp.Publisher
	metrics    *telemetry.Metrics
	service    *dashboard.Service
	controller *dashboard.Controller
	handlers   *httpapi.Handlers
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	metrics, err := telemetry.NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	a.metrics = metrics
	rec := telemetry.Multi{telemetry.NewZap(logger), metrics}

	a.store, err = synclog.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN, synclog.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	a.broadcast = liveops.NewBroadcaster(16)
	hooks := liveops.Hooks{a.broadcast}
	if cfg.Notifications.AMQPURL != "" {
		a.publisher, err = notifyamqp.Dial(cfg.Notifications.AMQPURL,
			notifyamqp.WithExchange(cfg.Notifications.Exchange),
			notifyamqp.WithLogger(logger),
		)
		if err != nil {
			a.close()
			return nil, err
		}
		hooks = append(hooks, a.publisher)
	}

	// The config default already carries 0.3, so an explicit 0 means off.
	probability := cfg.LiveOps.AlertProbability
	if probability == 0 {
		probability = -1
	}
	a.feed = liveops.NewGenerator(liveops.Options{
		OrderInterval:       cfg.LiveOps.OrderInterval,
		AlertInterval:       cfg.LiveOps.AlertInterval,
		AlertProbability:    probability,
		OrderCapacity:       cfg.LiveOps.OrderCapacity,
		AlertCapacity:       cfg.LiveOps.AlertCapacity,
		ManualAlertCapacity: cfg.LiveOps.ManualAlertCapacity,
		MinAmount:           cfg.LiveOps.MinAmount,
		AmountSpan:          cfg.LiveOps.AmountSpan,
		Hook:                hooks,
		Telemetry:           rec,
		Logger:              logger.Named("liveops"),
	})

	pipeline := dashboard.NewSyncPipeline(a.store, cfg.Sync.StepDelay)
	pipeline.Logger = logger.Named("sync")

	a.service = dashboardpkg.NewService(dashboard.Options{
		Feed:          a.feed,
		Authenticator: dashboard.PINAuthenticator{PIN: cfg.Auth.PIN},
		Charts:        dashboard.NewEChartsRenderer(dashboard.WithChartCache(dashboard.NewChartCache(chartCacheTTL))),
		Sync:          pipeline,
		Logs:          a.store,
		Activity: activity.NewEmitter(activity.Hooks{
			usersink.Hook{Sink: activitySink{logger: logger.Named("activity")}},
		}, activity.Config{Enabled: true}),
		Telemetry: rec,
		Logger:    logger.Named("dashboard"),
	})

	renderer, err := dashboard.NewTemplateRenderer()
	if err != nil {
		a.close()
		return nil, err
	}
	a.controller = dashboard.NewController(dashboard.ControllerOptions{
		Service:  a.service,
		Renderer: renderer,
	})
	a.handlers = dashboardpkg.NewHandlers(a.service, rec)
	return a, nil
}

// close stops the feed and releases connections, in reverse wiring order.
func (a *app) close() error {
	var errs []error
	if a.service != nil {
		a.service.Close()
	}
	if a.feed != nil {
		a.feed.Stop()
	}
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

// activitySink writes go-users activity records to the log.
type activitySink struct {
	logger *zap.Logger
}

func (s activitySink) Log(_ context.Context, record types.ActivityRecord) error {
	s.logger.Info(record.Verb,
		zap.String("object_type", record.ObjectType),
		zap.String("object_id", record.ObjectID),
		zap.String("channel", record.Channel),
		zap.Any("data", record.Data),
		zap.Time("occurred_at", record.OccurredAt),
	)
	return nil
}
