package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/tejusbharadwaj/renugrid/internal/api"
	"github.com/tejusbharadwaj/renugrid/internal/config"
	"github.com/tejusbharadwaj/renugrid/internal/dashboard"
	"github.com/tejusbharadwaj/renugrid/internal/database"
	"github.com/tejusbharadwaj/renugrid/internal/metrics"
	"github.com/tejusbharadwaj/renugrid/internal/scheduler"
	"github.com/tejusbharadwaj/renugrid/internal/sink"
)

// app holds the components shared by the dashboard and serve commands.
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
	store     *dashboard.Store
	scheduler *scheduler.Scheduler
	sinks     *sink.Fanout
	repo      *database.PostgresRepo // nil unless the postgres sink is enabled
	closeLog  func() error
}

// newApp loads the configuration and wires the poller. Log output goes to
// logOut unless logging.file is set.
func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, closeLog, err := cfg.Logging.NewLogger(logOut)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		closeLog: closeLog,
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if a.metrics, err = metrics.New(a.registry); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	client, err := api.NewFeedClient(cfg.Client(), nil, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create feed client: %w", err)
	}

	recorders, err := a.openSinks(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.sinks = sink.NewFanout(logger, a.metrics, recorders...)

	a.store = dashboard.NewStore()
	opts := []scheduler.Option{
		scheduler.WithInterval(cfg.Poll.Interval),
		scheduler.WithMetrics(a.metrics),
	}
	if a.sinks.Len() > 0 {
		opts = append(opts, scheduler.WithRecorder(a.sinks))
	}
	a.scheduler = scheduler.NewScheduler(client, a.store, logger, opts...)

	logger.WithFields(logrus.Fields{
		"feed":     client.URL(),
		"interval": cfg.Poll.Interval.String(),
		"sinks":    a.sinks.Len(),
	}).Info("Poller configured")

	return a, nil
}

// openSinks connects every enabled sink. A sink that cannot be reached at
// startup is fatal.
func (a *app) openSinks(ctx context.Context) ([]sink.Recorder, error) {
	var recorders []sink.Recorder
	fail := func(err error) ([]sink.Recorder, error) {
		for _, r := range recorders {
			_ = r.Close()
		}
		a.repo = nil
		return nil, err
	}

	if pg := a.cfg.Sinks.Postgres; pg.Enabled {
		repo, err := database.NewPostgresRepo(pg.Database().ConnString(), a.cfg.Feed.ChannelID)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to postgres: %w", err))
		}
		recorders = append(recorders, repo)
		repo.SetMaxConnections(pg.MaxConnections)

		schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = repo.EnsureSchema(schemaCtx)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("failed to prepare schema: %w", err))
		}
		a.repo = repo
	}

	if a.cfg.Sinks.Influx.Enabled {
		w := sink.NewInfluxWriter(a.cfg.Influx())
		recorders = append(recorders, w)

		healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := w.Health(healthCtx)
		cancel()
		if err != nil {
			return fail(fmt.Errorf("influxdb is not healthy: %w", err))
		}
	}

	if a.cfg.Sinks.MQTT.Enabled {
		p, err := sink.NewMQTTPublisher(a.cfg.MQTT())
		if err != nil {
			return fail(err)
		}
		recorders = append(recorders, p)
	}

	for _, r := range recorders {
		a.logger.WithField("sink", r.Name()).Info("Sink enabled")
	}
	return recorders, nil
}

// close tears down in order: the scheduler (which closes the store), then the
// sinks, then the log file. Servers are stopped by the caller before this.
func (a *app) close() error {
	var errs []error
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.sinks != nil {
		errs = append(errs, a.sinks.Close())
	}
	if a.closeLog != nil {
		errs = append(errs, a.closeLog())
	}
	return errors.Join(errs...)
}
