package main

import (
	"context"
	"expvar"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/trezcool/classboard/apps/api/echo"
	"github.com/trezcool/classboard/apps/shared"
	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/roster"
	"github.com/trezcool/classboard/services/metrics"
	"github.com/trezcool/classboard/services/scheduler"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger, syncLogger, err := shared.NewLogger(conf)
	if err != nil {
		log.Fatalf("setting up logger: %v", err)
	}
	defer func() { _ = syncLogger() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := shared.New(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up services: %v", err), err)
	}
	defer func() {
		if err = c.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing services: %v", err), err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder, err := metrics.NewSyncRecorder(reg)
	if err != nil {
		logger.Fatal(fmt.Sprintf("registering metrics: %v", err), err)
	}
	recorder.Observe(c.Roster.Snapshot())
	c.Roster.Subscribe(recorder.Handle)
	c.Roster.Subscribe(logEvent(logger))

	sched := scheduler.New(c.Roster, conf.Sync.Interval, logger)
	sched.Start(ctx)
	defer sched.Stop()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			RosterSvc:   c.Roster,
			SettingsSvc: c.Settings,
			ReportSvc:   c.Reports,
			Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			Validate:    c.Validate,
			Translator:  c.Translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		sched.Stop()

		// give outstanding requests a deadline for completion
		sctx, scancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer scancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func logEvent(logger core.Logger) roster.Subscriber {
	return func(ev roster.Event) {
		switch ev.Kind {
		case roster.SyncStarted:
			logger.Debug("sync started", "runId", ev.RunID)
		case roster.SyncFailed:
			logger.Debug("sync failed", "runId", ev.RunID, "kind", roster.ErrorKind(ev.Err), "took", ev.Duration)
		}
	}
}
