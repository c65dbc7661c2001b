package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/efebarandurmaz/fraytypes/internal/bridge"
	"github.com/efebarandurmaz/fraytypes/internal/config"
	"github.com/efebarandurmaz/fraytypes/internal/observability"
	"github.com/efebarandurmaz/fraytypes/internal/plugins"
	"github.com/efebarandurmaz/fraytypes/internal/server"
	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

func runServe(cfg *config.Config) error {
	logger := observability.NewLogger(observability.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stderr)
	slog.SetDefault(logger)

	ctx := context.Background()
	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}

	audit, err := observability.NewAuditLogger(&observability.AuditConfig{
		Enabled:    cfg.Audit.Enabled,
		OutputPath: cfg.Audit.Output,
	})
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}

	sel, err := typedefs.NewCache(typedefs.Static{}, cfg.Cache.Size)
	if err != nil {
		return fmt.Errorf("creating selection cache: %w", err)
	}

	defaults := cfg.Defaults.FilterConfig()
	plugin := plugins.New(plugins.Options{
		Version:  version,
		Selector: sel,
		Defaults: &defaults,
		Audit:    audit,
		Logger:   logger,
	})

	gs := server.NewGracefulServer(
		&server.HealthConfig{Version: version},
		&server.ShutdownConfig{Timeout: cfg.Server.ShutdownTimeout, Logger: logger},
	)

	var accessLog io.Writer
	if strings.EqualFold(cfg.Log.Level, "debug") {
		accessLog = os.Stderr
	}
	br := bridge.New(bridge.Options{
		Plugin:    plugin,
		Health:    gs.Health,
		Audit:     audit,
		Logger:    logger,
		AccessLog: accessLog,
	})

	gs.Health.RegisterCheck("selector", server.SelectorHealthChecker(sel))
	gs.Health.RegisterCheck("payloads", server.PayloadHealthChecker())
	gs.Health.RegisterCheck("host", server.SessionsHealthChecker(br.Hub().Count))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      br.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	gs.RegisterHook(server.HTTPServerShutdownHook("bridge", srv.Shutdown))
	gs.RegisterHook(server.HostSessionsShutdownHook(br.Hub().CloseAll))
	gs.RegisterHook(server.TracingShutdownHook(tp.Shutdown))
	gs.RegisterHook(server.AuditLoggerShutdownHook(audit.Close))

	// The bridge router serves the health routes too; a separate listener
	// is only started on a distinct address.
	healthAddr := cfg.Server.HealthAddr
	if healthAddr == cfg.Server.Addr {
		healthAddr = ""
	}
	healthErr := gs.Start(healthAddr)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	logger.Info("provider listening",
		"addr", cfg.Server.Addr,
		"health_addr", healthAddr,
		"version", version,
		"cache_size", cfg.Cache.Size,
	)

	select {
	case <-gs.Shutdown.Done():
		logger.Info("provider stopped")
		return nil
	case err := <-serveErr:
		gs.Shutdown.Shutdown()
		gs.Wait()
		return fmt.Errorf("bridge listener: %w", err)
	case err := <-healthErr:
		gs.Shutdown.Shutdown()
		gs.Wait()
		return fmt.Errorf("health listener: %w", err)
	}
}
