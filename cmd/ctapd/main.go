// ctapd -- a CTAPHID transport daemon and demo FIDO2 authenticator core.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/go-ctap/ctapd/internal/authcore"
	"github.com/go-ctap/ctapd/internal/config"
	"github.com/go-ctap/ctapd/internal/ctaphid"
	ctapmetrics "github.com/go-ctap/ctapd/internal/metrics"
	"github.com/go-ctap/ctapd/internal/server"
	"github.com/go-ctap/ctapd/internal/transport"
	appversion "github.com/go-ctap/ctapd/internal/version"
)

// shutdownTimeout is the maximum time to wait for HTTP servers to drain
// active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("ctapd starting",
		slog.String("version", appversion.Version),
		slog.String("debug_addr", cfg.Debug.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	reg := prometheus.NewRegistry()
	collector := ctapmetrics.NewCollector(reg)

	tr, err := openTransport(cfg.Transport, logger)
	if err != nil {
		logger.Error("failed to open transport", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := tr.Close(); err != nil {
			logger.Warn("failed to close transport", slog.String("error", err.Error()))
		}
	}()

	engine := ctaphid.New(
		ctaphid.SystemClock{},
		ctaphid.CryptoRNG{},
		authcore.New(cfg.Authenticator.RPID),
		cfg.Transport.FrameSize,
		ctaphid.Capabilities{
			Wink: cfg.Capabilities.Wink,
			CBOR: cfg.Capabilities.CBOR,
			NMsg: cfg.Capabilities.NMsg,
		},
		ctaphid.WithLogger(logger),
		ctaphid.WithMetrics(collector),
	)
	defer engine.Teardown()

	if err := runServers(cfg, engine, tr, reg, logger, *configPath, logLevel); err != nil {
		logger.Error("ctapd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("ctapd stopped")
	return 0
}

// openTransport selects the hidraw or socket transport per configuration.
// A non-empty Device takes precedence over SocketPath.
func openTransport(cfg config.TransportConfig, logger *slog.Logger) (transport.FrameTransport, error) {
	if cfg.Device != "" {
		tr, err := transport.OpenHidraw(cfg.Device, cfg.FrameSize)
		if err != nil {
			return nil, fmt.Errorf("open hidraw device %s: %w", cfg.Device, err)
		}
		logger.Info("hidraw transport opened", slog.String("device", cfg.Device))
		return tr, nil
	}

	ln, err := transport.ListenUnix(cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("listen on socket %s: %w", cfg.SocketPath, err)
	}

	logger.Info("waiting for socket transport connection", slog.String("path", cfg.SocketPath))
	conn, err := ln.Accept()
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("accept on socket %s: %w", cfg.SocketPath, err)
	}
	_ = ln.Close()

	logger.Info("socket transport connected", slog.String("path", cfg.SocketPath))
	return transport.NewSocketTransport(conn, cfg.FrameSize), nil
}

// runServers sets up and runs the frame pump, debug server, and metrics
// server using an errgroup with signal-aware context for graceful
// shutdown.
func runServers(
	cfg *config.Config,
	engine *ctaphid.Engine,
	tr transport.FrameTransport,
	reg *prometheus.Registry,
	logger *slog.Logger,
	configPath string,
	logLevel *slog.LevelVar,
) error {
	metricsSrv := newMetricsServer(cfg.Metrics, reg)
	debugSrv := newDebugServer(cfg.Debug, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	pump := transport.NewPump(tr, engine, logger)
	g.Go(func() error {
		return pump.Run(gCtx)
	})

	startHTTPServers(gCtx, g, cfg, debugSrv, metricsSrv, logger)
	startSIGHUPHandler(gCtx, g, configPath, logLevel, logger)

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, logger, debugSrv, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

func startHTTPServers(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Config,
	debugSrv *http.Server,
	metricsSrv *http.Server,
	logger *slog.Logger,
) {
	lc := net.ListenConfig{}

	if debugSrv != nil {
		g.Go(func() error {
			logger.Info("debug server listening", slog.String("addr", cfg.Debug.Addr))
			return listenAndServe(ctx, &lc, debugSrv, cfg.Debug.Addr)
		})
	}

	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(ctx, &lc, metricsSrv, cfg.Metrics.Addr)
	})
}

// startSIGHUPHandler reloads the dynamic log level on SIGHUP. Unlike the
// teacher's session reconciliation, there is no declarative resource set
// to diff here; only the log level is hot-reloadable.
func startSIGHUPHandler(
	ctx context.Context,
	g *errgroup.Group,
	configPath string,
	logLevel *slog.LevelVar,
	logger *slog.Logger,
) {
	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)
	g.Go(func() error {
		defer signal.Stop(sigHUP)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sigHUP:
				reloadLogLevel(configPath, logLevel, logger)
			}
		}
	})
}

func reloadLogLevel(configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	newCfg, err := loadConfig(configPath)
	if err != nil {
		logger.Error("failed to reload configuration, keeping current settings",
			slog.String("error", err.Error()),
		)
		return
	}

	oldLevel := logLevel.Level()
	newLevel := config.ParseLogLevel(newCfg.Log.Level)
	logLevel.Set(newLevel)

	logger.Info("configuration reloaded",
		slog.String("old_log_level", oldLevel.String()),
		slog.String("new_log_level", newLevel.String()),
	)
}

func gracefulShutdown(ctx context.Context, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// newDebugServer returns nil when no debug address is configured.
func newDebugServer(cfg config.DebugConfig, engine *ctaphid.Engine, logger *slog.Logger) *http.Server {
	if cfg.Addr == "" {
		return nil
	}

	_, handler := server.New(engine, logger)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
