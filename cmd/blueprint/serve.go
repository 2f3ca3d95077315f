package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/blueprint/internal/config"
	"github.com/vango-dev/blueprint/pkg/animate"
	"github.com/vango-dev/blueprint/pkg/host"
	"github.com/vango-dev/blueprint/pkg/mount"
	"github.com/vango-dev/blueprint/pkg/remotehost"
	"github.com/vango-dev/blueprint/pkg/telemetry"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(load configLoader) *cobra.Command {
	var (
		port     int
		hostname string
		source   string
		watch    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an in-memory host over websocket",
		Long: `Serve an in-memory host so remote clients can mount into it.

Routes:
  /host      websocket endpoint for 'blueprint mount --remote'
  /tree      JSON snapshot of the scene graph
  /metrics   Prometheus metrics (when metrics.enabled is set)

With --mount the server mounts a document into its own host and keeps
it mounted until shutdown.

Examples:
  blueprint serve
  blueprint serve --port=8080 --mount scene.yaml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Serve.Port = port
			}
			if hostname != "" {
				cfg.Serve.Host = hostname
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, logger, source, watch)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from blueprint.json)")
	cmd.Flags().StringVarP(&hostname, "host", "H", "", "Host to bind to (default from blueprint.json)")
	cmd.Flags().StringVarP(&source, "mount", "m", "", "Document to mount into the served host")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Remount the --mount document when it changes")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, source string, watch bool) error {
	out := cmd.OutOrStdout()

	mem := host.NewMemory(append(cfg.HostOptions(), host.WithLogger(logger))...)
	srv := remotehost.NewServer(mem, mem.Root(), remotehost.WithServerLogger(logger))
	defer srv.Close()

	var (
		registry *prometheus.Registry
		recorder mount.Recorder
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: cfg.Metrics.Namespace,
				Name:      "remote_clients",
				Help:      "Number of connected remote host clients.",
			}, func() float64 { return float64(srv.ClientCount()) }),
		)
		recorder = telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithRegistry(registry),
		)
	}

	ln, err := net.Listen("tcp", cfg.ServeAddress())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ServeAddress(), err)
	}
	httpServer := &http.Server{
		Handler:           newRouter(mem, srv, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	success(out, "Serving host on http://%s", ln.Addr())
	info(out, "Remote clients connect to ws://%s/host", ln.Addr())

	var runErr error
	if source != "" {
		runErr = mountLoopback(ctx, cmd, cfg, logger, "ws://"+ln.Addr().String()+"/host", source, watch, recorder)
	} else {
		select {
		case <-ctx.Done():
		case runErr = <-serveErr:
		}
	}

	info(out, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	srv.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", "error", err)
	}
	return runErr
}

// mountLoopback mounts source into the served host through a websocket
// client, so every callback runs on this goroutine.
func mountLoopback(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, url, source string, watch bool, recorder mount.Recorder) error {
	client, err := remotehost.Dial(ctx, url, remotehost.WithLogger(logger))
	if err != nil {
		return err
	}
	defer client.Close()

	solver := animate.NewSpringSolver(client,
		animate.WithLogger(logger),
		animate.WithDefaultSpring(cfg.DefaultSpring()),
	)
	opts := []mount.Option{
		mount.WithLogger(logger),
		mount.WithSolver(solver),
		mount.WithTracer(telemetry.Tracer(telemetry.DefaultTracerName)),
	}
	if recorder != nil {
		opts = append(opts, mount.WithRecorder(recorder))
	}

	s := &session{
		out:     cmd.OutOrStdout(),
		logger:  logger,
		root:    client.Root(),
		remote:  client,
		solver:  solver,
		mounter: mount.New(client, opts...),
		loader:  newLoader(cfg, source, cmd.OutOrStdout(), cmd.InOrStdin(), logger),
		source:  source,
		watch:   watch,
		keep:    true,
	}
	return s.run(ctx)
}

func newRouter(mem *host.Memory, srv *remotehost.Server, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/host", srv)
	r.Get("/tree", func(w http.ResponseWriter, r *http.Request) {
		snap, err := mem.Snapshot(mem.Root())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}
	return r
}
