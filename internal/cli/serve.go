package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/medreport/internal/dispatch"
	"github.com/alnah/medreport/internal/httpapi"
	"github.com/alnah/medreport/internal/observe"
)

const (
	defaultServeAddr = "127.0.0.1:8080"
	shutdownTimeout  = 10 * time.Second
)

// serveOptions holds validated options for the serve command.
type serveOptions struct {
	addr    string
	service serviceOptions
}

// ServeCmd creates the serve command.
// version is reported as the telemetry service version.
func ServeCmd(env *Env, version string) *cobra.Command {
	var (
		addr string
		svc  serviceFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the report API over HTTP",
		Long: `Serve the report API over HTTP, with Prometheus metrics.

Routes:
  POST   /api/reports         generate several kinds ({"transcript","kinds"})
  POST   /api/reports/{kind}  generate one kind ({"transcript"})
  DELETE /api/cache           clear memoized reports
  GET    /api/kinds           list report kinds
  GET    /api/examples        list sample conversations
  GET    /healthz             liveness
  GET    /metrics             Prometheus metrics

The server stops gracefully on interrupt.`,
		Example: `  medreport serve
  medreport serve --addr :9090 --provider deepseek -p 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := svc.parse()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), env, serveOptions{addr: addr, service: service}, version)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "Listen address")
	svc.register(cmd)

	return cmd
}

// runServe serves until ctx is done, then shuts down gracefully.
func runServe(ctx context.Context, env *Env, opts serveOptions, version string) error {
	cfg := loadConfig(env)
	s, err := resolveSettings(opts.service, cfg)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, slog.LevelInfo, opts.service.verbose)

	telemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return err
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	d, err := newDispatcher(env, s, dispatch.Config{
		Parallel: opts.service.parallel,
		Metrics:  telemetry.Metrics,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	api := httpapi.New(d, httpapi.WithMetrics(telemetry.Metrics), httpapi.WithLogger(logger))
	mux := http.NewServeMux()
	mux.Handle("/", api.Handler())
	mux.Handle("GET /metrics", telemetry.Handler)

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("cannot listen on %s: %w", opts.addr, err)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(env.Stderr, "Listening on http://%s (provider: %s, models: %v)\n",
		ln.Addr(), s.provider, d.Models())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	fmt.Fprintln(env.Stderr, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
