package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/penwyp/go-sim-monitor/internal/application/chart"
	"github.com/penwyp/go-sim-monitor/internal/core/cache"
	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sim-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	serveAddr     string
	serveCacheTTL time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the hourly series as JSON over HTTP",
	Long: `Starts an HTTP server with two endpoints:

  GET /api/buckets?start=&end=   hourly series as [{"date", "count"}]
  GET /healthz                   liveness check

start and end are optional RFC3339 times or YYYY-MM-DD dates.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080",
		"Listen address")
	serveCmd.Flags().DurationVar(&serveCacheTTL, "cache-ttl", 10*time.Second,
		"How long fetched simulations are reused across requests (0 disables)")
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := setup(cmd)
	if err != nil {
		return err
	}
	defer util.CloseLogger()

	loader, err := chart.NewDataLoader(config)
	if err != nil {
		return fmt.Errorf("failed to create data loader: %w", err)
	}

	records := cache.NewMemoryCache(loader, serveCacheTTL)
	defer records.LogStats()

	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           newRouter(records),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		util.LogInfo(fmt.Sprintf("Serving buckets for %s on %s", loader.Source(), serveAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	util.LogInfo("Stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter wires the HTTP endpoints over a record source
func newRouter(source chart.RecordSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/buckets", bucketsHandler(source))
	})

	return r
}

func bucketsHandler(source chart.RecordSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}

		records, err := source.Load(r.Context())
		if err != nil {
			util.LogError(fmt.Sprintf("Failed to load simulations: %v", err))
			writeJSON(w, http.StatusBadGateway, map[string]string{"message": err.Error()})
			return
		}

		series := aggregator.Aggregate(model.FilterSimulations(records, filter))
		if series == nil {
			series = []aggregator.Bucket{}
		}
		writeJSON(w, http.StatusOK, series)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// requestLogger logs each request through the application logger
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		util.LogInfo(fmt.Sprintf("%s %s %d %dB %s [%s]",
			r.Method, r.URL.RequestURI(), ww.Status(), ww.BytesWritten(),
			time.Since(start), middleware.GetReqID(r.Context())))
	})
}
