package cli

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mchmarny/safegrade/pkg/benchmark"
	"github.com/mchmarny/safegrade/pkg/data"
	"github.com/mchmarny/safegrade/pkg/scoring"
	urfave "github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverAddressDefault      = "127.0.0.1:8080"
)

var (
	addressFlag = &urfave.StringFlag{
		Name:  "address",
		Usage: "Address on which the server will listen",
		Value: serverAddressDefault,
	}

	serverCmd = &urfave.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP server serving grades and layouts as JSON",
		Action:  cmdStartServer,
		Flags: []urfave.Flag{
			addressFlag,
		},
	}
)

func cmdStartServer(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	address := cmd.String(addressFlag.Name)

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(cfg),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("server started", "address", "http://"+address)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func makeRouter(cfg *appConfig) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /data/runs", runsAPIHandler(cfg))
	mux.HandleFunc("GET /data/report", reportAPIHandler(cfg))
	mux.HandleFunc("GET /data/bands", bandsAPIHandler(cfg))
	mux.HandleFunc("GET /data/hazards", hazardsAPIHandler(cfg))
	mux.HandleFunc("GET /version", versionAPIHandler)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, data.ErrRunNotFound), errors.Is(err, benchmark.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scoring.ErrInvalidParameter), errors.Is(err, scoring.ErrInvalidSampleSize),
		errors.Is(err, strconv.ErrSyntax), errors.Is(err, strconv.ErrRange), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var errBadRequest = errors.New("bad request")

func runsAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		list, err := listRuns(cfg)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func reportAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query()["run"]
		if len(ids) == 0 {
			writeError(w, errors.Join(errBadRequest, errors.New("run parameter required")))
			return
		}
		rep, err := gradeRuns(r.Context(), cfg, ids)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func bandsAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		uid := q.Get("hazard")
		if uid == "" {
			writeError(w, errors.Join(errBadRequest, errors.New("hazard parameter required")))
			return
		}

		var prob *float64
		if v := q.Get("probability"); v != "" {
			p, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeError(w, err)
				return
			}
			prob = &p
		}

		samples := defaultSamples
		if v := q.Get("samples"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, err)
				return
			}
			samples = n
		}

		res, err := hazardBands(cfg, uid, prob, samples)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func hazardsAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, listBenchmarks(cfg.Registry))
	}
}

func versionAPIHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    version,
		"commit":     commit,
		"build_date": date,
	})
}
