package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sunward-group/rooftop-cli/internal/model"
	"github.com/sunward-group/rooftop-cli/internal/pipeline"
	"github.com/sunward-group/rooftop-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := initPipeline()
		mux := newServeMux(p, st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newServeMux builds the HTTP routes. Split out for testing.
func newServeMux(p *pipeline.Pipeline, st store.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		var site model.Site
		if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}

		bundle, err := p.Run(r.Context(), site)
		if err != nil {
			zap.L().Error("analyze request failed",
				zap.String("site", site.Name),
				zap.Error(err),
			)
			http.Error(w, `{"error":"analysis failed"}`, http.StatusUnprocessableEntity)
			return
		}

		if st != nil {
			if run, err := st.CreateRun(r.Context(), site); err != nil {
				zap.L().Warn("persist run failed", zap.Error(err))
			} else if err := st.UpdateRunResult(r.Context(), run.ID, bundle); err != nil {
				zap.L().Warn("persist result failed", zap.Error(err))
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(bundle)
	})

	mux.HandleFunc("GET /runs", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			http.Error(w, `{"error":"store not configured"}`, http.StatusServiceUnavailable)
			return
		}
		runs, err := st.ListRuns(r.Context(), store.RunFilter{
			Status:   model.RunStatus(r.URL.Query().Get("status")),
			SiteName: r.URL.Query().Get("site"),
		})
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			http.Error(w, `{"error":"list runs failed"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(runs)
	})

	return mux
}
