package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadmart/leadgen-cli/internal/model"
	"github.com/leadmart/leadgen-cli/internal/queue"
	"github.com/leadmart/leadgen-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the order submission and lead download API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		q, err := initQueue(ctx)
		if err != nil {
			return err
		}
		defer q.Close()

		st, err := initStore(ctx)
		if err != nil {
			zap.L().Warn("run history store unavailable", zap.Error(err))
			st = nil
		}
		if st != nil {
			defer st.Close()
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(cfg.Paths.Verified, q, st),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter builds the API surface backing the dashboard's order form and
// lead download. A nil store disables the run-history endpoint.
func newRouter(verifiedPath string, q queue.Queue, st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
		pending, err := q.ListPending(r.Context())
		if err != nil {
			zap.L().Error("order listing failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "queue unavailable"})
			return
		}
		if pending == nil {
			pending = []model.LeadOrder{}
		}
		writeJSON(w, http.StatusOK, pending)
	})

	r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Niche     string `json:"niche"`
			Location  string `json:"location"`
			MaxCount  int    `json:"max_count"`
			Requester string `json:"requester"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Niche == "" || req.Location == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "niche and location are required"})
			return
		}

		order := model.LeadOrder{
			ID:        uuid.New().String(),
			CreatedAt: time.Now().UTC().Format(model.TimestampLayout),
			Niche:     req.Niche,
			Location:  req.Location,
			MaxCount:  req.MaxCount,
			Requester: req.Requester,
			Status:    model.OrderStatusPending,
		}
		if err := q.Append(r.Context(), order); err != nil {
			zap.L().Error("order submission failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not queue order"})
			return
		}
		writeJSON(w, http.StatusCreated, order)
	})

	// A missing file means the pipeline has not run yet; an existing file
	// with zero rows means it ran and nothing matched.
	r.Get("/leads", func(w http.ResponseWriter, r *http.Request) {
		f, err := os.Open(verifiedPath)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "pipeline has not run yet"})
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="verified_leads.csv"`)
		io.Copy(w, f)
	})

	if st != nil {
		r.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
			runs, err := st.ListRuns(r.Context(), 20)
			if err != nil {
				zap.L().Error("run listing failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "run history unavailable"})
				return
			}
			if runs == nil {
				runs = []model.RunRecord{}
			}
			writeJSON(w, http.StatusOK, runs)
		})
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
