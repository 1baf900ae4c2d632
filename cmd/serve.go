package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cardfolio/cardscan-cli/internal/analytics"
	"github.com/cardfolio/cardscan-cli/internal/enrich"
	"github.com/cardfolio/cardscan-cli/internal/model"
	"github.com/cardfolio/cardscan-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for scans and contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initScanEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		api := &apiServer{env: env, scan: env.Orchestrator.Process}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", api.handleHealth)
		r.Post("/scans", api.handleScan)
		r.Get("/contacts", api.handleListContacts)
		r.Get("/contacts/search", api.handleSearchContacts)
		r.Get("/contacts/{id}", api.handleGetContact)
		r.Delete("/contacts/{id}", api.handleDeleteContact)
		r.Get("/stats", api.handleStats)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		// Accepted scans must land in the store before env.Close() tears
		// down the database handle and clients.
		api.drainScans(scanDrainTimeout)
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// scanDrainTimeout bounds how long shutdown waits for accepted scans.
const scanDrainTimeout = 2 * time.Minute

type apiServer struct {
	env  *scanEnv
	scan scanFunc

	// inflight tracks accepted scans still being processed.
	inflight sync.WaitGroup
}

// drainScans waits for in-flight scans to finish persisting, up to timeout.
func (s *apiServer) drainScans(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		zap.L().Warn("gave up waiting for in-flight scans", zap.Duration("timeout", timeout))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScan accepts a scan request and runs it asynchronously: processing
// never fails, so the caller gets an immediate 202 and the contact lands in
// the store when the pipeline finishes.
func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageURI     string `json:"image_uri"`
		UserIndustry string `json:"user_industry"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ImageURI == "" {
		writeError(w, http.StatusBadRequest, "image_uri is required")
		return
	}

	industry := req.UserIndustry
	if industry == "" {
		industry = cfg.Pipeline.UserIndustry
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		// Detached from the request context: the scan outlives the response.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		outcome := s.scan(ctx, enrich.ScanRequest{
			ImageURI:     req.ImageURI,
			UserIndustry: industry,
		})
		if err := s.env.Store.AddContact(ctx, &outcome.Contact); err != nil {
			zap.L().Error("async scan save failed",
				zap.String("image", req.ImageURI),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("async scan complete",
			zap.String("image", req.ImageURI),
			zap.String("contact_id", outcome.Contact.ID),
			zap.Bool("fell_back", outcome.FellBack),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"image":  req.ImageURI,
	})
}

func (s *apiServer) handleListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.ContactFilter{
		Tag:             q.Get("tag"),
		Category:        model.ContactCategory(q.Get("category")),
		Industry:        q.Get("industry"),
		CompanySize:     model.CompanySize(q.Get("company_size")),
		Country:         q.Get("country"),
		City:            q.Get("city"),
		CompetitorsOnly: q.Get("competitors") == "true",
	}

	contacts, err := s.env.Store.ListContacts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *apiServer) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	contacts, err := s.env.Store.SearchContacts(r.Context(), query, 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

func (s *apiServer) handleGetContact(w http.ResponseWriter, r *http.Request) {
	contact, err := s.env.Store.GetContact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (s *apiServer) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.env.Store.DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *apiServer) handleStats(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.env.Store.ListContacts(r.Context(), store.ContactFilter{Limit: 10000})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics":       analytics.GetNetworkMetrics(contacts, now),
		"industries":    analytics.GetIndustryBreakdown(contacts),
		"company_sizes": analytics.GetCompanySizeBreakdown(contacts),
		"top_companies": analytics.GetTopCompanies(contacts, 10),
		"weekly_trends": analytics.GetWeeklyTrends(contacts, now),
		"geography":     analytics.GetGeographicDistribution(contacts),
		"scan_quality":  analytics.GetQualityReport(contacts),
	})
}
