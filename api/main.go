package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/secwatch/cyber-alert-radar/backend/internal/alert"
	"github.com/secwatch/cyber-alert-radar/backend/internal/config"
	"github.com/secwatch/cyber-alert-radar/backend/internal/elasticsearch"
	"github.com/secwatch/cyber-alert-radar/backend/internal/history"
	"github.com/secwatch/cyber-alert-radar/backend/internal/logger"
	"github.com/secwatch/cyber-alert-radar/backend/internal/models"
	"github.com/secwatch/cyber-alert-radar/backend/internal/notify"
	"github.com/secwatch/cyber-alert-radar/backend/internal/registry"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	srv := &server{
		log:    log,
		cfg:    cfg,
		es:     esClient,
		phones: registry.NewFileStore(cfg.PhoneFile, log),
		dispatcher: alert.New(
			history.NewFileStore(cfg.HistoryFile, log),
			notify.FromConfig(cfg.Twilio, log),
			log,
		),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Get("/news", srv.handleSearch)
	r.Post("/alerts/register", srv.handleRegister)
	r.Get("/alerts/phone", srv.handlePhone)
	r.Post("/alerts/test", srv.handleTestAlert)
	r.Post("/alerts/check", srv.handleCheck)
	r.Get("/digest", srv.handleDigest)
	r.Post("/digest/send", srv.handleDigestSend)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log        *slog.Logger
	cfg        *config.API
	es         *elasticsearch.Client
	phones     *registry.FileStore
	dispatcher *alert.Dispatcher
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.es.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	params := elasticsearch.SearchParams{
		Query:    strings.TrimSpace(r.URL.Query().Get("q")),
		Source:   strings.TrimSpace(r.URL.Query().Get("source")),
		MinScore: clampInt(r.URL.Query().Get("min_score"), 0, 1000),
		From:     clampInt(r.URL.Query().Get("from"), 0, 10_000),
		Size:     clampInt(r.URL.Query().Get("size"), s.cfg.DefaultPage, s.cfg.MaxPage),
		Sort:     strings.TrimSpace(r.URL.Query().Get("sort")),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("critical")); raw != "" {
		if critical, err := strconv.ParseBool(raw); err == nil {
			params.Critical = &critical
		}
	}
	if start := parseTime(r.URL.Query().Get("start")); start != nil {
		params.Start = start
	}
	if end := parseTime(r.URL.Query().Get("end")); end != nil {
		params.End = end
	}

	result, err := s.es.SearchNews(ctx, params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type registerRequest struct {
	Phone string `json:"phone"`
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	phone, err := s.phones.Set(req.Phone)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.log.Info("phone registered for alerts", slog.String("phone", phone))
	writeJSON(w, http.StatusOK, map[string]any{
		"registered": true,
		"phone":      phone,
	})
}

func (s *server) handlePhone(w http.ResponseWriter, r *http.Request) {
	phone, ok := s.phones.Get()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no phone registered for alerts"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"phone": phone})
}

func (s *server) handleTestAlert(w http.ResponseWriter, r *http.Request) {
	phone, ok := s.phones.Get()
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no phone registered for alerts"})
		return
	}

	if err := s.dispatcher.SendTest(r.Context(), phone); err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sent": true, "phone": phone})
}

// handleCheck runs a batch alert check over recent news. This is the manual
// trigger; the worker runs the same check continuously on fresh batches.
func (s *server) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	records, err := s.recentRecords(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	phone, _ := s.phones.Get()
	critical, anySent := s.dispatcher.CheckForAlerts(ctx, records, phone)

	writeJSON(w, http.StatusOK, map[string]any{
		"scanned":  len(records),
		"critical": len(critical),
		"any_sent": anySent,
	})
}

func (s *server) handleDigest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := s.buildDigest(ctx, r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *server) handleDigestSend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	phone, ok := s.phones.Get()
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no phone registered for alerts"})
		return
	}

	items, err := s.buildDigest(ctx, r)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	sent := s.dispatcher.SendDigest(ctx, phone, items)
	writeJSON(w, http.StatusOK, map[string]any{"sent": sent, "items": len(items)})
}

func (s *server) buildDigest(ctx context.Context, r *http.Request) ([]models.ScoredRecord, error) {
	records, err := s.recentRecords(ctx)
	if err != nil {
		return nil, err
	}
	max := clampInt(r.URL.Query().Get("max"), s.cfg.DigestMax, 50)
	return alert.BuildDigest(records, max), nil
}

func (s *server) recentRecords(ctx context.Context) ([]models.NewsRecord, error) {
	docs, err := s.es.Recent(ctx, s.cfg.ScanWindow, s.cfg.ScanSize)
	if err != nil {
		return nil, err
	}
	records := make([]models.NewsRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.Record())
	}
	return records, nil
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
