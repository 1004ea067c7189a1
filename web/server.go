// ABOUTME: HTTP server: dashboard, tracking pixel, stats and reminders APIs, Prometheus metrics
// ABOUTME: Templates are embedded; Run shuts the server down when its context ends
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/harperreed/leadgen/metrics"
	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/viz"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

//go:embed templates/*
var templatesFS embed.FS

// transparentGIF is a 1x1 transparent GIF.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

const shutdownTimeout = 5 * time.Second

type OpenTracker interface {
	MarkOpened(ctx context.Context, trackingID string, at time.Time) (bool, error)
}

type StatsSource interface {
	Collect(ctx context.Context, now time.Time) (*viz.DashboardStats, error)
}

type ReminderFeed interface {
	Recent() []models.Reminder
}

type PipelineRenderer interface {
	GeneratePipelineSVG(ctx context.Context) ([]byte, error)
}

type Server struct {
	opens     OpenTracker
	stats     StatsSource
	reminders ReminderFeed
	graph     PipelineRenderer
	templates *template.Template
	logger    *zap.Logger
	now       func() time.Time
}

// NewServer wires the handlers. graph may be nil, which disables /pipeline.svg.
func NewServer(opens OpenTracker, stats StatsSource, reminders ReminderFeed, graph PipelineRenderer, logger *zap.Logger) (*Server, error) {
	funcMap := template.FuncMap{
		"euros": viz.FormatEuros,
		"date": func(t time.Time) string {
			return t.Local().Format("02/01/2006 15:04")
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		opens:     opens,
		stats:     stats,
		reminders: reminders,
		graph:     graph,
		templates: tmpl,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /api/track", s.handleTrack)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/reminders", s.handleReminders)
	mux.HandleFunc("GET /pipeline.svg", s.handlePipeline)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down web server: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// handleTrack always answers with the pixel so mail clients never show a broken image.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	metrics.PixelHitsTotal.Inc()

	if id := r.URL.Query().Get("id"); id != "" {
		opened, err := s.opens.MarkOpened(r.Context(), id, s.now())
		switch {
		case err != nil:
			s.logger.Warn("failed to record open", zap.String("tracking_id", id), zap.Error(err))
		case opened:
			metrics.EmailOpensTotal.Inc()
			s.logger.Debug("email opened", zap.String("tracking_id", id))
		}
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	_, _ = w.Write(transparentGIF)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Collect(r.Context(), s.now())
	if err != nil {
		s.logger.Error("failed to collect stats", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Title":     "Dashboard",
		"Stats":     stats,
		"Reminders": s.reminders.Recent(),
		"HasGraph":  s.graph != nil,
	}
	if err := s.templates.ExecuteTemplate(w, "layout.html", data); err != nil {
		s.logger.Error("template error", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Collect(r.Context(), s.now())
	if err != nil {
		s.logger.Error("failed to collect stats", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleReminders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.reminders.Recent())
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	if s.graph == nil {
		http.NotFound(w, r)
		return
	}
	svg, err := s.graph.GeneratePipelineSVG(r.Context())
	if err != nil {
		s.logger.Error("failed to render pipeline", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
