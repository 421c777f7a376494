// Package httpserver exposes the live top-N table as a small read-only JSON API.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/httop/internal/clock"
	"github.com/tinytelemetry/httop/internal/model"
)

// maxTopN caps the n query parameter of /api/top.
const maxTopN = 1000

// TopStore is the narrow read contract required by the HTTP API.
type TopStore interface {
	Snapshot(n int) []model.Row
	Len() int
	Total() int
}

// Config describes what the API reports alongside the rows.
type Config struct {
	Window   time.Duration
	Label    string
	DefaultN int
	Clock    clock.Clock
	// Stats reports ingestion counters; nil reports zeros.
	Stats func() model.IngestStats
}

// Server provides an HTTP API for reading the current top keys.
type Server struct {
	addr      string
	store     TopStore
	conf      Config
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

type topRow struct {
	Key  string `json:"key"`
	Hits int    `json:"hits"`
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store TopStore, conf Config) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	if conf.Clock == nil {
		conf.Clock = clock.NewRealClock()
	}
	if conf.DefaultN <= 0 {
		conf.DefaultN = model.DefaultEntries
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		store:     store,
		conf:      conf,
		ctx:       ctx,
		cancel:    cancel,
		startTime: conf.Clock.Now(),
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/top", s.handleTop)
	r.GET("/api/stats", s.handleStats)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the active listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": s.conf.Clock.Now().Sub(s.startTime).String(),
	})
}

func (s *Server) handleTop(c *gin.Context) {
	n := s.conf.DefaultN
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
			return
		}
		n = min(parsed, maxTopN)
	}

	snapshot := s.store.Snapshot(n)
	rows := make([]topRow, 0, len(snapshot))
	for _, r := range snapshot {
		rows = append(rows, topRow{Key: r.Key, Hits: r.Hits})
	}

	c.JSON(http.StatusOK, gin.H{
		"label":          s.conf.Label,
		"window_seconds": s.conf.Window.Seconds(),
		"generated_at":   s.conf.Clock.Now().UTC().Format(time.RFC3339),
		"rows":           rows,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	var stats model.IngestStats
	if s.conf.Stats != nil {
		stats = s.conf.Stats()
	}
	c.JSON(http.StatusOK, gin.H{
		"lines":          stats.Lines,
		"parse_misses":   stats.ParseMisses,
		"keys":           s.store.Len(),
		"hits_in_window": s.store.Total(),
	})
}
