package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzzdr/options-backtester/internal/websocket"
	"github.com/rzzdr/options-backtester/pkg/metrics"
	"github.com/rzzdr/options-backtester/pkg/models"
	"github.com/rzzdr/options-backtester/pkg/utils/logger"
)

// ResultsProvider exposes a backtest's accumulated output. The engine
// satisfies it directly.
type ResultsProvider interface {
	Results() []models.DailyResult
	Trades() []models.TradeRecord
}

// Config holds the configuration for the API server
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server serves backtest results over HTTP and streams progress over
// WebSocket.
type Server struct {
	config          Config
	router          *gin.Engine
	httpServer      *http.Server
	provider        ResultsProvider
	hub             *websocket.Hub
	metricsRecorder *metrics.Recorder
	log             *logger.Logger
}

// NewServer creates a new API server
func NewServer(config Config, provider ResultsProvider, hub *websocket.Hub, metricsRecorder *metrics.Recorder) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}

	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:          config,
		router:          gin.New(),
		provider:        provider,
		hub:             hub,
		metricsRecorder: metricsRecorder,
		log:             logger.GetLogger("api.server"),
	}

	server.setupRoutes()

	return server
}

// Start starts the API server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Infof("Starting API server on %s", addr)

	return s.httpServer.ListenAndServe()
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info("Stopping API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware())
	s.router.Use(MetricsMiddleware(s.metricsRecorder))
	s.router.Use(ErrorMiddleware())
	s.router.Use(CORSMiddleware())

	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.hub != nil {
		s.router.GET("/ws", gin.WrapF(s.hub.HandleWebSocket))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/results", s.handleGetResults)
		v1.GET("/trades", s.handleGetTrades)
		v1.GET("/summary", s.handleGetSummary)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "The requested resource was not found"})
	})
}
