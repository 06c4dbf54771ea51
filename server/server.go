package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"

	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/notify"
)

// DefaultKeepAlive is how often an idle event stream gets a comment line
const DefaultKeepAlive = 25 * time.Second

// Server relays store-changed events between windows and activates licenses
type Server struct {
	db        *sql.DB
	licenses  LicenseRepo
	bus       *notify.Bus
	echo      *echo.Echo
	keepAlive time.Duration
	now       func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithLicenseRepo replaces the Postgres license storage
func WithLicenseRepo(repo LicenseRepo) Option {
	return func(s *Server) { s.licenses = repo }
}

// WithKeepAlive sets the idle stream ping interval
func WithKeepAlive(d time.Duration) Option {
	return func(s *Server) { s.keepAlive = d }
}

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server. With an empty dbURL only the event relay runs and
// license activation answers 503.
func New(dbURL string, opts ...Option) (*Server, error) {
	s := &Server{
		bus:       notify.NewBus(),
		keepAlive: DefaultKeepAlive,
		now:       time.Now,
	}

	if dbURL != "" {
		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			return nil, err
		}

		if err := db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		s.db = db

		// Run migrations
		if err := s.migrate(); err != nil {
			db.Close()
			return nil, err
		}
		s.licenses = NewPostgresLicenses(db)
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupEcho()
	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)

	// API v1
	api := e.Group("/api/v1")

	api.GET("/events/stream", s.handleStream)
	api.POST("/events/:topic", s.handlePublish, middleware.BodyLimit("64K"))

	api.POST("/licenses/activate", s.handleActivate, middleware.BodyLimit("16K"))

	s.echo = e
}

// Bus exposes the relay's fan-out
func (s *Server) Bus() *notify.Bus {
	return s.bus
}

// Close closes the database connection
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	logger.Info("Server listening", logger.F("addr", addr), logger.F("licenses", s.licenses != nil))
	return s.echo.Start(addr)
}

// Shutdown stops accepting connections and waits for open requests until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"subscribers": s.bus.ClientCount(),
		"licenses":    s.licenses != nil,
	})
}
