package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"mise/internal/handlers"
	applog "mise/internal/log"
	"mise/internal/storage"
)

const (
	defaultCookieName      = "mise_session"
	defaultSessionLifetime = 12 * time.Hour
	defaultShutdownGrace   = 5 * time.Second
	// Photo uploads are read in full before they reach object storage.
	uploadReadTimeout = 2 * time.Minute
)

// Config is everything the kitchen server needs to start.
type Config struct {
	Addr     string
	Session  SessionConfig
	Database *gorm.DB
	// Storage holds recipe photos. A nil Storage keeps photos in memory.
	Storage storage.ObjectStore
	// ShutdownGrace bounds how long Stop waits for in-flight requests.
	ShutdownGrace time.Duration
}

// SessionConfig describes the kitchen session cookie.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Lifetime <= 0 {
		c.Lifetime = defaultSessionLifetime
	}
	if strings.TrimSpace(c.CookieName) == "" {
		c.CookieName = defaultCookieName
	}
	return c
}

// newSessionManager builds the cookie session that carries the signed-in
// cook and their kitchen between requests.
func newSessionManager(cfg SessionConfig) *scs.SessionManager {
	sessions := scs.New()
	sessions.Lifetime = cfg.Lifetime
	sessions.Cookie.Name = cfg.CookieName
	sessions.Cookie.Domain = cfg.CookieDomain
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Persist = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = cfg.CookieSecure
	return sessions
}

// Server serves the kitchen app pages and the recipe costing API.
type Server struct {
	httpServer    *http.Server
	shutdownGrace time.Duration
}

// New wires the session, database and photo store into the handlers and
// prepares the HTTP server.
func New(cfg Config) (*Server, error) {
	ctx := context.Background()

	sessionCfg := cfg.Session.withDefaults()
	sessions := newSessionManager(sessionCfg)
	applog.Debug(ctx, "kitchen sessions configured",
		"cookieName", sessionCfg.CookieName,
		"lifetime", sessionCfg.Lifetime.String(),
		"secure", sessionCfg.CookieSecure,
	)

	handlers.Configure(sessions, cfg.Database)
	handlers.ConfigureStorage(cfg.Storage)

	grace := cfg.ShutdownGrace
	if grace <= 0 {
		grace = defaultShutdownGrace
	}

	applog.Debug(ctx, "server ready", "addr", cfg.Addr, "photoStorage", cfg.Storage != nil)
	return &Server{
		shutdownGrace: grace,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           sessions.LoadAndSave(newRouter()),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       uploadReadTimeout,
			IdleTimeout:       time.Minute,
		},
	}, nil
}

// Start listens on the configured address until Stop is called.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop drains in-flight requests for at most the shutdown grace period.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownGrace)
	defer cancel()
	applog.Debug(ctx, "draining requests", "grace", s.shutdownGrace.String())
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the session-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
