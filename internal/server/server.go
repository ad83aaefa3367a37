package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Juleshb/umunsiapp-realtime/internal/config"
	"github.com/Juleshb/umunsiapp-realtime/internal/registry"
)

// connectionRegistry is the registry surface the server depends on.
type connectionRegistry interface {
	Register(conn *websocket.Conn) registry.ConnectionID
	Associate(id registry.ConnectionID, userID string)
	Unregister(id registry.ConnectionID)
	Touch(id registry.ConnectionID)
	Len() int
}

// eventDispatcher is the dispatch surface the server depends on.
type eventDispatcher interface {
	DispatchChat(from, to, body string)
	DispatchTyping(from, to string, isTyping bool)
	Publish(topic string, payload json.RawMessage)
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	registry    connectionRegistry
	dispatcher  eventDispatcher
	upgrader    websocket.Upgrader
	globalLimit *GlobalConnectionLimiter
	ipLimit     *IPConnectionLimiter
	rateLimit   *ConnectionRateLimiter
	startTime   time.Time
}

func NewServer(cfg *config.Config, reg connectionRegistry, disp eventDispatcher) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())

	srv := &Server{
		echo:       e,
		config:     cfg,
		registry:   reg,
		dispatcher: disp,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     newCheckOrigin(cfg.AppURL, cfg.AppEnv == "development"),
		},
		globalLimit: NewGlobalConnectionLimiter(cfg.MaxConnections),
		ipLimit:     NewIPConnectionLimiter(cfg.MaxConnectionsPerIP),
		rateLimit:   NewConnectionRateLimiter(cfg.ConnectionRate, cfg.ConnectionBurst),
		startTime:   time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
