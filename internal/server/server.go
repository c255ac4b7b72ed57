package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nfrund/parley/internal/chat"
	"github.com/nfrund/parley/internal/config"
	"github.com/nfrund/parley/internal/database"
	"github.com/nfrund/parley/internal/domain"
	"github.com/nfrund/parley/internal/handlers"
	"github.com/nfrund/parley/internal/logging"
	"github.com/nfrund/parley/internal/middleware"
	"github.com/nfrund/parley/internal/presence"
	"github.com/nfrund/parley/internal/pubsub"
	"github.com/nfrund/parley/internal/rooms"
	"github.com/surrealdb/surrealdb.go"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E           *echo.Echo
	DB          *surrealdb.DB
	Cfg         *config.Config
	bus         *pubsub.WatermillBridge
	userStore   domain.UserRepository
	coordinator *chat.Coordinator
	authHandler *handlers.AuthHandler
	userHandler *handlers.UserHandler
}

// New creates a new Server instance and wires the messaging core to its
// collaborators.
func New() *Server {
	logging.New()
	cfg := config.New()

	db, err := database.NewDB(context.Background(), cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.EnsureSchema(context.Background(), db, cfg.DBNs, cfg.DBDb); err != nil {
		slog.Error("Failed to apply database schema", "error", err)
		os.Exit(1)
	}

	userStore := database.NewSurrealUserStore(db, cfg.DBNs, cfg.DBDb)
	messageStore := database.NewSurrealMessageStore(db, cfg.DBNs, cfg.DBDb)

	bus := pubsub.NewWatermillBridge()
	directory := presence.NewDirectory(bus)
	registry := rooms.NewRegistry(cfg.Rooms)

	coordinator := chat.NewCoordinator(registry, directory, messageStore, bus, cfg.HistoryLimit)
	if err := coordinator.Run(context.Background()); err != nil {
		slog.Error("Failed to start coordinator", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(middleware.Logger)

	return &Server{
		E:           e,
		DB:          db,
		Cfg:         cfg,
		bus:         bus,
		userStore:   userStore,
		coordinator: coordinator,
		authHandler: handlers.NewAuthHandler(userStore),
		userHandler: handlers.NewUserHandler(userStore),
	}
}

// UserStore is a getter for the server's user store, useful for testing.
func (s *Server) UserStore() domain.UserRepository {
	return s.userStore
}

// Coordinator is a getter for the messaging coordinator, useful for testing.
func (s *Server) Coordinator() *chat.Coordinator {
	return s.coordinator
}
