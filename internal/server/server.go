// Package server wires the application together: database, services,
// handlers, middleware and routes, plus startup and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/auth"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/config"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/directory"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/handler"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/middleware"
	sqliteRepo "github.com/ilonaandriyashyn/lend-and-learn-backend/internal/repository/sqlite"
	"github.com/ilonaandriyashyn/lend-and-learn-backend/internal/service"
)

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the dependency chain: database, auth provider, directory
// client, services, handlers, routes. Each layer only receives what it
// needs; handlers never touch the database and services never touch HTTP.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes(tokens)

	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	provider := auth.NewProvider(auth.ProviderConfig{
		ClientID:      s.config.OAuthClientID,
		ClientSecret:  s.config.OAuthClientSecret,
		RedirectURL:   s.config.OAuthRedirectURL,
		AuthorizeURL:  s.config.OAuthAuthorizeURL,
		TokenURL:      s.config.OAuthTokenURL,
		CheckTokenURL: s.config.OAuthCheckTokenURL,
	})
	people := directory.New(s.config.DirectoryBaseURL)

	identityService := service.NewIdentityService(s.db, people, s.logger)
	userService := service.NewUserService(s.db, s.db, s.logger)
	deviceService := service.NewDeviceService(s.db, s.db, s.logger)
	reservationService := service.NewReservationService(s.db, s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(provider, tokens, identityService, userService, s.logger)
	deviceHandler := handler.NewDeviceHandler(deviceService, s.logger)
	reservationHandler := handler.NewReservationHandler(reservationService, s.logger)
	userHandler := handler.NewUserHandler(userService, identityService, s.logger)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/login", authHandler.HandleLogin)
		r.Get("/callback", authHandler.HandleCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, provider))

		r.Get("/me", authHandler.HandleMe)

		r.Get("/devices", deviceHandler.HandleList)
		r.Post("/devices", deviceHandler.HandleCreate)
		r.Get("/devices/{id}", deviceHandler.HandleGet)
		r.Put("/devices/{id}", deviceHandler.HandleUpdate)
		r.Delete("/devices/{id}", deviceHandler.HandleDelete)

		r.Post("/reservations", reservationHandler.HandleCreate)
		r.Put("/reservations/{id}/status-approve", reservationHandler.HandleApprove)
		r.Put("/reservations/{id}/status-finish", reservationHandler.HandleFinish)
		r.Put("/reservations/{id}/status-cancel", reservationHandler.HandleCancel)
		r.Get("/reservations/{username}/created", reservationHandler.HandleIncomingCreated)
		r.Get("/reservations/{username}/in-progress", reservationHandler.HandleIncomingInProgress)

		r.Get("/users/{username}", userHandler.HandleGet)
		r.Put("/users/{username}/update", userHandler.HandleRefresh)
		r.Get("/users/{username}/devices", userHandler.HandleDevices)
		r.Get("/users/{username}/devices/statistics", userHandler.HandleStatistics)
		r.Get("/users/{username}/reservations/created", userHandler.HandleReservationsCreated)
		r.Get("/users/{username}/reservations/in-progress", userHandler.HandleReservationsInProgress)
	})
}

// Start runs the HTTP server until a shutdown signal arrives, then drains
// in-flight requests and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Addr),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
