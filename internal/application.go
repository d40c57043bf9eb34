package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/playsetlabs/partyroom-backend/internal/config"
	"github.com/playsetlabs/partyroom-backend/internal/games/guessing"
	"github.com/playsetlabs/partyroom-backend/internal/httpapi"
	"github.com/playsetlabs/partyroom-backend/internal/repository"
	"github.com/playsetlabs/partyroom-backend/internal/repository/storage"
	"github.com/playsetlabs/partyroom-backend/internal/session"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

const shutdownTimeout = 5 * time.Second

// RunApp - runs the development server with the built-in guessing game.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	roomRepo := repository.NewRoomRepository(redisStorage.Connection)

	hub, err := session.NewHub(ctx, logger, session.HubOptions{
		Game:     guessing.Game(),
		NamePool: conf.Session.NamePool,
		Store:    roomRepo,
	})
	if err != nil {
		return fmt.Errorf("could not create session hub: %w", err)
	}

	server := &http.Server{
		Addr:    ":" + conf.HTTPPort,
		Handler: httpapi.SetupRoutes(logger, hub, roomRepo),
	}

	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := server.ListenAndServe(); httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
			httpErrCh <- httpErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err = server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		return nil
	}
}
