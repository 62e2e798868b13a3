package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/wichananm65/user-directory/internal/config"
	"github.com/wichananm65/user-directory/internal/database"
	"github.com/wichananm65/user-directory/internal/logging"
	"github.com/wichananm65/user-directory/internal/server"
	"github.com/wichananm65/user-directory/internal/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := user.EnsureSchema(ctx, db); err != nil {
			logger.Fatal("failed to ensure schema", zap.Error(err))
		}
	}

	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo, user.WithLogger(logger.Named("user")))
	userHandler := user.NewHandler(userService)

	app := server.New(logger)
	userHandler.RegisterPublicRoutes(app)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("address", cfg.Addr), zap.String("driver", cfg.Database.Driver))
	if err := app.Listen(cfg.Addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
