package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anoixa/memlane/api/core"
	"github.com/anoixa/memlane/config"
	"github.com/anoixa/memlane/database"
	"github.com/anoixa/memlane/internal/app"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start API server",
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer() {
	cfg := config.Get()

	container := app.NewContainer(cfg)
	if err := container.Init(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	if err := database.AutoMigrate(container.DatabaseProvider()); err != nil {
		log.Fatal().Err(err).Msg("Failed to auto migrate database")
	}

	server, cleanup := core.StartServer(container)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Str("version", config.Version).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if cleanup != nil {
		cleanup()
	}
	if err := container.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing container")
	}

	log.Info().Msg("Server exited successfully")
}
