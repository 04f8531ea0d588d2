package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zmachine-ai/zmachine-web/internal/enhance"
	"github.com/zmachine-ai/zmachine-web/internal/game"
	"github.com/zmachine-ai/zmachine-web/internal/interp"
	"github.com/zmachine-ai/zmachine-web/internal/logging"
	"github.com/zmachine-ai/zmachine-web/internal/server"
	"github.com/zmachine-ai/zmachine-web/internal/session"
	"github.com/zmachine-ai/zmachine-web/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the HTTP server exposing the session API and the browser UI.

The server spawns one interpreter process per command and keeps one save
file per session; an hourly background sweep reclaims stale sessions.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	logging.Info().Str("version", Version).Msg("starting zmachine server")

	games := game.NewRegistry(cfg.Games())
	// A missing story file fails startup, not the first request that hits it.
	if err := games.CheckImages(); err != nil {
		logging.Error().Err(err).Msg("story file check failed")
		return err
	}

	// An unwritable save root means no session can ever be created.
	if err := os.MkdirAll(cfg.SaveRoot, 0o755); err != nil {
		logging.Error().Err(err).Str("dir", cfg.SaveRoot).Msg("save root is not writable")
		return err
	}

	st := store.New(afero.NewOsFs(), cfg.SaveRoot, games)
	adapter := interp.NewFrotz(cfg.FrotzPath, interp.WithTimeout(cfg.CommandTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	enhancer, err := enhance.New(ctx, enhance.Config{
		Enabled:    cfg.AIEnabled,
		APIKey:     cfg.OpenAIKey,
		Model:      cfg.OpenAIModel,
		MaxTokens:  cfg.MaxAITokens,
		PromptsDir: cfg.PromptsDir,
	})
	if err != nil {
		return err
	}
	if enhancer.Enabled() {
		if err := enhancer.Watch(ctx); err != nil {
			logging.Warn().Err(err).Msg("prompt hot reload unavailable")
		}
	}

	sessions := session.NewService(games, st, adapter, enhancer)

	go store.NewSweeper(st, cfg.SweepInterval, cfg.SessionMaxAge).Run(ctx)

	serverConfig := server.DefaultConfig()
	serverConfig.Port = cfg.Port
	serverConfig.WebDir = cfg.WebDir

	srv := server.New(serverConfig, games, sessions)

	go func() {
		logging.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}

	logging.Info().Msg("server stopped")
	return nil
}
