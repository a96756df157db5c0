package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/prepstage/prepstage/internal/common/logtrace"
	"github.com/prepstage/prepstage/internal/interviewsrv/config"
	"github.com/prepstage/prepstage/internal/interviewsrv/kvstore"
	"github.com/prepstage/prepstage/internal/interviewsrv/seed"
	"github.com/prepstage/prepstage/internal/interviewsrv/server"
)

var configFile string

func init() {
	logtrace.InitLogger()
}

func main() {
	root := &cobra.Command{
		Use:   "prepstage",
		Short: "PrepStage mock-interview server",
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "prepstage.toml", "path to the config file")
	root.AddCommand(serveCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the interview server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	slog := log.With().Str("state", "init").Logger()

	slog.Info().Str("config_file", configFile).Msg("loading config file")
	if err := config.LoadConfig(configFile); err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}

	s, err := server.CreateNewServer()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	s.MountHandlers()
	defer s.Close()

	srv := &http.Server{
		Addr:              config.Config().Server.HostName + ":" + config.Config().Server.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info().Str("addr", srv.Addr).Msg("interview server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	slog.Info().Msg("server stopped")
	return nil
}

func seedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a problems JSON file into the question pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadConfig(configFile); err != nil {
				return fmt.Errorf("loading config file: %w", err)
			}

			cfg := config.Config()
			if cfg.Store.RedisAddr == "" {
				return fmt.Errorf("seed requires store.redis_addr; an in-memory pool would not outlive this command")
			}
			kv := kvstore.NewRedis(cfg.Store.RedisAddr, cfg.Store.RedisPassword, cfg.Store.RedisDB)

			res, err := seed.LoadFile(cmd.Context(), kv, file)
			if err != nil {
				color.Red("seed failed: %v", err)
				return err
			}
			color.Green("loaded %d problems into the question pool", res.Loaded)
			if res.Skipped > 0 {
				color.Yellow("skipped %d records without an id", res.Skipped)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "problems JSON file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
