package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/nurpe/greenpact-settlement/internal/auth"
	"github.com/nurpe/greenpact-settlement/internal/config"
	"github.com/nurpe/greenpact-settlement/internal/db"
	"github.com/nurpe/greenpact-settlement/internal/excel"
	httphandler "github.com/nurpe/greenpact-settlement/internal/http"
	"github.com/nurpe/greenpact-settlement/internal/http/middleware"
	"github.com/nurpe/greenpact-settlement/internal/identity"
	"github.com/nurpe/greenpact-settlement/internal/logger"
	"github.com/nurpe/greenpact-settlement/internal/notify"
	"github.com/nurpe/greenpact-settlement/internal/pdf"
	"github.com/nurpe/greenpact-settlement/internal/repository"
	"github.com/nurpe/greenpact-settlement/internal/service"
	"github.com/nurpe/greenpact-settlement/internal/storage"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "settlement-service",
		Short: "Contract settlement engine",
	}
	rootCmd.AddCommand(serveCmd(), migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, database, err := bootstrap()
			if err != nil {
				return err
			}
			if !skipMigrate {
				if err := db.Migrate(database); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}
			return serve(cmd.Context(), cfg, log, database)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, log, database, err := bootstrap()
			if err != nil {
				return err
			}
			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}

func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		return nil, log, nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return cfg, log, database, nil
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger, database *gorm.DB) error {
	store, err := storage.NewFSStore(cfg.Storage.Dir, cfg.Storage.Compress)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	var identityService service.IdentityService
	switch cfg.Identity.Mode {
	case config.IdentityModeStatic:
		log.Warn().Msg("using static identity directory")
		identityService = identity.NewStatic()
	default:
		identityService = identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.Timeout)
	}

	repo := repository.NewContractRepository(database)
	contracts := service.NewContractService(repo, identityService, store, notify.NewLogNotifier(log), cfg, log)
	documents := service.NewDocumentService(repo, store, pdf.NewGenerator(), excel.NewGenerator(), cfg.Storage.MaxUploadBytes, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(contracts, documents, cfg.Storage.MaxUploadBytes, log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), cfg.HTTP.CORSOrigins, cfg.Environment, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting settlement service")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
