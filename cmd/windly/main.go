package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/windly-shop/windly/internal/address"
	"github.com/windly-shop/windly/internal/auth"
	"github.com/windly-shop/windly/internal/cart"
	"github.com/windly-shop/windly/internal/catalog"
	"github.com/windly-shop/windly/internal/config"
	"github.com/windly-shop/windly/internal/db"
	handlerHttp "github.com/windly-shop/windly/internal/handler/http"
	"github.com/windly-shop/windly/internal/notify"
	"github.com/windly-shop/windly/internal/review"
	"github.com/windly-shop/windly/internal/user"
)

var (
	envFile        string
	migrationsPath string
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	rootCmd := &cobra.Command{
		Use:           "windly",
		Short:         "Windly storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to the env file")
	rootCmd.PersistentFlags().StringVar(&migrationsPath, "migrations", "migrations", "path to the migrations directory")

	rootCmd.AddCommand(serveCmd(), migrateCmd(), syncCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			pg, err := db.New(cmd.Context(), cfg.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := db.ApplyMigrations(cfg.Postgres, migrationsPath); err != nil {
				return err
			}

			svcs := buildServices(pg, cfg)
			router := handlerHttp.NewRouter(svcs)

			server := &http.Server{
				Addr:         ":" + cfg.App.Port,
				Handler:      router,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 10 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			go func() {
				log.Info().Str("port", cfg.App.Port).Msg("starting HTTP server")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("server failed")
				}
			}()

			stopCh := make(chan os.Signal, 1)
			signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
			<-stopCh

			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}

			log.Info().Msg("server stopped")
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			return db.ApplyMigrations(cfg.Postgres, migrationsPath)
		},
	}
}

// syncCmd runs the same status advancement the GET /internal/orders/sync
// endpoint exposes, for cron setups that prefer exec over HTTP.
func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Advance ordered carts past the ship window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			pg, err := db.New(cmd.Context(), cfg.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()

			svcs := buildServices(pg, cfg)
			advanced, err := svcs.Cart.SyncAll(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().Int("advanced", advanced).Msg("order status sync complete")
			return nil
		},
	}
}

func buildServices(pg *db.Postgres, cfg *config.Config) handlerHttp.Services {
	catalogRepo := catalog.NewRepository()
	cartRepo := cart.NewRepository()
	addressRepo := address.NewRepository()
	reviewRepo := review.NewRepository()
	userRepo := user.NewRepository()

	emailer := notify.NewEmailer(cfg.Email.SendgridAPIKey, cfg.Email.FromAddress)

	return handlerHttp.Services{
		Catalog: catalog.NewService(pg.Pool, catalogRepo),
		Cart:    cart.NewService(pg.Pool, pg, cartRepo, catalogRepo, userRepo, emailer),
		Address: address.NewService(pg.Pool, pg, addressRepo, userRepo),
		Review:  review.NewService(pg.Pool, pg, reviewRepo),
		User:    user.NewService(pg.Pool, userRepo),
		Authz:   auth.NewRolePolicy(),
	}
}
