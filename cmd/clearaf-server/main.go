package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clearaf/api/internal/config"
	"github.com/clearaf/api/internal/domain/appointment"
	"github.com/clearaf/api/internal/domain/dashboard"
	"github.com/clearaf/api/internal/domain/identity"
	"github.com/clearaf/api/internal/domain/message"
	"github.com/clearaf/api/internal/domain/photo"
	"github.com/clearaf/api/internal/domain/prescription"
	"github.com/clearaf/api/internal/domain/product"
	"github.com/clearaf/api/internal/domain/routine"
	"github.com/clearaf/api/internal/platform/auth"
	"github.com/clearaf/api/internal/platform/db"
	"github.com/clearaf/api/internal/platform/httperr"
	"github.com/clearaf/api/internal/platform/middleware"
	"github.com/clearaf/api/internal/platform/storage"
	"github.com/clearaf/api/internal/platform/websocket"
)

const version = "1.0.0"

func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
	})
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clearaf-server",
		Short: "ClearAF dermatology care API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Repositories
	patientRepo := identity.NewPatientRepoPG(pool)
	dermRepo := identity.NewDermatologistRepoPG(pool)

	// Credential verification. In jwt mode the server issues and verifies
	// its own tokens; in supabase mode verification is delegated and no
	// tokens are issued locally.
	var verifier auth.CredentialVerifier
	var tokens identity.TokenIssuer
	switch cfg.ResolvedAuthMode() {
	case config.AuthModeSupabase:
		verifier = auth.NewSupabaseVerifier(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		logger.Info().Msg("auth mode: supabase")
	default:
		jwtVerifier := auth.NewJWTVerifier(cfg.JWTSecret)
		verifier = jwtVerifier
		tokens = jwtVerifier
		logger.Info().Msg("auth mode: jwt")
	}

	// Photo storage
	var store storage.PhotoStore
	if cfg.SupabaseURL != "" {
		store = storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket)
		logger.Info().Str("bucket", cfg.StorageBucket).Msg("photo storage: supabase")
	} else {
		store = storage.NewMemoryStore()
		logger.Warn().Msg("photo storage: in-memory; uploads do not survive restarts")
	}

	// WebSocket hub
	hub := websocket.NewHub()
	wsHandler := websocket.NewHandler(hub)

	inTx := func(ctx context.Context, fn func(context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}

	// Services
	identitySvc := identity.NewService(patientRepo, dermRepo, tokens)
	apptSvc := appointment.NewService(appointment.NewRepoPG(pool), patientRepo, dermRepo)
	msgSvc := message.NewService(message.NewRepoPG(pool), patientRepo, dermRepo, hub)
	rxSvc := prescription.NewService(prescription.NewRepoPG(pool), patientRepo)
	productSvc := product.NewService(product.NewRepoPG(pool))
	photoSvc := photo.NewService(photo.NewRepoPG(pool), store, patientRepo, inTx, logger)
	routineSvc := routine.NewService(routine.NewRepoPG(pool), inTx)
	dashSvc := dashboard.NewService(dashboard.NewRepoPG(pool))

	authn := auth.Authenticate(verifier, identitySvc)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httperr.ErrorHandler(cfg.IsDev(), logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit(cfg.BodyLimit))

	// Health checks
	e.GET("/health", healthHandler)
	e.GET("/health/db", db.HealthHandler(pool))

	// Routes
	api := e.Group("/api")

	identityHandler := identity.NewHandler(identitySvc, verifier)
	identityHandler.RegisterAuthRoutes(api.Group("/auth"), authn)
	identityHandler.RegisterUserRoutes(api.Group("/users", authn))

	appointment.NewHandler(apptSvc).RegisterRoutes(api.Group("/appointments", authn))
	message.NewHandler(msgSvc).RegisterRoutes(api.Group("/messages", authn))
	prescription.NewHandler(rxSvc).RegisterRoutes(api.Group("/prescriptions", authn))
	product.NewHandler(productSvc).RegisterRoutes(api.Group("/products", authn))
	photo.NewHandler(photoSvc).RegisterRoutes(api.Group("/photos", authn))
	routine.NewHandler(routineSvc).RegisterRoutes(api.Group("/routines", authn))
	dashboard.NewHandler(dashSvc).RegisterRoutes(api.Group("/dashboard", authn))

	wsHandler.RegisterRoutes(e.Group("", authn))

	// Start and wait for shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
