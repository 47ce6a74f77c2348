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

	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/config"
	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/domain/appointment"
	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/domain/checkin"
	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/platform/auth"
	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/platform/calendar"
	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/platform/middleware"
	"github.com/lindseystead/foodbank-checkin-portfolio-sub001/internal/platform/scheduling"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "checkin-server",
		Short: "Food bank appointment check-in server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(holidaysCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the check-in API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// holidaysCmd prints the statutory closure days for a year, for verifying
// the calendar against the posted branch schedule.
func holidaysCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "List closure days for a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			if year == 0 {
				year = time.Now().In(loc).Year()
			}
			for d := time.Date(year, time.January, 1, 0, 0, 0, 0, loc); d.Year() == year; d = d.AddDate(0, 0, 1) {
				if calendar.IsClosed(d) {
					fmt.Printf("%s  %s\n", d.Format("2006-01-02"), d.Weekday())
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default: current)")
	return cmd
}

// tokenCmd mints an admin bearer token signed with the configured secret.
func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.AdminJWTSecret == "" {
				return fmt.Errorf("ADMIN_JWT_SECRET is not set")
			}
			tok, err := auth.NewToken([]byte(cfg.AdminJWTSecret), subject, "admin", ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "staff", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load timezone")
	}

	// Store and domain services
	repo := appointment.NewRecordRepoMem(cfg.Retention())
	planner := scheduling.NewPlanner(loc, scheduling.DefaultSlots, cfg.MinOffsetDays, logger)
	apptSvc := appointment.NewService(repo, planner, loc)

	matcher := checkin.NewMatcher(repo, loc, cfg.Tolerance(), cfg.FallbackToEarliest())
	validator := checkin.NewValidator(cfg.Tolerance())
	checkinSvc := checkin.NewService(repo, matcher, validator, planner, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Rate limiting on the public kiosk surface
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	apptHandler := appointment.NewHandler(apptSvc)

	kiosk := e.Group("/api/v1")
	kiosk.Use(middleware.RateLimit(rateLimitCfg))
	checkin.NewHandler(checkinSvc).RegisterRoutes(kiosk)
	// Kiosks poll the data version to refresh after admin imports.
	kiosk.GET("/version", apptHandler.DataVersion)

	// Admin routes require a bearer token outside development
	admin := e.Group("/api/v1/admin")
	if cfg.IsDev() && cfg.AdminJWTSecret == "" {
		logger.Warn().Msg("admin routes are unauthenticated (development mode)")
		admin.Use(auth.DevMiddleware())
	} else {
		admin.Use(auth.AdminMiddleware([]byte(cfg.AdminJWTSecret)))
	}
	apptHandler.RegisterRoutes(admin)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("timezone", cfg.Timezone).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
