package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/robfig/cron/v3"

	"devbook/backend/internal/config"
	"devbook/backend/internal/jobs"
	"devbook/backend/internal/notify"
	"devbook/backend/internal/service/auth"
	"devbook/backend/internal/service/availability"
	"devbook/backend/internal/service/reservations"
	"devbook/backend/internal/store/postgres"
	httpTransport "devbook/backend/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "devbook-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "devbook-server"),
	)
	slog.SetDefault(log)

	if cfg.JWTSecret == "" {
		log.Error("DEVBOOK_AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.BookingTimezone)
	if err != nil {
		log.Error("invalid booking timezone", slog.String("timezone", cfg.BookingTimezone), slog.Any("err", err))
		os.Exit(1)
	}

	addr := net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort))
	log.Info("starting", slog.String("http_addr", addr), slog.String("log_level", cfg.LogLevel))

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	reservationRepo := postgres.NewReservationRepo(db)
	availabilityRepo := postgres.NewAvailabilityRepo(db)
	userRepo := postgres.NewUserRepo(db)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SendgridAPIKey != "" {
		notifier = notify.NewEmailNotifier(notify.EmailConfig{
			APIKey:    cfg.SendgridAPIKey,
			FromEmail: cfg.SendgridFromEmail,
			FromName:  cfg.SendgridFromName,
			Location:  loc,
		}, log)
	} else {
		log.Warn("sendgrid api key not set; booking emails disabled")
	}

	reservationSvc := reservations.NewService(reservationRepo, userRepo, notifier, loc, log)
	availabilitySvc := availability.NewService(availabilityRepo)
	authSvc := auth.NewService(userRepo, []byte(cfg.JWTSecret), cfg.TokenTTL)

	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.CompleterSchedule, jobs.NewCompleter(reservationRepo, log)); err != nil {
		log.Error("invalid completer schedule", slog.String("schedule", cfg.CompleterSchedule), slog.Any("err", err))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := httpTransport.NewRouter(httpTransport.RouterConfig{
		Auth:         authSvc,
		Verifier:     authSvc,
		Reservations: reservationSvc,
		Availability: availabilitySvc,
		Log:          log,
	})

	handler := handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(
		handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		)(router),
	)
	handler = handlers.CombinedLoggingHandler(os.Stdout, handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", addr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, server, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func shutdown(log *slog.Logger, s *http.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown timed out; forcing close", slog.Any("err", err))
		_ = s.Close()
		return
	}
	log.Info("http server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
