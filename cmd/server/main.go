package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	_ "ideasplace/docs" // swagger docs

	"ideasplace/internal/auth"
	"ideasplace/internal/cache"
	"ideasplace/internal/config"
	"ideasplace/internal/db"
	"ideasplace/internal/email"
	"ideasplace/internal/handler"
	"ideasplace/internal/middleware"
	"ideasplace/internal/repository"
	"ideasplace/internal/router"
	"ideasplace/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Ideas Place API
// @version 1.0
// @description Share ideas, like them, and manage your account with JWT authentication.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := middleware.NewLogger(cfg.LogLevel)

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logger.Error("database init", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logger.Warn("drop tables", slog.String("error", err.Error()))
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		logger.Error("migrate", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(context.Background()); err != nil {
		logger.Warn("redis unavailable, continuing without cache", slog.String("error", err.Error()))
	}

	var mailer email.Mailer
	if cfg.SMTPHost != "" {
		mailer = email.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		logger.Info("SMTP_HOST not set, activation mail is written to the log")
		mailer = email.NewLogMailer(logger, cfg.MailFrom)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	ideaRepo := repository.NewIdeaRepository(gormDB)
	likeRepo := repository.NewLikeRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)
	activationTokens := auth.NewActivationTokenGenerator(cfg.JWTSecret, cfg.ActivationTokenTTL)

	// Initialize services
	activationService := service.NewActivationService(userRepo, activationTokens, mailer, cacheClient, cfg.SiteURL, logger)
	userService := service.NewUserService(userRepo, ideaRepo, activationService, cacheClient, logger)
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	ideaService := service.NewIdeaService(ideaRepo, logger)
	likeService := service.NewLikeService(likeRepo, ideaRepo)

	e := echo.New()
	e.HideBanner = true

	router.Register(
		e,
		logger,
		jwtService,
		handler.NewUserHandler(userService, activationService),
		handler.NewAuthHandler(authService),
		handler.NewIdeaHandler(ideaService, likeService),
		handler.NewLikeHandler(likeService),
		handler.NewActivationPageHandler(activationService, logger),
	)

	logger.Info("swagger documentation available", slog.String("url", swaggerURL(cfg.SwaggerHost, cfg.ServerPort)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info("server starting", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server start", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.String("error", err.Error()))
	}
}

// swaggerURL builds the UI address; host may already carry a scheme.
func swaggerURL(host, port string) string {
	if host == "" {
		host = "localhost:" + port
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/") + "/swagger/index.html"
}
