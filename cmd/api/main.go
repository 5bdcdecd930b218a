package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/missaoglobal/outreach/internal/ai"
	"github.com/missaoglobal/outreach/internal/auth"
	"github.com/missaoglobal/outreach/internal/config"
	"github.com/missaoglobal/outreach/internal/db"
	"github.com/missaoglobal/outreach/internal/drive"
	internalhttp "github.com/missaoglobal/outreach/internal/http"
	"github.com/missaoglobal/outreach/internal/repo"
	"github.com/missaoglobal/outreach/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
	}

	repository := repo.New(conn)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(repository, jwtManager, cfg.JWTRefreshTTL)

	tokens := drive.NewTokenSource(cfg.Drive.TokenURL, cfg.Drive.TokenSecret, nil)
	storage, err := drive.New(drive.Config{
		APIBase:    cfg.Drive.APIBase,
		UploadBase: cfg.Drive.UploadBase,
		Tokens:     tokens,
	})
	if err != nil {
		return fmt.Errorf("drive: %w", err)
	}

	handler, err := internalhttp.NewRouter(cfg, internalhttp.Deps{
		DB:          conn,
		Redis:       redisClient,
		AuthService: authService,
		Storage:     storage,
		TextAI:      ai.NewOpenAI(cfg.OpenAIKey),
		GenAI:       ai.NewGemini(cfg.GeminiKey),
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
