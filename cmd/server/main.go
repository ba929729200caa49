package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/pagekeep/diary/internal/api"
	"github.com/pagekeep/diary/internal/api/handler"
	"github.com/pagekeep/diary/internal/core/ports"
	"github.com/pagekeep/diary/internal/core/service"
	mongodb "github.com/pagekeep/diary/internal/infrastructure/db/mongo"
	redisdb "github.com/pagekeep/diary/internal/infrastructure/db/redis"
	"github.com/pagekeep/diary/internal/infrastructure/identity"
	"github.com/pagekeep/diary/internal/infrastructure/mail"
	"github.com/pagekeep/diary/internal/pkg/config"
	"github.com/pagekeep/diary/pkg/logger"
)

func main() {
	envErr := loadLocalEnv()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "diary",
		Project: cfg.App.ProjectID,
	})
	if envErr != nil {
		log.Warn().Err(envErr).Msg("could not read .env file")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	loc, _ := cfg.Location()

	ctx := context.Background()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: cfg.App.ProjectID})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("disconnect mongodb")
		}
	}()

	accounts := mongodb.NewAccountRepository(db, cfg.Mongo.AccountsCollection)
	users := mongodb.NewUserRepository(db, cfg.Mongo.UsersCollection)
	entries := mongodb.NewEntryRepository(db, cfg.Mongo.EntriesCollection)
	for name, ensure := range map[string]func(context.Context) error{
		"accounts": accounts.EnsureIndexes,
		"users":    users.EnsureIndexes,
		"entries":  entries.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("ensure indexes")
		}
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	mailer, err := newMailer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init mailer")
	}

	account := identity.NewAccountService(
		accounts,
		redisdb.NewTokenStore(rdb),
		redisdb.NewSessionStore(rdb),
		mailer,
		identity.NewSessionTokens(cfg.App.SecretKey, cfg.App.ProjectID),
		log.With().Str("component", "account").Logger(),
	)

	e, err := api.NewRouter(api.Deps{
		Auth:    service.NewAuthService(account, users, log.With().Str("component", "auth").Logger()),
		Entries: service.NewEntryService(entries, log.With().Str("component", "entries").Logger()),
		Readiness: []handler.Dependency{
			handler.MongoDependency(db),
			handler.RedisDependency(rdb),
		},
		Location:      loc,
		SecureCookies: cfg.IsProduction(),
		Log:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("diary listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := e.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
}

// newMailer sends codes over SMTP when a host is configured and logs them otherwise.
func newMailer(cfg *config.Config, log zerolog.Logger) (ports.Mailer, error) {
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP_HOST not set; one-time codes will be written to the log")
		return mail.NewLogMailer(log), nil
	}
	m, err := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		BaseURL:  cfg.App.Endpoint,
	}, log)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// loadLocalEnv reads a .env file when present; a missing file is not an error.
func loadLocalEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
