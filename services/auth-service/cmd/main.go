package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/notification"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/worker"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/auth"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/discovery"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/logger"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/mailer"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/security"
	"github.com/vasapolrittideah/account-lifecycle-api/shared/validator"
)

const shutdownTimeout = 15 * time.Second

func main() {
	authServiceCfg := config.NewAuthServiceConfig(logger.New(logger.Config{}, "auth-service"))
	log := logger.New(authServiceCfg.Log, authServiceCfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	accountRepo, outboxRepo, closeStore := newStores(ctx, authServiceCfg, log)
	defer closeStore()

	jwtAuth := auth.NewJWTAuthenticator(authServiceCfg.Token.Issuer, authServiceCfg.Token.Issuer)
	notifier := notification.NewNotifier(outboxRepo, log)

	accountUsecase := usecase.NewAccountUsecase(
		accountRepo,
		security.NewPasswordHasher(security.PasswordConfig{
			TimeCost:    authServiceCfg.Password.TimeCost,
			MemoryCost:  authServiceCfg.Password.MemoryCost,
			Parallelism: authServiceCfg.Password.Parallelism,
		}),
		security.NewOTPGenerator(authServiceCfg.OTP.ExpiresIn),
		&jwtAuth,
		notifier,
		authServiceCfg,
		log,
	)

	requestValidator, err := validator.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create request validator")
	}

	accountHandler := handler.NewAccountHTTPHandler(accountUsecase, notifier, requestValidator, jwtAuth, authServiceCfg, log)

	var wg sync.WaitGroup
	startDispatcher(ctx, &wg, authServiceCfg, outboxRepo, log)

	server := &http.Server{
		Addr:              authServiceCfg.HTTPAddr,
		Handler:           accountHandler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("auth service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to serve http")
		}
	}()

	registry := register(authServiceCfg, log)

	<-ctx.Done()
	log.Info().Msg("shutting down auth service")

	if registry != nil {
		if err := registry.Deregister(); err != nil {
			log.Error().Err(err).Msg("failed to deregister from consul")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
	}

	wg.Wait()
}

func newStores(
	ctx context.Context,
	authServiceCfg *config.AuthServiceConfig,
	log *zerolog.Logger,
) (repository.AccountRepository, repository.OutboxRepository, func()) {
	if authServiceCfg.Store == config.StoreMemory {
		log.Warn().Msg("using in-memory store; accounts are lost on restart")
		return repository.NewAccountMemoryRepository(), repository.NewOutboxMemoryRepository(), func() {}
	}

	client, err := mongo.Connect(options.Client().ApplyURI(authServiceCfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mongo client")
	}

	pingCtx, cancel := context.WithTimeout(ctx, authServiceCfg.Mongo.QueryTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}

	db := client.Database(authServiceCfg.Mongo.Database)

	closeStore := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from mongo")
		}
	}

	return repository.NewAccountMongoRepository(ctx, log, db), repository.NewOutboxMongoRepository(ctx, log, db), closeStore
}

func startDispatcher(
	ctx context.Context,
	wg *sync.WaitGroup,
	authServiceCfg *config.AuthServiceConfig,
	outboxRepo repository.OutboxRepository,
	log *zerolog.Logger,
) {
	if authServiceCfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP_HOST not set; outbox messages stay queued until a mailer is configured")
		return
	}

	m, err := mailer.NewMailer(authServiceCfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create mailer")
	}

	dispatcher := worker.NewDispatcher(outboxRepo, m, authServiceCfg.Outbox, log)

	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx)
	}()
}

func register(authServiceCfg *config.AuthServiceConfig, log *zerolog.Logger) *discovery.Registry {
	if !authServiceCfg.Consul.Enabled {
		return nil
	}

	registry, err := discovery.NewRegistry(authServiceCfg.Consul, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create consul registry")
	}

	if err := registry.Register(authServiceCfg.ServiceName, authServiceCfg.Consul, handler.HealthPath); err != nil {
		log.Error().Err(err).Msg("failed to register with consul")
		return nil
	}

	return registry
}
