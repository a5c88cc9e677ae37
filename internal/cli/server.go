package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/config"
	"github.com/Zainify/onlineportal-sub001/internal/grading"
	"github.com/Zainify/onlineportal-sub001/internal/infra/memory"
	"github.com/Zainify/onlineportal-sub001/internal/infra/oracle"
	"github.com/Zainify/onlineportal-sub001/internal/infra/postgres"
	redisinfra "github.com/Zainify/onlineportal-sub001/internal/infra/redis"
	"github.com/Zainify/onlineportal-sub001/internal/jobs"
	"github.com/Zainify/onlineportal-sub001/internal/logging"
	"github.com/Zainify/onlineportal-sub001/internal/notify"
	transport "github.com/Zainify/onlineportal-sub001/internal/transport/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz engine API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type storage struct {
	quizzes       app.QuizStore
	attempts      app.AttemptStore
	results       app.ResultReader
	directory     app.Directory
	notifications notify.Store
	close         func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Pretty)
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret not configured")
	}

	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	hub := notify.NewHub()
	var publisher notify.Publisher = hub
	quizzes := store.quizzes

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		quizzes = redisinfra.NewQuizCache(redisClient, quizzes, quizTTL)

		broker := redisinfra.NewBroker(redisClient, cfg.Redis.Channel)
		publisher = broker
		go func() {
			if err := broker.Run(ctx, hub, nil); err != nil {
				log.Error().Err(err).Msg("notification broker stopped")
			}
		}()
	} else {
		quizzes = memory.NewQuizCache(quizzes, quizTTL)
	}

	dispatcher := notify.NewDispatcher(store.notifications, publisher)

	gradingOracle, releaseOracle, err := newOracle(ctx, cfg)
	if err != nil {
		return err
	}
	defer releaseOracle()
	engine := grading.NewEngine(gradingOracle, config.TTLDuration(cfg.Grading.Timeout, grading.DefaultOracleTimeout))

	quizService := app.NewQuizService(quizzes, dispatcher)
	attemptService := app.NewAttemptService(quizzes, store.attempts, engine, dispatcher)
	analyticsService := app.NewAnalyticsService(store.results, store.attempts, quizzes, store.directory)

	reaper := jobs.NewReaper(attemptService, cfg.Attempts.ReapSchedule, config.TTLDuration(cfg.Attempts.StaleAfter, 10*time.Minute))
	if err := reaper.Start(); err != nil {
		return err
	}
	defer reaper.Stop()

	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.NewRouter(transport.Handlers{
		Quizzes:       transport.NewQuizHandler(quizService),
		Attempts:      transport.NewAttemptHandler(attemptService),
		Analytics:     transport.NewAnalyticsHandler(analyticsService),
		Notifications: transport.NewNotificationHandler(dispatcher, hub),
	}, transport.NewAuthenticator(cfg.Auth.JWTSecret))

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting quiz engine")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
			cancelRun()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStorage connects to Postgres when configured and falls back to the in-memory store.
func openStorage(ctx context.Context, cfg config.Config) (storage, error) {
	if cfg.Postgres.URL == "" {
		log.Warn().Msg("postgres url not configured, using in-memory storage")
		mem := memory.NewStore()
		return storage{
			quizzes:       mem,
			attempts:      mem,
			results:       mem,
			directory:     memory.StaticDirectory{},
			notifications: memory.NewNotificationStore(),
			close:         func() {},
		}, nil
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return storage{}, err
	}
	db := postgres.Open(cfg.Postgres.URL)
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		db.Close()
		return storage{}, fmt.Errorf("connect analytics pool: %w", err)
	}
	pg := postgres.NewStore(db)
	return storage{
		quizzes:       pg,
		attempts:      pg,
		results:       postgres.NewAnalyticsReader(pool),
		directory:     postgres.NewDirectory(pool, postgres.DirectoryTables{}),
		notifications: postgres.NewNotificationStore(db),
		close: func() {
			pool.Close()
			db.Close()
		},
	}, nil
}

// newOracle builds the configured grading oracle. The returned func releases
// the oracle's client and is safe to call for every provider.
func newOracle(ctx context.Context, cfg config.Config) (grading.Oracle, func(), error) {
	noop := func() {}
	switch cfg.Grading.Provider {
	case "gemini":
		gemini, err := oracle.NewGemini(ctx, cfg.Grading.Gemini.APIKey, cfg.Grading.Gemini.Model)
		if err != nil {
			return nil, noop, err
		}
		release := func() {
			if err := gemini.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close gemini client")
			}
		}
		return gemini, release, nil
	case "http":
		if cfg.Grading.HTTP.URL == "" {
			return nil, noop, errors.New("grading.http.url not configured")
		}
		timeout := config.TTLDuration(cfg.Grading.Timeout, grading.DefaultOracleTimeout)
		return oracle.NewHTTP(cfg.Grading.HTTP.URL, cfg.Grading.HTTP.Token, timeout), noop, nil
	case "", "none":
		log.Warn().Msg("no grading oracle configured, short answer submissions will fail")
		return nil, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown grading provider %q", cfg.Grading.Provider)
}
