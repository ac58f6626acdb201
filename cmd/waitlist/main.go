package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/quantonganh/waitlist"
	"github.com/quantonganh/waitlist/bolt"
	"github.com/quantonganh/waitlist/guard"
	"github.com/quantonganh/waitlist/http"
	"github.com/quantonganh/waitlist/memory"
	"github.com/quantonganh/waitlist/rabbitmq"
	redisstore "github.com/quantonganh/waitlist/redis"
	"github.com/quantonganh/waitlist/signup"
	"github.com/quantonganh/waitlist/sqlite"
	"github.com/quantonganh/waitlist/validator"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	config, err := loadConfig(viper.GetViper())
	if err != nil {
		log.Fatal(err)
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn: config.Sentry.DSN,
	}); err != nil {
		log.Fatalf("sentry.Init: %v", err)
	}
	defer sentry.Flush(2 * time.Second)

	a := newApp(config)

	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		<-c
		cancel()
	}()

	if err := a.Run(ctx); err != nil {
		_ = a.Close()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	<-ctx.Done()

	if err := a.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads config.yaml when present and lets environment variables
// override any key (admin.password is ADMIN_PASSWORD).
func loadConfig(v *viper.Viper) (*waitlist.Config, error) {
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config *waitlist.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return config, nil
}

// setDefaults registers every key: Unmarshal only sees keys viper already
// knows about, so a key without a default is never read from the environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("db.type", "bolt")
	v.SetDefault("db.path", "waitlist.db")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowed_origins", []string{})
	v.SetDefault("admin.password", "")
	v.SetDefault("guard.min_fill_duration", guard.DefaultMinFillDuration)
	v.SetDefault("guard.rate_limit.limit", guard.DefaultLimit)
	v.SetDefault("guard.rate_limit.window", guard.DefaultWindow)
	v.SetDefault("guard.rate_limit.per_client", false)
	v.SetDefault("guard.rate_limit.store", waitlist.StoreMemory)
	v.SetDefault("guard.rate_limit.janitor", "@every 10m")
	v.SetDefault("signup.duplicate_check_failure_mode", waitlist.FailOpen)
	v.SetDefault("signup.storage_timeout", signup.DefaultStorageTimeout)
	v.SetDefault("validation.disposable_domains", []string{})
	v.SetDefault("validation.suspicious_patterns", []string{})
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.topic", signup.DefaultTopic)
	v.SetDefault("sentry.dsn", "")
}

type app struct {
	config     *waitlist.Config
	db         waitlist.Database
	ss         waitlist.SubscriptionService
	redis      *redis.Client
	queue      waitlist.QueueService
	cron       *cron.Cron
	httpServer *http.Server
}

func newApp(config *waitlist.Config) *app {
	httpServer, err := http.NewServer()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}

	a := &app{
		config:     config,
		httpServer: httpServer,
	}

	switch config.DB.Type {
	case "sqlite":
		db := sqlite.NewDB(config.DB.Path)
		a.db, a.ss = db, sqlite.NewSubscriptionService(db)
	default:
		db := bolt.NewDB(config.DB.Path)
		a.db, a.ss = db, bolt.NewSubscriptionService(db)
	}

	return a
}

func (a *app) Run(ctx context.Context) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := a.db.Open(); err != nil {
		return err
	}

	v, err := validator.New(a.config.Validation.DisposableDomains, a.config.Validation.SuspiciousPatterns)
	if err != nil {
		return fmt.Errorf("validation patterns: %w", err)
	}

	g, err := a.newGuard(logger)
	if err != nil {
		return err
	}

	pipeline := signup.NewPipeline(g, v, a.ss)
	pipeline.Duplicates.FailureMode = a.config.Signup.DuplicateCheckFailureMode
	pipeline.StorageTimeout = a.config.Signup.StorageTimeout
	pipeline.Topic = a.config.AMQP.Topic
	if a.config.AMQP.URL != "" {
		queue, err := rabbitmq.NewQueueService(a.config.AMQP.URL)
		if err != nil {
			return fmt.Errorf("amqp: %w", err)
		}
		a.queue = queue
		pipeline.QueueService = queue
	}

	a.httpServer.Addr = a.config.HTTP.Addr
	a.httpServer.AllowedOrigins = a.config.HTTP.AllowedOrigins
	a.httpServer.AdminPassword = a.config.Admin.Password
	a.httpServer.PerClientRateLimit = a.config.Guard.RateLimit.PerClient
	a.httpServer.SignupService = pipeline
	a.httpServer.SubscriptionService = a.ss

	if a.config.Admin.Password == "" {
		logger.Warn().Msg("admin.password is not set, the admin listing is disabled")
	}

	if err := a.httpServer.Open(); err != nil {
		return err
	}
	logger.Info().Str("url", a.httpServer.URL()).Msg("Listening")

	return nil
}

func (a *app) newGuard(logger zerolog.Logger) (*guard.Guard, error) {
	rl := a.config.Guard.RateLimit

	var g *guard.Guard
	switch rl.Store {
	case waitlist.StoreRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
		g = guard.New(redisstore.NewWindowStore(a.redis))
	default:
		store := memory.NewWindowStore()
		g = guard.New(store)

		a.cron = cron.New()
		if _, err := a.cron.AddFunc(rl.Janitor, func() {
			removed := store.Prune(time.Now(), g.Window)
			logger.Debug().Int("removed", removed).Msg("Pruned rate limit windows")
		}); err != nil {
			return nil, fmt.Errorf("janitor schedule %q: %w", rl.Janitor, err)
		}
		a.cron.Start()
	}

	g.Limit = rl.Limit
	g.Window = rl.Window
	g.MinFillDuration = a.config.Guard.MinFillDuration

	return g, nil
}

func (a *app) Close() error {
	if a.httpServer != nil {
		if err := a.httpServer.Close(); err != nil {
			return err
		}
	}

	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			return err
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			return err
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return err
		}
	}

	return nil
}
