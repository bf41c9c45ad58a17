package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yewfence/blogctl/internal/auth"
	"github.com/yewfence/blogctl/internal/backend"
	"github.com/yewfence/blogctl/internal/cli"
	"github.com/yewfence/blogctl/internal/config"
	"github.com/yewfence/blogctl/internal/editing"
	"github.com/yewfence/blogctl/internal/export"
	"github.com/yewfence/blogctl/internal/gate"
	"github.com/yewfence/blogctl/internal/httpserver"
	"github.com/yewfence/blogctl/internal/httpserver/deps"
	"github.com/yewfence/blogctl/internal/logger"
	"github.com/yewfence/blogctl/internal/redis"
	"github.com/yewfence/blogctl/internal/repository"
	"github.com/yewfence/blogctl/internal/sources/staticsite"
	redisstore "github.com/yewfence/blogctl/internal/store/redis"
	"github.com/yewfence/blogctl/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	session     *editing.Session
	terminal    *cli.CLI
	server      *httpserver.Server // nil when no listen address is configured
	redisClient *goredis.Client    // nil when the render cache is disabled
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	storage := auth.NewFileStorage(cfg.CredentialsFile)
	credentials := auth.NewCredentials(storage)
	if err := credentials.EnsureInitialized(cfg.DefaultPassword); err != nil {
		loggerClient.Errorf("Failed to initialize credentials: %v", err)
		os.Exit(1)
	}
	authSession := auth.NewSession(credentials)

	exporter := export.NewDirExporter(cfg.ExportDir, loggerClient)

	// Wire the index and body sources for the active profile. Both
	// clients satisfy the same interfaces, so the session never knows
	// which one it is talking to.
	var (
		source    repository.IndexSource
		bodies    editing.BodyStore
		persister editing.Persister
	)
	switch cfg.Profile {
	case config.ProfileBackend:
		client := backend.New(cfg.BackendURL, cfg.HTTPTimeout, loggerClient)
		source = client
		bodies = client
		persister = client
	default:
		client := staticsite.New(cfg.IndexURL, cfg.PostsBaseURL, cfg.HTTPTimeout, exporter, loggerClient)
		source = client
		bodies = client
	}

	repo := repository.New(source, func() repository.Draft {
		return repository.Draft{Author: cfg.DefaultAuthor}
	})

	// Optional render cache - the session works fine without it.
	var (
		redisClient *goredis.Client
		cache       editing.RenderCache
	)
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warnf("Render cache disabled, failed to connect to Redis: %v", err)
		} else {
			redisClient = client
			cache = redisstore.NewStore(client, cfg.RenderCacheTTL)
			loggerClient.Info("Render cache initialized")
		}
	}

	g := gate.New()
	session := editing.New(editing.Options{
		Auth:      authSession,
		Repo:      repo,
		Bodies:    bodies,
		Persister: persister,
		Gate:      g,
		Exporter:  exporter,
		Cache:     cache,
		Logger:    loggerClient,
	})

	terminal, err := cli.New(session, g, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to initialize terminal: %v", err)
		os.Exit(1)
	}

	// Optional preview server: a local read-only view of the session.
	var server *httpserver.Server
	if cfg.ListenAddr != "" {
		d := deps.Deps{
			Logger:    loggerClient,
			StartTime: time.Now(),
			Version:   version.Version,
			Commit:    version.Commit,
			BuildDate: version.BuildDate,
			GoVersion: version.GoVersion,
			TimeNow:   time.Now,
			Session:   session,
		}
		server = httpserver.New(cfg, loggerClient, d)
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		session:     session,
		terminal:    terminal,
		server:      server,
		redisClient: redisClient,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting blogctl v%s (%s profile)", version.Version, a.cfg.Profile)
	a.logger.Infof("blogctl %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	if a.server != nil {
		go func() {
			if err := a.server.Start(); err != nil {
				errCh <- fmt.Errorf("preview server error: %w", err)
			}
		}()
	}

	cliCh := make(chan error, 1)
	go func() {
		cliCh <- a.terminal.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		runErr = err
	case err := <-cliCh:
		runErr = err
	}

	if err := a.terminal.Close(); err != nil {
		a.logger.Warnf("failed to close terminal: %v", err)
	}

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("failed to stop preview server: %w", err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ blogctl stopped cleanly")
	return nil
}
