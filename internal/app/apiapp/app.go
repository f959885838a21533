package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/heartsync/internal/config"
	s3infra "github.com/ivankudzin/heartsync/internal/infra/s3"
	redrepo "github.com/ivankudzin/heartsync/internal/repo/redis"
	authsvc "github.com/ivankudzin/heartsync/internal/services/auth"
	chatsvc "github.com/ivankudzin/heartsync/internal/services/chat"
	feedsvc "github.com/ivankudzin/heartsync/internal/services/feed"
	matchessvc "github.com/ivankudzin/heartsync/internal/services/matches"
	mediasvc "github.com/ivankudzin/heartsync/internal/services/media"
	"github.com/ivankudzin/heartsync/internal/services/notify"
	profilesvc "github.com/ivankudzin/heartsync/internal/services/profiles"
	swipesvc "github.com/ivankudzin/heartsync/internal/services/swipes"
	"github.com/ivankudzin/heartsync/internal/transport/http/handlers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	storage    *Storage
	redis      *goredis.Client
	s3         *minio.Client
	hub        *notify.Hub
	httpRouter http.Handler

	stopRelay context.CancelFunc
	relayWG   sync.WaitGroup
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	storage, err := OpenStorage(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}

	app := &App{
		cfg:     cfg,
		logger:  log,
		storage: storage,
		hub:     notify.NewHub(log, cfg.Notify.Buffer),
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	app.redis = redisClient
	if err := redrepo.Ping(ctx, redisClient); err != nil {
		log.Warn("redis ping failed, continuing in degraded mode", zap.Error(err))
	}

	publisher, err := app.startNotifications(ctx)
	if err != nil {
		app.closeBackends()
		return nil, err
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:      jwtManager,
		Sessions: redrepo.NewSessionRepo(redisClient),
		Users:    storage.Users,
		Logger:   log,
	}, authsvc.Config{
		RefreshTTL: cfg.Auth.RefreshTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Swipes:    storage.Swipes,
		Matches:   storage.Matches,
		Profiles:  storage.Profiles,
		Publisher: publisher,
		Logger:    log,
	})
	chatService := chatsvc.NewService(chatsvc.Dependencies{
		Matches:   storage.Matches,
		Messages:  storage.Messages,
		Publisher: publisher,
		Logger:    log,
	})
	feedService := feedsvc.NewService(storage.Feed, feedsvc.Config{
		DefaultLimit: cfg.Discovery.DefaultLimit,
		MaxLimit:     cfg.Discovery.MaxLimit,
	})
	matchesService := matchessvc.NewService(storage.Matches)
	profileService := profilesvc.NewService(storage.Profiles)

	var mediaService *mediasvc.Service
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, photo uploads disabled", zap.Error(err))
	} else {
		app.s3 = c
		photoStorage := mediasvc.NewS3Storage(c, cfg.S3.Bucket)
		mediaService = mediasvc.NewService(storage.Profiles, photoStorage, log)
		feedService.AttachPhotoSigner(photoStorage)
		matchesService.AttachPhotoSigner(photoStorage)
		profileService.AttachPhotoSigner(photoStorage)
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)
	RegisterRoutes(r, Dependencies{
		AuthService:    authService,
		ChatService:    chatService,
		FeedService:    feedService,
		MatchesService: matchesService,
		MediaService:   mediaService,
		ProfileService: profileService,
		SwipeService:   swipeService,
		Hub:            app.hub,
		HealthChecks:   app.healthChecks(),
		Logger:         log,
		Config:         cfg,
	})
	app.httpRouter = r

	app.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return app, nil
}

// startNotifications picks the event publisher. With the redis transport a
// relay goroutine feeds the shared channel into the local hub; it is listening
// before the publisher is handed out.
func (a *App) startNotifications(ctx context.Context) (notify.Publisher, error) {
	if a.cfg.Notify.Transport == config.NotifyTransportLocal {
		return notify.NewLocalPublisher(a.hub), nil
	}

	bus := redrepo.NewEventBus(a.redis)
	relay := notify.NewRelay(bus, a.hub, a.cfg.Notify.Channel, a.logger)

	relayCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run, err := relay.Subscribe(relayCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("start notification relay: %w", err)
	}
	a.stopRelay = cancel
	a.relayWG.Add(1)
	go func() {
		defer a.relayWG.Done()
		if err := run(); err != nil {
			a.logger.Error("notification relay stopped", zap.Error(err))
		}
	}()

	return notify.NewRedisPublisher(bus, a.cfg.Notify.Channel), nil
}

func (a *App) healthChecks() map[string]handlers.HealthCheck {
	return map[string]handlers.HealthCheck{
		"storage": a.storage.Ping,
		"redis": func(ctx context.Context) error {
			return redrepo.Ping(ctx, a.redis)
		},
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started",
		zap.String("addr", a.cfg.HTTP.Addr),
		zap.String("storage", a.cfg.Storage.Driver),
		zap.String("notify", a.cfg.Notify.Transport),
	)
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	a.hub.Close()
	if err := a.closeBackends(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	return shutdownErr
}

func (a *App) closeBackends() error {
	if a.stopRelay != nil {
		a.stopRelay()
		a.relayWG.Wait()
	}
	a.storage.Close()

	var err error
	if a.redis != nil {
		err = a.redis.Close()
	}
	return err
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

// Hub exposes the connection registry, mainly for tests and diagnostics.
func (a *App) Hub() *notify.Hub {
	return a.hub
}
