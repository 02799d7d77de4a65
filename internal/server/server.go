package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abrahamjose02/Article-Feed-Api/config"
	"github.com/abrahamjose02/Article-Feed-Api/internal/db"
	"github.com/abrahamjose02/Article-Feed-Api/internal/handlers"
	"github.com/abrahamjose02/Article-Feed-Api/internal/logger"
	"github.com/abrahamjose02/Article-Feed-Api/internal/mq"
	"github.com/abrahamjose02/Article-Feed-Api/internal/notify"
	"github.com/abrahamjose02/Article-Feed-Api/internal/services"
	"github.com/abrahamjose02/Article-Feed-Api/internal/storage"
	"github.com/abrahamjose02/Article-Feed-Api/internal/store"
	"github.com/abrahamjose02/Article-Feed-Api/internal/tokens"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const requestTimeout = 60 * time.Second

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Users       services.UserRepository
	Articles    services.ArticleRepository
	Uploader    services.ImageUploader
	Notifier    services.Notifier
	Tokens      *tokens.Service
	Options     services.Options
	Cookies     handlers.CookieOptions
	CORSOrigins []string
	Logger      *zap.Logger
}

// Server wraps the HTTP server, router and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *zap.Logger
	closers    []func(context.Context) error
}

// New wires the configured backends and constructs a Server.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{logger: log}
	deps, err := s.wire(ctx, cfg)
	if err != nil {
		_ = s.closeResources(context.Background())
		return nil, err
	}

	s.router = NewRouter(deps)

	port := cfg.ServerPort
	if port == 0 {
		port = 10000
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// NewRouter builds the chi router with middleware and all API routes.
func NewRouter(deps Dependencies) *chi.Mux {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	opts := deps.Options
	opts.Logger = log

	accounts := services.NewAccountService(deps.Users, deps.Tokens, deps.Notifier, opts)
	sessions := services.NewSessionService(deps.Users, deps.Tokens, opts)
	articles := services.NewArticleService(deps.Articles, deps.Users, deps.Uploader, opts)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logger.Middleware(log),
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
		cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, handlers.NewAuthHandler(accounts, sessions, deps.Cookies, log))
	})
	router.Route("/api/articles", func(r chi.Router) {
		handlers.ArticleRouter(r, handlers.NewArticleHandler(articles, log), sessions)
	})
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases backend connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.closeResources(ctx))
}

func (s *Server) wire(ctx context.Context, cfg config.Config) (Dependencies, error) {
	tokenService, err := tokens.NewService(tokens.Config{
		ActivationSecret: cfg.Auth.ActivationSecret,
		AccessSecret:     cfg.Auth.AccessSecret,
		RefreshSecret:    cfg.Auth.RefreshSecret,
		ActivationTTL:    cfg.Auth.ActivationTTL,
		AccessTTL:        cfg.Auth.AccessTTL,
		RefreshTTL:       cfg.Auth.RefreshTTL,
	})
	if err != nil {
		return Dependencies{}, err
	}

	users, articles, err := s.openRepositories(ctx, cfg)
	if err != nil {
		return Dependencies{}, err
	}
	uploader, err := s.openStorage(ctx, cfg)
	if err != nil {
		return Dependencies{}, err
	}
	notifier, err := s.openNotifier(ctx, cfg)
	if err != nil {
		return Dependencies{}, err
	}

	return Dependencies{
		Users:    users,
		Articles: articles,
		Uploader: uploader,
		Notifier: notifier,
		Tokens:   tokenService,
		Options: services.Options{
			Timeout:    cfg.CollaboratorTimeout,
			BcryptCost: cfg.Auth.BcryptCost,
		},
		Cookies: handlers.CookieOptions{
			Secure:   cfg.Cookie.Secure,
			SameSite: handlers.ParseSameSite(cfg.Cookie.SameSite),
		},
		CORSOrigins: cfg.CORSOrigins,
		Logger:      s.logger,
	}, nil
}

func (s *Server) openRepositories(ctx context.Context, cfg config.Config) (services.UserRepository, services.ArticleRepository, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, database, err := store.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		s.onClose(client.Disconnect)
		return store.NewMongoUserRepository(database), store.NewMongoArticleRepository(database), nil
	case config.DriverMemory:
		s.logger.Warn("using in-memory store; data is lost on restart")
		mem := store.NewMemory()
		return mem.Users(), mem.Articles(), nil
	default:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		s.onClose(func(context.Context) error { return conn.Close() })
		return store.NewUserRepository(conn), store.NewArticleRepository(conn), nil
	}
}

func (s *Server) openStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	var backend storage.ObjectStorage
	switch cfg.Storage.Backend {
	case config.StorageMinio:
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		backend = client
	case config.StorageGCS:
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		s.onClose(func(context.Context) error { return client.Close() })
		backend = client
	default:
		client, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		backend = client
	}

	st := storage.NewStorage(backend, cfg.Storage.PublicBaseURL)
	ensureCtx, cancel := context.WithTimeout(ctx, cfg.CollaboratorTimeout)
	defer cancel()
	if err := st.EnsureBucket(ensureCtx); err != nil {
		return nil, fmt.Errorf("ensure bucket %q: %w", st.Bucket(), err)
	}
	return st, nil
}

func (s *Server) openNotifier(ctx context.Context, cfg config.Config) (services.Notifier, error) {
	switch cfg.Notify.Backend {
	case config.NotifyRabbitMQ, config.NotifyPubSub:
		queue, err := OpenQueue(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.onClose(func(context.Context) error { return queue.Close() })
		return notify.NewQueueSender(queue, cfg.Notify.Channel), nil
	case config.NotifyLog:
		return notify.NewLogSender(s.logger.Named("mail")), nil
	default:
		return notify.NewSMTPSender(cfg.SMTP)
	}
}

// OpenQueue connects to the message broker selected by NOTIFY_BACKEND.
func OpenQueue(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch cfg.Notify.Backend {
	case config.NotifyRabbitMQ:
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return mq.New(client), nil
	case config.NotifyPubSub:
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("connect pubsub: %w", err)
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("notify backend %q has no queue", cfg.Notify.Backend)
	}
}

func (s *Server) onClose(fn func(context.Context) error) {
	s.closers = append(s.closers, fn)
}

// closeResources releases resources in reverse order of acquisition.
func (s *Server) closeResources(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
