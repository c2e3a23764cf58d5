package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"todoTracker/internal/config"
	"todoTracker/internal/handlers"
	"todoTracker/internal/logger"
	"todoTracker/internal/middleware"
	"todoTracker/internal/notify"
	"todoTracker/internal/repository/task/firestore"
	"todoTracker/internal/repository/task/inmemory"
	"todoTracker/internal/repository/task/postgres"
	"todoTracker/internal/repository/task/sqlite"
	"todoTracker/internal/repository/user"
	"todoTracker/internal/service"
	"todoTracker/internal/worker"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository
	service    *service.TaskService
	dispatcher *notify.Dispatcher
	worker     *worker.ReminderWorker
	shutdowns  []func() // run in reverse order on shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init builds every component. On error, whatever was already started is
// shut down again.
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: flushing logs")
		logger.Sync()
	})

	if err := a.init(ctx); err != nil {
		a.shutdown()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	repo, closeRepo, err := newRepository(ctx, a.config)
	if err != nil {
		return fmt.Errorf("initializing repository: %w", err)
	}
	a.repository = repo
	a.shutdowns = append(a.shutdowns, closeRepo)

	users, err := newUserDirectory(a.config.Users)
	if err != nil {
		return fmt.Errorf("initializing user directory: %w", err)
	}

	loc, err := a.config.Location()
	if err != nil {
		return err
	}

	a.dispatcher = notify.NewDispatcher(notify.LogSender{}, a.config.Notify.Buffer, a.config.Notify.Workers)
	a.service = service.NewTaskService(a.repository, users, a.dispatcher,
		service.WithLocation(loc),
		service.WithMaxSubtaskDepth(a.config.Tasks.MaxSubtaskDepth),
	)

	if a.config.Worker.Enabled {
		a.worker = worker.NewReminderWorker(a.repository, a.dispatcher, &a.config.Worker.Interval, &a.config.Worker.BatchSize)
	}

	a.router = a.newRouter()
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           otelhttp.NewHandler(a.router, "todo-tracker"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("App: initialized",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) newRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(a.config.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.CorsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "Retry-After"},
		AllowCredentials: !slices.Contains(a.config.Server.CorsOrigins, "*"),
		MaxAge:           300,
	}))

	limiter := middleware.NewLimiter(middleware.RateLimitConfig{
		Requests:   a.config.RateLimit.Requests,
		Window:     a.config.RateLimit.Window,
		MaxClients: a.config.RateLimit.MaxClients,
	})
	authFailures := middleware.NewLimiter(middleware.RateLimitConfig{
		Requests:   a.config.RateLimit.AuthFailures,
		Window:     a.config.RateLimit.Window,
		MaxClients: a.config.RateLimit.MaxClients,
	})
	authenticate := middleware.Authenticate([]byte(a.config.Auth.JWTSecret), authFailures)
	rateLimit := middleware.RateLimit(limiter)

	handlers.NewTaskHandler(a.service).Routes(r, func(next http.Handler) http.Handler {
		return authenticate(rateLimit(next))
	})
	return r
}

// Handler is the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	a.dispatcher.Start(context.WithoutCancel(ctx))
	a.shutdowns = append(a.shutdowns, a.dispatcher.Close)

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	if a.worker != nil {
		go func() {
			defer close(workerDone)
			a.worker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}
	a.shutdowns = append(a.shutdowns, func() {
		stopWorker()
		<-workerDone
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("App: server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("App: shutdown requested")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("App: server shutdown", err)
		runErr = errors.Join(runErr, err)
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}

func newRepository(ctx context.Context, cfg *config.Config) (service.TaskRepository, func(), error) {
	switch cfg.Repository.Type {
	case config.RepositoryPostgres:
		if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		storage, err := postgres.New(ctx, postgres.Config{
			URL:            cfg.Database.URL,
			MaxConnections: cfg.Database.MaxConnections,
			MinConnections: cfg.Database.MinConnections,
			IdleTimeout:    cfg.Database.IdleTimeout,
			ConnectRetries: cfg.Database.ConnectRetries,
		})
		if err != nil {
			return nil, nil, err
		}
		return storage, storage.Close, nil
	case config.RepositorySQLite:
		storage, err := sqlite.New(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return storage, storage.Close, nil
	case config.RepositoryFirestore:
		storage, err := firestore.New(ctx, firestore.Config{
			ProjectID:       cfg.Firestore.ProjectID,
			Collection:      cfg.Firestore.Collection,
			CredentialsFile: cfg.Firestore.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		return storage, storage.Close, nil
	case config.RepositoryInMemory:
		logger.Warn("App: using in-memory repository, data is lost on restart")
		return inmemory.NewTaskStorage(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown repository type %q", cfg.Repository.Type)
}

func newUserDirectory(cfg config.UsersConfig) (*user.Directory, error) {
	if cfg.File == "" {
		logger.Warn("App: no users.file configured, every user id is accepted")
		return user.NewOpenDirectory(), nil
	}
	return user.Load(cfg.File)
}
