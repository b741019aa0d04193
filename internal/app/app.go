package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tuition/internal/blob"
	"tuition/internal/config"
	"tuition/internal/controller"
	"tuition/internal/repository"
	"tuition/internal/router"
	"tuition/internal/service"

	"go.uber.org/zap"
)

type App struct {
	repo       *repository.Repository
	blobs      blob.Store
	service    *service.Service
	controller *controller.Controller
	logger     *zap.Logger
	stopSig    chan os.Signal
	cfg        *config.Config

	Done chan struct{}
}

type option func(*App)

func WithConfig(cfg *config.Config) option {
	return func(app *App) {
		app.cfg = cfg
	}
}

func WithBlobStore(store blob.Store) option {
	return func(app *App) {
		app.blobs = store
	}
}

func NewApp(opts ...option) (*App, error) {
	var err error

	app := &App{
		stopSig: make(chan os.Signal, 2),
		Done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		cfg, err := config.NewConfig()
		if err != nil {
			return nil, err
		}
		app.cfg = cfg
	}

	app.logger = NewLogger(app.cfg.Environment)

	app.repo, err = repository.NewRepository(nil, &app.cfg.PostgresConfig)
	if err != nil {
		return nil, err
	}

	if app.blobs == nil {
		app.blobs, err = newBlobStore(&app.cfg.BlobConfig)
		if err != nil {
			return nil, err
		}
	}

	app.service = service.NewService(app.repo, app.blobs)
	app.controller = controller.NewController(app.service, app.logger)

	return app, nil
}

func newBlobStore(cfg *config.BlobConfig) (blob.Store, error) {
	switch blob.Driver(cfg.Driver) {
	case blob.DriverFilesystem:
		return blob.NewFilesystem(cfg.Root)
	case blob.DriverS3:
		return blob.NewS3(context.Background(), blob.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle == "true",
		})
	case blob.DriverMemory:
		return blob.NewMemory(), nil
	default:
		return nil, fmt.Errorf("app.newBlobStore: unknown blob driver %q", cfg.Driver)
	}
}

func (app *App) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		signal.Notify(app.stopSig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		sig := <-app.stopSig
		app.logger.Info("received signal", zap.String("signal", sig.String()))
		cancel()
	}()

	server := http.Server{
		Addr:         app.cfg.ServerAddress,
		Handler:      router.NewRouter(app.controller),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			app.logger.Error("http server error", zap.Error(err))
		}
	}()

	app.logger.Info("server started, listening for connections",
		zap.String("address", app.cfg.ServerAddress),
		zap.String("blob_driver", string(app.blobs.Driver())))
	<-ctx.Done()

	timeout, tcancel := context.WithTimeout(context.Background(), time.Second*10)
	defer tcancel()
	app.logger.Info("shutting down http server")
	server.Shutdown(timeout)

	app.logger.Info("closing repository")
	err := app.repo.Close()
	if err != nil {
		app.logger.Error("repository closing error", zap.Error(err))
	}

	close(app.Done)
	app.logger.Info("exiting app")
	_ = app.logger.Sync()
}
