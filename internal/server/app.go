// Package server initializes and runs the petition server. It opens the
// database, applies migrations, picks a photo backend, wires the services
// and runs the HTTP API until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/petitions/petitiond/internal/logging"
	"github.com/petitions/petitiond/internal/server/auth"
	"github.com/petitions/petitiond/internal/server/config"
	"github.com/petitions/petitiond/internal/server/httpapi"
	"github.com/petitions/petitiond/internal/server/metrics"
	"github.com/petitions/petitiond/internal/server/photos"
	"github.com/petitions/petitiond/internal/server/repositories/repomanager"
	"github.com/petitions/petitiond/internal/server/services"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	userService     *services.UserService
	petitionService *services.PetitionService
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := newPhotoStore(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("photo store init error: %w", err)
	}

	creds := auth.NewCredentials(c.BcryptCost)

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		userService:     services.NewUserService(db, rm, creds, store, logger),
		petitionService: services.NewPetitionService(db, rm, store, logger),
	}, nil
}

// newPhotoStore selects the backend named by PhotoBackend.
func newPhotoStore(ctx context.Context, c *config.Config) (photos.Store, error) {
	switch c.PhotoBackend {
	case config.PhotoBackendFS:
		return photos.NewFileSystem(c.PhotoDir)
	case config.PhotoBackendS3:
		return photos.NewS3(ctx, photos.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown photo backend %q", c.PhotoBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(httpapi.Options{
		Addr:            app.config.HTTPAddr,
		LoginRate:       app.config.LoginRate,
		LoginBurst:      app.config.LoginBurst,
		ShutdownTimeout: app.config.ShutdownTimeout,
	}, app.logger, app.userService, app.petitionService, metrics.New())

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
