package app

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-agenda/internal/db"
	"github.com/BruksfildServices01/barber-agenda/internal/handlers"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/dynamo"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/memory"
	"github.com/BruksfildServices01/barber-agenda/internal/infra/repository"
	"github.com/BruksfildServices01/barber-agenda/internal/lock"
	"github.com/BruksfildServices01/barber-agenda/internal/photos"
	"github.com/BruksfildServices01/barber-agenda/internal/routes"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

// App holds the process-wide dependencies shared by the HTTP server and
// the Lambda entrypoint.
type App struct {
	Config   *config.Config
	Store    storage.Store
	Locker   lock.Locker
	Audit    *audit.Dispatcher
	Uploader handlers.PhotoUploader

	AuditReader audit.Reader

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	sink, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.Store.Close)

	if cfg.RedisURL != "" {
		rl, err := lock.NewRedisFromURL(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		a.Locker = rl
		a.closers = append(a.closers, rl.Close)
		log.Println("app: using redis booking lock")
	} else {
		a.Locker = lock.NewLocal()
	}

	if cfg.PhotoBucket != "" {
		up, err := photos.NewS3Uploader(ctx, cfg.AWSRegion, cfg.PhotoBucket, cfg.PhotoPublicBaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("photo uploader: %w", err)
		}
		a.Uploader = up
	}

	a.Audit = audit.NewDispatcher(audit.New(sink))
	if reader, ok := sink.(audit.Reader); ok {
		a.AuditReader = reader
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) (audit.Sink, error) {
	cfg := a.Config

	switch cfg.StorageDriver {
	case config.StorageMemory:
		s := memory.New()
		a.Store = s
		return s, nil

	case config.StorageFile:
		s, err := memory.Open(cfg.ResourcesDir)
		if err != nil {
			return nil, fmt.Errorf("open resources: %w", err)
		}
		a.Store = s
		return s, nil

	case config.StoragePostgres:
		gdb, err := dbpkg.NewDB(cfg)
		if err != nil {
			return nil, err
		}
		a.Store = repository.NewGormStore(gdb)
		return audit.NewGormSink(gdb), nil

	case config.StorageDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		tables := dynamo.TableNames(cfg.DynamoDBTablePrefix)
		if cfg.DynamoDBEndpoint != "" {
			if err := dynamo.EnsureTables(ctx, client, tables); err != nil {
				return nil, err
			}
		}
		s := dynamo.New(client, tables)
		a.Store = s
		return s, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// Router builds a gin engine with every route registered.
func (a *App) Router() *gin.Engine {
	r := gin.Default()

	routes.RegisterRoutes(r, routes.Deps{
		Config:   a.Config,
		Store:    a.Store,
		Locker:   a.Locker,
		Audit:    a.Audit,
		Uploader: a.Uploader,

		AuditReader: a.AuditReader,
	})

	return r
}

// Close drains pending audit events before closing the store.
func (a *App) Close() {
	if a.Audit != nil {
		a.Audit.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("app: close: %v", err)
		}
	}
}
