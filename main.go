package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/CodeineSolm/taskmaster/config"
	apimod "github.com/CodeineSolm/taskmaster/modules/api"
	cachemod "github.com/CodeineSolm/taskmaster/modules/cache"
	taskmod "github.com/CodeineSolm/taskmaster/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	cfg := config.Load()

	log.Println("=== TaskMaster ===")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Store: %s", cfg.StoreDriver)
	if cfg.RedisAddr != "" {
		log.Printf("Redis: %s (prefix %s, TTL %s)", cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL)
	}

	app, err := newApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	log.Println("=== Application Started ===")
	log.Printf("API available at http://localhost:%d", cfg.HTTPPort)
	log.Println("Endpoints:")
	log.Println("  GET    /health            - Health check")
	log.Println("  GET    /tasks             - List tasks")
	log.Println("  GET    /tasks/:id         - Get a task")
	log.Println("  POST   /tasks             - Create a task")
	log.Println("  PUT    /tasks/:id         - Replace a task")
	log.Println("  PATCH  /tasks/:id/toggle  - Toggle completion")
	log.Println("  DELETE /tasks/:id         - Delete a task")
	log.Println("  (also served under /api/tasks)")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// application is the mono app together with the modules registered on it.
type application struct {
	mono.MonoApplication

	cache *cachemod.Module
	task  *taskmod.Module
	api   *apimod.Module
}

// newApplication creates the mono app and registers the cache, task and api
// modules. opts are applied after the defaults derived from cfg.
func newApplication(cfg config.Config, opts ...mono.MonoFrameworkOption) (*application, error) {
	opts = append([]mono.MonoFrameworkOption{
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	}, opts...)

	app, err := mono.NewMonoApplication(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mono application: %w", err)
	}

	logger := app.Logger()

	cacheModule := cachemod.NewModule(cfg.RedisAddr, cfg.CachePrefix, cfg.CacheTTL, logger.WithModule("cache"))
	taskModule := taskmod.NewModule(taskmod.StoreOptions{
		Driver:      cfg.StoreDriver,
		DBPath:      cfg.DBPath,
		DatabaseURL: cfg.DatabaseURL,
		Debug:       cfg.DBDebug,
	}, logger.WithModule("task"))
	apiModule := apimod.NewModule(cfg.HTTPPort, cfg.CORSAllowedOrigins, logger.WithModule("api"))

	// Wire up dependencies
	taskModule.SetCacheModule(cacheModule)
	apiModule.SetTaskModule(taskModule)
	apiModule.AddHealthSource(taskModule)
	apiModule.AddHealthSource(cacheModule)

	// Start order follows each module's Dependencies(): cache, task, api.
	for _, module := range []mono.Module{cacheModule, taskModule, apiModule} {
		if err := app.Register(module); err != nil {
			return nil, fmt.Errorf("failed to register module %s: %w", module.Name(), err)
		}
	}

	return &application{
		MonoApplication: app,
		cache:           cacheModule,
		task:            taskModule,
		api:             apiModule,
	}, nil
}
