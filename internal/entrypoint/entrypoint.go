package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/choirbook/internal/config"
	"github.com/mrlokans/choirbook/internal/events"
	http_controllers "github.com/mrlokans/choirbook/internal/http"
	"github.com/mrlokans/choirbook/internal/scheduler"
	"github.com/mrlokans/choirbook/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	// Cancelled on shutdown so open event streams return.
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT. SIGKILL can't be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (stops the scheduler and task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	cancelRequests()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Choirbook v%s", version)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	library, err := OpenLibrary(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := library.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}()

	bus := events.NewBus()
	stopEventLog := logEvents(bus)
	defer stopEventLog()

	backupWriter := tasks.NewBackupWriter(cfg.Backup.Dir, cfg.Backup.Keep)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(TasksAnchorPath(cfg), taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewRecomputeCategoryCountsQueue(library),
			tasks.NewBackupQueue(library, backupWriter),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	var backupQueue scheduler.Enqueuer
	if taskClient != nil {
		backupQueue = taskClient
	}
	backups := scheduler.NewBackupScheduler(
		scheduler.BackupConfig{Enabled: cfg.Backup.Enabled, Schedule: cfg.Backup.Schedule},
		library,
		backupWriter,
		backupQueue,
	)
	if err := backups.Start(ctx); err != nil {
		log.Fatalf("Failed to start backup scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Library:  library,
		Bus:      bus,
		MediaDir: cfg.Media.Dir,
		Backups:  backups,
		ReadOnly: cfg.Global.ReadOnly,
		Version:  version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		backups.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
