package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/emrgen/notebook/internal/cache"
	"github.com/emrgen/notebook/internal/compress"
	"github.com/emrgen/notebook/internal/config"
	"github.com/emrgen/notebook/internal/jobs"
	"github.com/emrgen/notebook/internal/service"
	"github.com/emrgen/notebook/internal/store"
	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"gorm.io/gorm"
)

// backupWindow is the span within which only one backup per project is kept.
const backupWindow = time.Hour

// Server represents the server
type Server struct {
	cfg       *config.Config
	redis     *redis.Client
	cache     cache.ProjectCache
	projects  *service.ProjectService
	workspace *service.Workspace
	hub       *Hub
	handler   http.Handler
	executor  *jobs.TaskExecutor
}

// NewServer wires the services on top of db. Redis is used as the content
// cache when an address is configured.
func NewServer(cfg *config.Config, db *gorm.DB) (*Server, error) {
	idle, err := time.ParseDuration(cfg.SessionIdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("session idle timeout: %w", err)
	}

	compressor, err := compress.ByName(cfg.Compression)
	if err != nil {
		return nil, err
	}

	gormStore := store.NewGormStore(db)
	if err := gormStore.Migrate(); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, hub: NewHub()}

	var projectCache cache.ProjectCache
	if cfg.Redis.Addr != "" {
		s.redis = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := s.redis.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		projectCache = cache.NewRedisProjectCache(s.redis, compressor)
		s.cache = projectCache
	}

	s.projects = service.NewProjectService(compressor, gormStore, projectCache)
	s.workspace = service.NewWorkspace(s.projects,
		service.WithSessionReconciler(s.hub),
		service.WithSessionListener(s.hub.Publish),
		service.WithTableRowLimit(cfg.CSV.MaxTableRows),
	)

	router := mux.NewRouter()
	router.Use(RequestTimeMiddleware())
	NewHandlers(s.projects, s.workspace, s.hub).Register(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // All origins are allowed
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	s.handler = c.Handler(router)

	cronJobs := []jobs.CronJob{
		jobs.NewBackupCleaner(cfg.BackupCleanSchedule, backupWindow, gormStore),
		jobs.NewFuncTask("session-sweeper", "@every 1m", func() {
			if n := s.workspace.CloseIdle(idle); n > 0 {
				logrus.Infof("closed %d idle sessions", n)
			}
		}),
	}
	if projectCache != nil {
		cronJobs = append(cronJobs, jobs.NewCacheSyncTask(cfg.CacheSyncSchedule, projectCache, s.projects))
	}
	s.executor = jobs.NewTaskExecutor(nil, cronJobs)

	return s, nil
}

// Handler is the http handler serving the api.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until SIGTERM or SIGINT.
func (s *Server) Start() error {
	httpPort := ":" + s.cfg.HTTPPort
	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	if err := s.executor.Run(); err != nil {
		return err
	}
	defer s.executor.Stop()

	restServer := &http.Server{
		Addr:    httpPort,
		Handler: s.handler,
	}

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting http server on: ", httpPort)
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting http server: %v", err)
			}
		}
		logrus.Infof("http server stopped")
	}()

	time.Sleep(1 * time.Second)
	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := restServer.Shutdown(ctx); err != nil {
		logrus.Errorf("error stopping http server: %v", err)
	}

	wg.Wait()

	// flush content still waiting in the cache
	if s.cache != nil {
		if n, err := jobs.NewCacheSyncTask("", s.cache, s.projects).Sync(ctx); err != nil {
			logrus.Errorf("error flushing cache: %v", err)
		} else if n > 0 {
			logrus.Infof("flushed %d projects", n)
		}
		_ = s.redis.Close()
	}

	return nil
}

// Start loads the configuration and runs the server.
func Start() error {
	cfg := config.LoadConfig()
	s, err := NewServer(cfg, config.GetDb(cfg))
	if err != nil {
		return err
	}
	return s.Start()
}
