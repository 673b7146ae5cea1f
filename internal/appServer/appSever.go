// launching the server, redis cache, worker pool
package appServer

import (
	"context"
	"crypto/tls"
	"log"

	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ocrhub/ocr-gateway/config"
	"github.com/ocrhub/ocr-gateway/internal/database"
	"github.com/ocrhub/ocr-gateway/internal/normalize"
	"github.com/ocrhub/ocr-gateway/internal/pkg/storage"
	"github.com/ocrhub/ocr-gateway/internal/recognition"
	"github.com/ocrhub/ocr-gateway/internal/service"
	"github.com/ocrhub/ocr-gateway/internal/source"
	"github.com/ocrhub/ocr-gateway/internal/transport"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	resolver := source.NewResolver(cfg.App.FetchTimeout, cfg.App.MaxUploadSize)
	normalizer := normalize.New(cfg.App.MaxUploadSize, cfg.App.MaxDimension)
	recognizer := recognition.NewQwenClient(cfg.Backend)

	resultCache := newResultCache(cfg)

	ocrService := service.NewOCRService(resolver, normalizer, recognizer, resultCache)

	taskStorage := storage.NewTaskStorage(cfg.App.DataDir)
	batchService := service.NewBatchService(ocrService, taskStorage, cfg.Worker.PoolSize)

	ocrHandler := transport.NewOCRHandler(ocrService, cfg.Backend.Accounts)
	batchHandler := transport.NewBatchHandler(batchService)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(ocrHandler, batchHandler)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

// newResultCache connects to Redis when caching is enabled. A dead Redis
// downgrades the service to uncached operation instead of failing startup.
func newResultCache(cfg *config.Config) database.ResultCache {
	if !cfg.Redis.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Host + ":" + strconv.Itoa(cfg.Redis.Port),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logrus.Warnf("redis unavailable, result cache disabled: %s", err.Error())
		return nil
	}

	logrus.Print("Connected to redis, result cache enabled")
	return database.NewResultCache(client, cfg.Redis.CacheTTL)
}
