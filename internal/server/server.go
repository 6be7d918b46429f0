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

	"github.com/emrgen/redline/internal/cache"
	"github.com/emrgen/redline/internal/compress"
	"github.com/emrgen/redline/internal/config"
	"github.com/emrgen/redline/internal/jobs"
	"github.com/emrgen/redline/internal/queue"
	"github.com/emrgen/redline/internal/service"
	"github.com/emrgen/redline/internal/store"
	"github.com/gobuffalo/packr"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

// Server represents the server
type Server struct {
	httpPort string
}

// NewServer creates a new server
func NewServer(httpPort string) *Server {
	return &Server{httpPort: httpPort}
}

// Start starts the server
func (s *Server) Start() {
	if err := Start(s.httpPort); err != nil {
		logrus.Fatalf("error starting server: %v", err)
	}
}

// NewStore builds the document store of cnf on db: the gorm store behind a
// circuit breaker, with the redis cache in front when redis is configured.
func NewStore(cnf *config.Config, db *gorm.DB) (store.Store, error) {
	encoder, err := compress.Lookup(cnf.Compression)
	if err != nil {
		return nil, err
	}

	var docStore store.Store = store.NewBreakerStore(store.NewGormStore(db, encoder), store.DefaultBreakerConfig())
	if cnf.Redis.Address != "" {
		client := cache.NewRedisClient(cnf.Redis.Address, cnf.Redis.Password, cnf.Redis.Database)
		docStore = store.NewCachedStore(docStore, cache.NewRedisDocumentCache(client, encoder, cnf.Redis.TTL))
		logrus.Infof("document cache enabled on %s", cnf.Redis.Address)
	}
	return docStore, nil
}

// NewQueue returns the kafka queue when brokers are configured, nil otherwise.
func NewQueue(cnf *config.Config) (queue.DocumentQueue, error) {
	if cnf.Kafka.Brokers == "" {
		return nil, nil
	}
	q, err := queue.NewKafkaQueue(cnf.Kafka.Brokers, cnf.Kafka.Topic)
	if err != nil {
		return nil, err
	}
	logrus.Infof("publishing document events to %s", cnf.Kafka.Topic)
	return q, nil
}

// NewRouter returns the http handler serving the api and its docs.
func NewRouter(docs *service.DocumentService) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestTimeMiddleware, UserMiddleware)
	NewHandler(docs).RegisterRoutes(router)

	openapiDocs := packr.NewBox("../../docs/v1")
	docsPath := "/v1/docs/"
	router.PathPrefix(docsPath).Handler(http.StripPrefix(docsPath, http.FileServer(openapiDocs)))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "PUT"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", userIDHeader, userNameHeader},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

// Start starts the http server with the background jobs and blocks until
// the process is signalled.
func Start(httpPort string) error {
	httpPort = ":" + httpPort

	cnf := config.LoadConfig()
	rdb := config.GetDb(cnf)

	rl, err := net.Listen("tcp", httpPort)
	if err != nil {
		return err
	}

	docStore, err := NewStore(cnf, rdb)
	if err != nil {
		return err
	}
	if err = docStore.Migrate(); err != nil {
		return err
	}

	events, err := NewQueue(cnf)
	if err != nil {
		return err
	}
	if events != nil {
		defer events.Close()
	}

	docs, err := service.NewDocumentService(docStore, events, service.Config{
		SessionCacheSize: cnf.Session.CacheSize,
		SaveDelay:        cnf.Session.SaveDelay,
		Reanchor:         cnf.Session.Reanchor,
	})
	if err != nil {
		return err
	}
	defer docs.Close()

	executor := jobs.NewTaskExecutor(nil, []jobs.CronJob{
		jobs.NewSessionSweepTask(cnf.Jobs.SweepSchedule, cnf.Session.IdleTimeout, docs),
		jobs.NewBackupCleaner(docStore, cnf.Jobs.BackupSchedule, cnf.Jobs.BackupWindow),
	})
	if err = executor.Run(); err != nil {
		return err
	}
	defer executor.Stop()

	restServer := &http.Server{
		Addr:    httpPort,
		Handler: NewRouter(docs),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Info("starting rest server on: ", httpPort)
		logrus.Info("click on the following link to view the API documentation: http://localhost", httpPort, "/v1/docs/")
		if err := restServer.Serve(rl); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logrus.Errorf("error starting rest server: %v", err)
			}
		}
		logrus.Infof("rest server stopped")
	}()

	logrus.Infof("Press Ctrl+C to stop the server")

	// listen for interrupt signal to gracefully shut down the server
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
	<-sigs
	// clean Ctrl+C output
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = restServer.Shutdown(ctx); err != nil {
		logrus.Errorf("error stopping rest server: %v", err)
	}

	wg.Wait()

	return nil
}
