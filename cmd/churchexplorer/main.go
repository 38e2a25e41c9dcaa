package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/mediocregopher/radix/v4"
	"github.com/tilinna/clock"

	"github.com/spmcmurray/churchexplorer-sub001/common/cache"
	"github.com/spmcmurray/churchexplorer-sub001/common/config"
	"github.com/spmcmurray/churchexplorer-sub001/common/db"
	"github.com/spmcmurray/churchexplorer-sub001/common/docstore"
	"github.com/spmcmurray/churchexplorer-sub001/common/logging"
	"github.com/spmcmurray/churchexplorer-sub001/internal/gate"
	"github.com/spmcmurray/churchexplorer-sub001/internal/progress"
	"github.com/spmcmurray/churchexplorer-sub001/internal/review"
)

type explorerConfig struct {
	DBConf    config.DBConfig
	CacheConf config.CacheConfig
	HTTPConf  config.HTTPServerConfig
}

var conf explorerConfig

func init() {
	conf = loadConfig()
}

func main() {
	logger := logging.Setup("churchexplorer")

	database, err := db.InitDB(conf.DBConf)
	if err != nil {
		panic(err)
	}
	defer database.Close()

	redisClient, err := (radix.PoolConfig{}).New(context.Background(), conf.CacheConf.TransportProtocol, fmt.Sprintf("%s:%s", conf.CacheConf.Host, conf.CacheConf.Port))
	if err != nil {
		panic(err)
	}
	defer redisClient.Close()

	store := docstore.NewPGStore(database)
	clk := clock.Realtime()

	reviewRepo := review.NewCachedRepository(cache.NewCache(redisClient), review.NewStoreRepository(store))
	progressRepo := progress.NewStoreRepository(store)

	api := &gate.LearningAPI{
		Scheduler: review.NewScheduler(reviewRepo),
		Finder:    review.NewFinder(reviewRepo),
		Completer: review.NewCompleter(reviewRepo, clk),
		Ledger:    progress.NewLedger(progressRepo),
		Streaks:   progress.NewStreakTracker(progressRepo),
		Progress:  progressRepo,
		Clock:     clk,
	}

	router := gin.New()
	router.Use(logging.GinLogger(logger), logging.GinRecovery(logger))
	gate.RegisterLearningRoutes(router.Group("/"), api)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", conf.HTTPConf.Host, conf.HTTPConf.Port),
		Handler: router,
	}

	serverError := make(chan error, 1)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	defer srv.Close()

	exitOnTerminationSignal(serverError)
}

func exitOnTerminationSignal(serverError chan error) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigs:
		log.Println("Shutting down...")
	case err := <-serverError:
		log.Printf("HTTP server failure: %s\n", err)
		os.Exit(1)
	}
}

func loadConfig() explorerConfig {
	return explorerConfig{
		DBConf:    config.LoadDBConfig(),
		CacheConf: config.LoadCacheConfig(),
		HTTPConf:  config.LoadHTTPServerConfig(),
	}
}
