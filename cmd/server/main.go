// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/chinczyk/internal/config"
	"github.com/jason-s-yu/chinczyk/internal/handlers"
	"github.com/jason-s-yu/chinczyk/internal/results"
	"github.com/jason-s-yu/chinczyk/internal/room"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// results sinks; the HTTP sink is always present and warns when unconfigured
	sinks := []results.Sink{results.NewHTTPSink(cfg.ExportResultsURL, logger)}
	if cfg.RedisAddr != "" {
		rdb, err := results.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("Redis results sink disabled")
		} else {
			defer rdb.Close()
			sinks = append(sinks, results.NewRedisSink(rdb, cfg.ResultsQueue))
		}
	}
	if cfg.NATSURL != "" {
		nc, err := results.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("NATS results sink disabled")
		} else {
			defer nc.Drain()
			sinks = append(sinks, results.NewNATSSink(nc))
		}
	}
	exporter := results.NewExporter(logger, results.DefaultQueueSize, sinks...)

	store := room.NewStore(room.Options{
		Capacity:    cfg.RoomCapacity,
		TurnTimeout: cfg.TurnTimeout,
		Reporter:    exporter,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(logger, store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exporter.Run(gctx)
	})
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"capacity": cfg.RoomCapacity,
			"timeout":  cfg.TurnTimeout,
		}).Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		store.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
