package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/seoblend/backend/analyzer"
	"github.com/seoblend/backend/api"
	"github.com/seoblend/backend/config"
	"github.com/seoblend/backend/logging"
	"github.com/seoblend/backend/stats"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = 24 * time.Hour
	retainMonths    = 1
)

func main() {
	envLoaded := config.LoadEnv()
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Sync(logger)

	if !envLoaded {
		logger.Info("no .env file found, using environment variables")
	}

	gin.SetMode(cfg.GinMode)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		logging.Sync(logger)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	store, err := stats.NewStorage(cfg.DataDir, logger.Named("stats"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Shutdown())
	}()

	seoAnalyzer := analyzer.New(analyzer.Config{
		APIKey:            cfg.GoogleAPIKey,
		PageSpeedEndpoint: cfg.PageSpeedEndpoint,
		Timeout:           cfg.HTTPTimeout,
		MaxBodyBytes:      cfg.MaxBodyBytes,
	},
		analyzer.WithLogger(logger.Named("analyzer")),
		analyzer.WithRecorder(store),
	)

	router := api.NewRouter(seoAnalyzer, store, logger, api.Options{
		Prefixes:       cfg.APIPrefixes,
		DevMode:        cfg.DevMode,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				store.Cleanup(retainMonths)
			case <-ctx.Done():
				return
			}
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.Bool("live_pagespeed", seoAnalyzer.LivePageSpeed()),
			zap.Strings("prefixes", cfg.APIPrefixes),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
