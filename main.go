package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arrow-arena/config"
	"arrow-arena/game"
	"arrow-arena/grpc"
	"arrow-arena/nats"
	"arrow-arena/results"
	"arrow-arena/server"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func initLogging(conf config.Config) io.Closer {
	if conf.LogJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}

	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		log.WithError(err).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if conf.LogFile == "" {
		return nil
	}

	file := &lumberjack.Logger{
		Filename:   conf.LogFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
	}
	log.SetOutput(io.MultiWriter(os.Stdout, file))
	return file
}

func main() {
	conf := config.Init()
	if logFile := initLogging(conf); logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, err := nats.Connect(conf.NatsURL, conf.NatsPrefix)
	if err != nil {
		log.WithError(err).Error("Failed to connect to nats, events will not be published")
	}
	defer publisher.Close()

	store := results.Open(ctx, conf.RedisURL, conf.LeaderboardSize)
	defer store.Close()

	arena := game.NewArena(conf, game.Observers{publisher, store})
	go arena.Run()
	defer arena.Stop()

	health, err := grpc.Listen(":" + conf.GRPCPort)
	if err != nil {
		log.WithError(err).Fatal("Failed to listen for gRPC")
	}
	go func() {
		if err := health.Serve(); err != nil {
			log.WithError(err).Error("gRPC server failed")
		}
	}()
	defer health.Stop()

	srv := server.New(arena, store, conf.StaticDir).HTTPServer(":" + conf.HTTPPort)
	go func() {
		log.Infof("Arena listening on :%s", conf.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")
	health.SetServing(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP shutdown did not complete cleanly")
	}
}
