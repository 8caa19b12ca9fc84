package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/diewo77/metertrack/internal/auth"
	"github.com/diewo77/metertrack/internal/config"
	"github.com/diewo77/metertrack/internal/db"
	"github.com/diewo77/metertrack/internal/server"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if *migrateOnlyFlag {
		if _, err := db.ConnectAndMigrate(); err != nil {
			log.Fatalf("migrate-only failed: %v", err)
		}
		log.Println("migrations completed; exiting as requested")
		return
	}

	cfg := config.Load()
	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dbConn, err := db.ConnectAndMigrate()
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer func() {
		if err := db.Close(dbConn); err != nil {
			logger.Error("closing connection pool", zap.Error(err))
		}
	}()

	verifier := auth.NewVerifier(cfg.JWKSURL, cfg.JWTAudience, cfg.JWTIssuer)
	handler := server.New(dbConn, verifier, logger)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}

	logger.Info("starting server", zap.String("env", cfg.Env), zap.String("port", cfg.Port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Env == "development" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.InitialFields = map[string]interface{}{"service": "metertrack"}
	return zcfg.Build()
}
