package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MKhiriev/go-workout-sync/internal/config"
	handler "github.com/MKhiriev/go-workout-sync/internal/handler/http"
	"github.com/MKhiriev/go-workout-sync/internal/logger"
	"github.com/MKhiriev/go-workout-sync/internal/remote"
	"github.com/MKhiriev/go-workout-sync/internal/service"
	"github.com/MKhiriev/go-workout-sync/internal/store"
	"github.com/MKhiriev/go-workout-sync/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	// Optional .env next to the binary; real deployments use env/flags.
	_ = godotenv.Load()

	log := logger.NewLogger("syncd")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	storages, err := store.NewStorages(cfg.Storage, cfg.Sync, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create local storage")
	}

	client := remote.NewHTTPClient(cfg.Remote, log)

	services := service.NewServices(storages, client, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	background := workers.NewWorkers(
		workers.Func(func() { services.StartBackgroundSync(ctx) }),
	)
	background.Run()
	defer services.StopBackgroundSync()

	router := handler.NewHandler(services, log).Init()
	server := &http.Server{
		Addr:         cfg.Server.HTTPAddress,
		Handler:      router,
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
	}

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Info().Str("address", cfg.Server.HTTPAddress).Msg("control API listening")
	if err = server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("control API server error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
