package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qcview/internal/api"
	"qcview/internal/config"
	"qcview/internal/container"

	"github.com/joho/godotenv"
)

// Headless JSON API without the browser UI
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	logger := appContainer.Logger.WithComponent("API")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := appContainer.Preload(ctx); err != nil {
		logger.Warn("Failed to preload %s: %v", appConfig.Data.ExcelFile, err)
	}

	server := &http.Server{
		Addr: ":" + appConfig.API.Port,
		Handler: api.NewRouter(appContainer.Workbench, api.RouterConfig{
			MaxUploadBytes: appConfig.Data.MaxUploadBytes(),
		}, appContainer.Logger),
		ReadTimeout:  appConfig.Server.ReadTimeout,
		WriteTimeout: appConfig.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		_ = appContainer.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting API server on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}
