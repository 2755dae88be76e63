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
	"qcview/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	logger := appContainer.Logger.WithComponent("Main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := appContainer.Preload(ctx); err != nil {
		logger.Warn("Failed to preload %s: %v", appConfig.Data.ExcelFile, err)
	}

	server, err := ui.NewServer(appContainer.Workbench, appContainer.SSEHub, ui.Options{
		MaxUploadBytes: appConfig.Data.MaxUploadBytes(),
		ReadTimeout:    appConfig.Server.ReadTimeout,
		WriteTimeout:   appConfig.Server.WriteTimeout,
	}, appContainer.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	apiServer := &http.Server{
		Addr: ":" + appConfig.API.Port,
		Handler: api.NewRouter(appContainer.Workbench, api.RouterConfig{
			MaxUploadBytes: appConfig.Data.MaxUploadBytes(),
		}, appContainer.Logger),
		ReadTimeout:  appConfig.Server.ReadTimeout,
		WriteTimeout: appConfig.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(":" + appConfig.Server.Port)
	})
	g.Go(func() error {
		logger.Info("JSON API listening on :%s", appConfig.API.Port)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		_ = apiServer.Shutdown(shutdownCtx)
		return appContainer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
