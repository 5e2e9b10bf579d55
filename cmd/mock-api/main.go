// Command mock-api serves the finance REST contract from fixtures so the
// dashboard can run against the rest data source without a real backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"moneyflow/internal/cli"
	"moneyflow/internal/log"
	"moneyflow/internal/mockapi"
	"moneyflow/internal/sources/memory"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentMock)

	port := os.Getenv("MOCK_API_PORT")
	if port == "" {
		port = "8090"
	}

	// MOCK_API_DATA_DIR swaps the embedded fixtures for files on disk.
	var (
		source *memory.Store
		err    error
	)
	if dir := os.Getenv("MOCK_API_DATA_DIR"); dir != "" {
		source, err = memory.NewFromDir(dir)
		logger.Info("Loading fixtures from directory", "dir", dir)
	} else {
		source, err = mockapi.NewFixtureSource()
	}
	if err != nil {
		logger.Error("Failed to load fixtures", log.FieldError, err)
		os.Exit(1)
	}

	var origins []string
	if raw := os.Getenv("MOCK_API_ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mockapi.NewRouter(source, mockapi.Options{AllowedOrigins: origins, Logger: logger}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting mock API", "port", port, "allowed_origins", origins)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", port)
		os.Exit(1)
	}
	logger.Info("Mock API stopped")
}
