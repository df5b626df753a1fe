package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/alen-hh/arxiv-query-proxy/arxiv"
	"github.com/alen-hh/arxiv-query-proxy/config"
	"github.com/alen-hh/arxiv-query-proxy/handler"
	"github.com/alen-hh/arxiv-query-proxy/logger"
)

var (
	appLogger    *logger.Logger
	errorHandler *logger.ErrorHandler
)

func init() {
	appLogger = logger.New("arxiv-query-proxy")
	errorHandler = logger.NewErrorHandler(appLogger)
}

func main() {
	cfg, err := loadConfiguration(context.Background())
	if err != nil {
		errorHandler.Handle(err, "startup")
		os.Exit(1)
	}

	appLogger = appLogger.WithLevel(logger.ParseLevel(cfg.Logging.Level))
	h := newHandler(cfg, appLogger)

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(h.Handle)
		return
	}

	fmt.Println("arXiv Query Proxy - Local Development Mode")
	if err := runLocalServer(h, cfg); err != nil {
		appLogger.Error("Local server failed", err)
		os.Exit(1)
	}
}

// newHandler wires the arXiv client into a request handler
func newHandler(cfg *config.Config, log *logger.Logger) *handler.Handler {
	client := arxiv.NewClient(
		cfg.Upstream.APIEndpoint,
		time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second,
	).WithUserAgent(cfg.Upstream.UserAgent)

	log.Info("Handler configured", map[string]interface{}{
		"api_endpoint":    cfg.Upstream.APIEndpoint,
		"timeout_seconds": cfg.Upstream.TimeoutSeconds,
		"default_sort_by": cfg.Defaults.SortBy,
		"default_max":     cfg.Defaults.MaxResults,
	})

	return handler.New(client, cfg.Defaults, log)
}

// loadConfiguration loads the proxy configuration. S3 is tried first, then
// a local file, then the built-in defaults; environment overrides apply last.
func loadConfiguration(ctx context.Context) (*config.Config, error) {
	cfg, err := loadBaseConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, logger.WrapError(err, logger.ErrorTypeConfig, "invalid environment configuration")
	}
	return cfg, nil
}

func loadBaseConfiguration(ctx context.Context) (*config.Config, error) {
	configBucket := os.Getenv("CONFIG_BUCKET")
	configKey := os.Getenv("CONFIG_KEY")

	if configBucket != "" && configKey != "" {
		cfg, err := loadFromS3(ctx, configBucket, configKey)
		if err == nil {
			return cfg, nil
		}
		appLogger.Warn("Failed to load config from S3, using default config", map[string]interface{}{
			"bucket": configBucket,
			"key":    configKey,
			"error":  err.Error(),
		})
		return config.GetDefaultConfig(), nil
	}

	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		cfg, err := (&config.Manager{}).LoadFromFile(configFile)
		if err != nil {
			return nil, logger.WrapError(err, logger.ErrorTypeConfig, "failed to load config file")
		}
		return cfg, nil
	}

	appLogger.Info("Using default configuration")
	return config.GetDefaultConfig(), nil
}

func loadFromS3(ctx context.Context, bucket, key string) (*config.Config, error) {
	manager, err := config.NewManager(os.Getenv("AWS_REGION"))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	return manager.LoadFromS3(ctx, bucket, key)
}

// runLocalServer serves the handler over HTTP until SIGINT or SIGTERM
func runLocalServer(h *handler.Handler, cfg *config.Config) error {
	server := handler.NewLocalServer(h, cfg.Server.Path)

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("Local server listening", map[string]interface{}{
			"addr": cfg.Server.LocalAddr,
			"path": cfg.Server.Path,
		})
		errCh <- server.Start(cfg.Server.LocalAddr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		appLogger.Info("Shutting down local server", map[string]interface{}{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
