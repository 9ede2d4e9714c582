package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"inbox-live/api"
	"inbox-live/auth"
	grpc2 "inbox-live/grpc"
	"inbox-live/internal"
	"inbox-live/moderation"
	"inbox-live/observability"
	"inbox-live/ratelimit"
	"inbox-live/repositories"
	"inbox-live/runtime"
	"inbox-live/runtime/workers"
	"inbox-live/search"
	"inbox-live/services"
	"inbox-live/websocket"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const (
	debugPort     = 8081
	debugEndpoint = "/inspect"
	limiterIdle   = 10 * time.Minute
	probeInterval = 5 * time.Second
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Every defer runs before the exit code reaches main.
func run() (int, error) {
	// 1. Configuration & Logger
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return exitConfig, fmt.Errorf("failed to load .env: %w", err)
	}
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	charReplacement, _ := internal.CharacterRune(config.CharReplacement)

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(ctx, config, logger))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) {
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", debugPort, debugEndpoint))
		database.StartDebugServer(db, debugPort, debugEndpoint, repositories.InspectMapper)
	}

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 4. Moderation (optional)
	var moderator *moderation.Moderator
	if config.CensoredWordsFile != "" {
		wordList, err := moderation.LoadWordList(config.CensoredWordsFile)
		if err != nil {
			return exitConfig, fmt.Errorf("failed to load censored words: %w", err)
		}
		if moderator, err = moderation.NewModerator(wordList.Words, charReplacement, logger); err != nil {
			return exitConfig, err
		}
		logger.Info("Moderation enabled", "words", len(wordList.Words), "languages", wordList.Languages)
	}

	// 5. Core wiring
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	messageRepository := repositories.NewMessageRepository(db, logger)
	userRepository := repositories.NewUserRepository(db, logger)
	registry := runtime.NewRegistry(logger, config.RegistryShards)
	fanout := runtime.NewFanout(logger, registry, metrics)
	index := search.NewMessageIndex(blugeWriter, logger)
	tokens := auth.NewTokenManager(config.JwtSecret, config.AuthTokenDuration)
	monitoring := observability.NewMonitoringManager(logger, registry)

	chatService := services.NewChatService(logger, messageRepository, userRepository, fanout, index, moderator, metrics, config.MaxBodyLength)
	authService := services.NewAuthService(logger, userRepository, tokens)

	identity := auth.QueryIdentity
	if config.WsIdentity == internal.IdentityToken {
		identity = auth.TokenIdentity(tokens)
	}
	live := websocket.NewServer(ctx, logger, registry, identity, websocket.Config{
		PingInterval:   config.WsPingInterval,
		PongTimeout:    config.WsPongTimeout,
		WriteTimeout:   config.WsWriteTimeout,
		BufferSize:     config.ConnectionBufferSize,
		AllowedOrigins: config.Origins(),
	})

	limiter := ratelimit.New(config.SendRatePerSecond, config.SendBurst, limiterIdle)
	handler := api.NewHandler(logger, chatService, authService, monitoring, limiter, metrics)
	router := api.NewRouter(api.RouterConfig{
		Log:            logger,
		Handler:        handler,
		Tokens:         tokens,
		Live:           live,
		Metrics:        metrics,
		Gatherer:       reg,
		AllowedOrigins: config.Origins(),
	})

	// 6. Background workers
	health := grpc2.NewHealth()
	sup := workers.NewSupervisor(logger, metrics, config.RestartInterval)
	sup.Add(
		workers.NewReporterWorker(logger, monitoring, metrics, config.MetricInterval),
		workers.NewValueLogGCWorker(logger, db, config.GcInterval),
		grpc2.NewStoreProbe(logger, health, func(context.Context) error {
			return db.View(func(*badger.Txn) error { return nil })
		}, probeInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervisorDone)
	}()

	// Use an error channel to capture Serve() issues asynchronously.
	errChan := make(chan error, 2)

	// 7. HTTP server
	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	httpServer := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. gRPC health server (optional)
	var grpcServer *grpc.Server
	if config.GrpcPort > 0 {
		grpcAddress := net.JoinHostPort(config.Host, strconv.Itoa(config.GrpcPort))
		listener, err := net.Listen("tcp", grpcAddress)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
		}
		grpcServer = grpc2.NewServer(logger, health)
		go func() {
			logger.Info("Starting gRPC server", "address", grpcAddress)
			if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errChan <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()
	}

	// 9. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 10. Final Cleanup (Graceful Shutdown)
	// Live connections are closed by the cancelled ctx, HTTP requests get SHUTDOWN_TIMEOUT to finish.
	logger.Info("Shutting down gracefully...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	sup.Stop()
	<-supervisorDone
	logger.Info("Program stopped cleanly")

	return code, runErr
}

func buildBadgerOpts(ctx context.Context, config internal.Config, logger *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
