package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spkap/GATIS/internal/gan"
	"github.com/Spkap/GATIS/internal/server/handlers"
	"github.com/Spkap/GATIS/internal/server/imagestore"
	"github.com/Spkap/GATIS/internal/server/middleware"
	"github.com/Spkap/GATIS/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

const accessTokenTTL = 60 * time.Minute

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	addr := flag.String("addr", ":8000", "HTTP listen address")
	dbPath := flag.String("db", "gatis.db", "Path to SQLite database")
	generatorPath := flag.String("generator", "artifacts/generator.gatw", "Path to generator weights")
	encoderPath := flag.String("encoder", "artifacts/encoder.gatw", "Path to text encoder weights")
	vocabPath := flag.String("vocab", "artifacts/vocab.txt", "Path to encoder vocabulary")
	imagesDir := flag.String("images-dir", "output_images", "Directory for generated images")
	imageIndex := flag.String("image-index", "images.db", "Path to image metadata index")
	maxConcurrent := flag.Int("max-concurrent", 0, "Max concurrent generations (0 = NumCPU)")

	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := run(logger, config{
		addr:          *addr,
		dbPath:        *dbPath,
		generatorPath: *generatorPath,
		encoderPath:   *encoderPath,
		vocabPath:     *vocabPath,
		imagesDir:     *imagesDir,
		imageIndex:    *imageIndex,
		maxConcurrent: *maxConcurrent,
	}); err != nil {
		logger.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

type config struct {
	addr          string
	dbPath        string
	generatorPath string
	encoderPath   string
	vocabPath     string
	imagesDir     string
	imageIndex    string
	maxConcurrent int
}

func run(logger *slog.Logger, cfg config) error {
	ctx := context.Background()

	// Секрет подписи токенов обязателен: без него процесс не стартует
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		return errors.New("JWT_SECRET_KEY environment variable is required")
	}

	jwtConfig := handlers.JWTConfig{
		Secret:         []byte(secret),
		AccessTokenTTL: accessTokenTTL,
	}

	// Открываем SQLite storage (миграции выполняются внутри)
	userStorage, err := sqlite.New(ctx, cfg.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open user storage: %w", err)
	}
	defer func() {
		if err := userStorage.Close(); err != nil {
			logger.Error("failed to close user storage", slog.Any("error", err))
		}
	}()

	// Открываем хранилище изображений
	images, err := imagestore.New(ctx, cfg.imagesDir, cfg.imageIndex)
	if err != nil {
		return fmt.Errorf("failed to open image store: %w", err)
	}
	defer func() {
		if err := images.Close(); err != nil {
			logger.Error("failed to close image store", slog.Any("error", err))
		}
	}()

	// Загружаем модели. Ошибка фатальна: сервис не должен принимать
	// запросы, которые он не сможет обслужить
	logger.Info("loading model artifacts",
		slog.String("generator", cfg.generatorPath),
		slog.String("encoder", cfg.encoderPath))

	registry, err := gan.LoadRegistry(cfg.generatorPath, cfg.encoderPath, cfg.vocabPath)
	if err != nil {
		return fmt.Errorf("failed to load models: %w", err)
	}

	pipeline := gan.NewPipeline(logger, registry, cfg.maxConcurrent)

	// Собираем handlers
	authHandler := handlers.NewAuthHandler(logger, userStorage, jwtConfig)
	generateHandler := handlers.NewGenerateHandler(logger, userStorage, pipeline, images)
	imagesHandler := handlers.NewImagesHandler(logger, images)
	healthHandler := handlers.NewHealthHandler(logger, registry)

	authRequired := middleware.AuthMiddleware(logger, jwtConfig)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", healthHandler.Welcome)
	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("POST /signup", authHandler.Signup)
	mux.HandleFunc("POST /token", authHandler.Token)
	mux.Handle("POST /generate", authRequired(http.HandlerFunc(generateHandler.Generate)))
	mux.HandleFunc("GET /images/{name}", imagesHandler.GetImage)

	// Цепочка middleware: recovery -> logging -> rate limit -> mux
	rateLimits := []middleware.PathRateLimit{
		{Path: "/signup", Rate: 10, Window: time.Minute},
		{Path: "/token", Rate: 10, Window: time.Minute},
		{Path: "/generate", Rate: 30, Window: time.Minute},
	}

	var handler http.Handler = mux
	handler = middleware.RateLimitByPathMiddleware(rateLimits, 120, time.Minute, logger)(handler)
	handler = middleware.LoggingWithSkip(logger, []string{"/healthz"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	server := &http.Server{
		Addr:              cfg.addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Write timeout с запасом: генерация изображения не мгновенная
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  time.Minute,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	// Ждем сигнал завершения
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errC:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func printVersion() {
	fmt.Printf("GATIS Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
