package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edumint-quiz-service/internal/app"
	"edumint-quiz-service/internal/config"
	filestore "edumint-quiz-service/internal/infra/file"
	"edumint-quiz-service/internal/infra/opentdb"
	pgstore "edumint-quiz-service/internal/infra/postgres"
	redisstore "edumint-quiz-service/internal/infra/redis"
	transport "edumint-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3001"
	}

	amount := cfg.Provider.Amount
	if amount <= 0 {
		amount = 10
	}
	provider := opentdb.NewClient(
		cfg.Provider.URL,
		amount,
		cfg.Provider.Category,
		cfg.Provider.Difficulty,
		config.Duration(cfg.Provider.Timeout, 5*time.Second),
	)

	attempts, err := newAttemptStore(ctx, cfg)
	if err != nil {
		return err
	}

	window := config.Duration(cfg.Attempts.Window, 24*time.Hour)
	service := app.NewQuizService(provider, attempts, window)
	handler := transport.NewHandler(service)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/quiz", handler.GetQuiz)
	mux.HandleFunc("/api/quiz/submit", handler.Submit)
	mux.HandleFunc("/api/quiz/events", wsHandler.ServeEvents)

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.CORS(origins)(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newAttemptStore picks the configured backend: postgres, then redis, then the
// JSON file.
func newAttemptStore(ctx context.Context, cfg config.Config) (app.AttemptStore, error) {
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		return pgstore.NewAttemptStore(pool), nil
	}

	window := config.Duration(cfg.Attempts.Window, 24*time.Hour)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisstore.NewAttemptStore(client, window), nil
	}

	path := cfg.Attempts.File
	if path == "" {
		path = "data/attempts.json"
	}
	return filestore.NewAttemptStore(path)
}
