package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"support-backend/internal/analysis"
	"support-backend/internal/conversations"
	"support-backend/internal/llm"
	"support-backend/internal/llm/gemini"
	"support-backend/internal/messages"
	"support-backend/internal/scheduler"
	"support-backend/internal/shared/config"
	"support-backend/internal/shared/server"
	"support-backend/internal/shared/storage/db"
	"support-backend/internal/sweep"
	"support-backend/internal/taskqueue"
)

// App holds the wired application.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	MessagesRepo      messages.Repo
	ConversationsRepo conversations.Repo
	Orchestrator      *analysis.Orchestrator
	Queue             *taskqueue.Queue
	Scheduler         *scheduler.Scheduler
	Sweeper           *sweep.Sweeper
	MessagesService   *messages.Service
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var msgRepo messages.Repo
	var convRepo conversations.Repo
	if sqlDB != nil {
		msgRepo = &messages.PGRepo{DB: sqlDB}
		convRepo = &conversations.PGRepo{DB: sqlDB}
	} else {
		msgRepo = messages.NewMemoryRepo()
		convRepo = conversations.NewMemoryRepo()
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	orch, err := analysis.NewOrchestrator(provider, analysis.NewCache(), msgRepo, convRepo, cfg.AnalysisVersion)
	if err != nil {
		return nil, err
	}

	queue, err := taskqueue.New(scheduler.NewExecutor(orch), taskqueue.Options{
		PollInterval: cfg.QueuePollInterval,
	})
	if err != nil {
		return nil, err
	}
	sched := &scheduler.Scheduler{Queue: queue}

	msgSvc := &messages.Service{
		Repo:                    msgRepo,
		Conversations:           convRepo,
		Scheduler:               sched,
		MessageDelay:            cfg.AnalysisDelay,
		ConversationDelay:       cfg.ConversationDelay,
		ConversationMinMessages: cfg.ConversationMinMsg,
	}

	sweeper := &sweep.Sweeper{
		Messages:      msgRepo,
		Conversations: convRepo,
		Scheduler:     sched,
		Limit:         cfg.SweepLimit,
		MinMessages:   cfg.ConversationMinMsg,
	}

	app := &App{
		Config:            cfg,
		DB:                sqlDB,
		MessagesRepo:      msgRepo,
		ConversationsRepo: convRepo,
		Orchestrator:      orch,
		Queue:             queue,
		Scheduler:         sched,
		Sweeper:           sweeper,
		MessagesService:   msgSvc,
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		Conversations: &conversations.Handler{Repo: convRepo, Scheduler: sched},
		Messages:      &messages.Handler{Service: msgSvc, Repo: msgRepo, Scheduler: sched},
		Analysis:      &scheduler.Handler{Scheduler: sched, Cache: orch.Cache()},
	})

	return app, nil
}

// Shutdown stops the queue and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if a.Queue != nil {
		if err := a.Queue.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildProvider(cfg config.Config) (analysis.Provider, error) {
	if cfg.LLMProvider == "keyword" {
		return analysis.KeywordProvider{}, nil
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: GEMINI_API_KEY empty; analysis jobs will fail until configured")
			return analysis.RetryingProvider{
				Base: &analysis.RemoteProvider{Client: llm.PlaceholderClient{}, Model: cfg.LLMModel},
			}, nil
		}
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	client, err := gemini.NewClient(cfg.GeminiAPIKey, cfg.LLMModel)
	if err != nil {
		return nil, err
	}
	return analysis.RetryingProvider{
		Base: &analysis.RemoteProvider{Client: client, Model: cfg.LLMModel},
	}, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
