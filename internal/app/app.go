package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	"NewsAgent/internal/infrastructure/document"
	"NewsAgent/internal/infrastructure/llm"
	"NewsAgent/internal/infrastructure/mailer"
	"NewsAgent/internal/infrastructure/parser"
	"NewsAgent/internal/infrastructure/scheduler"
	"NewsAgent/internal/infrastructure/storage"
	"NewsAgent/internal/infrastructure/telegram"
	"NewsAgent/internal/logging"
	"NewsAgent/internal/memory"
	"NewsAgent/internal/perception"
	"NewsAgent/internal/planner"
	"NewsAgent/internal/ports"
	"NewsAgent/internal/scanner"
	"NewsAgent/internal/tools"
	"NewsAgent/internal/usecase"
)

const (
	statusDepth     = 5
	shutdownTimeout = 30 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	memory       *memory.Store
	archive      *storage.RunArchive
	orchestrator *usecase.Orchestrator
	scheduler    *usecase.Scheduler
}

// Status is a read-only view over the agent's memory and run archive.
type Status struct {
	State    domain.SystemState
	Sessions []domain.SessionRecord
	Emails   []domain.EmailRecord
	Runs     []domain.RunRecord
}

// New builds the runnable application. Failures here are configuration
// problems and abort before any workflow starts.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewSelectorScanner(nil, baseLogger.With("component", "scanner.selectors")))
	registry.Register(parser.NewArxivScanner(nil, baseLogger.With("component", "scanner.arxiv")))

	source := parser.NewStrategySource(registry, cfg.Sites, cfg.Workflow.UseSampleFallback(), baseLogger.With("component", "source"))

	gateway := tools.NewRegistry()
	tools.RegisterBuiltins(gateway, tools.Collaborators{
		News:     source,
		Content:  parser.NewContentExtractor(nil, baseLogger.With("component", "content")),
		Document: document.NewWordWriter("", baseLogger.With("component", "document")),
		Mail:     mailer.NewSMTPMailer(cfg.Mail, baseLogger.With("component", "mailer")),
	})

	chatClient, err := newChatClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	if chatClient == nil {
		baseLogger.Warn("no model key configured, using default interpretation and selection", "provider", cfg.LLM.Provider)
	}

	store := memory.Open(cfg.Memory.Path, memory.WithLogger(baseLogger.With("component", "memory")))

	interpreter := perception.New(chatClient, perception.Config{
		Timeout:      cfg.LLM.Timeout(),
		Recipient:    cfg.Workflow.Recipient,
		Filename:     cfg.Workflow.Filename,
		ArticleCount: cfg.Workflow.ArticleCount,
	}, baseLogger.With("component", "perception"))

	plans := planner.New(chatClient, planner.Config{
		Timeout:      cfg.LLM.Timeout(),
		NewsURL:      cfg.Workflow.NewsURL,
		Filename:     cfg.Workflow.Filename,
		Recipient:    cfg.Workflow.Recipient,
		Subject:      cfg.Workflow.Subject,
		ArticleCount: cfg.Workflow.ArticleCount,
	}, baseLogger.With("component", "planner"))

	a := &Application{cfg: cfg, logger: baseLogger, memory: store}

	deps := usecase.OrchestratorDeps{
		Perception:     interpreter,
		Planner:        plans,
		Memory:         store,
		Gateway:        gateway,
		Logger:         baseLogger.With("component", "orchestrator"),
		SampleFallback: cfg.Workflow.UseSampleFallback(),
		CacheSource:    cfg.Workflow.CacheSource,
		RetryDelayUnit: cfg.Workflow.RetryDelay(),
	}

	if cfg.Archive.Driver != "" {
		archive, err := storage.Open(ctx, cfg.Archive.Driver, cfg.Archive.DSN)
		if err != nil {
			return nil, fmt.Errorf("open run archive: %w", err)
		}
		a.archive = archive
		deps.Archive = archive
	}

	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		deps.Notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	a.orchestrator = usecase.NewOrchestrator(deps)
	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Every(), cfg.Scheduler.Location()),
		a.orchestrator,
		cfg.Workflow.Goal,
		baseLogger.With("component", "scheduler"),
	)
	return a, nil
}

func newChatClient(ctx context.Context, cfg config.LLMConfig) (ports.ChatClient, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return client, nil
	default:
		return llm.NewChatGPTClient(cfg), nil
	}
}

// Run executes the workflow once for the configured goal.
func (a *Application) Run(ctx context.Context) (*domain.RunResult, error) {
	return a.RunGoal(ctx, a.cfg.Workflow.Goal)
}

// RunGoal executes the workflow once for goal.
func (a *Application) RunGoal(ctx context.Context, goal string) (*domain.RunResult, error) {
	return a.orchestrator.Run(ctx, goal)
}

// Watch runs the workflow on the configured interval until ctx ends.
func (a *Application) Watch(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watching", "interval", a.cfg.Scheduler.Every(), "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	return nil
}

// Status collects counters, recent history and archived runs.
func (a *Application) Status(ctx context.Context) (Status, error) {
	st := Status{
		State:    a.memory.SystemState(),
		Sessions: a.memory.RecentSessions(statusDepth),
		Emails:   a.memory.EmailHistory(statusDepth),
	}
	if a.archive != nil {
		runs, err := a.archive.Recent(ctx, statusDepth)
		if err != nil {
			return st, fmt.Errorf("read run archive: %w", err)
		}
		st.Runs = runs
	}
	return st, nil
}

// Search scans memory for records mentioning query.
func (a *Application) Search(query string) []domain.SearchHit {
	return a.memory.Search(query)
}

// Close releases the run archive.
func (a *Application) Close() error {
	if a.archive == nil {
		return nil
	}
	return a.archive.Close()
}
