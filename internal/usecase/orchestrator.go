package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsAgent/internal/domain"
	xerrors "NewsAgent/internal/errors"
	"NewsAgent/internal/ports"
	"NewsAgent/internal/tools"
)

const (
	cacheMaxAge        = 24 * time.Hour
	defaultCacheSource = "ai_news"
)

// Perceiver interprets the goal text.
type Perceiver interface {
	Process(ctx context.Context, input string) domain.Perception
}

// Planner builds the plan and makes the model-backed choices of a run.
type Planner interface {
	CreatePlan(perception domain.Perception, summary domain.MemorySummary) domain.WorkflowPlan
	ShouldUseCache(summary domain.MemorySummary) bool
	Optimize(plan domain.WorkflowPlan, summary domain.MemorySummary) domain.WorkflowPlan
	SelectRelevantArticles(ctx context.Context, articles []domain.Article, summary domain.MemorySummary, count int) []domain.Article
	GenerateSummary(ctx context.Context, articles []domain.ArticleContent, summary domain.MemorySummary) string
	CreateRecoveryPlan(err error, step int, plan domain.WorkflowPlan) domain.RecoveryPlan
}

// OrchestratorDeps wires the layers and driven adapters of a run.
type OrchestratorDeps struct {
	Perception Perceiver
	Planner    Planner
	Memory     ports.MemoryStore
	Gateway    ports.ToolGateway
	Archive    ports.RunArchive
	Notifier   ports.Notifier
	Logger     *slog.Logger

	// SampleFallback substitutes the fixed sample articles when step 1 fails.
	SampleFallback bool
	// CacheSource names the article cache entry; defaults to "ai_news".
	CacheSource string
	// RetryDelayUnit scales a step's retry_delay; defaults to one second.
	RetryDelayUnit time.Duration

	Clock func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Orchestrator drives the six-step workflow for one goal at a time.
type Orchestrator struct {
	perception     Perceiver
	planner        Planner
	memory         ports.MemoryStore
	gateway        ports.ToolGateway
	archive        ports.RunArchive
	notifier       ports.Notifier
	logger         *slog.Logger
	sampleFallback bool
	cacheSource    string
	retryUnit      time.Duration
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator constructs the step executor.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	o := &Orchestrator{
		perception:     deps.Perception,
		planner:        deps.Planner,
		memory:         deps.Memory,
		gateway:        deps.Gateway,
		archive:        deps.Archive,
		notifier:       deps.Notifier,
		logger:         deps.Logger,
		sampleFallback: deps.SampleFallback,
		cacheSource:    deps.CacheSource,
		retryUnit:      deps.RetryDelayUnit,
		now:            deps.Clock,
		sleep:          deps.Sleep,
	}
	if o.cacheSource == "" {
		o.cacheSource = defaultCacheSource
	}
	if o.retryUnit <= 0 {
		o.retryUnit = time.Second
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.sleep == nil {
		o.sleep = sleepContext
	}
	return o
}

// runState carries the accumulators one step hands to the next.
type runState struct {
	result   *domain.RunResult
	plan     domain.WorkflowPlan
	memory   domain.MemorySummary
	session  *tools.Session
	logger   *slog.Logger
	halted   bool
	haltStep int
}

// Run executes the workflow for goal. Step failures never surface as errors:
// they are recorded and reflected in RunResult.Success. An error is returned
// only when the workflow cannot be set up or ctx ends.
func (o *Orchestrator) Run(ctx context.Context, goal string) (*domain.RunResult, error) {
	if o.perception == nil || o.planner == nil || o.memory == nil {
		return nil, xerrors.New(xerrors.CodeConfiguration, "orchestrator is missing perception, planner or memory")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &domain.RunResult{RunID: uuid.NewString(), Goal: goal, StartedAt: o.now().UTC()}
	st := &runState{result: result, logger: o.runLogger(result.RunID)}

	ctx, span := o.startRunSpan(ctx, result.RunID, goal)
	runErr := o.execute(ctx, st)

	result.Success = !st.halted && runErr == nil
	result.FinishedAt = o.now().UTC()
	o.finish(ctx, st)
	endRunSpan(span, result, runErr)

	if runErr != nil {
		return result, runErr
	}
	return result, ctx.Err()
}

func (o *Orchestrator) execute(ctx context.Context, st *runState) error {
	perception := o.perception.Process(ctx, st.result.Goal)
	if err := o.memory.StorePreferences(perception.Facts.Preferences); err != nil {
		warn(st.logger, "store preferences failed", "error", err)
	}

	st.memory = o.memory.Summary()
	st.plan = o.planner.Optimize(o.planner.CreatePlan(perception, st.memory), st.memory)
	st.result.Priority = st.plan.Priority
	info(st.logger, "plan ready",
		"intent", perception.Intent.Intent,
		"confidence", perception.Intent.Confidence,
		"steps", st.plan.TotalSteps,
		"priority", st.plan.Priority)

	session, err := tools.Open(ctx, o.gateway, o.logger)
	if err != nil {
		st.halted = true
		errorLog(st.logger, "tool session unavailable", "error", err)
		return fmt.Errorf("open tool session: %w", err)
	}
	st.session = session

	for _, step := range st.plan.Steps {
		if err := ctx.Err(); err != nil {
			st.halted = true
			return err
		}
		if halt := o.runStep(ctx, st, step); halt {
			st.halted = true
			st.haltStep = step.Step
			warn(st.logger, "workflow halted", "step", step.Step, "action", step.Action)
			break
		}
	}
	return nil
}

// runStep executes one step and applies the continuation policy. It
// reports whether the run must stop.
func (o *Orchestrator) runStep(ctx context.Context, st *runState, step domain.WorkflowStep) bool {
	ctx, span := o.startStepSpan(ctx, step)
	debug(st.logger, "step started", "step", step.Step, "action", step.Action)

	status, details, err := o.dispatch(ctx, st, step)
	if err == nil {
		o.record(st, step, status, details, nil, nil)
		endStepSpan(span, status, nil)
		info(st.logger, "step finished", "step", step.Step, "action", step.Action, "status", status)
		return false
	}

	recovery := o.planner.CreateRecoveryPlan(err, step.Step, st.plan)
	if !recovery.CanContinue && !xerrors.IsCode(err, xerrors.CodeTerminalStep) {
		err = xerrors.Wrap(xerrors.CodeTerminalStep, err, string(step.Action)+" failed")
		recovery.Error = err.Error()
	}
	o.record(st, step, domain.StatusFailed, details, err, &recovery)
	endStepSpan(span, domain.StatusFailed, err)
	warn(st.logger, "step failed",
		"step", step.Step,
		"action", step.Action,
		"error", err,
		"recovery", recovery.RecoverySteps,
		"can_continue", recovery.CanContinue)

	if step.Action == domain.ActionFetchNews && o.sampleFallback {
		st.result.Articles = domain.SampleArticles()
		info(st.logger, "continuing with sample articles", "count", len(st.result.Articles))
		return false
	}
	return !recovery.CanContinue
}

func (o *Orchestrator) dispatch(ctx context.Context, st *runState, step domain.WorkflowStep) (string, map[string]any, error) {
	switch step.Action {
	case domain.ActionFetchNews:
		return o.fetchNews(ctx, st, step)
	case domain.ActionSelectArticles:
		return o.selectArticles(ctx, st, step)
	case domain.ActionFetchContent:
		return o.fetchContent(ctx, st, step)
	case domain.ActionSaveDocument:
		return o.saveDocument(ctx, st, step)
	case domain.ActionSummarize:
		return o.summarize(ctx, st, step)
	case domain.ActionSendEmail:
		return o.sendEmail(ctx, st, step)
	default:
		return "", nil, xerrors.New(xerrors.CodeToolInvocation,
			fmt.Sprintf("unknown action %q", step.Action), xerrors.WithRetryable(false))
	}
}

func (o *Orchestrator) record(st *runState, step domain.WorkflowStep, status string, details map[string]any, err error, recovery *domain.RecoveryPlan) {
	outcome := domain.StepOutcome{Step: step.Step, Action: step.Action, Status: status}
	rec := domain.SessionRecord{
		Step:         step.Step,
		Action:       step.Action,
		Status:       status,
		RunID:        st.result.RunID,
		Parameters:   step.Parameters,
		RecoveryPlan: recovery,
		Details:      details,
	}
	if err != nil {
		rec.Error = err.Error()
		outcome.Error = err.Error()
	}
	st.result.Steps = append(st.result.Steps, outcome)

	if serr := o.memory.StoreSession(rec); serr != nil {
		warn(st.logger, "store session failed", "step", step.Step, "error", serr)
	}
}

// finish updates counters and publishes the outcome. Archive and notifier
// failures are logged only.
func (o *Orchestrator) finish(ctx context.Context, st *runState) {
	result := st.result
	state := o.memory.SystemState()

	var patch domain.StatePatch
	if result.Success {
		runs := state.SuccessfulRuns + 1
		total := state.TotalArticlesProcessed + len(result.Contents)
		patch.SuccessfulRuns = &runs
		patch.TotalArticlesProcessed = &total
	} else {
		runs := state.FailedRuns + 1
		patch.FailedRuns = &runs
	}
	if err := o.memory.UpdateSystemState(patch); err != nil {
		warn(st.logger, "update system state failed", "error", err)
	}

	// A cancelled run still publishes its outcome.
	pubCtx := context.WithoutCancel(ctx)

	if o.archive != nil {
		if err := o.archive.Record(pubCtx, toRunRecord(result, st.haltStep)); err != nil {
			warn(st.logger, "archive run failed", "error", err)
		}
	}
	if o.notifier != nil {
		if err := o.notifier.Notify(pubCtx, FormatRunStatus(result)); err != nil {
			warn(st.logger, "notify failed", "error", err)
		}
	}

	info(st.logger, "workflow finished",
		"success", result.Success,
		"selected", len(result.Selected),
		"summary_length", len(result.Summary),
		"duration", result.FinishedAt.Sub(result.StartedAt))
}

func toRunRecord(result *domain.RunResult, haltStep int) domain.RunRecord {
	return domain.RunRecord{
		RunID:         result.RunID,
		Goal:          result.Goal,
		Success:       result.Success,
		Priority:      result.Priority,
		ArticlesCount: len(result.Contents),
		SummaryLength: len(result.Summary),
		FailedStep:    haltStep,
		StartedAt:     result.StartedAt,
		FinishedAt:    result.FinishedAt,
	}
}

func (o *Orchestrator) runLogger(runID string) *slog.Logger {
	if o.logger == nil {
		return nil
	}
	return o.logger.With("run_id", runID)
}

func debug(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Debug(msg, args...)
	}
}

func info(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Info(msg, args...)
	}
}

func warn(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Warn(msg, args...)
	}
}

func errorLog(l *slog.Logger, msg string, args ...any) {
	if l != nil {
		l.Error(msg, args...)
	}
}
