package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"TradeScope/internal/domain/models"
	drepo "TradeScope/internal/domain/repository"
	"TradeScope/pkg/logger"
	"TradeScope/pkg/util"
)

// RunRecorder receives terminal runs for archiving and downstream notification.
// Implementations must not block the stream; failures are logged, never fatal.
type RunRecorder interface {
	RunCompleted(run *models.Run)
}

// Orchestrator drives one pipeline run end to end: step phase, agent phase,
// synthesis, cache write, terminal event. It owns the Run exclusively for the
// duration of execution and forgets it once the stream closes.
type Orchestrator struct {
	steps    *StepExecutor
	agents   *AgentCoordinator
	synth    *Synthesizer
	results  drepo.ResultStore
	recorder RunRecorder
	metrics  drepo.Metrics
	log      *logger.Logger

	mu   sync.Mutex
	live map[string]*runToken // one live run per (observer, subject)
}

func NewOrchestrator(
	steps *StepExecutor,
	agents *AgentCoordinator,
	synth *Synthesizer,
	results drepo.ResultStore,
	recorder RunRecorder,
	metrics drepo.Metrics,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		steps:    steps,
		agents:   agents,
		synth:    synth,
		results:  results,
		recorder: recorder,
		metrics:  metrics,
		log:      log,
		live:     make(map[string]*runToken),
	}
}

// Execute runs the pipeline for subject+mode, emitting every transition to the
// sink. Starting a new run for the same observer and subject cancels any prior
// in-flight run; cancellation is cooperative and in-flight collection calls run
// to completion with their results discarded.
func (o *Orchestrator) Execute(ctx context.Context, observer, subject string, mode models.Mode, sink EventSink) *models.Run {
	runCtx, release := o.register(ctx, observer, subject)
	defer release()
	sink = &guardedSink{ctx: runCtx, next: sink}

	run := models.NewRun(uuid.NewString(), subject, mode)
	o.log.Info("run started",
		logger.String("run_id", run.ID),
		logger.String("subject", subject),
		logger.String("mode", string(mode)))

	agentNames := models.AgentsForMode(mode)
	plan := &models.Plan{
		Steps:       models.StepsForMode(mode),
		Agents:      agentNames,
		HasDecision: len(agentNames) > 0,
	}
	if err := sink.Emit(models.Event{Kind: models.EventPlan, Time: time.Now().UTC(), Plan: plan}); err != nil {
		return run
	}

	data := o.steps.Run(runCtx, run, sink)
	if runCtx.Err() != nil {
		return run
	}

	o.agents.Run(runCtx, run, data, sink)
	if runCtx.Err() != nil {
		return run
	}

	if plan.HasDecision {
		o.synthesize(runCtx, run, sink)
	}

	run.Done = true
	_ = sink.Emit(models.Event{Kind: models.EventDone, Time: time.Now().UTC()})

	o.recorder.RunCompleted(run)
	o.log.Info("run finished",
		logger.String("run_id", run.ID),
		logger.String("signal", signalOf(run)),
		logger.Int("errors", len(run.Errors)),
		logger.Duration("took", time.Since(run.StartedAt)))
	return run
}

// synthesize runs the rule engine exactly once and persists the cache entry
// when a decision was produced. Absent agent data is never an error here.
func (o *Orchestrator) synthesize(ctx context.Context, run *models.Run, sink EventSink) {
	d, err := o.synth.Synthesize(run.Subject, run.SuccessfulReports())
	if err != nil {
		run.Errors = append(run.Errors, "decision: "+err.Error())
		o.metrics.RecordError("synthesis")
		o.log.Error("synthesis failed", logger.String("subject", run.Subject), logger.Error(err))
		_ = sink.Emit(models.Event{Kind: models.EventDecisionError, Time: time.Now().UTC(), Error: err.Error()})
		return
	}

	run.Decision = d
	o.metrics.RecordDecision(string(d.Signal))
	_ = sink.Emit(models.Event{Kind: models.EventDecisionComplete, Time: time.Now().UTC(), Decision: d})

	entry := &models.CacheEntry{
		Subject:  run.Subject,
		Date:     util.RunDate(run.StartedAt),
		Agents:   run.SuccessfulReports(),
		Decision: d,
	}
	putCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.results.Put(putCtx, entry); err != nil {
		o.metrics.RecordError("cache_put")
		o.log.Warn("result cache write failed", logger.String("subject", run.Subject), logger.Error(err))
	}
}

// register cancels any prior in-flight run for the same observer and subject
// and installs this one.
func (o *Orchestrator) register(ctx context.Context, observer, subject string) (context.Context, func()) {
	key := observer + "|" + subject
	runCtx, cancel := context.WithCancel(ctx)
	tok := &runToken{cancel: cancel}

	o.mu.Lock()
	if prev, ok := o.live[key]; ok {
		prev.cancel()
	}
	o.live[key] = tok
	o.mu.Unlock()

	return runCtx, func() {
		o.mu.Lock()
		if o.live[key] == tok {
			delete(o.live, key)
		}
		o.mu.Unlock()
		cancel()
	}
}

type runToken struct {
	cancel context.CancelFunc
}

// guardedSink checks the run context before every emission. Once the run has
// been superseded, nothing more reaches its stream.
type guardedSink struct {
	ctx  context.Context
	next EventSink
}

func (s *guardedSink) Emit(ev models.Event) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}
	return s.next.Emit(ev)
}

func signalOf(run *models.Run) string {
	if run.Decision == nil {
		return "none"
	}
	return string(run.Decision.Signal)
}
