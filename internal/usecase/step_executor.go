package usecase

import (
	"context"
	"sync"
	"time"

	"TradeScope/internal/domain/models"
	drepo "TradeScope/internal/domain/repository"
	"TradeScope/pkg/logger"
)

// EventSink receives pipeline events in emission order. Implementations must
// be safe for concurrent use; an error means the observer is gone and no
// further work should be started.
type EventSink interface {
	Emit(ev models.Event) error
}

// StepExecutor runs the applicable data-collection steps of a run concurrently.
// A step failure never aborts sibling steps.
type StepExecutor struct {
	collectors map[models.StepName]drepo.Collector
	metrics    drepo.Metrics
	log        *logger.Logger
}

// NewStepExecutor indexes collectors by step name.
func NewStepExecutor(collectors []drepo.Collector, metrics drepo.Metrics, log *logger.Logger) *StepExecutor {
	idx := make(map[models.StepName]drepo.Collector, len(collectors))
	for _, c := range collectors {
		idx[c.Step()] = c
	}
	return &StepExecutor{collectors: idx, metrics: metrics, log: log}
}

// Run executes every applicable step and returns the assembled collected data.
// It returns once the step phase is terminal: all steps ok or error. A zero
// step set is immediately terminal.
func (e *StepExecutor) Run(ctx context.Context, run *models.Run, sink EventSink) *models.CollectedData {
	data := &models.CollectedData{Subject: run.Subject}

	var wg sync.WaitGroup
	var mu sync.Mutex // guards run mutations and data assembly

	for _, name := range models.StepsForMode(run.Mode) {
		step := run.Steps[name]
		collector, ok := e.collectors[name]
		if !ok {
			// No collector registered for this mode's step: wide no-op, succeeds empty.
			mu.Lock()
			step.Status = models.StatusOK
			mu.Unlock()
			_ = sink.Emit(models.Event{Kind: models.EventStepStart, Time: time.Now().UTC(), Name: string(name)})
			_ = sink.Emit(models.Event{Kind: models.EventStepComplete, Time: time.Now().UTC(), Name: string(name)})
			continue
		}

		wg.Add(1)
		go func(name models.StepName, step *models.Step, collector drepo.Collector) {
			defer wg.Done()

			mu.Lock()
			step.Status = models.StatusRunning
			mu.Unlock()
			if err := sink.Emit(models.Event{Kind: models.EventStepStart, Time: time.Now().UTC(), Name: string(name)}); err != nil {
				return
			}

			start := time.Now()
			payload, err := collector.Collect(ctx, run.Subject)
			e.metrics.RecordStepDuration(string(name), time.Since(start).Seconds())

			if ctx.Err() != nil {
				// Run cancelled while collecting: discard the result, emit nothing.
				return
			}
			if err != nil {
				mu.Lock()
				step.Status = models.StatusError
				step.Error = err.Error()
				run.Errors = append(run.Errors, string(name)+": "+err.Error())
				mu.Unlock()
				e.metrics.RecordError("step_" + string(name))
				e.log.Warn("step failed",
					logger.String("subject", run.Subject),
					logger.String("step", string(name)),
					logger.Error(err))
				_ = sink.Emit(models.Event{Kind: models.EventStepError, Time: time.Now().UTC(), Name: string(name), Error: err.Error()})
				return
			}

			projection := e.assemble(&mu, data, name, payload)
			mu.Lock()
			step.Status = models.StatusOK
			step.Payload = projection
			mu.Unlock()
			_ = sink.Emit(models.Event{Kind: models.EventStepComplete, Time: time.Now().UTC(), Name: string(name), Payload: projection})
		}(name, step, collector)
	}

	wg.Wait()
	return data
}

// assemble stores the typed payload into the collected data set and returns
// the compact projection emitted on the stream.
func (e *StepExecutor) assemble(mu *sync.Mutex, data *models.CollectedData, name models.StepName, payload interface{}) interface{} {
	mu.Lock()
	defer mu.Unlock()

	switch v := payload.(type) {
	case []models.Candle:
		data.Candles = v
		last := 0.0
		if len(v) > 0 {
			last = v[len(v)-1].Close
		}
		return map[string]interface{}{"bars": len(v), "last_close": last}
	case *models.IndicatorSet:
		data.Indicators = v
		return v
	case *models.Fundamentals:
		data.Fundamentals = v
		return v
	case []models.NewsArticle:
		data.News = v
		return map[string]interface{}{"articles": len(v)}
	case []models.StatementRow:
		data.Statements = v
		return map[string]interface{}{"rows": len(v)}
	case *models.Quote:
		data.Quote = v
		return v
	default:
		return map[string]interface{}{"collected": true}
	}
}
