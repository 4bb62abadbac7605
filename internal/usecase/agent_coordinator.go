package usecase

import (
	"context"
	"sync"
	"time"

	"TradeScope/internal/domain/models"
	drepo "TradeScope/internal/domain/repository"
	"TradeScope/pkg/logger"
)

// AgentCoordinator launches the mode's analysis tasks once the step phase is
// terminal. An agent whose required step inputs are missing is skipped: never
// created, never emitted, never counted as an error.
type AgentCoordinator struct {
	agents  map[models.AgentName]drepo.Agent
	metrics drepo.Metrics
	log     *logger.Logger
}

// NewAgentCoordinator indexes agents by name.
func NewAgentCoordinator(agents []drepo.Agent, metrics drepo.Metrics, log *logger.Logger) *AgentCoordinator {
	idx := make(map[models.AgentName]drepo.Agent, len(agents))
	for _, a := range agents {
		idx[a.Name()] = a
	}
	return &AgentCoordinator{agents: idx, metrics: metrics, log: log}
}

// Run launches every applicable, non-skipped agent concurrently and returns
// once all launched agents are terminal. One agent's failure never blocks
// or delays the others.
func (c *AgentCoordinator) Run(ctx context.Context, run *models.Run, data *models.CollectedData, sink EventSink) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, name := range models.AgentsForMode(run.Mode) {
		agent, ok := c.agents[name]
		if !ok {
			continue
		}
		if !inputsSatisfied(run, name) {
			c.log.Debug("agent skipped: required step inputs missing",
				logger.String("subject", run.Subject),
				logger.String("agent", string(name)))
			continue
		}

		task := &models.AgentTask{Name: name, Status: models.StatusPending}
		mu.Lock()
		run.Agents[name] = task
		mu.Unlock()

		wg.Add(1)
		go func(name models.AgentName, agent drepo.Agent, task *models.AgentTask) {
			defer wg.Done()

			mu.Lock()
			task.Status = models.StatusRunning
			mu.Unlock()
			if err := sink.Emit(models.Event{Kind: models.EventAgentStart, Time: time.Now().UTC(), Name: string(name)}); err != nil {
				return
			}

			start := time.Now()
			report, err := agent.Analyze(ctx, data)
			c.metrics.RecordAgentDuration(string(name), time.Since(start).Seconds())

			if ctx.Err() != nil {
				// Run cancelled mid-analysis: discard the report, emit nothing.
				return
			}
			if err != nil {
				mu.Lock()
				task.Status = models.StatusError
				task.Error = err.Error()
				run.Errors = append(run.Errors, string(name)+": "+err.Error())
				mu.Unlock()
				c.metrics.RecordError("agent_" + string(name))
				c.log.Warn("agent failed",
					logger.String("subject", run.Subject),
					logger.String("agent", string(name)),
					logger.Error(err))
				_ = sink.Emit(models.Event{Kind: models.EventAgentError, Time: time.Now().UTC(), Name: string(name), Error: err.Error()})
				return
			}

			mu.Lock()
			task.Status = models.StatusOK
			task.Report = report
			mu.Unlock()
			_ = sink.Emit(models.Event{Kind: models.EventAgentComplete, Time: time.Now().UTC(), Name: string(name), Report: report})
		}(name, agent, task)
	}

	wg.Wait()
}

// inputsSatisfied reports whether every step the agent requires completed ok.
func inputsSatisfied(run *models.Run, agent models.AgentName) bool {
	for _, step := range models.AgentInputs(agent) {
		if !run.StepOK(step) {
			return false
		}
	}
	return true
}
