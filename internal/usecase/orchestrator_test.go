package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeScope/internal/domain/models"
	drepo "TradeScope/internal/domain/repository"
	"TradeScope/pkg/logger"
)

// --- fakes ---

type memSink struct {
	mu     sync.Mutex
	events []models.Event
	fail   bool
}

func (s *memSink) Emit(ev models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("observer gone")
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *memSink) all() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Event(nil), s.events...)
}

func (s *memSink) kinds() []models.EventKind {
	var out []models.EventKind
	for _, ev := range s.all() {
		out = append(out, ev.Kind)
	}
	return out
}

func (s *memSink) has(kind models.EventKind) bool {
	for _, ev := range s.all() {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

type fakeCollector struct {
	step    models.StepName
	payload interface{}
	err     error

	// blockFirst makes the first Collect call wait for cancellation.
	blockFirst bool
	calls      atomic.Int32
}

func (c *fakeCollector) Step() models.StepName { return c.step }

func (c *fakeCollector) Collect(ctx context.Context, subject string) (interface{}, error) {
	if c.calls.Add(1) == 1 && c.blockFirst {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.payload, nil
}

type fakeAgent struct {
	name   models.AgentName
	report *models.AgentReport
	err    error
}

func (a *fakeAgent) Name() models.AgentName { return a.name }

func (a *fakeAgent) Analyze(ctx context.Context, data *models.CollectedData) (*models.AgentReport, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.report, nil
}

type fakeResultStore struct {
	mu      sync.Mutex
	entries []*models.CacheEntry
}

func (s *fakeResultStore) Put(ctx context.Context, entry *models.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeResultStore) Get(ctx context.Context, subject string) (*models.CacheEntry, error) {
	return nil, errors.New("not implemented")
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []*models.Run
}

func (r *fakeRecorder) RunCompleted(run *models.Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
}

type nopMetrics struct{}

func (nopMetrics) RecordStepDuration(string, float64)  {}
func (nopMetrics) RecordAgentDuration(string, float64) {}
func (nopMetrics) RecordDecision(string)               {}
func (nopMetrics) RecordError(string)                  {}
func (nopMetrics) RecordCacheHit(bool)                 {}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func quickCollectors() []*fakeCollector {
	return []*fakeCollector{
		{step: models.StepPriceHistory, payload: []models.Candle{
			{Close: 99}, {Close: 100},
		}},
		{step: models.StepTechnicals, payload: &models.IndicatorSet{SMA20: 95, RSI14: 55}},
	}
}

func quickAgents() []*fakeAgent {
	return []*fakeAgent{
		{name: models.AgentTechnical, report: &models.AgentReport{
			Agent: models.AgentTechnical, Lean: models.LeanBullish, Confidence: 0.8, Summary: "trend up",
			Technical: &models.TechnicalFindings{LastClose: 100, Trend: "up", RSI: 55, AboveSMA20: true},
		}},
		{name: models.AgentRisk, report: &models.AgentReport{
			Agent: models.AgentRisk, Lean: models.LeanBullish, Confidence: 0.6, Summary: "sizable",
			Risk: &models.RiskFindings{Volatility: models.VolatilityNormal, SuggestedStop: 2, SuggestedTarget: 4},
		}},
	}
}

type orchestratorParts struct {
	orch     *Orchestrator
	store    *fakeResultStore
	recorder *fakeRecorder
}

func newTestOrchestrator(t *testing.T, collectors []*fakeCollector, agents []*fakeAgent) orchestratorParts {
	t.Helper()
	log := newTestLogger(t)

	cs := make([]drepo.Collector, 0, len(collectors))
	for _, c := range collectors {
		cs = append(cs, c)
	}
	as := make([]drepo.Agent, 0, len(agents))
	for _, a := range agents {
		as = append(as, a)
	}

	steps := NewStepExecutor(cs, nopMetrics{}, log)
	coord := NewAgentCoordinator(as, nopMetrics{}, log)

	store := &fakeResultStore{}
	recorder := &fakeRecorder{}
	orch := NewOrchestrator(steps, coord, newTestSynthesizer(t), store, recorder, nopMetrics{}, log)
	return orchestratorParts{orch: orch, store: store, recorder: recorder}
}

// --- tests ---

func TestExecuteQuickModeFullFlow(t *testing.T) {
	p := newTestOrchestrator(t, quickCollectors(), quickAgents())
	sink := &memSink{}

	run := p.orch.Execute(context.Background(), "127.0.0.1", "AAPL", models.ModeQuick, sink)

	require.True(t, run.Done)
	require.NotNil(t, run.Decision)
	assert.Equal(t, models.SignalBuy, run.Decision.Signal)

	events := sink.all()
	require.NotEmpty(t, events)
	assert.Equal(t, models.EventPlan, events[0].Kind)
	assert.Equal(t, models.EventDone, events[len(events)-1].Kind)
	assert.True(t, sink.has(models.EventDecisionComplete))

	assertStartBeforeTerminal(t, events)

	// Terminal run is archived and the decision cached once.
	p.recorder.mu.Lock()
	assert.Len(t, p.recorder.runs, 1)
	p.recorder.mu.Unlock()
	p.store.mu.Lock()
	require.Len(t, p.store.entries, 1)
	assert.Equal(t, "AAPL", p.store.entries[0].Subject)
	assert.NotNil(t, p.store.entries[0].Decision)
	p.store.mu.Unlock()
}

func TestExecuteDataModeEmitsNoDecision(t *testing.T) {
	collectors := quickCollectors()
	p := newTestOrchestrator(t, collectors, quickAgents())
	sink := &memSink{}

	run := p.orch.Execute(context.Background(), "127.0.0.1", "AAPL", models.ModeData, sink)

	require.True(t, run.Done)
	assert.Nil(t, run.Decision)

	events := sink.all()
	require.NotEmpty(t, events)
	require.NotNil(t, events[0].Plan)
	assert.False(t, events[0].Plan.HasDecision)
	assert.Empty(t, events[0].Plan.Agents)

	for _, ev := range events {
		switch ev.Kind {
		case models.EventAgentStart, models.EventAgentComplete, models.EventAgentError,
			models.EventDecisionComplete, models.EventDecisionError:
			t.Fatalf("unexpected %s event in data mode", ev.Kind)
		}
	}

	// Nothing to cache without a decision.
	p.store.mu.Lock()
	assert.Empty(t, p.store.entries)
	p.store.mu.Unlock()
}

func TestExecuteStepFailureSkipsDependentAgents(t *testing.T) {
	collectors := quickCollectors()
	collectors[0].err = errors.New("upstream 502")
	p := newTestOrchestrator(t, collectors, quickAgents())
	sink := &memSink{}

	run := p.orch.Execute(context.Background(), "127.0.0.1", "AAPL", models.ModeQuick, sink)

	require.True(t, run.Done)
	assert.Contains(t, run.Errors, "price_history: upstream 502")
	assert.True(t, sink.has(models.EventStepError))

	// Both quick-mode agents require price history; neither may start.
	assert.False(t, sink.has(models.EventAgentStart))
	assert.Empty(t, run.Agents)

	// Agents were planned, so synthesis still runs on zero reports.
	assert.True(t, sink.has(models.EventDecisionComplete))
	require.NotNil(t, run.Decision)
}

func TestExecuteUnregisteredStepIsNoop(t *testing.T) {
	// Data mode plans all six steps; only two have collectors.
	p := newTestOrchestrator(t, quickCollectors(), nil)
	sink := &memSink{}

	run := p.orch.Execute(context.Background(), "127.0.0.1", "AAPL", models.ModeData, sink)

	require.True(t, run.Done)
	assert.Empty(t, run.Errors)
	for name, step := range run.Steps {
		assert.Equal(t, models.StatusOK, step.Status, string(name))
	}
	assertStartBeforeTerminal(t, sink.all())
}

func TestExecuteStopsWhenObserverGone(t *testing.T) {
	p := newTestOrchestrator(t, quickCollectors(), quickAgents())
	sink := &memSink{fail: true}

	run := p.orch.Execute(context.Background(), "127.0.0.1", "AAPL", models.ModeQuick, sink)

	assert.False(t, run.Done)
	p.recorder.mu.Lock()
	assert.Empty(t, p.recorder.runs)
	p.recorder.mu.Unlock()
}

func TestExecuteNewRunCancelsPrior(t *testing.T) {
	collectors := quickCollectors()
	collectors[0].blockFirst = true
	p := newTestOrchestrator(t, collectors, quickAgents())

	sink1 := &memSink{}
	first := make(chan *models.Run, 1)
	go func() {
		first <- p.orch.Execute(context.Background(), "127.0.0.1", "AAPL", models.ModeQuick, sink1)
	}()

	// Wait until the first run is inside its blocking collector.
	require.Eventually(t, func() bool {
		return collectors[0].calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	sink2 := &memSink{}
	run2 := p.orch.Execute(context.Background(), "127.0.0.1", "AAPL", models.ModeQuick, sink2)
	require.True(t, run2.Done)
	assert.True(t, sink2.has(models.EventDone))

	select {
	case run1 := <-first:
		assert.False(t, run1.Done)
		assert.False(t, sink1.has(models.EventDone))
	case <-time.After(2 * time.Second):
		t.Fatal("first run never returned after cancellation")
	}
}

func TestExecuteCancelledRunLeavesNoTrace(t *testing.T) {
	collectors := quickCollectors()
	collectors[0].blockFirst = true
	p := newTestOrchestrator(t, collectors, quickAgents())

	sink1 := &memSink{}
	first := make(chan *models.Run, 1)
	go func() {
		first <- p.orch.Execute(context.Background(), "127.0.0.1", "AAPL", models.ModeQuick, sink1)
	}()

	require.Eventually(t, func() bool {
		return collectors[0].calls.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	sink2 := &memSink{}
	run2 := p.orch.Execute(context.Background(), "127.0.0.1", "AAPL", models.ModeQuick, sink2)
	require.True(t, run2.Done)

	var run1 *models.Run
	select {
	case run1 = <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("first run never returned after cancellation")
	}

	// The superseded run's collector returned the cancellation error; that is
	// not a collection failure and nothing about it reaches the old stream.
	assert.Empty(t, run1.Errors)
	for _, ev := range sink1.all() {
		switch ev.Kind {
		case models.EventStepError, models.EventAgentError, models.EventDecisionError,
			models.EventDecisionComplete, models.EventDone:
			t.Fatalf("unexpected %s event on superseded stream", ev.Kind)
		}
	}
}

// assertStartBeforeTerminal verifies per-entity ordering: every step and agent
// start precedes that entity's terminal event, whatever the interleaving.
func assertStartBeforeTerminal(t *testing.T, events []models.Event) {
	t.Helper()
	started := map[string]bool{}
	for _, ev := range events {
		switch ev.Kind {
		case models.EventStepStart, models.EventAgentStart:
			started[string(ev.Kind)+":"+ev.Name] = true
		case models.EventStepComplete, models.EventStepError:
			if !started["step_start:"+ev.Name] {
				t.Fatalf("step %s terminal before start", ev.Name)
			}
		case models.EventAgentComplete, models.EventAgentError:
			if !started["agent_start:"+ev.Name] {
				t.Fatalf("agent %s terminal before start", ev.Name)
			}
		}
	}
}
