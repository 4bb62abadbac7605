package repository

import (
	"context"
	"errors"

	"TradeScope/internal/domain/models"
)

// ErrNotFound is returned by ResultStore.Get when no entry exists for the subject.
var ErrNotFound = errors.New("repository: not found")

// Collector is one opaque asynchronous data-collection operation. Implementations
// (HTTP, websocket) live in internal/collect; the orchestrator only sees the
// step name and the typed payload or error.
type Collector interface {
	Step() models.StepName
	Collect(ctx context.Context, subject string) (interface{}, error)
}

// Agent is one opaque asynchronous analysis task. Implementations consume
// collected data and return an immutable report or fail.
type Agent interface {
	Name() models.AgentName
	Analyze(ctx context.Context, data *models.CollectedData) (*models.AgentReport, error)
}

// ResultStore is the durable cache of completed runs, keyed by subject and date.
// Put overwrites (last writer wins); Get returns the most recent entry.
type ResultStore interface {
	Put(ctx context.Context, entry *models.CacheEntry) error
	Get(ctx context.Context, subject string) (*models.CacheEntry, error)
}

// RunArchive records terminal runs for offline analytics.
type RunArchive interface {
	Init(ctx context.Context) error
	Record(ctx context.Context, rec *RunRecord) error
	Close() error
}

// RunRecord is one archived run row.
type RunRecord struct {
	RunID      string
	Subject    string
	Mode       string
	Date       string
	Signal     string
	Confidence float64
	ErrorCount int
	DurationMS int64
}

// DecisionPublisher notifies downstream consumers of completed decisions.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, d *models.Decision) error
	Close() error
}

// Metrics abstracts pipeline instrumentation.
type Metrics interface {
	RecordStepDuration(step string, seconds float64)
	RecordAgentDuration(agent string, seconds float64)
	RecordDecision(signal string)
	RecordError(kind string)
	RecordCacheHit(hit bool)
}
