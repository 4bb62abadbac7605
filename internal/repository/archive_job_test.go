package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradeScope/internal/domain/models"
	domrepo "TradeScope/internal/domain/repository"
	"TradeScope/pkg/logger"
)

type fakeQueue struct {
	msgType string
	payload interface{}
	err     error
}

func (q *fakeQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.msgType = msgType
	q.payload = payload
	return q.err
}

type fakeArchive struct {
	records []*domrepo.RunRecord
	err     error
}

func (a *fakeArchive) Init(ctx context.Context) error { return nil }
func (a *fakeArchive) Close() error                   { return nil }
func (a *fakeArchive) Record(ctx context.Context, rec *domrepo.RunRecord) error {
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, rec)
	return nil
}

type fakePublisher struct {
	decisions []*models.Decision
	err       error
}

func (p *fakePublisher) PublishDecision(ctx context.Context, d *models.Decision) error {
	if p.err != nil {
		return p.err
	}
	p.decisions = append(p.decisions, d)
	return nil
}
func (p *fakePublisher) Close() error { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func terminalRun(decision *models.Decision) *models.Run {
	run := models.NewRun("run-1", "AAPL", models.ModeQuick)
	run.StartedAt = time.Now().Add(-2 * time.Second)
	run.Errors = []string{"news: upstream 500"}
	run.Decision = decision
	run.Done = true
	return run
}

func TestQueuedRunRecorderWithDecision(t *testing.T) {
	q := &fakeQueue{}
	rec := NewQueuedRunRecorder(q, testLogger(t))

	rec.RunCompleted(terminalRun(&models.Decision{Subject: "AAPL", Signal: models.SignalBuy, Confidence: 0.72}))

	assert.Equal(t, RunCompletedType, q.msgType)
	p, ok := q.payload.(RunCompletedPayload)
	require.True(t, ok)
	assert.Equal(t, "run-1", p.Record.RunID)
	assert.Equal(t, "AAPL", p.Record.Subject)
	assert.Equal(t, "quick", p.Record.Mode)
	assert.Equal(t, "BUY", p.Record.Signal)
	assert.Equal(t, 0.72, p.Record.Confidence)
	assert.Equal(t, 1, p.Record.ErrorCount)
	assert.GreaterOrEqual(t, p.Record.DurationMS, int64(2000))
	require.NotNil(t, p.Decision)
}

func TestQueuedRunRecorderWithoutDecision(t *testing.T) {
	q := &fakeQueue{}
	rec := NewQueuedRunRecorder(q, testLogger(t))

	rec.RunCompleted(terminalRun(nil))

	p := q.payload.(RunCompletedPayload)
	assert.Equal(t, "none", p.Record.Signal)
	assert.Zero(t, p.Record.Confidence)
	assert.Nil(t, p.Decision)
}

func TestQueuedRunRecorderSwallowsEnqueueFailure(t *testing.T) {
	q := &fakeQueue{err: errors.New("queue down")}
	rec := NewQueuedRunRecorder(q, testLogger(t))

	// Must not panic or propagate; archiving never blocks the stream.
	rec.RunCompleted(terminalRun(nil))
}

func TestArchiveJobRecordsAndPublishes(t *testing.T) {
	archive := &fakeArchive{}
	publisher := &fakePublisher{}
	job := NewArchiveJob(archive, publisher, testLogger(t))

	payload := RunCompletedPayload{
		Record:   domrepo.RunRecord{RunID: "run-1", Subject: "AAPL", Signal: "BUY"},
		Decision: &models.Decision{Subject: "AAPL", Signal: models.SignalBuy},
	}
	require.NoError(t, job.Handle(context.Background(), payload))

	require.Len(t, archive.records, 1)
	assert.Equal(t, "run-1", archive.records[0].RunID)
	require.Len(t, publisher.decisions, 1)
}

func TestArchiveJobRetriesOnArchiveFailure(t *testing.T) {
	archive := &fakeArchive{err: errors.New("clickhouse down")}
	job := NewArchiveJob(archive, &fakePublisher{}, testLogger(t))

	err := job.Handle(context.Background(), RunCompletedPayload{
		Record: domrepo.RunRecord{RunID: "run-1"},
	})
	assert.Error(t, err)
}

func TestArchiveJobPublishFailureIsNotRetried(t *testing.T) {
	archive := &fakeArchive{}
	publisher := &fakePublisher{err: errors.New("kafka down")}
	job := NewArchiveJob(archive, publisher, testLogger(t))

	// The archive row is written; the job must not be retried for the publish.
	err := job.Handle(context.Background(), RunCompletedPayload{
		Record:   domrepo.RunRecord{RunID: "run-1"},
		Decision: &models.Decision{Subject: "AAPL", Signal: models.SignalHold},
	})
	assert.NoError(t, err)
	assert.Len(t, archive.records, 1)
}

func TestArchiveJobDecodesQueuedMap(t *testing.T) {
	archive := &fakeArchive{}
	job := NewArchiveJob(archive, &fakePublisher{}, testLogger(t))

	// Payloads arrive as generic maps after the queue round trip.
	payload := map[string]interface{}{
		"record": map[string]interface{}{
			"RunID":   "run-2",
			"Subject": "MSFT",
			"Signal":  "HOLD",
		},
	}
	require.NoError(t, job.Handle(context.Background(), payload))
	require.Len(t, archive.records, 1)
	assert.Equal(t, "run-2", archive.records[0].RunID)
}
