package repository

import (
	"context"
	"time"

	"TradeScope/internal/domain/models"
	domrepo "TradeScope/internal/domain/repository"
	"TradeScope/pkg/logger"
	"TradeScope/pkg/queue"
	"TradeScope/pkg/util"
)

// RunCompletedType is the queue message type for terminal runs.
const RunCompletedType = "run.completed"

// RunCompletedPayload is the queued view of a terminal run. The decision rides
// along so the consumer can archive and publish without re-reading state.
type RunCompletedPayload struct {
	Record   domrepo.RunRecord `json:"record"`
	Decision *models.Decision  `json:"decision,omitempty"`
}

// QueuedRunRecorder hands terminal runs to the background queue so archiving
// never blocks the event stream.
type QueuedRunRecorder struct {
	queue queue.QueueService
	log   *logger.Logger
}

func NewQueuedRunRecorder(q queue.QueueService, log *logger.Logger) *QueuedRunRecorder {
	return &QueuedRunRecorder{queue: q, log: log}
}

func (r *QueuedRunRecorder) RunCompleted(run *models.Run) {
	payload := RunCompletedPayload{
		Record: domrepo.RunRecord{
			RunID:      run.ID,
			Subject:    run.Subject,
			Mode:       string(run.Mode),
			Date:       util.RunDate(run.StartedAt),
			Signal:     "none",
			ErrorCount: len(run.Errors),
			DurationMS: time.Since(run.StartedAt).Milliseconds(),
		},
		Decision: run.Decision,
	}
	if run.Decision != nil {
		payload.Record.Signal = string(run.Decision.Signal)
		payload.Record.Confidence = run.Decision.Confidence
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.queue.PublishMessage(ctx, RunCompletedType, payload); err != nil {
		r.log.Warn("run archive enqueue failed",
			logger.String("run_id", run.ID),
			logger.Error(err))
	}
}

// ArchiveJob consumes terminal runs off the queue, writes the archive row and
// publishes the decision downstream.
type ArchiveJob struct {
	archive   domrepo.RunArchive
	publisher domrepo.DecisionPublisher
	log       *logger.Logger
}

func NewArchiveJob(archive domrepo.RunArchive, publisher domrepo.DecisionPublisher, log *logger.Logger) queue.Job {
	return &ArchiveJob{archive: archive, publisher: publisher, log: log}
}

func (j *ArchiveJob) Name() string { return "run-archive" }

func (j *ArchiveJob) Type() string { return RunCompletedType }

func (j *ArchiveJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RunCompletedPayload](payload)
	if err != nil {
		return err
	}

	if err := j.archive.Record(ctx, &p.Record); err != nil {
		return err
	}

	if p.Decision != nil && j.publisher != nil {
		if err := j.publisher.PublishDecision(ctx, p.Decision); err != nil {
			// archive row is already written, retrying the job would duplicate it
			j.log.Warn("decision publish failed",
				logger.String("run_id", p.Record.RunID),
				logger.Error(err))
		}
	}
	return nil
}
