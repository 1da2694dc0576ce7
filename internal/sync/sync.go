package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wesm/stack-digest/internal/api"
	"github.com/wesm/stack-digest/internal/metrics"
	"github.com/wesm/stack-digest/internal/models"
)

// Item statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Failure reasons
const (
	ReasonThrottled = "throttled"
	ReasonUpstream  = "upstream"
	ReasonPayload   = "payload"
	ReasonStorage   = "storage"
)

// progressInterval limits how often progress is logged
const progressInterval = 5 * time.Second

// Source fetches raw questions and answers from the upstream
type Source interface {
	FetchQuestions(ctx context.Context, total int) ([]api.RawQuestion, error)
	FetchAnswers(ctx context.Context, questionID int64) ([]api.RawAnswer, error)
}

// Store persists records and run bookkeeping
type Store interface {
	SaveRecord(ctx context.Context, rec *models.Record) error
	CreateRun(ctx context.Context, run *models.IngestRun) error
	FinishRun(ctx context.Context, run *models.IngestRun) error
}

// ItemResult is the outcome of ingesting one question
type ItemResult struct {
	QuestionID int64
	Status     string
	Reason     string
	Err        error
}

// RunSummary describes a finished ingestion run
type RunSummary struct {
	RunID     string
	Requested int
	Fetched   int
	Succeeded int
	Failed    int
	Status    string
	Duration  time.Duration
	Items     []ItemResult
}

// Failures returns the failed items of the run
func (s *RunSummary) Failures() []ItemResult {
	var failed []ItemResult
	for _, item := range s.Items {
		if item.Status == StatusFailed {
			failed = append(failed, item)
		}
	}
	return failed
}

// Syncer ingests questions from the upstream into the local database
type Syncer struct {
	source  Source
	store   Store
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// New creates a new syncer
func New(source Source, store Store, m *metrics.Metrics, log zerolog.Logger) *Syncer {
	return &Syncer{
		source:  source,
		store:   store,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Run ingests up to total questions under a fresh run id
func (s *Syncer) Run(ctx context.Context, total int) (*RunSummary, error) {
	return s.RunWithID(ctx, uuid.New(), total)
}

// RunWithID ingests up to total questions, one at a time. A failing question
// is recorded and skipped. When ctx is cancelled the run is marked cancelled
// and the context error is returned along with the partial summary.
func (s *Syncer) RunWithID(ctx context.Context, id uuid.UUID, total int) (*RunSummary, error) {
	started := s.now()
	run := &models.IngestRun{
		ID:        id.String(),
		StartedAt: started.UTC(),
		Requested: total,
		Status:    models.RunRunning,
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	log := s.log.With().Str("run_id", run.ID).Logger()
	log.Info().Int("requested", total).Msg("Starting ingestion")

	summary := &RunSummary{RunID: run.ID, Requested: total}

	questions, err := s.source.FetchQuestions(ctx, total)
	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Question fetch ended early")
	}
	summary.Fetched = len(questions)
	log.Info().Int("fetched", len(questions)).Msg("Fetched questions")

	lastProgress := s.now()
	for i := range questions {
		if ctx.Err() != nil {
			break
		}

		result := s.ingest(ctx, &questions[i])
		if result == nil {
			// cancelled mid-item; nothing was written
			break
		}

		summary.Items = append(summary.Items, *result)
		s.metrics.RecordItem(result.Status)
		if result.Status == StatusSucceeded {
			summary.Succeeded++
		} else {
			summary.Failed++
			log.Error().
				Err(result.Err).
				Int64("question_id", result.QuestionID).
				Str("reason", result.Reason).
				Msg("Failed to ingest question")
		}

		current := i + 1
		if current == len(questions) || s.now().Sub(lastProgress) >= progressInterval {
			log.Info().
				Int("processed", current).
				Int("total", len(questions)).
				Float64("percent", float64(current)/float64(len(questions))*100.0).
				Msg("Progress")
			lastProgress = s.now()
		}
	}

	summary.Status = models.RunCompleted
	if ctx.Err() != nil {
		summary.Status = models.RunCancelled
		run.Error = ctx.Err().Error()
	} else if summary.Failed > 0 {
		run.Error = fmt.Sprintf("%d of %d questions failed", summary.Failed, summary.Fetched)
	}

	finished := s.now()
	summary.Duration = finished.Sub(started)
	run.FinishedAt = timePtr(finished.UTC())
	run.Fetched = summary.Fetched
	run.Succeeded = summary.Succeeded
	run.Failed = summary.Failed
	run.Status = summary.Status

	// The run row is closed even when ctx is already cancelled
	if err := s.store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		log.Error().Err(err).Msg("Failed to record run result")
	}
	s.metrics.RecordRun(summary.Status)

	log.Info().
		Str("status", summary.Status).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Ingestion finished")

	if summary.Status == models.RunCancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

// ingest fetches the answers of one question, normalizes it and saves it as
// a unit. It returns nil when ctx was cancelled before anything was written.
func (s *Syncer) ingest(ctx context.Context, q *api.RawQuestion) *ItemResult {
	result := &ItemResult{QuestionID: q.QuestionID, Status: StatusFailed}

	answers := q.Answers
	if answers == nil {
		var err error
		answers, err = s.source.FetchAnswers(ctx, q.QuestionID)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			result.Reason = classify(err)
			result.Err = err
			return result
		}
	}

	rec := api.Normalize(q, answers)
	if err := s.store.SaveRecord(ctx, rec); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		result.Reason = ReasonStorage
		result.Err = fmt.Errorf("failed to save question %d: %w", q.QuestionID, err)
		return result
	}

	result.Status = StatusSucceeded
	return result
}

// classify maps an upstream error to a failure reason
func classify(err error) string {
	switch {
	case errors.Is(err, api.ErrRetriesExhausted), api.IsThrottled(err):
		return ReasonThrottled
	case api.IsPayload(err):
		return ReasonPayload
	default:
		return ReasonUpstream
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
