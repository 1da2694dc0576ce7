package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wesm/stack-digest/internal/metrics"
)

// FetcherOptions tunes pagination and answer retries
type FetcherOptions struct {
	PageSize       int
	PageDelay      time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultFetcherOptions mirrors the upstream courtesy limits
func DefaultFetcherOptions() FetcherOptions {
	return FetcherOptions{
		PageSize:       DefaultPageSize,
		PageDelay:      time.Second,
		MaxRetries:     5,
		InitialBackoff: 2 * time.Second,
	}
}

// Fetcher pulls questions page by page and answers with throttling retries
type Fetcher struct {
	client    *Client
	pageSize  int
	pageDelay time.Duration
	retry     Retry
	sleep     SleepFunc
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewFetcher creates a fetcher on top of client
func NewFetcher(client *Client, opts FetcherOptions, m *metrics.Metrics, log zerolog.Logger) *Fetcher {
	if opts.PageSize <= 0 || opts.PageSize > DefaultPageSize {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	f := &Fetcher{
		client:    client,
		pageSize:  opts.PageSize,
		pageDelay: opts.PageDelay,
		sleep:     SleepContext,
		metrics:   m,
		log:       log,
	}
	f.retry = Retry{
		MaxAttempts: opts.MaxRetries,
		InitialWait: opts.InitialBackoff,
		Sleep:       func(ctx context.Context, d time.Duration) error { return f.sleep(ctx, d) },
	}
	return f
}

// SetSleep replaces the wait used for page delays and backoff
func (f *Fetcher) SetSleep(sleep SleepFunc) {
	f.sleep = sleep
}

// FetchQuestions fetches up to total questions. Pages that fail are logged
// and skipped. On cancellation the questions gathered so far are returned
// together with the context error.
func (f *Fetcher) FetchQuestions(ctx context.Context, total int) ([]RawQuestion, error) {
	if total <= 0 {
		return nil, nil
	}

	pageCount := (total + f.pageSize - 1) / f.pageSize
	questions := make([]RawQuestion, 0, total)

	for page := 1; page <= pageCount; page++ {
		delay := f.pageDelay

		result, err := f.client.GetQuestionsPage(ctx, page, f.pageSize)
		if err != nil {
			if ctx.Err() != nil {
				return truncate(questions, total), ctx.Err()
			}
			f.metrics.RecordPage("error")
			f.log.Error().Err(err).Int("page", page).Msg("Error fetching questions page, skipping")

			var rl *RateLimitError
			if errors.As(err, &rl) && rl.Backoff > delay {
				delay = rl.Backoff
			}
		} else {
			f.metrics.RecordPage("ok")
			questions = append(questions, result.Items...)
			f.log.Debug().
				Int("page", page).
				Int("items", len(result.Items)).
				Int("quota_remaining", result.QuotaRemaining).
				Msg("Fetched questions page")

			if result.Backoff > delay {
				delay = result.Backoff
			}
			if !result.HasMore {
				f.log.Info().Int("page", page).Msg("Upstream reports no more questions")
				break
			}
		}

		if page < pageCount {
			if err := f.sleep(ctx, delay); err != nil {
				return truncate(questions, total), err
			}
		}
	}

	return truncate(questions, total), nil
}

func truncate(questions []RawQuestion, total int) []RawQuestion {
	if len(questions) > total {
		return questions[:total]
	}
	return questions
}

// FetchAnswers fetches the answers of one question, backing off while the
// upstream throttles.
func (f *Fetcher) FetchAnswers(ctx context.Context, questionID int64) ([]RawAnswer, error) {
	var answers []RawAnswer

	retry := f.retry
	retry.OnThrottle = func(attempt int, wait time.Duration, err error) {
		f.metrics.RecordRetry()
		f.log.Warn().
			Int64("question_id", questionID).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("Too many requests, retrying")
	}

	result := retry.Do(ctx, func(ctx context.Context) error {
		items, err := f.client.GetAnswers(ctx, questionID)
		if err != nil {
			return err
		}
		answers = items
		return nil
	})

	switch result.Outcome {
	case OutcomeSucceeded:
		return answers, nil
	case OutcomeExhausted:
		f.log.Error().
			Int64("question_id", questionID).
			Int("attempts", result.Attempts).
			Msg("Max retry attempts reached")
		return nil, fmt.Errorf("answers for question %d: %w after %d attempts: %w",
			questionID, ErrRetriesExhausted, result.Attempts, result.Err)
	case OutcomeCancelled:
		return nil, result.Err
	default:
		return nil, fmt.Errorf("failed to fetch answers for question %d: %w", questionID, result.Err)
	}
}
