package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wesm/stack-digest/internal/models"
)

// ErrQuestionNotFound is returned when answers are requested for a question
// that was never ingested
var ErrQuestionNotFound = errors.New("question not found")

// Store is the read side of the database used by Service
type Store interface {
	ListQuestions(ctx context.Context, minReputation *int64) ([]models.QuestionStats, error)
	ListAnswers(ctx context.Context, questionID *int64) ([]models.AnswerStats, error)
	QuestionExists(ctx context.Context, questionID int64) (bool, error)
}

// Service answers analytics queries against the store
type Service struct {
	store Store
	log   zerolog.Logger
}

// NewService creates a new analytics service
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// TopTags ranks tags by the number of questions carrying them
func (s *Service) TopTags(ctx context.Context, topN int) ([]models.TagFrequency, error) {
	questions, err := s.store.ListQuestions(ctx, nil)
	if err != nil {
		return nil, err
	}
	return RankTagFrequency(questions, topN), nil
}

// TagFrequency counts the questions carrying one tag
func (s *Service) TagFrequency(ctx context.Context, name string) (models.TagFrequency, error) {
	questions, err := s.store.ListQuestions(ctx, nil)
	if err != nil {
		return models.TagFrequency{}, err
	}
	name = strings.TrimSpace(name)
	return models.TagFrequency{Tag: name, Frequency: TagFrequency(questions, name)}, nil
}

// TopEngagement ranks tags by mean question engagement. With minReputation
// set, only questions of owners with at least that reputation are candidates.
func (s *Service) TopEngagement(ctx context.Context, topN int, minReputation *int64) ([]models.TagEngagement, error) {
	questions, err := s.store.ListQuestions(ctx, minReputation)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("candidates", len(questions)).Msg("Ranking tag engagement")
	return RankTagEngagement(questions, topN), nil
}

// TopExceptions ranks exception types by mentions in question text
func (s *Service) TopExceptions(ctx context.Context, topN int) ([]models.ExceptionFrequency, error) {
	questions, err := s.store.ListQuestions(ctx, nil)
	if err != nil {
		return nil, err
	}
	return CountExceptions(questions).Rank(topN), nil
}

// ExceptionFrequency counts the mentions of one exception type. Known names
// are reported in their canonical spelling.
func (s *Service) ExceptionFrequency(ctx context.Context, name string) (models.ExceptionFrequency, error) {
	questions, err := s.store.ListQuestions(ctx, nil)
	if err != nil {
		return models.ExceptionFrequency{}, err
	}

	reported := strings.TrimSpace(name)
	if canonical, ok := CanonicalException(name); ok {
		reported = canonical
	}
	return models.ExceptionFrequency{
		Exception: reported,
		Frequency: CountExceptions(questions).FrequencyOf(name),
	}, nil
}

// AnswerQuality ranks all stored answers
func (s *Service) AnswerQuality(ctx context.Context, topN int, by SortBy) ([]models.AnswerQuality, error) {
	answers, err := s.store.ListAnswers(ctx, nil)
	if err != nil {
		return nil, err
	}
	return RankAnswers(answers, topN, by), nil
}

// QuestionAnswerQuality ranks the answers of one question
func (s *Service) QuestionAnswerQuality(ctx context.Context, questionID int64, by SortBy) ([]models.AnswerQuality, error) {
	exists, err := s.store.QuestionExists(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrQuestionNotFound, questionID)
	}

	answers, err := s.store.ListAnswers(ctx, &questionID)
	if err != nil {
		return nil, err
	}
	return RankQuestionAnswers(answers, by), nil
}
