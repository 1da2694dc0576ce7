package analytics

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wesm/stack-digest/internal/models"
)

// Quality weights
const (
	acceptedWeight    = 0.4
	recencyWeight     = 0.2
	ownerRepWeight    = 0.2
	answerScoreWeight = 0.2
)

const qualityPlaces = 2

// SortBy selects the ordering of scored answers
type SortBy string

const (
	SortQuality    SortBy = "quality"
	SortRecency    SortBy = "recency"
	SortReputation SortBy = "reputation"
	SortScore      SortBy = "score"
)

// ErrUnknownSort is returned for an unsupported sort key
var ErrUnknownSort = errors.New("unknown sort key")

// ParseSortBy parses a sort key; an empty key means SortQuality
func ParseSortBy(s string) (SortBy, error) {
	switch key := SortBy(strings.ToLower(strings.TrimSpace(s))); key {
	case "":
		return SortQuality, nil
	case SortQuality, SortRecency, SortReputation, SortScore:
		return key, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSort, s)
	}
}

// ElapsedHours returns the whole hours between the question and the answer,
// in either direction. It is nil when either time is unknown.
func ElapsedHours(a models.AnswerStats) *int64 {
	if a.CreatedAt == nil || a.QuestionCreatedAt == nil {
		return nil
	}
	h := int64(a.CreatedAt.Sub(*a.QuestionCreatedAt).Abs() / time.Hour)
	return &h
}

// QualityScore combines acceptance, recency, owner reputation and raw score
// into one value rounded to two decimals
func QualityScore(a models.AnswerStats) float64 {
	var accepted float64
	if a.IsAccepted {
		accepted = 1
	}

	var recency float64
	if h := ElapsedHours(a); h != nil && *h > 0 {
		recency = 1 / float64(*h)
	}

	var reputation float64
	if a.OwnerReputation != nil {
		reputation = math.Log10(float64(*a.OwnerReputation) + 1)
	}

	score := acceptedWeight*accepted +
		recencyWeight*recency +
		ownerRepWeight*reputation +
		answerScoreWeight*float64(a.Score)
	return roundHalfUp(score, qualityPlaces)
}

// ScoreAnswer builds the scored view of one answer
func ScoreAnswer(a models.AnswerStats) models.AnswerQuality {
	return models.AnswerQuality{
		AnswerID:        a.AnswerID,
		QuestionID:      a.QuestionID,
		QualityScore:    QualityScore(a),
		ElapsedHours:    ElapsedHours(a),
		OwnerReputation: a.OwnerReputation,
		Score:           a.Score,
		IsAccepted:      a.IsAccepted,
	}
}

// RankAnswers scores every answer and returns the topN in the requested order
func RankAnswers(answers []models.AnswerStats, topN int, by SortBy) []models.AnswerQuality {
	if topN <= 0 {
		return []models.AnswerQuality{}
	}
	ranked := RankQuestionAnswers(answers, by)
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// RankQuestionAnswers scores and orders all given answers
func RankQuestionAnswers(answers []models.AnswerStats, by SortBy) []models.AnswerQuality {
	ranked := make([]models.AnswerQuality, len(answers))
	for i, a := range answers {
		ranked[i] = ScoreAnswer(a)
	}

	order := compareBy(by)
	sort.Slice(ranked, func(i, j int) bool {
		if c := order(ranked[i], ranked[j]); c != 0 {
			return c < 0
		}
		return ranked[i].AnswerID < ranked[j].AnswerID
	})
	return ranked
}

// compareBy returns a three-way comparison for the sort key
func compareBy(by SortBy) func(a, b models.AnswerQuality) int {
	switch by {
	case SortRecency:
		return func(a, b models.AnswerQuality) int {
			switch {
			case a.ElapsedHours == nil && b.ElapsedHours == nil:
				return 0
			case a.ElapsedHours == nil:
				return 1
			case b.ElapsedHours == nil:
				return -1
			}
			return cmp.Compare(*a.ElapsedHours, *b.ElapsedHours)
		}
	case SortReputation:
		return func(a, b models.AnswerQuality) int {
			return cmp.Compare(reputationOf(b), reputationOf(a))
		}
	case SortScore:
		return func(a, b models.AnswerQuality) int {
			return cmp.Compare(b.Score, a.Score)
		}
	default:
		return func(a, b models.AnswerQuality) int {
			return cmp.Compare(b.QualityScore, a.QualityScore)
		}
	}
}

func reputationOf(a models.AnswerQuality) int64 {
	if a.OwnerReputation == nil {
		return -1
	}
	return *a.OwnerReputation
}

