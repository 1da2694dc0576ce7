package analytics

import (
	"errors"
	"testing"
	"time"

	"github.com/wesm/stack-digest/internal/models"
)

var questionTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func i64(v int64) *int64 { return &v }

func answeredAfter(d time.Duration) (*time.Time, *time.Time) {
	q := questionTime
	a := questionTime.Add(d)
	return &a, &q
}

func answer(id int64, accepted bool, rep *int64, score int64, elapsed time.Duration) models.AnswerStats {
	created, qCreated := answeredAfter(elapsed)
	return models.AnswerStats{
		AnswerID:          id,
		QuestionID:        1,
		Score:             score,
		IsAccepted:        accepted,
		CreatedAt:         created,
		QuestionCreatedAt: qCreated,
		OwnerReputation:   rep,
	}
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name string
		a    models.AnswerStats
		want float64
	}{
		{"all factors", answer(1, true, i64(99), 3, 2*time.Hour), 1.5},
		{"nothing", answer(2, false, nil, 0, 0), 0},
		{"answer before question", answer(3, false, nil, 0, -4*time.Hour), 0.05},
		{"half up", answer(4, false, nil, 0, 8*time.Hour), 0.03},
		{"partial hours truncate", answer(5, false, nil, 0, 90*time.Minute), 0.2},
		{"raw score unnormalized", answer(6, false, nil, 50, 0), 10},
		{"negative score", answer(7, false, nil, -2, 0), -0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QualityScore(tt.a); got != tt.want {
				t.Errorf("QualityScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQualityScoreMissingTimes(t *testing.T) {
	a := answer(1, true, nil, 0, time.Hour)
	a.QuestionCreatedAt = nil

	if got := ElapsedHours(a); got != nil {
		t.Errorf("ElapsedHours() = %v, want nil", *got)
	}
	if got := QualityScore(a); got != 0.4 {
		t.Errorf("QualityScore() = %v, want 0.4", got)
	}
}

func TestQualityScoreIsMonotonic(t *testing.T) {
	base := answer(1, false, i64(10), 1, 5*time.Hour)

	accepted := base
	accepted.IsAccepted = true
	if QualityScore(accepted) <= QualityScore(base) {
		t.Error("accepting an answer should raise its score")
	}

	reputable := base
	reputable.OwnerReputation = i64(10000)
	if QualityScore(reputable) <= QualityScore(base) {
		t.Error("higher reputation should raise the score")
	}

	faster := answer(1, false, i64(10), 1, time.Hour)
	if QualityScore(faster) <= QualityScore(base) {
		t.Error("a faster answer should score higher")
	}
}

func TestScoreAnswer(t *testing.T) {
	got := ScoreAnswer(answer(9, true, i64(99), 3, 2*time.Hour))
	if got.AnswerID != 9 || got.QuestionID != 1 || got.QualityScore != 1.5 || !got.IsAccepted || got.Score != 3 {
		t.Errorf("ScoreAnswer() = %+v", got)
	}
	if got.ElapsedHours == nil || *got.ElapsedHours != 2 {
		t.Errorf("ElapsedHours = %v, want 2", got.ElapsedHours)
	}
	if got.OwnerReputation == nil || *got.OwnerReputation != 99 {
		t.Errorf("OwnerReputation = %v, want 99", got.OwnerReputation)
	}
}

func rankedIDs(ranked []models.AnswerQuality) []int64 {
	ids := make([]int64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.AnswerID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRankAnswersSortKeys(t *testing.T) {
	unknownTime := answer(4, false, i64(5000), 0, 0)
	unknownTime.CreatedAt = nil

	answers := []models.AnswerStats{
		answer(1, false, i64(10), 5, 10*time.Hour),
		answer(2, true, i64(100), 1, 2*time.Hour),
		answer(3, false, nil, 2, time.Hour),
		unknownTime,
	}

	tests := []struct {
		by   SortBy
		want []int64
	}{
		{SortQuality, []int64{1, 2, 4, 3}},
		{SortRecency, []int64{3, 2, 1, 4}},
		{SortReputation, []int64{4, 2, 1, 3}},
		{SortScore, []int64{1, 3, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.by), func(t *testing.T) {
			got := rankedIDs(RankQuestionAnswers(answers, tt.by))
			if !equalIDs(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankAnswersTopN(t *testing.T) {
	answers := []models.AnswerStats{
		answer(3, false, nil, 0, 0),
		answer(1, false, nil, 0, 0),
		answer(2, false, nil, 0, 0),
	}

	if got := rankedIDs(RankAnswers(answers, 2, SortQuality)); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("RankAnswers(2) = %v, want ties by answer id", got)
	}
	if got := RankAnswers(answers, 0, SortQuality); got == nil || len(got) != 0 {
		t.Errorf("RankAnswers(0) = %v, want empty", got)
	}
	if got := RankAnswers(answers, 100, SortQuality); len(got) != 3 {
		t.Errorf("RankAnswers(100) returned %d answers, want 3", len(got))
	}
}

func TestParseSortBy(t *testing.T) {
	for in, want := range map[string]SortBy{
		"":           SortQuality,
		"quality":    SortQuality,
		" Recency ":  SortRecency,
		"REPUTATION": SortReputation,
		"score":      SortScore,
	} {
		got, err := ParseSortBy(in)
		if err != nil || got != want {
			t.Errorf("ParseSortBy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseSortBy("age"); !errors.Is(err, ErrUnknownSort) {
		t.Errorf("ParseSortBy(age) error = %v, want ErrUnknownSort", err)
	}
}
