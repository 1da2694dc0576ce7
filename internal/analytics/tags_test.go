package analytics

import (
	"math"
	"testing"

	"github.com/wesm/stack-digest/internal/models"
)

func twoQuestions() []models.QuestionStats {
	return []models.QuestionStats{
		{QuestionID: 1, Score: 10, ViewCount: 100, AnswerCount: 2, OwnerReputation: 50, Tags: []string{"java", "spring"}},
		{QuestionID: 2, Score: 0, ViewCount: 0, AnswerCount: 0, OwnerReputation: 50, Tags: []string{"java"}},
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{"empty", nil, []float64{}},
		{"range", []float64{1, 3, 5}, []float64{0, 0.5, 1}},
		{"all equal", []float64{4, 4, 4}, []float64{0, 0, 0}},
		{"single", []float64{7}, []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("Normalize(%v) = %v, want %v", tt.values, got, tt.want)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("Normalize(%v)[%d] = %v, want %v", tt.values, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeStaysInUnitInterval(t *testing.T) {
	values := []float64{-20, 3, 1e6, 0, 42, -20}
	for i, v := range Normalize(values) {
		if v < 0 || v > 1 {
			t.Errorf("Normalize()[%d] = %v, outside [0, 1]", i, v)
		}
	}
}

func TestRankTagFrequency(t *testing.T) {
	got := RankTagFrequency(twoQuestions(), 10)
	want := []models.TagFrequency{{Tag: "java", Frequency: 2}, {Tag: "spring", Frequency: 1}}
	if len(got) != len(want) {
		t.Fatalf("RankTagFrequency() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RankTagFrequency()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRankTagFrequencyTiesAndLimits(t *testing.T) {
	questions := []models.QuestionStats{
		{Tags: []string{"zeta", "alpha"}},
		{Tags: []string{"mid"}},
	}

	got := RankTagFrequency(questions, 2)
	if len(got) != 2 || got[0].Tag != "alpha" || got[1].Tag != "mid" {
		t.Errorf("RankTagFrequency() = %v, want alpha then mid", got)
	}

	for _, topN := range []int{0, -3} {
		if got := RankTagFrequency(questions, topN); got == nil || len(got) != 0 {
			t.Errorf("RankTagFrequency(topN=%d) = %v, want empty", topN, got)
		}
	}
}

func TestTagFrequencyIgnoresCase(t *testing.T) {
	questions := twoQuestions()
	if got := TagFrequency(questions, "java"); got != 2 {
		t.Errorf("TagFrequency(java) = %d, want 2", got)
	}
	if got := TagFrequency(questions, " JAVA "); got != 2 {
		t.Errorf("TagFrequency(JAVA) = %d, want 2", got)
	}
	if got := TagFrequency(questions, "python"); got != 0 {
		t.Errorf("TagFrequency(python) = %d, want 0", got)
	}
}

func TestRankTagEngagement(t *testing.T) {
	got := RankTagEngagement(twoQuestions(), 5)
	want := []models.TagEngagement{
		{Tag: "spring", Engagement: 0.95},
		{Tag: "java", Engagement: 0.475},
	}
	if len(got) != len(want) {
		t.Fatalf("RankTagEngagement() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RankTagEngagement()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRankTagEngagementIdenticalQuestions(t *testing.T) {
	questions := []models.QuestionStats{
		{Score: 5, ViewCount: 5, AnswerCount: 5, OwnerReputation: 5, Tags: []string{"b"}},
		{Score: 5, ViewCount: 5, AnswerCount: 5, OwnerReputation: 5, Tags: []string{"a"}},
	}

	got := RankTagEngagement(questions, 10)
	if len(got) != 2 {
		t.Fatalf("RankTagEngagement() = %v", got)
	}
	for _, e := range got {
		if e.Engagement != 0 {
			t.Errorf("engagement of %s = %v, want 0", e.Tag, e.Engagement)
		}
	}
	if got[0].Tag != "a" {
		t.Errorf("tie order = %v, want a first", got)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in     float64
		places int32
		want   float64
	}{
		{0.025, 2, 0.03},
		{1.005, 2, 1.01},
		{0.4749999999, 6, 0.475},
		{-0.125, 2, -0.13},
		{2, 2, 2},
	}
	for _, tt := range tests {
		if got := roundHalfUp(tt.in, tt.places); got != tt.want {
			t.Errorf("roundHalfUp(%v, %d) = %v, want %v", tt.in, tt.places, got, tt.want)
		}
	}
}
