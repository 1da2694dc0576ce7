// Package analytics computes rankings and scores over stored questions and
// answers. The engines are pure functions over read models; Service feeds
// them from the store.
package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wesm/stack-digest/internal/models"
)

// Engagement weights
const (
	scoreWeight       = 0.3
	viewCountWeight   = 0.3
	answerCountWeight = 0.35
	reputationWeight  = 0.05
)

// engagementPlaces is the rounding precision of per-tag engagement
const engagementPlaces = 6

// roundHalfUp rounds the shortest decimal form of v half away from zero
func roundHalfUp(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Normalize min-max scales values into [0, 1]. When all values are equal
// the denominator is taken as 1, which maps every value to 0.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	denom := hi - lo
	if denom == 0 {
		denom = 1
	}
	for i, v := range values {
		out[i] = (v - lo) / denom
	}
	return out
}

// RankTagFrequency counts questions per tag and returns the topN most
// frequent, ties broken by tag name.
func RankTagFrequency(questions []models.QuestionStats, topN int) []models.TagFrequency {
	if topN <= 0 {
		return []models.TagFrequency{}
	}

	counts := make(map[string]int64)
	for _, q := range questions {
		for _, tag := range q.Tags {
			counts[tag]++
		}
	}

	ranked := make([]models.TagFrequency, 0, len(counts))
	for tag, n := range counts {
		ranked = append(ranked, models.TagFrequency{Tag: tag, Frequency: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		return ranked[i].Tag < ranked[j].Tag
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// TagFrequency returns how many questions carry the named tag, ignoring case
func TagFrequency(questions []models.QuestionStats, name string) int64 {
	name = strings.TrimSpace(name)
	var n int64
	for _, q := range questions {
		for _, tag := range q.Tags {
			if strings.EqualFold(tag, name) {
				n++
				break
			}
		}
	}
	return n
}

// EngagementScores returns the weighted engagement of each question, with
// every statistic normalized over the whole candidate set.
func EngagementScores(questions []models.QuestionStats) []float64 {
	n := len(questions)
	scores := make([]float64, n)
	views := make([]float64, n)
	answers := make([]float64, n)
	reputations := make([]float64, n)
	for i, q := range questions {
		scores[i] = float64(q.Score)
		views[i] = float64(q.ViewCount)
		answers[i] = float64(q.AnswerCount)
		reputations[i] = float64(q.OwnerReputation)
	}

	scores = Normalize(scores)
	views = Normalize(views)
	answers = Normalize(answers)
	reputations = Normalize(reputations)

	engagement := make([]float64, n)
	for i := range questions {
		engagement[i] = scores[i]*scoreWeight +
			views[i]*viewCountWeight +
			answers[i]*answerCountWeight +
			reputations[i]*reputationWeight
	}
	return engagement
}

// RankTagEngagement averages question engagement per tag and returns the
// topN tags, ties broken by tag name.
func RankTagEngagement(questions []models.QuestionStats, topN int) []models.TagEngagement {
	if topN <= 0 {
		return []models.TagEngagement{}
	}

	engagement := EngagementScores(questions)

	type total struct {
		sum   float64
		count int
	}
	totals := make(map[string]*total)
	for i, q := range questions {
		for _, tag := range q.Tags {
			t, ok := totals[tag]
			if !ok {
				t = &total{}
				totals[tag] = t
			}
			t.sum += engagement[i]
			t.count++
		}
	}

	ranked := make([]models.TagEngagement, 0, len(totals))
	for tag, t := range totals {
		ranked = append(ranked, models.TagEngagement{
			Tag:        tag,
			Engagement: roundHalfUp(t.sum/float64(t.count), engagementPlaces),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Engagement != ranked[j].Engagement {
			return ranked[i].Engagement > ranked[j].Engagement
		}
		return ranked[i].Tag < ranked[j].Tag
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
