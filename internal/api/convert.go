package api

import (
	"html"
	"time"

	"github.com/wesm/stack-digest/internal/models"
)

// EpochToTime converts upstream epoch seconds to a UTC time
func EpochToTime(epoch *int64) *time.Time {
	if epoch == nil {
		return nil
	}
	t := time.Unix(*epoch, 0).UTC()
	return &t
}

func int64Value(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func boolValue(v *bool) bool {
	return v != nil && *v
}

// ConvertOwner converts an upstream owner to our model. A missing owner
// yields an empty owner with the default user id.
func ConvertOwner(owner *RawOwner) models.Owner {
	if owner == nil {
		return models.Owner{UserID: models.DefaultUserID}
	}

	userID := models.DefaultUserID
	if owner.UserID != nil {
		userID = *owner.UserID
	}

	return models.Owner{
		AccountID:   owner.AccountID,
		UserID:      userID,
		UserType:    owner.UserType,
		Reputation:  int64Value(owner.Reputation),
		DisplayName: html.UnescapeString(owner.DisplayName),
		Link:        owner.Link,
	}
}

// ConvertQuestion converts an upstream question to our model
func ConvertQuestion(q *RawQuestion) models.Question {
	return models.Question{
		QuestionID:       q.QuestionID,
		Title:            html.UnescapeString(q.Title),
		Body:             q.Body,
		Score:            int64Value(q.Score),
		ViewCount:        int64Value(q.ViewCount),
		AnswerCount:      int64Value(q.AnswerCount),
		IsAnswered:       boolValue(q.IsAnswered),
		AcceptedAnswerID: q.AcceptedAnswerID,
		Link:             q.Link,
		CreatedAt:        EpochToTime(q.CreationDate),
	}
}

// ConvertTags converts tag names to tags, dropping blanks and duplicates
func ConvertTags(names []string) []models.Tag {
	seen := make(map[string]bool, len(names))
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, models.Tag{Name: name})
	}
	return tags
}

// ConvertAnswer converts an upstream answer to our model
func ConvertAnswer(a *RawAnswer, questionID int64) models.Answer {
	if a.QuestionID != 0 {
		questionID = a.QuestionID
	}

	answer := models.Answer{
		AnswerID:   a.AnswerID,
		QuestionID: questionID,
		Score:      int64Value(a.Score),
		IsAccepted: boolValue(a.IsAccepted),
		CreatedAt:  EpochToTime(a.CreationDate),
	}
	if a.Owner != nil {
		answer.OwnerReputation = a.Owner.Reputation
		answer.OwnerAccountID = a.Owner.AccountID
		answer.OwnerUserID = a.Owner.UserID
	}
	return answer
}

// Normalize maps one upstream question and its answers into a record
func Normalize(q *RawQuestion, answers []RawAnswer) *models.Record {
	record := &models.Record{
		Owner:    ConvertOwner(q.Owner),
		Question: ConvertQuestion(q),
		Tags:     ConvertTags(q.Tags),
		Answers:  make([]models.Answer, 0, len(answers)),
	}
	for i := range answers {
		record.Answers = append(record.Answers, ConvertAnswer(&answers[i], q.QuestionID))
	}
	return record
}
