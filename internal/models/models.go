package models

import (
	"time"
)

// DefaultUserID is stored when the upstream owner carries no user id
const DefaultUserID int64 = 0

// Owner represents a Stack Exchange account that asked a question
type Owner struct {
	ID          int64
	AccountID   *int64
	UserID      int64
	UserType    string
	Reputation  int64
	DisplayName string
	Link        string
}

// Tag represents a question tag
type Tag struct {
	ID   int64
	Name string
}

// Question represents a Stack Exchange question
type Question struct {
	ID               int64
	QuestionID       int64
	Title            string
	Body             string
	Score            int64
	ViewCount        int64
	AnswerCount      int64
	IsAnswered       bool
	AcceptedAnswerID *int64
	Link             string
	CreatedAt        *time.Time
	OwnerID          int64
}

// Answer represents an answer to a question
type Answer struct {
	ID              int64
	AnswerID        int64
	QuestionID      int64
	QuestionRef     int64
	Score           int64
	IsAccepted      bool
	CreatedAt       *time.Time
	OwnerReputation *int64
	OwnerAccountID  *int64
	OwnerUserID     *int64
}

// Record is one normalized upstream question with everything linked to it.
// It is persisted as a unit.
type Record struct {
	Owner    Owner
	Question Question
	Tags     []Tag
	Answers  []Answer
}

// QuestionStats is the read model the analytics engines work on
type QuestionStats struct {
	QuestionID      int64
	Title           string
	Body            string
	Score           int64
	ViewCount       int64
	AnswerCount     int64
	OwnerReputation int64
	Tags            []string
}

// AnswerStats pairs an answer with the creation time of its question
type AnswerStats struct {
	AnswerID          int64
	QuestionID        int64
	Score             int64
	IsAccepted        bool
	CreatedAt         *time.Time
	QuestionCreatedAt *time.Time
	OwnerReputation   *int64
}

// Run statuses
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunCancelled = "cancelled"
)

// IngestRun tracks one ingestion run
type IngestRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Requested  int        `json:"requested"`
	Fetched    int        `json:"fetched"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
}

// TagFrequency is one entry of the tag frequency ranking
type TagFrequency struct {
	Tag       string `json:"tag"`
	Frequency int64  `json:"frequency"`
}

// TagEngagement is one entry of the tag engagement ranking
type TagEngagement struct {
	Tag        string  `json:"tag"`
	Engagement float64 `json:"engagement"`
}

// ExceptionFrequency is the mention count of one exception type
type ExceptionFrequency struct {
	Exception string `json:"exception"`
	Frequency int    `json:"frequency"`
}

// AnswerQuality is one scored answer
type AnswerQuality struct {
	AnswerID        int64   `json:"answer_id"`
	QuestionID      int64   `json:"question_id"`
	QualityScore    float64 `json:"quality_score"`
	ElapsedHours    *int64  `json:"elapsed_hours"`
	OwnerReputation *int64  `json:"owner_reputation"`
	Score           int64   `json:"score"`
	IsAccepted      bool    `json:"is_accepted"`
}
