package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wesm/stack-digest/internal/models"
)

// ListQuestions returns every stored question with its owner reputation and
// tag names, in insertion order. With minReputation set, only questions whose
// owner has at least that reputation are returned.
func (db *DB) ListQuestions(ctx context.Context, minReputation *int64) ([]models.QuestionStats, error) {
	query := `
	SELECT q.id, q.question_id, q.title, COALESCE(q.body, ''), q.score, q.view_count, q.answer_count, o.reputation
	FROM questions q
	JOIN owners o ON o.id = q.owner_id
	WHERE (? IS NULL OR o.reputation >= ?)
	ORDER BY q.id
	`

	var threshold interface{}
	if minReputation != nil {
		threshold = *minReputation
	}

	rows, err := db.QueryContext(ctx, query, threshold, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []models.QuestionStats
	index := make(map[int64]int)
	for rows.Next() {
		var (
			ref int64
			q   models.QuestionStats
		)
		if err := rows.Scan(&ref, &q.QuestionID, &q.Title, &q.Body, &q.Score, &q.ViewCount, &q.AnswerCount, &q.OwnerReputation); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		index[ref] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	if len(questions) == 0 {
		return questions, nil
	}

	tagRows, err := db.QueryContext(ctx, `
	SELECT qt.question_id, t.name
	FROM question_tags qt
	JOIN tags t ON t.id = qt.tag_id
	ORDER BY qt.question_id, t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list question tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var (
			ref  int64
			name string
		)
		if err := tagRows.Scan(&ref, &name); err != nil {
			return nil, fmt.Errorf("failed to scan question tag: %w", err)
		}
		if i, ok := index[ref]; ok {
			questions[i].Tags = append(questions[i].Tags, name)
		}
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list question tags: %w", err)
	}

	return questions, nil
}

// QuestionExists reports whether a question with this external id is stored
func (db *DB) QuestionExists(ctx context.Context, questionID int64) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM questions WHERE question_id = ?`, questionID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up question %d: %w", questionID, err)
	}
	return true, nil
}

// ListAnswers returns answers joined with their question's creation time.
// With questionID set, only answers of that question (by external id) are
// returned.
func (db *DB) ListAnswers(ctx context.Context, questionID *int64) ([]models.AnswerStats, error) {
	query := `
	SELECT a.answer_id, a.question_stack_id, a.score, a.is_accepted, a.created_at, q.created_at, a.owner_reputation
	FROM answers a
	JOIN questions q ON q.id = a.question_id
	WHERE (? IS NULL OR q.question_id = ?)
	ORDER BY a.id
	`

	var filter interface{}
	if questionID != nil {
		filter = *questionID
	}

	rows, err := db.QueryContext(ctx, query, filter, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []models.AnswerStats
	for rows.Next() {
		var (
			a          models.AnswerStats
			created    sql.NullTime
			qCreated   sql.NullTime
			reputation sql.NullInt64
		)
		if err := rows.Scan(&a.AnswerID, &a.QuestionID, &a.Score, &a.IsAccepted, &created, &qCreated, &reputation); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		a.CreatedAt = nullTime(created)
		a.QuestionCreatedAt = nullTime(qCreated)
		if reputation.Valid {
			rep := reputation.Int64
			a.OwnerReputation = &rep
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	return answers, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
