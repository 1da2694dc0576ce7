package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wesm/stack-digest/internal/models"
)

// FindOrCreateOwner returns the row id of the owner with the same account
// id, creating it if absent. An existing owner is returned untouched, so the
// reputation recorded at creation wins. Owners without an account id cannot
// be matched and always get a new row.
func FindOrCreateOwner(ctx context.Context, ex execer, owner *models.Owner) (int64, error) {
	if owner.AccountID == nil {
		res, err := ex.ExecContext(ctx, `
		INSERT INTO owners (account_id, user_id, user_type, reputation, display_name, link)
		VALUES (NULL, ?, ?, ?, ?, ?)`,
			owner.UserID, owner.UserType, owner.Reputation, owner.DisplayName, owner.Link,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to save owner: %w", err)
		}
		return res.LastInsertId()
	}

	query := `
	INSERT INTO owners (account_id, user_id, user_type, reputation, display_name, link)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(account_id) DO NOTHING
	`
	if _, err := ex.ExecContext(ctx, query,
		*owner.AccountID, owner.UserID, owner.UserType, owner.Reputation, owner.DisplayName, owner.Link,
	); err != nil {
		return 0, fmt.Errorf("failed to save owner: %w", err)
	}

	var id int64
	err := ex.QueryRowContext(ctx, `SELECT id FROM owners WHERE account_id = ?`, *owner.AccountID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up owner %d: %w", *owner.AccountID, err)
	}
	return id, nil
}

// FindOrCreateTag returns the row id of the tag with exactly this name,
// creating it if absent
func FindOrCreateTag(ctx context.Context, ex execer, name string) (int64, error) {
	if _, err := ex.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("failed to save tag %s: %w", name, err)
	}

	var id int64
	if err := ex.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up tag %s: %w", name, err)
	}
	return id, nil
}

// SaveQuestion saves a question, updating it in place when the external id
// is already known, and returns its row id
func SaveQuestion(ctx context.Context, ex execer, q *models.Question) (int64, error) {
	query := `
	INSERT INTO questions (question_id, title, body, score, view_count, answer_count, is_answered, accepted_answer_id, link, created_at, owner_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(question_id) DO UPDATE SET
		title = excluded.title,
		body = excluded.body,
		score = excluded.score,
		view_count = excluded.view_count,
		answer_count = excluded.answer_count,
		is_answered = excluded.is_answered,
		accepted_answer_id = excluded.accepted_answer_id,
		link = excluded.link,
		created_at = excluded.created_at,
		owner_id = excluded.owner_id
	`

	_, err := ex.ExecContext(ctx, query,
		q.QuestionID,
		q.Title,
		q.Body,
		q.Score,
		q.ViewCount,
		q.AnswerCount,
		q.IsAnswered,
		q.AcceptedAnswerID,
		q.Link,
		q.CreatedAt,
		q.OwnerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save question: %w", err)
	}

	var id int64
	if err := ex.QueryRowContext(ctx, `SELECT id FROM questions WHERE question_id = ?`, q.QuestionID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up question %d: %w", q.QuestionID, err)
	}
	return id, nil
}

// ReplaceQuestionTags makes tagIDs the complete tag set of a question
func ReplaceQuestionTags(ctx context.Context, ex execer, questionRef int64, tagIDs []int64) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM question_tags WHERE question_id = ?`, questionRef); err != nil {
		return fmt.Errorf("failed to clear question tags: %w", err)
	}

	for _, tagID := range tagIDs {
		_, err := ex.ExecContext(ctx, `
		INSERT INTO question_tags (question_id, tag_id)
		VALUES (?, ?)
		ON CONFLICT(question_id, tag_id) DO NOTHING`,
			questionRef, tagID,
		)
		if err != nil {
			return fmt.Errorf("failed to save question-tag relationship: %w", err)
		}
	}
	return nil
}

// SaveAnswer saves an answer, updating it in place when already known
func SaveAnswer(ctx context.Context, ex execer, a *models.Answer) error {
	query := `
	INSERT INTO answers (answer_id, question_stack_id, question_id, score, is_accepted, created_at, owner_reputation, owner_account_id, owner_user_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(answer_id) DO UPDATE SET
		question_stack_id = excluded.question_stack_id,
		question_id = excluded.question_id,
		score = excluded.score,
		is_accepted = excluded.is_accepted,
		created_at = excluded.created_at,
		owner_reputation = excluded.owner_reputation,
		owner_account_id = excluded.owner_account_id,
		owner_user_id = excluded.owner_user_id
	`

	_, err := ex.ExecContext(ctx, query,
		a.AnswerID,
		a.QuestionID,
		a.QuestionRef,
		a.Score,
		a.IsAccepted,
		a.CreatedAt,
		a.OwnerReputation,
		a.OwnerAccountID,
		a.OwnerUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to save answer %d: %w", a.AnswerID, err)
	}
	return nil
}

// SaveRecord persists a normalized record in one transaction: owner,
// question, tag links and answers are committed together or not at all.
// The record's ids are filled in on success.
func (db *DB) SaveRecord(ctx context.Context, rec *models.Record) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ownerID, err := FindOrCreateOwner(ctx, tx, &rec.Owner)
	if err != nil {
		return err
	}
	rec.Owner.ID = ownerID
	rec.Question.OwnerID = ownerID

	questionRef, err := SaveQuestion(ctx, tx, &rec.Question)
	if err != nil {
		return err
	}
	rec.Question.ID = questionRef

	tagIDs := make([]int64, 0, len(rec.Tags))
	for i := range rec.Tags {
		tagID, err := FindOrCreateTag(ctx, tx, rec.Tags[i].Name)
		if err != nil {
			return err
		}
		rec.Tags[i].ID = tagID
		tagIDs = append(tagIDs, tagID)
	}
	if err := ReplaceQuestionTags(ctx, tx, questionRef, tagIDs); err != nil {
		return err
	}

	for i := range rec.Answers {
		rec.Answers[i].QuestionRef = questionRef
		if err := SaveAnswer(ctx, tx, &rec.Answers[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record for question %d: %w", rec.Question.QuestionID, err)
	}
	return nil
}

// CountRows returns the number of rows in one of the entity tables
func (db *DB) CountRows(ctx context.Context, table string) (int64, error) {
	switch table {
	case "owners", "tags", "questions", "answers", "question_tags", "ingest_runs":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}

	var n int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

var _ execer = (*sql.Tx)(nil)
