package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Store persists quizzes, questions and attempts through bun.
// The attempts_quiz_student_key unique constraint backs the one-attempt rule.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

var (
	_ app.QuizStore    = (*Store)(nil)
	_ app.AttemptStore = (*Store)(nil)
)

func orderedQuestions(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Order("qn.position ASC")
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := new(quizRow)
	err := s.db.NewSelect().
		Model(row).
		Relation("Questions", orderedQuestions).
		Where("qz.id = ?", quizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context, filter app.QuizFilter) ([]domain.Quiz, error) {
	var rows []*quizRow
	q := s.db.NewSelect().
		Model(&rows).
		Relation("Questions", orderedQuestions).
		Order("qz.created_at DESC", "qz.id ASC")
	if filter.CreatedBy != "" {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("qz.created_by = ?", filter.CreatedBy)
			if filter.IncludePublished {
				q = q.WhereOr("qz.status = ?", string(domain.QuizPublished))
			}
			return q
		})
	}
	if filter.Status != "" {
		q = q.Where("qz.status = ?", string(filter.Status))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(newQuizRow(quiz)).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		if len(quiz.Questions) == 0 {
			return nil
		}
		rows := make([]*questionRow, 0, len(quiz.Questions))
		for _, q := range quiz.Questions {
			rows = append(rows, newQuestionRow(q))
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

// UpdateQuiz writes quiz metadata. Status has its own conditional transition in PublishQuiz.
func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	res, err := s.db.NewUpdate().
		Model(newQuizRow(quiz)).
		Column("title", "description", "duration_minutes", "subject_id", "class_id", "deadline", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return expectAffected(res, domain.ErrQuizNotFound)
}

func (s *Store) PublishQuiz(ctx context.Context, quizID string, at time.Time) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*quizRow)(nil)).
		Set("status = ?", string(domain.QuizPublished)).
		Set("updated_at = ?", at).
		Where("id = ?", quizID).
		Where("status = ?", string(domain.QuizDraft)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("publish quiz: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return true, nil
	}
	exists, err := s.db.NewSelect().Model((*quizRow)(nil)).Where("id = ?", quizID).Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check quiz: %w", err)
	}
	if !exists {
		return false, domain.ErrQuizNotFound
	}
	return false, nil
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*questionRow)(nil)).Where("quiz_id = ?", quizID).Exec(ctx); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		res, err := tx.NewDelete().Model((*quizRow)(nil)).Where("id = ?", quizID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		return expectAffected(res, domain.ErrQuizNotFound)
	})
}

func (s *Store) CreateQuestion(ctx context.Context, question domain.Question) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDraftQuiz(ctx, tx, question.QuizID); err != nil {
			return err
		}
		if _, err := tx.NewInsert().Model(newQuestionRow(question)).Exec(ctx); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		return nil
	})
}

func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDraftQuiz(ctx, tx, question.QuizID); err != nil {
			return err
		}
		res, err := tx.NewUpdate().
			Model(newQuestionRow(question)).
			Column("text", "options", "correct_option_index", "slo_tag", "topic", "difficulty").
			Where("id = ?", question.ID).
			Where("quiz_id = ?", question.QuizID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update question: %w", err)
		}
		return expectAffected(res, domain.ErrQuestionNotFound)
	})
}

func (s *Store) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockDraftQuiz(ctx, tx, quizID); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*questionRow)(nil)).
			Where("id = ?", questionID).
			Where("quiz_id = ?", quizID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		return expectAffected(res, domain.ErrQuestionNotFound)
	})
}

// lockDraftQuiz share-locks the quiz row for the rest of tx and fails unless the
// quiz is a draft. PublishQuiz blocks on the lock until tx ends.
func lockDraftQuiz(ctx context.Context, tx bun.Tx, quizID string) error {
	var status string
	err := tx.NewSelect().
		Model((*quizRow)(nil)).
		Column("status").
		Where("id = ?", quizID).
		For("SHARE").
		Scan(ctx, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrQuizNotFound
	}
	if err != nil {
		return fmt.Errorf("lock quiz: %w", err)
	}
	if status != string(domain.QuizDraft) {
		return domain.ErrQuizFrozen
	}
	return nil
}

func (s *Store) CountQuizzes(ctx context.Context, status domain.QuizStatus) (int, error) {
	q := s.db.NewSelect().Model((*quizRow)(nil))
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	n, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count quizzes: %w", err)
	}
	return n, nil
}

// ReserveAttempt inserts an in-progress attempt. On a unique violation it tries to
// reclaim an abandoned attempt with a conditional update, so at most one concurrent
// caller wins either way.
func (s *Store) ReserveAttempt(ctx context.Context, quizID, studentID string, startedAt time.Time) (domain.Attempt, error) {
	row := &attemptRow{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		StudentID: studentID,
		Status:    string(domain.AttemptInProgress),
		StartedAt: startedAt,
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	if err == nil {
		return row.toDomain(), nil
	}
	if !hasCode(err, uniqueViolation) {
		return domain.Attempt{}, fmt.Errorf("reserve attempt: %w", err)
	}

	reclaimed := new(attemptRow)
	err = s.db.NewUpdate().
		Model(reclaimed).
		Set("status = ?", string(domain.AttemptInProgress)).
		Set("started_at = ?", startedAt).
		Where("quiz_id = ?", quizID).
		Where("student_id = ?", studentID).
		Where("status = ?", string(domain.AttemptAbandoned)).
		Returning("*").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAlreadyAttempted
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("reclaim attempt: %w", err)
	}
	return reclaimed.toDomain(), nil
}

func (s *Store) FinalizeAttempt(ctx context.Context, attempt domain.Attempt, results []domain.Result) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*attemptRow)(nil)).
			Set("status = ?", string(domain.AttemptCompleted)).
			Set("score = ?", attempt.Score).
			Set("total = ?", attempt.Total).
			Set("percentage = ?", attempt.Percentage).
			Set("completed_at = ?", attempt.CompletedAt).
			Where("id = ?", attempt.ID).
			Where("status = ?", string(domain.AttemptInProgress)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("finalize attempt: %w", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			return fmt.Errorf("attempt %s is no longer in progress", attempt.ID)
		}
		if len(results) == 0 {
			return nil
		}
		rows := make([]resultRow, 0, len(results))
		for _, r := range results {
			rows = append(rows, newResultRow(r))
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert results: %w", err)
		}
		return nil
	})
}

func (s *Store) AbandonAttempt(ctx context.Context, attemptID string) error {
	_, err := s.db.NewUpdate().
		Model((*attemptRow)(nil)).
		Set("status = ?", string(domain.AttemptAbandoned)).
		Where("id = ?", attemptID).
		Where("status = ?", string(domain.AttemptInProgress)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("abandon attempt: %w", err)
	}
	return nil
}

func (s *Store) AbandonStale(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.NewUpdate().
		Model((*attemptRow)(nil)).
		Set("status = ?", string(domain.AttemptAbandoned)).
		Where("status = ?", string(domain.AttemptInProgress)).
		Where("started_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("abandon stale attempts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) GetAttempt(ctx context.Context, quizID, studentID string) (domain.Attempt, []domain.Result, error) {
	row := new(attemptRow)
	err := s.db.NewSelect().
		Model(row).
		Where("quiz_id = ?", quizID).
		Where("student_id = ?", studentID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, nil, fmt.Errorf("load attempt: %w", err)
	}

	var rows []resultRow
	err = s.db.NewSelect().
		Model(&rows).
		Join("LEFT JOIN questions AS qn ON qn.id = rs.question_id").
		Where("rs.attempt_id = ?", row.ID).
		OrderExpr("qn.position ASC NULLS LAST, rs.id ASC").
		Scan(ctx)
	if err != nil {
		return domain.Attempt{}, nil, fmt.Errorf("load results: %w", err)
	}
	results := make([]domain.Result, 0, len(rows))
	for i := range rows {
		results = append(results, rows[i].toDomain())
	}
	return row.toDomain(), results, nil
}

func (s *Store) ListAttempts(ctx context.Context, quizID string, page app.Page) ([]domain.Attempt, int, error) {
	var rows []attemptRow
	q := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		Order("started_at ASC", "id ASC")
	if page.PerPage > 0 {
		q = q.Limit(page.PerPage).Offset(page.Offset())
	}
	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list attempts: %w", err)
	}
	return attemptsToDomain(rows), total, nil
}

func (s *Store) ListStudentAttempts(ctx context.Context, studentID string) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("student_id = ?", studentID).
		Order("started_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list student attempts: %w", err)
	}
	return attemptsToDomain(rows), nil
}

func (s *Store) CountAttempts(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*attemptRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func attemptsToDomain(rows []attemptRow) []domain.Attempt {
	out := make([]domain.Attempt, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}

func expectAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
