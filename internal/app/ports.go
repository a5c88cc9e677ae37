package app

import (
	"context"
	"math"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
)

// QuizFilter narrows ListQuizzes.
type QuizFilter struct {
	Status    domain.QuizStatus
	CreatedBy string
	// IncludePublished widens a CreatedBy filter to also return every published quiz.
	IncludePublished bool
}

// QuizReader loads quizzes with their questions ordered by position.
type QuizReader interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizStore abstracts quiz and question persistence (Postgres, memory, cached).
type QuizStore interface {
	QuizReader
	ListQuizzes(ctx context.Context, filter QuizFilter) ([]domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	// PublishQuiz moves a draft quiz to published. It reports false when the quiz
	// was already published, so concurrent publishers notify only once.
	PublishQuiz(ctx context.Context, quizID string, at time.Time) (bool, error)
	// DeleteQuiz removes the quiz and all of its questions.
	DeleteQuiz(ctx context.Context, quizID string) error
	CreateQuestion(ctx context.Context, question domain.Question) error
	UpdateQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, quizID, questionID string) error
	CountQuizzes(ctx context.Context, status domain.QuizStatus) (int, error)
}

// Page is a 1-based pagination window.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the number of rows to skip, capped at math.MaxInt32.
func (p Page) Offset() int {
	if p.Number < 1 || p.PerPage < 1 {
		return 0
	}
	if p.Number-1 > math.MaxInt32/p.PerPage {
		return math.MaxInt32
	}
	return (p.Number - 1) * p.PerPage
}

// AttemptStore is the attempt ledger. Implementations must enforce uniqueness of
// (quiz_id, student_id) at the storage level.
type AttemptStore interface {
	// ReserveAttempt creates an in-progress attempt, or reclaims an abandoned one.
	// It returns domain.ErrAlreadyAttempted when an in-progress or completed
	// attempt already exists for the pair.
	ReserveAttempt(ctx context.Context, quizID, studentID string, startedAt time.Time) (domain.Attempt, error)
	// FinalizeAttempt writes results and the attempt totals in one transaction.
	FinalizeAttempt(ctx context.Context, attempt domain.Attempt, results []domain.Result) error
	// AbandonAttempt marks an in-progress attempt as reclaimable.
	AbandonAttempt(ctx context.Context, attemptID string) error
	// AbandonStale abandons in-progress attempts started before cutoff.
	AbandonStale(ctx context.Context, cutoff time.Time) (int, error)
	GetAttempt(ctx context.Context, quizID, studentID string) (domain.Attempt, []domain.Result, error)
	ListAttempts(ctx context.Context, quizID string, page Page) ([]domain.Attempt, int, error)
	ListStudentAttempts(ctx context.Context, studentID string) ([]domain.Attempt, error)
	CountAttempts(ctx context.Context) (int, error)
}

// ResultReader is the analytics read path.
type ResultReader interface {
	// StudentResults returns the results of the student's completed attempts joined
	// with the labels of their questions.
	StudentResults(ctx context.Context, studentID string) ([]domain.GradedResult, error)
}

// Directory counts entities owned by the CRUD side of the platform.
type Directory interface {
	CountUsers(ctx context.Context) (int, error)
	CountNotes(ctx context.Context) (int, error)
	CountLectures(ctx context.Context) (int, error)
}

// Notifier accepts informational events. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}
