package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/Zainify/onlineportal-sub001/internal/grading"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AttemptService is the attempt ledger: eligibility, grading and finalization.
type AttemptService struct {
	quizzes  QuizReader
	attempts AttemptStore
	engine   *grading.Engine
	notifier Notifier
	now      func() time.Time
}

func NewAttemptService(quizzes QuizReader, attempts AttemptStore, engine *grading.Engine, notifier Notifier) *AttemptService {
	return &AttemptService{
		quizzes:  quizzes,
		attempts: attempts,
		engine:   engine,
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// Submit grades the student's single attempt at a quiz.
//
// The attempt row is reserved before grading so concurrent submissions for the
// same (quiz, student) collide on the storage uniqueness constraint. If grading
// fails the reservation is abandoned and a later submission may reclaim it.
// Answers are validated before the reservation, so a malformed payload reports
// a validation error even when the student has already attempted the quiz.
func (s *AttemptService) Submit(ctx context.Context, caller domain.Identity, quizID string, answers []domain.Answer) (domain.Submission, error) {
	if caller.Role != domain.RoleStudent {
		return domain.Submission{}, domain.ErrRoleNotAllowed
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Submission{}, err
	}
	if quiz.Status != domain.QuizPublished {
		return domain.Submission{}, domain.ErrQuizNotAvailable
	}
	now := s.now().UTC()
	if quiz.Deadline != nil && now.After(*quiz.Deadline) {
		return domain.Submission{}, domain.ErrDeadlinePassed
	}
	prepared, err := grading.PrepareAnswers(quiz, answers)
	if err != nil {
		return domain.Submission{}, err
	}

	attempt, err := s.attempts.ReserveAttempt(ctx, quizID, caller.UserID, now)
	if err != nil {
		return domain.Submission{}, err
	}
	logger := log.With().Str("quiz_id", quizID).Str("attempt_id", attempt.ID).Str("student_id", caller.UserID).Logger()

	outcome, err := s.engine.Grade(ctx, quiz, prepared)
	if err != nil {
		s.abandon(ctx, attempt.ID)
		logger.Warn().Err(err).Msg("grading failed, attempt abandoned")
		if errors.Is(err, domain.ErrGradingUnavailable) {
			return domain.Submission{}, err
		}
		return domain.Submission{}, fmt.Errorf("grade attempt: %w", err)
	}

	completedAt := s.now().UTC()
	attempt.Status = domain.AttemptCompleted
	attempt.Score = outcome.Correct
	attempt.Total = len(quiz.Questions)
	attempt.Percentage = grading.Percentage(outcome.Correct, attempt.Total)
	attempt.CompletedAt = &completedAt

	results := make([]domain.Result, len(outcome.Results))
	for i, r := range outcome.Results {
		r.ID = uuid.NewString()
		r.AttemptID = attempt.ID
		results[i] = r
	}
	if err := s.attempts.FinalizeAttempt(ctx, attempt, results); err != nil {
		s.abandon(ctx, attempt.ID)
		return domain.Submission{}, fmt.Errorf("finalize attempt: %w", err)
	}
	logger.Info().Int("score", attempt.Score).Int("total", attempt.Total).Msg("attempt graded")

	student := caller.UserID
	notify(ctx, s.notifier, domain.Notification{
		Title:     "Quiz result published",
		Message:   fmt.Sprintf("You scored %d/%d (%.2f%%) on %q", attempt.Score, attempt.Total, attempt.Percentage, quiz.Title),
		Type:      domain.NotificationResultPublished,
		Audience:  domain.Audience{ToUser: &student},
		CreatedBy: quiz.CreatedBy,
	})

	return domain.Submission{
		AttemptID:  attempt.ID,
		Score:      attempt.Score,
		Total:      attempt.Total,
		Percentage: attempt.Percentage,
	}, nil
}

// MyAttempt returns the caller's own attempt and its results.
func (s *AttemptService) MyAttempt(ctx context.Context, caller domain.Identity, quizID string) (domain.Attempt, []domain.Result, error) {
	return s.attempts.GetAttempt(ctx, quizID, caller.UserID)
}

// ListAttempts pages through every attempt of a quiz. Only the quiz owner or an admin may do this.
func (s *AttemptService) ListAttempts(ctx context.Context, caller domain.Identity, quizID string, page Page) ([]domain.Attempt, int, error) {
	if !caller.Role.Privileged() {
		return nil, 0, domain.ErrRoleNotAllowed
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, 0, err
	}
	if !caller.CanMutate(quiz.CreatedBy) {
		return nil, 0, domain.ErrNotOwner
	}
	return s.attempts.ListAttempts(ctx, quizID, page)
}

// ReapStale abandons reservations older than maxAge whose grading never finished,
// making them reclaimable by their students.
func (s *AttemptService) ReapStale(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := s.attempts.AbandonStale(ctx, s.now().UTC().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("abandon stale attempts: %w", err)
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("stale attempts abandoned")
	}
	return n, nil
}

const abandonTimeout = 5 * time.Second

func (s *AttemptService) abandon(ctx context.Context, attemptID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abandonTimeout)
	defer cancel()
	if err := s.attempts.AbandonAttempt(ctx, attemptID); err != nil {
		log.Error().Err(err).Str("attempt_id", attemptID).Msg("could not abandon attempt; the reaper will retry")
	}
}
