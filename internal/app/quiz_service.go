package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// QuestionSpec is the authored content of a question.
type QuestionSpec struct {
	Text               string
	Options            []string
	CorrectOptionIndex *int
	SLOTag             *string
	Topic              *string
	Difficulty         *domain.Difficulty
}

// QuizSpec is the input of QuizService.Create.
type QuizSpec struct {
	Title           string
	Description     string
	DurationMinutes int
	SubjectID       *string
	ClassID         *string
	Type            domain.QuizType
	Deadline        *time.Time
	Questions       []QuestionSpec
}

// QuizUpdate carries the fields to change; nil means unchanged.
type QuizUpdate struct {
	Title           *string
	Description     *string
	DurationMinutes *int
	SubjectID       *string
	ClassID         *string
	Deadline        *time.Time
	ClearDeadline   bool
	Status          *domain.QuizStatus
	Type            *domain.QuizType
}

// QuizService owns the quiz lifecycle and the question bank.
type QuizService struct {
	quizzes  QuizStore
	notifier Notifier
	now      func() time.Time
}

func NewQuizService(quizzes QuizStore, notifier Notifier) *QuizService {
	return &QuizService{quizzes: quizzes, notifier: notifier, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// Create stores a new draft quiz owned by the caller.
func (s *QuizService) Create(ctx context.Context, caller domain.Identity, spec QuizSpec) (domain.Quiz, error) {
	if !caller.Role.Privileged() {
		return domain.Quiz{}, domain.ErrRoleNotAllowed
	}
	if strings.TrimSpace(spec.Title) == "" {
		return domain.Quiz{}, domain.NewValidationError("title is required")
	}
	if !spec.Type.Valid() {
		return domain.Quiz{}, domain.NewValidationError(fmt.Sprintf("unsupported quiz type %q", spec.Type))
	}
	if spec.DurationMinutes < 0 {
		return domain.Quiz{}, domain.NewValidationError("duration_minutes must not be negative")
	}

	now := s.now().UTC()
	quiz := domain.Quiz{
		ID:              uuid.NewString(),
		Title:           spec.Title,
		Description:     spec.Description,
		DurationMinutes: spec.DurationMinutes,
		SubjectID:       spec.SubjectID,
		ClassID:         spec.ClassID,
		CreatedBy:       caller.UserID,
		Status:          domain.QuizDraft,
		Type:            spec.Type,
		Deadline:        spec.Deadline,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i, qs := range spec.Questions {
		question, err := buildQuestion(quiz, qs)
		if err != nil {
			return domain.Quiz{}, err
		}
		question.Position = i
		quiz.Questions = append(quiz.Questions, question)
	}

	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	log.Info().Str("quiz_id", quiz.ID).Str("created_by", caller.UserID).Msg("quiz created")
	return quiz, nil
}

// Get loads a quiz. Students and parents only see published quizzes, without answer keys.
func (s *QuizService) Get(ctx context.Context, caller domain.Identity, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if caller.Role.Privileged() {
		return quiz, nil
	}
	if quiz.Status != domain.QuizPublished {
		return domain.Quiz{}, domain.ErrQuizNotAvailable
	}
	return redact(quiz), nil
}

// List returns the quizzes visible to the caller.
func (s *QuizService) List(ctx context.Context, caller domain.Identity) ([]domain.Quiz, error) {
	var filter QuizFilter
	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleTeacher:
		filter = QuizFilter{CreatedBy: caller.UserID, IncludePublished: true}
	default:
		filter = QuizFilter{Status: domain.QuizPublished}
	}
	quizzes, err := s.quizzes.ListQuizzes(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !caller.Role.Privileged() {
		for i := range quizzes {
			quizzes[i] = redact(quizzes[i])
		}
	}
	return quizzes, nil
}

// Update changes quiz fields. A draft to published transition notifies students once.
func (s *QuizService) Update(ctx context.Context, caller domain.Identity, quizID string, upd QuizUpdate) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !caller.CanMutate(quiz.CreatedBy) {
		return domain.Quiz{}, domain.ErrNotOwner
	}
	if upd.Type != nil && *upd.Type != quiz.Type {
		return domain.Quiz{}, domain.NewValidationError("quiz type cannot be changed")
	}
	publish := false
	if upd.Status != nil {
		switch {
		case *upd.Status == domain.QuizPublished:
			publish = quiz.Status == domain.QuizDraft
		case *upd.Status == domain.QuizDraft && quiz.Status == domain.QuizPublished:
			return domain.Quiz{}, domain.NewValidationError("a published quiz cannot return to draft")
		case *upd.Status != domain.QuizDraft:
			return domain.Quiz{}, domain.NewValidationError(fmt.Sprintf("unknown status %q", *upd.Status))
		}
	}

	changed := false
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return domain.Quiz{}, domain.NewValidationError("title is required")
		}
		quiz.Title, changed = *upd.Title, true
	}
	if upd.Description != nil {
		quiz.Description, changed = *upd.Description, true
	}
	if upd.DurationMinutes != nil {
		if *upd.DurationMinutes < 0 {
			return domain.Quiz{}, domain.NewValidationError("duration_minutes must not be negative")
		}
		quiz.DurationMinutes, changed = *upd.DurationMinutes, true
	}
	if upd.SubjectID != nil {
		quiz.SubjectID, changed = upd.SubjectID, true
	}
	if upd.ClassID != nil {
		quiz.ClassID, changed = upd.ClassID, true
	}
	if upd.ClearDeadline {
		quiz.Deadline, changed = nil, true
	} else if upd.Deadline != nil {
		quiz.Deadline, changed = upd.Deadline, true
	}

	now := s.now().UTC()
	if changed {
		quiz.UpdatedAt = now
		if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
			return domain.Quiz{}, err
		}
	}
	if publish {
		transitioned, err := s.quizzes.PublishQuiz(ctx, quizID, now)
		if err != nil {
			return domain.Quiz{}, err
		}
		if transitioned {
			log.Info().Str("quiz_id", quizID).Msg("quiz published")
			student := domain.RoleStudent
			notify(ctx, s.notifier, domain.Notification{
				Title:     "New quiz published",
				Message:   fmt.Sprintf("%q is now available", quiz.Title),
				Type:      domain.NotificationQuizPublished,
				Audience:  domain.Audience{ToRole: &student},
				CreatedBy: caller.UserID,
			})
		}
	}
	return s.quizzes.GetQuiz(ctx, quizID)
}

// Delete removes a quiz together with its questions.
func (s *QuizService) Delete(ctx context.Context, caller domain.Identity, quizID string) error {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if !caller.CanMutate(quiz.CreatedBy) {
		return domain.ErrNotOwner
	}
	if err := s.quizzes.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	log.Info().Str("quiz_id", quizID).Str("deleted_by", caller.UserID).Msg("quiz deleted")
	return nil
}

// AddQuestion appends a question to a draft quiz.
func (s *QuizService) AddQuestion(ctx context.Context, caller domain.Identity, quizID string, spec QuestionSpec) (domain.Question, error) {
	quiz, err := s.editableQuiz(ctx, caller, quizID)
	if err != nil {
		return domain.Question{}, err
	}
	question, err := buildQuestion(quiz, spec)
	if err != nil {
		return domain.Question{}, err
	}
	for _, q := range quiz.Questions {
		if q.Position >= question.Position {
			question.Position = q.Position + 1
		}
	}
	if err := s.quizzes.CreateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// UpdateQuestion replaces the content of a question of a draft quiz.
func (s *QuizService) UpdateQuestion(ctx context.Context, caller domain.Identity, quizID, questionID string, spec QuestionSpec) (domain.Question, error) {
	quiz, err := s.editableQuiz(ctx, caller, quizID)
	if err != nil {
		return domain.Question{}, err
	}
	existing, ok := quiz.Question(questionID)
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	question, err := buildQuestion(quiz, spec)
	if err != nil {
		return domain.Question{}, err
	}
	question.ID = existing.ID
	question.Position = existing.Position
	if err := s.quizzes.UpdateQuestion(ctx, question); err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// DeleteQuestion removes a question from a draft quiz.
func (s *QuizService) DeleteQuestion(ctx context.Context, caller domain.Identity, quizID, questionID string) error {
	quiz, err := s.editableQuiz(ctx, caller, quizID)
	if err != nil {
		return err
	}
	if _, ok := quiz.Question(questionID); !ok {
		return domain.ErrQuestionNotFound
	}
	return s.quizzes.DeleteQuestion(ctx, quizID, questionID)
}

// editableQuiz loads a quiz whose questions the caller may change. Questions of a
// published quiz are frozen so stored results keep matching their questions.
func (s *QuizService) editableQuiz(ctx context.Context, caller domain.Identity, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !caller.CanMutate(quiz.CreatedBy) {
		return domain.Quiz{}, domain.ErrNotOwner
	}
	if quiz.Status == domain.QuizPublished {
		return domain.Quiz{}, domain.ErrQuizFrozen
	}
	return quiz, nil
}

func buildQuestion(quiz domain.Quiz, spec QuestionSpec) (domain.Question, error) {
	if strings.TrimSpace(spec.Text) == "" {
		return domain.Question{}, domain.NewValidationError("question text is required")
	}
	if spec.Difficulty != nil && !spec.Difficulty.Valid() {
		return domain.Question{}, domain.NewValidationError(fmt.Sprintf("unknown difficulty %q", *spec.Difficulty))
	}
	switch quiz.Type {
	case domain.QuizMCQ:
		if len(spec.Options) < 2 {
			return domain.Question{}, domain.NewValidationError("MCQ questions need at least two options")
		}
		if spec.CorrectOptionIndex == nil || *spec.CorrectOptionIndex < 0 || *spec.CorrectOptionIndex >= len(spec.Options) {
			return domain.Question{}, domain.NewValidationError("correct_option_index must point at one of the options")
		}
	case domain.QuizShortAnswer:
		if len(spec.Options) > 0 || spec.CorrectOptionIndex != nil {
			return domain.Question{}, domain.NewValidationError("short answer questions carry no options")
		}
	}
	return domain.Question{
		ID:                 uuid.NewString(),
		QuizID:             quiz.ID,
		Text:               spec.Text,
		Options:            spec.Options,
		CorrectOptionIndex: spec.CorrectOptionIndex,
		SLOTag:             spec.SLOTag,
		Topic:              spec.Topic,
		Difficulty:         spec.Difficulty,
	}, nil
}

// redact strips answer keys from a copy of the quiz.
func redact(quiz domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(quiz.Questions))
	for i, q := range quiz.Questions {
		q.CorrectOptionIndex = nil
		questions[i] = q
	}
	quiz.Questions = questions
	return quiz
}

const notifyTimeout = 5 * time.Second

// notify delivers n best-effort; failures are logged and never returned.
func notify(ctx context.Context, notifier Notifier, n domain.Notification) {
	if notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := notifier.Notify(ctx, n); err != nil {
		log.Warn().Err(err).Str("type", n.Type).Msg("notification not delivered")
	}
}
