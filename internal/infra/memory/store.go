package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/google/uuid"
)

type pairKey struct {
	quizID    string
	studentID string
}

// Store is an in-memory implementation of the quiz, attempt and analytics ports.
// A single lock guards every map, which gives FinalizeAttempt the same all-or-nothing
// visibility as a database transaction, and byPair plays the unique index.
type Store struct {
	mu        sync.RWMutex
	quizzes   map[string]domain.Quiz
	questions map[string][]domain.Question
	attempts  map[string]domain.Attempt
	byPair    map[pairKey]string
	results   map[string][]domain.Result
}

func NewStore() *Store {
	return &Store{
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string][]domain.Question),
		attempts:  make(map[string]domain.Attempt),
		byPair:    make(map[pairKey]string),
		results:   make(map[string][]domain.Result),
	}
}

var (
	_ app.QuizStore    = (*Store)(nil)
	_ app.AttemptStore = (*Store)(nil)
	_ app.ResultReader = (*Store)(nil)
)

func (s *Store) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.withQuestionsLocked(quiz), nil
}

func (s *Store) ListQuizzes(_ context.Context, filter app.QuizFilter) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		if !matchesFilter(quiz, filter) {
			continue
		}
		out = append(out, s.withQuestionsLocked(quiz))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matchesFilter(quiz domain.Quiz, f app.QuizFilter) bool {
	if f.CreatedBy != "" {
		if quiz.CreatedBy == f.CreatedBy {
			return f.Status == "" || quiz.Status == f.Status
		}
		return f.IncludePublished && quiz.Status == domain.QuizPublished
	}
	return f.Status == "" || quiz.Status == f.Status
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; ok {
		return fmt.Errorf("quiz %s already exists", quiz.ID)
	}
	questions := quiz.Questions
	quiz.Questions = nil
	s.quizzes[quiz.ID] = quiz
	s.questions[quiz.ID] = cloneQuestions(questions)
	return nil
}

// UpdateQuiz replaces quiz metadata. Status and creation fields are left untouched.
func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	quiz.Status = current.Status
	quiz.Type = current.Type
	quiz.CreatedBy = current.CreatedBy
	quiz.CreatedAt = current.CreatedAt
	quiz.Questions = nil
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) PublishQuiz(_ context.Context, quizID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return false, domain.ErrQuizNotFound
	}
	if quiz.Status == domain.QuizPublished {
		return false, nil
	}
	quiz.Status = domain.QuizPublished
	quiz.UpdatedAt = at
	s.quizzes[quizID] = quiz
	return true, nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	delete(s.questions, quizID)
	return nil
}

func (s *Store) CreateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.draftLocked(question.QuizID); err != nil {
		return err
	}
	s.questions[question.QuizID] = append(s.questions[question.QuizID], cloneQuestion(question))
	return nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.draftLocked(question.QuizID); err != nil {
		return err
	}
	questions := s.questions[question.QuizID]
	for i := range questions {
		if questions[i].ID == question.ID {
			questions[i] = cloneQuestion(question)
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}

func (s *Store) DeleteQuestion(_ context.Context, quizID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.draftLocked(quizID); err != nil {
		return err
	}
	questions := s.questions[quizID]
	for i := range questions {
		if questions[i].ID == questionID {
			s.questions[quizID] = append(questions[:i:i], questions[i+1:]...)
			return nil
		}
	}
	return domain.ErrQuestionNotFound
}

func (s *Store) CountQuizzes(_ context.Context, status domain.QuizStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, quiz := range s.quizzes {
		if status == "" || quiz.Status == status {
			n++
		}
	}
	return n, nil
}

// draftLocked rejects question writes once the quiz is published.
func (s *Store) draftLocked(quizID string) error {
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	if quiz.Status != domain.QuizDraft {
		return domain.ErrQuizFrozen
	}
	return nil
}

func (s *Store) withQuestionsLocked(quiz domain.Quiz) domain.Quiz {
	questions := cloneQuestions(s.questions[quiz.ID])
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })
	quiz.Questions = questions
	return quiz
}

func (s *Store) ReserveAttempt(_ context.Context, quizID, studentID string, startedAt time.Time) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{quizID: quizID, studentID: studentID}
	if id, ok := s.byPair[key]; ok {
		existing := s.attempts[id]
		if existing.Status != domain.AttemptAbandoned {
			return domain.Attempt{}, domain.ErrAlreadyAttempted
		}
		existing.Status = domain.AttemptInProgress
		existing.StartedAt = startedAt
		s.attempts[id] = existing
		return existing, nil
	}

	attempt := domain.Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		StudentID: studentID,
		Status:    domain.AttemptInProgress,
		StartedAt: startedAt,
	}
	s.attempts[attempt.ID] = attempt
	s.byPair[key] = attempt.ID
	return attempt, nil
}

func (s *Store) FinalizeAttempt(_ context.Context, attempt domain.Attempt, results []domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.attempts[attempt.ID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if current.Status != domain.AttemptInProgress {
		return fmt.Errorf("attempt %s is %s, not in progress", attempt.ID, current.Status)
	}
	current.Status = domain.AttemptCompleted
	current.Score = attempt.Score
	current.Total = attempt.Total
	current.Percentage = attempt.Percentage
	current.CompletedAt = attempt.CompletedAt
	s.attempts[attempt.ID] = current
	s.results[attempt.ID] = append([]domain.Result(nil), results...)
	return nil
}

func (s *Store) AbandonAttempt(_ context.Context, attemptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return domain.ErrAttemptNotFound
	}
	if attempt.Status == domain.AttemptInProgress {
		attempt.Status = domain.AttemptAbandoned
		s.attempts[attemptID] = attempt
	}
	return nil
}

func (s *Store) AbandonStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, attempt := range s.attempts {
		if attempt.Status == domain.AttemptInProgress && attempt.StartedAt.Before(cutoff) {
			attempt.Status = domain.AttemptAbandoned
			s.attempts[id] = attempt
			n++
		}
	}
	return n, nil
}

func (s *Store) GetAttempt(_ context.Context, quizID, studentID string) (domain.Attempt, []domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPair[pairKey{quizID: quizID, studentID: studentID}]
	if !ok {
		return domain.Attempt{}, nil, domain.ErrAttemptNotFound
	}
	results := append([]domain.Result{}, s.results[id]...)
	return s.attempts[id], results, nil
}

func (s *Store) ListAttempts(_ context.Context, quizID string, page app.Page) ([]domain.Attempt, int, error) {
	s.mu.RLock()
	all := make([]domain.Attempt, 0)
	for _, attempt := range s.attempts {
		if attempt.QuizID == quizID {
			all = append(all, attempt)
		}
	}
	s.mu.RUnlock()
	sortAttempts(all)

	total := len(all)
	if page.PerPage <= 0 {
		return all, total, nil
	}
	start := page.Offset()
	if start >= total {
		return []domain.Attempt{}, total, nil
	}
	end := start + page.PerPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *Store) ListStudentAttempts(_ context.Context, studentID string) ([]domain.Attempt, error) {
	s.mu.RLock()
	out := make([]domain.Attempt, 0)
	for _, attempt := range s.attempts {
		if attempt.StudentID == studentID {
			out = append(out, attempt)
		}
	}
	s.mu.RUnlock()
	sortAttempts(out)
	return out, nil
}

func (s *Store) CountAttempts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts), nil
}

// StudentResults joins the results of completed attempts with their questions.
// Results whose question no longer exists are skipped.
func (s *Store) StudentResults(_ context.Context, studentID string) ([]domain.GradedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempts := make([]domain.Attempt, 0)
	for _, attempt := range s.attempts {
		if attempt.StudentID == studentID && attempt.Status == domain.AttemptCompleted {
			attempts = append(attempts, attempt)
		}
	}
	sortAttempts(attempts)

	out := make([]domain.GradedResult, 0)
	for _, attempt := range attempts {
		index := make(map[string]domain.Question, len(s.questions[attempt.QuizID]))
		for _, q := range s.questions[attempt.QuizID] {
			index[q.ID] = q
		}
		for _, r := range s.results[attempt.ID] {
			q, ok := index[r.QuestionID]
			if !ok {
				continue
			}
			out = append(out, domain.GradedResult{
				AttemptID:  attempt.ID,
				QuestionID: r.QuestionID,
				Correct:    r.Correct,
				SLOTag:     q.SLOTag,
				Topic:      q.Topic,
			})
		}
	}
	return out, nil
}

func sortAttempts(attempts []domain.Attempt) {
	sort.Slice(attempts, func(i, j int) bool {
		if !attempts[i].StartedAt.Equal(attempts[j].StartedAt) {
			return attempts[i].StartedAt.Before(attempts[j].StartedAt)
		}
		return attempts[i].ID < attempts[j].ID
	})
}

func cloneQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		out[i] = cloneQuestion(q)
	}
	return out
}

func cloneQuestion(q domain.Question) domain.Question {
	if q.Options != nil {
		q.Options = append([]string(nil), q.Options...)
	}
	return q
}
