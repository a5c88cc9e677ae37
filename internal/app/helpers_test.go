package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/Zainify/onlineportal-sub001/internal/grading"
	"github.com/Zainify/onlineportal-sub001/internal/infra/memory"
)

var (
	teacher = domain.Identity{UserID: "teacher-1", Role: domain.RoleTeacher}
	other   = domain.Identity{UserID: "teacher-2", Role: domain.RoleTeacher}
	admin   = domain.Identity{UserID: "admin-1", Role: domain.RoleAdmin}
	student = domain.Identity{UserID: "student-1", Role: domain.RoleStudent}
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	fail error
}

func (n *recordingNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return n.fail
}

func (n *recordingNotifier) ofType(kind string) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notification
	for _, note := range n.sent {
		if note.Type == kind {
			out = append(out, note)
		}
	}
	return out
}

type fixture struct {
	store     *memory.Store
	notifier  *recordingNotifier
	quizzes   *app.QuizService
	attempts  *app.AttemptService
	analytics *app.AnalyticsService
	now       time.Time
}

func newFixture(t *testing.T, oracle grading.Oracle) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewStore(),
		notifier: &recordingNotifier{},
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.quizzes = app.NewQuizService(f.store, f.notifier).WithClock(clock)
	f.attempts = app.NewAttemptService(f.store, f.store, grading.NewEngine(oracle, 50*time.Millisecond), f.notifier).WithClock(clock)
	f.analytics = app.NewAnalyticsService(f.store, f.store, f.store, memory.StaticDirectory{Users: 7, Notes: 3, Lectures: 2})
	return f
}

func mcqSpec(n int) app.QuizSpec {
	spec := app.QuizSpec{Title: "Fractions", Type: domain.QuizMCQ, DurationMinutes: 15}
	for i := 0; i < n; i++ {
		spec.Questions = append(spec.Questions, app.QuestionSpec{
			Text:               "pick one",
			Options:            []string{"a", "b", "c"},
			CorrectOptionIndex: intPtr(1),
		})
	}
	return spec
}

// publishedQuiz creates and publishes a quiz owned by teacher.
func (f *fixture) publishedQuiz(t *testing.T, spec app.QuizSpec) domain.Quiz {
	t.Helper()
	ctx := context.Background()
	quiz, err := f.quizzes.Create(ctx, teacher, spec)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	published := domain.QuizPublished
	quiz, err = f.quizzes.Update(ctx, teacher, quiz.ID, app.QuizUpdate{Status: &published})
	if err != nil {
		t.Fatalf("publish quiz: %v", err)
	}
	return quiz
}

func mcqAnswers(quiz domain.Quiz, picks ...int) []domain.Answer {
	answers := make([]domain.Answer, 0, len(picks))
	for i, pick := range picks {
		answers = append(answers, domain.Answer{QuestionID: quiz.Questions[i].ID, SelectedOptionIndex: intPtr(pick)})
	}
	return answers
}
