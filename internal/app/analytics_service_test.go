package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
)

func taggedSpec() app.QuizSpec {
	question := func(tag, topic *string) app.QuestionSpec {
		return app.QuestionSpec{Text: "q", Options: []string{"a", "b"}, CorrectOptionIndex: intPtr(0), SLOTag: tag, Topic: topic}
	}
	return app.QuizSpec{Title: "Tagged", Type: domain.QuizMCQ, Questions: []app.QuestionSpec{
		question(strPtr("SLO-1"), strPtr("algebra")),
		question(strPtr("SLO-1"), strPtr("algebra")),
		question(strPtr("SLO-1"), strPtr("geometry")),
		question(nil, nil),
	}}
}

func TestTagAccuracyRoundsToTwoDecimals(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	quiz := f.publishedQuiz(t, taggedSpec())

	if _, err := f.attempts.Submit(ctx, student, quiz.ID, mcqAnswers(quiz, 0, 1, 0, 0)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	tags, err := f.analytics.TagAccuracy(ctx, student.UserID)
	if err != nil {
		t.Fatalf("tag accuracy: %v", err)
	}
	if len(tags) != 1 || tags[0].Label != "SLO-1" || tags[0].Accuracy != 66.67 {
		t.Fatalf("expected SLO-1 at 66.67, got %+v", tags)
	}

	topics, err := f.analytics.TopicAccuracy(ctx, student.UserID)
	if err != nil {
		t.Fatalf("topic accuracy: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected two topics, got %+v", topics)
	}
	if topics[0].Label != "algebra" || topics[0].Accuracy != 50 || topics[1].Label != "geometry" || topics[1].Accuracy != 100 {
		t.Fatalf("unexpected topic rollup %+v", topics)
	}
}

func TestAccuracyWithoutAttemptsIsEmpty(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tags, err := f.analytics.TagAccuracy(ctx, "nobody")
	if err != nil {
		t.Fatalf("tag accuracy: %v", err)
	}
	topics, err := f.analytics.TopicAccuracy(ctx, "nobody")
	if err != nil {
		t.Fatalf("topic accuracy: %v", err)
	}
	if tags == nil || len(tags) != 0 || topics == nil || len(topics) != 0 {
		t.Fatalf("expected empty non-nil lists, got %v / %v", tags, topics)
	}
}

func TestAccuracySkipsAbandonedAttempts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	quiz := f.publishedQuiz(t, taggedSpec())

	attempt, _ := f.store.ReserveAttempt(ctx, quiz.ID, student.UserID, f.now)
	_ = f.store.AbandonAttempt(ctx, attempt.ID)

	tags, _ := f.analytics.TagAccuracy(ctx, student.UserID)
	if len(tags) != 0 {
		t.Fatalf("abandoned attempts must not count, got %+v", tags)
	}
}

func TestStudentOverview(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	first := f.publishedQuiz(t, mcqSpec(4))
	second := f.publishedQuiz(t, mcqSpec(2))

	_, _ = f.attempts.Submit(ctx, student, first.ID, mcqAnswers(first, 1, 1, 1, 0))
	_, _ = f.attempts.Submit(ctx, student, second.ID, mcqAnswers(second, 1, 0))

	overview, err := f.analytics.StudentOverview(ctx, student.UserID)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Attempts != 2 || overview.BestPercentage != 75 || overview.AveragePercentage != 62.5 || overview.PublishedQuizzes != 2 {
		t.Fatalf("unexpected overview %+v", overview)
	}
}

func TestSystemOverview(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	quiz := f.publishedQuiz(t, mcqSpec(1))
	_, _ = f.quizzes.Create(ctx, teacher, mcqSpec(1))
	_, _ = f.attempts.Submit(ctx, student, quiz.ID, mcqAnswers(quiz, 1))

	got, err := f.analytics.SystemOverview(ctx, admin)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	want := domain.Overview{Users: 7, Notes: 3, Lectures: 2, Quizzes: 2, Attempts: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if _, err := f.analytics.SystemOverview(ctx, teacher); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for teacher, got %v", err)
	}
}

func TestResolveStudent(t *testing.T) {
	f := newFixture(t, nil)
	parent := domain.Identity{UserID: "p1", Role: domain.RoleParent, Children: []string{"student-1"}}

	cases := []struct {
		name      string
		caller    domain.Identity
		requested string
		want      string
		wantErr   error
	}{
		{"student defaults to self", student, "", student.UserID, nil},
		{"student cannot read others", student, "student-2", "", domain.ErrForbidden},
		{"parent reads child", parent, "student-1", "student-1", nil},
		{"parent cannot read strangers", parent, "student-2", "", domain.ErrForbidden},
		{"teacher must name a student", teacher, "", "", domain.ErrValidation},
		{"teacher reads any student", teacher, "student-2", "student-2", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.analytics.ResolveStudent(tc.caller, tc.requested)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("expected %q, got %q (%v)", tc.want, got, err)
			}
		})
	}
}
