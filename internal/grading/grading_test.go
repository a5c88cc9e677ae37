package grading_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/Zainify/onlineportal-sub001/internal/grading"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func mcqQuiz(n int) domain.Quiz {
	quiz := domain.Quiz{ID: "quiz-1", Type: domain.QuizMCQ, Status: domain.QuizPublished}
	for i := 0; i < n; i++ {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:                 string(rune('a' + i)),
			QuizID:             "quiz-1",
			Text:               "question",
			Options:            []string{"w", "x", "y", "z"},
			CorrectOptionIndex: intPtr(1),
		})
	}
	return quiz
}

func shortQuiz(n int) domain.Quiz {
	quiz := domain.Quiz{ID: "quiz-2", Type: domain.QuizShortAnswer, Status: domain.QuizPublished}
	for i := 0; i < n; i++ {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:     string(rune('a' + i)),
			QuizID: "quiz-2",
			Text:   "explain",
		})
	}
	return quiz
}

func TestMCQCountsCorrectAnswers(t *testing.T) {
	quiz := mcqQuiz(4)
	answers := []domain.Answer{
		{QuestionID: "a", SelectedOptionIndex: intPtr(1)},
		{QuestionID: "b", SelectedOptionIndex: intPtr(1)},
		{QuestionID: "c", SelectedOptionIndex: intPtr(1)},
		{QuestionID: "d", SelectedOptionIndex: intPtr(0)},
	}
	engine := grading.NewEngine(nil, time.Second)

	out, err := engine.Grade(context.Background(), quiz, answers)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if out.Correct != 3 || len(out.Results) != 4 {
		t.Fatalf("expected 3 correct of 4 results, got %d of %d", out.Correct, len(out.Results))
	}
	if got := grading.Percentage(out.Correct, len(quiz.Questions)); got != 75 {
		t.Fatalf("expected 75, got %v", got)
	}
	if out.Results[3].Correct || *out.Results[3].SelectedOptionIndex != 0 {
		t.Fatalf("unexpected last result %+v", out.Results[3])
	}
}

func TestPrepareAnswersDropsUnknownQuestions(t *testing.T) {
	quiz := mcqQuiz(2)
	kept, err := grading.PrepareAnswers(quiz, []domain.Answer{
		{QuestionID: "a", SelectedOptionIndex: intPtr(1)},
		{QuestionID: "ghost", SelectedOptionIndex: intPtr(1)},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(kept) != 1 || kept[0].QuestionID != "a" {
		t.Fatalf("expected only the known answer, got %+v", kept)
	}
}

func TestPrepareAnswersRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]struct {
		quiz    domain.Quiz
		answers []domain.Answer
	}{
		"mcq without index": {mcqQuiz(1), []domain.Answer{{QuestionID: "a"}}},
		"mcq out of range":  {mcqQuiz(1), []domain.Answer{{QuestionID: "a", SelectedOptionIndex: intPtr(4)}}},
		"negative index":    {mcqQuiz(1), []domain.Answer{{QuestionID: "a", SelectedOptionIndex: intPtr(-1)}}},
		"duplicate": {mcqQuiz(1), []domain.Answer{
			{QuestionID: "a", SelectedOptionIndex: intPtr(1)},
			{QuestionID: "a", SelectedOptionIndex: intPtr(2)},
		}},
		"short answer without text": {shortQuiz(1), []domain.Answer{{QuestionID: "a"}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := grading.PrepareAnswers(tc.quiz, tc.answers)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestShortAnswerUsesOracleVerdicts(t *testing.T) {
	quiz := shortQuiz(3)
	var gotItems []grading.OracleItem
	oracle := grading.OracleFunc(func(ctx context.Context, items []grading.OracleItem) (grading.OracleResponse, error) {
		gotItems = items
		return grading.OracleResponse{
			ObtainedMarks: 2,
			TotalMarks:    3,
			Questions: []grading.OracleVerdict{
				{QuestionID: "a", Status: "correct", Feedback: "good"},
				{QuestionID: "b", Status: "incorrect", Feedback: "missing detail"},
				{QuestionID: "c", Status: "Correct", Feedback: "ok"},
			},
		}, nil
	})
	engine := grading.NewEngine(oracle, time.Second)

	out, err := engine.Grade(context.Background(), quiz, []domain.Answer{
		{QuestionID: "a", AnswerText: strPtr("one")},
		{QuestionID: "b", AnswerText: strPtr("two")},
		{QuestionID: "c", AnswerText: strPtr("three")},
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if len(gotItems) != 3 || gotItems[1].StudentAnswer != "two" || gotItems[1].QuestionText != "explain" {
		t.Fatalf("unexpected oracle batch %+v", gotItems)
	}
	if out.Correct != 2 {
		t.Fatalf("expected 2 correct, got %d", out.Correct)
	}
	if got := grading.Percentage(out.Correct, 3); got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
	if fb := out.Results[1].Feedback; fb == nil || fb.Text != "missing detail" || fb.Verdict != "incorrect" {
		t.Fatalf("unexpected feedback %+v", fb)
	}
}

func TestShortAnswerToleratesOmittedEntries(t *testing.T) {
	quiz := shortQuiz(2)
	oracle := grading.OracleFunc(func(ctx context.Context, items []grading.OracleItem) (grading.OracleResponse, error) {
		return grading.OracleResponse{
			ObtainedMarks: 1,
			TotalMarks:    2,
			Questions: []grading.OracleVerdict{
				{QuestionID: "b", Status: "correct"},
				{QuestionID: "zzz", Status: "correct"},
			},
		}, nil
	})
	out, err := grading.NewEngine(oracle, time.Second).Grade(context.Background(), quiz, []domain.Answer{
		{QuestionID: "a", AnswerText: strPtr("one")},
		{QuestionID: "b", AnswerText: strPtr("two")},
	})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if len(out.Results) != 1 || out.Results[0].QuestionID != "b" || out.Correct != 1 {
		t.Fatalf("expected a single graded result for b, got %+v", out)
	}
}

func TestShortAnswerOracleFailureIsGradingUnavailable(t *testing.T) {
	quiz := shortQuiz(1)
	answers := []domain.Answer{{QuestionID: "a", AnswerText: strPtr("one")}}

	failing := grading.OracleFunc(func(ctx context.Context, items []grading.OracleItem) (grading.OracleResponse, error) {
		return grading.OracleResponse{}, errors.New("boom")
	})
	if _, err := grading.NewEngine(failing, time.Second).Grade(context.Background(), quiz, answers); !errors.Is(err, domain.ErrGradingUnavailable) {
		t.Fatalf("expected grading unavailable, got %v", err)
	}

	slow := grading.OracleFunc(func(ctx context.Context, items []grading.OracleItem) (grading.OracleResponse, error) {
		<-ctx.Done()
		return grading.OracleResponse{}, ctx.Err()
	})
	start := time.Now()
	if _, err := grading.NewEngine(slow, 20*time.Millisecond).Grade(context.Background(), quiz, answers); !errors.Is(err, domain.ErrGradingUnavailable) {
		t.Fatalf("expected timeout to be grading unavailable, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("oracle timeout not enforced")
	}

	bogus := grading.OracleFunc(func(ctx context.Context, items []grading.OracleItem) (grading.OracleResponse, error) {
		return grading.OracleResponse{ObtainedMarks: 3, TotalMarks: 1}, nil
	})
	if _, err := grading.NewEngine(bogus, time.Second).Grade(context.Background(), quiz, answers); !errors.Is(err, domain.ErrGradingUnavailable) {
		t.Fatalf("expected malformed marks to be grading unavailable, got %v", err)
	}
}

func TestShortAnswerWithoutAnswersSkipsOracle(t *testing.T) {
	called := false
	oracle := grading.OracleFunc(func(ctx context.Context, items []grading.OracleItem) (grading.OracleResponse, error) {
		called = true
		return grading.OracleResponse{}, nil
	})
	out, err := grading.NewEngine(oracle, time.Second).Grade(context.Background(), shortQuiz(2), nil)
	if err != nil || called || len(out.Results) != 0 {
		t.Fatalf("expected no oracle call, got called=%v out=%+v err=%v", called, out, err)
	}
}

func TestDecodeResponse(t *testing.T) {
	raw := "```json\n{\"obtained_marks\": 1, \"total_marks\": 2, \"questions\": [{\"question_id\": \"a\", \"status\": \"correct\", \"feedback\": \"fine\"}]}\n```"
	resp, err := grading.DecodeResponse([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ObtainedMarks != 1 || len(resp.Questions) != 1 || resp.Questions[0].Feedback != "fine" {
		t.Fatalf("unexpected response %+v", resp)
	}

	for _, bad := range []string{
		`not json`,
		`{"obtained_marks": 1, "questions": []}`,
		`{"obtained_marks": 1, "total_marks": 2, "questions": [{"status": "correct"}]}`,
		`{"obtained_marks": 1, "total_marks": 2, "questions": [{"question_id": "a", "status": "maybe"}]}`,
	} {
		if _, err := grading.DecodeResponse([]byte(bad)); !errors.Is(err, grading.ErrMalformedResponse) {
			t.Fatalf("expected malformed error for %q, got %v", bad, err)
		}
	}
}

func TestRound2(t *testing.T) {
	if got := grading.Percentage(2, 3); got != 66.67 {
		t.Fatalf("expected 66.67, got %v", got)
	}
	if got := grading.Percentage(1, 3); got != 33.33 {
		t.Fatalf("expected 33.33, got %v", got)
	}
	if got := grading.Percentage(0, 0); got != 0 {
		t.Fatalf("expected 0 for empty quiz, got %v", got)
	}
}
