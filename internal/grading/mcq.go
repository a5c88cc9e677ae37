package grading

import (
	"context"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
)

type mcqStrategy struct{}

func (mcqStrategy) Grade(_ context.Context, quiz domain.Quiz, answers []domain.Answer) (Outcome, error) {
	out := Outcome{Results: make([]domain.Result, 0, len(answers))}
	for _, a := range answers {
		q, ok := quiz.Question(a.QuestionID)
		if !ok || a.SelectedOptionIndex == nil {
			continue
		}
		selected := *a.SelectedOptionIndex
		correct := q.CorrectOptionIndex != nil && *q.CorrectOptionIndex == selected
		if correct {
			out.Correct++
		}
		out.Results = append(out.Results, domain.Result{
			QuestionID:          q.ID,
			SelectedOptionIndex: &selected,
			Correct:             correct,
		})
	}
	return out, nil
}
