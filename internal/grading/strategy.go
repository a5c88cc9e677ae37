package grading

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
)

// DefaultOracleTimeout bounds a single oracle round-trip when no timeout is configured.
const DefaultOracleTimeout = 30 * time.Second

// Outcome is the result of grading one submission.
type Outcome struct {
	Results []domain.Result
	Correct int
}

// Strategy grades a validated set of answers for one quiz type.
type Strategy interface {
	Grade(ctx context.Context, quiz domain.Quiz, answers []domain.Answer) (Outcome, error)
}

// Engine dispatches a submission to the strategy of the quiz type.
type Engine struct {
	strategies map[domain.QuizType]Strategy
}

// NewEngine wires the MCQ and short-answer strategies. timeout bounds every oracle call.
func NewEngine(oracle Oracle, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	return &Engine{
		strategies: map[domain.QuizType]Strategy{
			domain.QuizMCQ:         mcqStrategy{},
			domain.QuizShortAnswer: shortAnswerStrategy{oracle: oracle, timeout: timeout},
		},
	}
}

// Grade grades answers previously returned by PrepareAnswers.
func (e *Engine) Grade(ctx context.Context, quiz domain.Quiz, answers []domain.Answer) (Outcome, error) {
	strategy, ok := e.strategies[quiz.Type]
	if !ok {
		return Outcome{}, fmt.Errorf("no grading strategy for quiz type %q", quiz.Type)
	}
	return strategy.Grade(ctx, quiz, answers)
}

// PrepareAnswers drops answers for unknown questions and validates the rest against
// the quiz type. It never mutates anything and runs before an attempt is reserved.
func PrepareAnswers(quiz domain.Quiz, answers []domain.Answer) ([]domain.Answer, error) {
	seen := make(map[string]struct{}, len(answers))
	kept := make([]domain.Answer, 0, len(answers))
	for _, a := range answers {
		q, ok := quiz.Question(a.QuestionID)
		if !ok {
			continue
		}
		if _, dup := seen[a.QuestionID]; dup {
			return nil, domain.NewValidationError(fmt.Sprintf("question %s answered more than once", a.QuestionID))
		}
		seen[a.QuestionID] = struct{}{}

		switch quiz.Type {
		case domain.QuizMCQ:
			if a.SelectedOptionIndex == nil {
				return nil, domain.NewValidationError(fmt.Sprintf("question %s: selected_option_index is required", a.QuestionID))
			}
			if idx := *a.SelectedOptionIndex; idx < 0 || idx >= len(q.Options) {
				return nil, domain.NewValidationError(fmt.Sprintf("question %s: selected_option_index out of range", a.QuestionID))
			}
		case domain.QuizShortAnswer:
			if a.AnswerText == nil {
				return nil, domain.NewValidationError(fmt.Sprintf("question %s: answer_text is required", a.QuestionID))
			}
		}
		kept = append(kept, a)
	}
	return kept, nil
}

// Percentage returns correct/total*100 rounded to two decimals, or 0 for an empty quiz.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round2(float64(correct) / float64(total) * 100)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
