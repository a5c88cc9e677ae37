package grading

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

type shortAnswerStrategy struct {
	oracle  Oracle
	timeout time.Duration
}

func (s shortAnswerStrategy) Grade(ctx context.Context, quiz domain.Quiz, answers []domain.Answer) (Outcome, error) {
	items := make([]OracleItem, 0, len(answers))
	for _, a := range answers {
		q, ok := quiz.Question(a.QuestionID)
		if !ok || a.AnswerText == nil {
			continue
		}
		items = append(items, OracleItem{
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			StudentAnswer: *a.AnswerText,
		})
	}
	if len(items) == 0 {
		return Outcome{}, nil
	}
	if s.oracle == nil {
		return Outcome{}, fmt.Errorf("%w: no oracle configured", domain.ErrOracleFailed)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.oracle.Grade(callCtx, items)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", domain.ErrOracleFailed, err)
	}
	if err := resp.validate(); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", domain.ErrOracleFailed, err)
	}

	verdicts := make(map[string]OracleVerdict, len(resp.Questions))
	for _, v := range resp.Questions {
		if _, dup := verdicts[v.QuestionID]; !dup {
			verdicts[v.QuestionID] = v
		}
	}

	out := Outcome{Results: make([]domain.Result, 0, len(items))}
	for _, item := range items {
		v, ok := verdicts[item.QuestionID]
		if !ok {
			// ungraded by the oracle: no result row
			continue
		}
		correct, _ := ParseVerdict(v.Status)
		if correct {
			out.Correct++
		}
		answer := item.StudentAnswer
		out.Results = append(out.Results, domain.Result{
			QuestionID: item.QuestionID,
			AnswerText: &answer,
			Correct:    correct,
			Feedback:   &domain.Feedback{Verdict: v.Status, Text: v.Feedback},
		})
	}

	if int(math.Round(resp.ObtainedMarks)) != out.Correct {
		log.Warn().
			Str("quiz_id", quiz.ID).
			Float64("obtained_marks", resp.ObtainedMarks).
			Int("correct_verdicts", out.Correct).
			Msg("oracle marks disagree with verdicts; scoring by verdicts")
	}
	return out, nil
}
