package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// OracleItem is one free-text answer sent to the grading oracle.
type OracleItem struct {
	QuestionID    string `json:"question_id"`
	QuestionText  string `json:"question_text"`
	StudentAnswer string `json:"student_answer_text"`
}

// OracleVerdict is the oracle's judgement for one question.
type OracleVerdict struct {
	QuestionID string `json:"question_id"`
	Status     string `json:"status"`
	Feedback   string `json:"feedback"`
}

// OracleResponse is the batch response of the grading oracle.
type OracleResponse struct {
	ObtainedMarks float64         `json:"obtained_marks"`
	TotalMarks    float64         `json:"total_marks"`
	Questions     []OracleVerdict `json:"questions"`
}

// Oracle grades a batch of free-text answers. Implementations must honour ctx cancellation.
type Oracle interface {
	Grade(ctx context.Context, items []OracleItem) (OracleResponse, error)
}

// ErrMalformedResponse is returned when an oracle reply cannot be parsed into an OracleResponse.
var ErrMalformedResponse = errors.New("malformed oracle response")

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, items []OracleItem) (OracleResponse, error)

func (f OracleFunc) Grade(ctx context.Context, items []OracleItem) (OracleResponse, error) {
	return f(ctx, items)
}

type rawResponse struct {
	ObtainedMarks *float64 `json:"obtained_marks"`
	TotalMarks    *float64 `json:"total_marks"`
	Questions     *[]struct {
		QuestionID *string `json:"question_id"`
		Status     *string `json:"status"`
		Feedback   string  `json:"feedback"`
	} `json:"questions"`
}

// DecodeResponse parses and validates a raw oracle reply. Markdown code fences around
// the JSON document are tolerated since LLM backends tend to add them.
func DecodeResponse(raw []byte) (OracleResponse, error) {
	body := bytes.TrimSpace(raw)
	if bytes.HasPrefix(body, []byte("```")) {
		body = bytes.TrimPrefix(body, []byte("```json"))
		body = bytes.TrimPrefix(body, []byte("```"))
		body = bytes.TrimSuffix(bytes.TrimSpace(body), []byte("```"))
	}

	var parsed rawResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return OracleResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.ObtainedMarks == nil || parsed.TotalMarks == nil || parsed.Questions == nil {
		return OracleResponse{}, fmt.Errorf("%w: missing obtained_marks, total_marks or questions", ErrMalformedResponse)
	}

	resp := OracleResponse{
		ObtainedMarks: *parsed.ObtainedMarks,
		TotalMarks:    *parsed.TotalMarks,
		Questions:     make([]OracleVerdict, 0, len(*parsed.Questions)),
	}
	for _, q := range *parsed.Questions {
		if q.QuestionID == nil || q.Status == nil {
			return OracleResponse{}, fmt.Errorf("%w: question entry without question_id or status", ErrMalformedResponse)
		}
		resp.Questions = append(resp.Questions, OracleVerdict{
			QuestionID: *q.QuestionID,
			Status:     *q.Status,
			Feedback:   q.Feedback,
		})
	}
	if err := resp.validate(); err != nil {
		return OracleResponse{}, err
	}
	return resp, nil
}

func (r OracleResponse) validate() error {
	if r.ObtainedMarks < 0 || r.TotalMarks < 0 || r.ObtainedMarks > r.TotalMarks {
		return fmt.Errorf("%w: marks %.2f/%.2f out of range", ErrMalformedResponse, r.ObtainedMarks, r.TotalMarks)
	}
	for _, q := range r.Questions {
		if _, err := ParseVerdict(q.Status); err != nil {
			return err
		}
	}
	return nil
}

// ParseVerdict maps an oracle status onto correct/incorrect.
func ParseVerdict(status string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "correct", "right", "true", "pass", "passed":
		return true, nil
	case "incorrect", "wrong", "false", "fail", "failed", "partially correct", "partial":
		return false, nil
	}
	return false, fmt.Errorf("%w: unknown status %q", ErrMalformedResponse, status)
}
