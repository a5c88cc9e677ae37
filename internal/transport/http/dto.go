package http

import (
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/jinzhu/copier"
)

type questionRequest struct {
	Text               string             `json:"text" binding:"required"`
	Options            []string           `json:"options" binding:"omitempty,dive,required"`
	CorrectOptionIndex *int               `json:"correct_option_index"`
	SLOTag             *string            `json:"slo_tag"`
	Topic              *string            `json:"topic"`
	Difficulty         *domain.Difficulty `json:"difficulty" binding:"omitempty,difficulty"`
}

type createQuizRequest struct {
	Title           string            `json:"title" binding:"required"`
	Description     string            `json:"description"`
	DurationMinutes int               `json:"duration_minutes" binding:"gte=0"`
	SubjectID       *string           `json:"subject_id"`
	ClassID         *string           `json:"class_id"`
	Type            domain.QuizType   `json:"type" binding:"required,oneof=MCQ SHORT_ANSWER"`
	Deadline        *time.Time        `json:"deadline"`
	Questions       []questionRequest `json:"questions" binding:"dive"`
}

type updateQuizRequest struct {
	Title           *string            `json:"title"`
	Description     *string            `json:"description"`
	DurationMinutes *int               `json:"duration_minutes" binding:"omitempty,gte=0"`
	SubjectID       *string            `json:"subject_id"`
	ClassID         *string            `json:"class_id"`
	Deadline        *time.Time         `json:"deadline"`
	ClearDeadline   bool               `json:"clear_deadline"`
	Status          *domain.QuizStatus `json:"status" binding:"omitempty,oneof=draft published"`
	Type            *domain.QuizType   `json:"type"`
}

type submitRequest struct {
	Answers []domain.Answer `json:"answers" binding:"required"`
}

type questionResponse struct {
	ID                 string             `json:"id"`
	Text               string             `json:"text"`
	Options            []string           `json:"options,omitempty"`
	CorrectOptionIndex *int               `json:"correct_option_index,omitempty"`
	SLOTag             *string            `json:"slo_tag,omitempty"`
	Topic              *string            `json:"topic,omitempty"`
	Difficulty         *domain.Difficulty `json:"difficulty,omitempty"`
	Position           int                `json:"position"`
}

type quizResponse struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	DurationMinutes int                `json:"duration_minutes"`
	SubjectID       *string            `json:"subject_id,omitempty"`
	ClassID         *string            `json:"class_id,omitempty"`
	CreatedBy       string             `json:"created_by"`
	Status          domain.QuizStatus  `json:"status"`
	Type            domain.QuizType    `json:"type"`
	Deadline        *time.Time         `json:"deadline,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	QuestionCount   int                `json:"question_count"`
	Questions       []questionResponse `json:"questions"`
}

type attemptDetailResponse struct {
	Attempt domain.Attempt  `json:"attempt"`
	Results []domain.Result `json:"results"`
}

type attemptListResponse struct {
	Data []domain.Attempt `json:"data"`
	Meta pageMeta         `json:"meta"`
}

type tagAccuracy struct {
	Tag      string  `json:"tag"`
	Accuracy float64 `json:"accuracy"`
}

type topicAccuracy struct {
	Topic    string  `json:"topic"`
	Accuracy float64 `json:"accuracy"`
}

func (r createQuizRequest) toSpec() (app.QuizSpec, error) {
	var spec app.QuizSpec
	if err := copier.Copy(&spec, &r); err != nil {
		return app.QuizSpec{}, err
	}
	return spec, nil
}

func (r questionRequest) toSpec() (app.QuestionSpec, error) {
	var spec app.QuestionSpec
	if err := copier.Copy(&spec, &r); err != nil {
		return app.QuestionSpec{}, err
	}
	return spec, nil
}

func (r updateQuizRequest) toUpdate() app.QuizUpdate {
	return app.QuizUpdate{
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		SubjectID:       r.SubjectID,
		ClassID:         r.ClassID,
		Deadline:        r.Deadline,
		ClearDeadline:   r.ClearDeadline,
		Status:          r.Status,
		Type:            r.Type,
	}
}

func newQuizResponse(quiz domain.Quiz) (quizResponse, error) {
	resp := quizResponse{}
	if err := copier.Copy(&resp, &quiz); err != nil {
		return quizResponse{}, err
	}
	if resp.Questions == nil {
		resp.Questions = []questionResponse{}
	}
	resp.QuestionCount = len(quiz.Questions)
	return resp, nil
}

func newQuizListResponse(quizzes []domain.Quiz) ([]quizResponse, error) {
	out := make([]quizResponse, 0, len(quizzes))
	for _, quiz := range quizzes {
		resp, err := newQuizResponse(quiz)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func newQuestionResponse(q domain.Question) (questionResponse, error) {
	var resp questionResponse
	if err := copier.Copy(&resp, &q); err != nil {
		return questionResponse{}, err
	}
	return resp, nil
}

func tagRows(rows []domain.Accuracy) []tagAccuracy {
	out := make([]tagAccuracy, 0, len(rows))
	for _, r := range rows {
		out = append(out, tagAccuracy{Tag: r.Label, Accuracy: r.Accuracy})
	}
	return out
}

func topicRows(rows []domain.Accuracy) []topicAccuracy {
	out := make([]topicAccuracy, 0, len(rows))
	for _, r := range rows {
		out = append(out, topicAccuracy{Topic: r.Label, Accuracy: r.Accuracy})
	}
	return out
}
