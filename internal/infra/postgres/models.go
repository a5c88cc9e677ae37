package postgres

import (
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/uptrace/bun"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID              string         `bun:"id,pk"`
	Title           string         `bun:"title"`
	Description     string         `bun:"description"`
	DurationMinutes int            `bun:"duration_minutes"`
	SubjectID       *string        `bun:"subject_id"`
	ClassID         *string        `bun:"class_id"`
	CreatedBy       string         `bun:"created_by"`
	Status          string         `bun:"status"`
	Type            string         `bun:"type"`
	Deadline        *time.Time     `bun:"deadline"`
	CreatedAt       time.Time      `bun:"created_at"`
	UpdatedAt       time.Time      `bun:"updated_at"`
	Questions       []*questionRow `bun:"rel:has-many,join:id=quiz_id"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID                 string   `bun:"id,pk"`
	QuizID             string   `bun:"quiz_id"`
	Text               string   `bun:"text"`
	Options            []string `bun:"options,type:jsonb"`
	CorrectOptionIndex *int     `bun:"correct_option_index"`
	SLOTag             *string  `bun:"slo_tag"`
	Topic              *string  `bun:"topic"`
	Difficulty         *string  `bun:"difficulty"`
	Position           int      `bun:"position"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts,alias:at"`

	ID          string     `bun:"id,pk"`
	QuizID      string     `bun:"quiz_id"`
	StudentID   string     `bun:"student_id"`
	Status      string     `bun:"status"`
	Score       int        `bun:"score"`
	Total       int        `bun:"total"`
	Percentage  float64    `bun:"percentage"`
	StartedAt   time.Time  `bun:"started_at"`
	CompletedAt *time.Time `bun:"completed_at"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:results,alias:rs"`

	ID                  string  `bun:"id,pk"`
	AttemptID           string  `bun:"attempt_id"`
	QuestionID          string  `bun:"question_id"`
	SelectedOptionIndex *int    `bun:"selected_option_index"`
	AnswerText          *string `bun:"answer_text"`
	Correct             bool    `bun:"correct"`
	FeedbackVerdict     *string `bun:"feedback_verdict"`
	FeedbackText        *string `bun:"feedback_text"`
}

type notificationRow struct {
	bun.BaseModel `bun:"table:notifications,alias:nt"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title"`
	Message   string    `bun:"message"`
	Type      string    `bun:"type"`
	ToUser    *string   `bun:"to_user"`
	ToRole    *string   `bun:"to_role"`
	CreatedBy string    `bun:"created_by"`
	CreatedAt time.Time `bun:"created_at"`
}

func newQuizRow(q domain.Quiz) *quizRow {
	return &quizRow{
		ID:              q.ID,
		Title:           q.Title,
		Description:     q.Description,
		DurationMinutes: q.DurationMinutes,
		SubjectID:       q.SubjectID,
		ClassID:         q.ClassID,
		CreatedBy:       q.CreatedBy,
		Status:          string(q.Status),
		Type:            string(q.Type),
		Deadline:        q.Deadline,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
}

func (r *quizRow) toDomain() domain.Quiz {
	quiz := domain.Quiz{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		SubjectID:       r.SubjectID,
		ClassID:         r.ClassID,
		CreatedBy:       r.CreatedBy,
		Status:          domain.QuizStatus(r.Status),
		Type:            domain.QuizType(r.Type),
		Deadline:        r.Deadline,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Questions:       make([]domain.Question, 0, len(r.Questions)),
	}
	for _, q := range r.Questions {
		quiz.Questions = append(quiz.Questions, q.toDomain())
	}
	return quiz
}

func newQuestionRow(q domain.Question) *questionRow {
	row := &questionRow{
		ID:                 q.ID,
		QuizID:             q.QuizID,
		Text:               q.Text,
		Options:            q.Options,
		CorrectOptionIndex: q.CorrectOptionIndex,
		SLOTag:             q.SLOTag,
		Topic:              q.Topic,
		Position:           q.Position,
	}
	if q.Difficulty != nil {
		d := string(*q.Difficulty)
		row.Difficulty = &d
	}
	return row
}

func (r *questionRow) toDomain() domain.Question {
	q := domain.Question{
		ID:                 r.ID,
		QuizID:             r.QuizID,
		Text:               r.Text,
		Options:            r.Options,
		CorrectOptionIndex: r.CorrectOptionIndex,
		SLOTag:             r.SLOTag,
		Topic:              r.Topic,
		Position:           r.Position,
	}
	if r.Difficulty != nil {
		d := domain.Difficulty(*r.Difficulty)
		q.Difficulty = &d
	}
	return q
}

func (r *attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:          r.ID,
		QuizID:      r.QuizID,
		StudentID:   r.StudentID,
		Status:      domain.AttemptStatus(r.Status),
		Score:       r.Score,
		Total:       r.Total,
		Percentage:  r.Percentage,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}

func newResultRow(r domain.Result) resultRow {
	row := resultRow{
		ID:                  r.ID,
		AttemptID:           r.AttemptID,
		QuestionID:          r.QuestionID,
		SelectedOptionIndex: r.SelectedOptionIndex,
		AnswerText:          r.AnswerText,
		Correct:             r.Correct,
	}
	if r.Feedback != nil {
		row.FeedbackVerdict = &r.Feedback.Verdict
		row.FeedbackText = &r.Feedback.Text
	}
	return row
}

func (r *resultRow) toDomain() domain.Result {
	res := domain.Result{
		ID:                  r.ID,
		AttemptID:           r.AttemptID,
		QuestionID:          r.QuestionID,
		SelectedOptionIndex: r.SelectedOptionIndex,
		AnswerText:          r.AnswerText,
		Correct:             r.Correct,
	}
	if r.FeedbackVerdict != nil || r.FeedbackText != nil {
		res.Feedback = &domain.Feedback{}
		if r.FeedbackVerdict != nil {
			res.Feedback.Verdict = *r.FeedbackVerdict
		}
		if r.FeedbackText != nil {
			res.Feedback.Text = *r.FeedbackText
		}
	}
	return res
}

func newNotificationRow(n domain.Notification) *notificationRow {
	row := &notificationRow{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		ToUser:    n.Audience.ToUser,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt,
	}
	if n.Audience.ToRole != nil {
		role := string(*n.Audience.ToRole)
		row.ToRole = &role
	}
	return row
}

func (r *notificationRow) toDomain() domain.Notification {
	n := domain.Notification{
		ID:        r.ID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      r.Type,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
	n.Audience.ToUser = r.ToUser
	if r.ToRole != nil {
		role := domain.Role(*r.ToRole)
		n.Audience.ToRole = &role
	}
	return n
}
