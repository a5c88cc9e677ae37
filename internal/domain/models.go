package domain

import "time"

// QuizStatus is the lifecycle state of a quiz.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
)

// QuizType selects the grading strategy. It is fixed at creation.
type QuizType string

const (
	QuizMCQ         QuizType = "MCQ"
	QuizShortAnswer QuizType = "SHORT_ANSWER"
)

// Valid reports whether t is a supported quiz type.
func (t QuizType) Valid() bool {
	return t == QuizMCQ || t == QuizShortAnswer
}

// Difficulty is an optional question label.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Quiz is a collection of questions owned by a teacher.
type Quiz struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DurationMinutes int        `json:"duration_minutes"`
	SubjectID       *string    `json:"subject_id,omitempty"`
	ClassID         *string    `json:"class_id,omitempty"`
	CreatedBy       string     `json:"created_by"`
	Status          QuizStatus `json:"status"`
	Type            QuizType   `json:"type"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Questions       []Question `json:"questions"`
}

// Question returns the question with the given id.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// Question belongs to exactly one quiz. MCQ questions carry options and an answer key.
type Question struct {
	ID                 string      `json:"id"`
	QuizID             string      `json:"quiz_id"`
	Text               string      `json:"text"`
	Options            []string    `json:"options,omitempty"`
	CorrectOptionIndex *int        `json:"correct_option_index,omitempty"`
	SLOTag             *string     `json:"slo_tag,omitempty"`
	Topic              *string     `json:"topic,omitempty"`
	Difficulty         *Difficulty `json:"difficulty,omitempty"`
	Position           int         `json:"position"`
}

// AttemptStatus tracks an attempt from reservation to finalization.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	// AttemptAbandoned marks a reservation whose grading failed; it may be reclaimed.
	AttemptAbandoned AttemptStatus = "abandoned"
)

// Attempt is a student's single submission for a quiz.
type Attempt struct {
	ID          string        `json:"id"`
	QuizID      string        `json:"quiz_id"`
	StudentID   string        `json:"student_id"`
	Status      AttemptStatus `json:"status"`
	Score       int           `json:"score"`
	Total       int           `json:"total"`
	Percentage  float64       `json:"percentage"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// Feedback is the opaque verdict and explanation returned by the grading oracle.
type Feedback struct {
	Verdict string `json:"verdict"`
	Text    string `json:"text"`
}

// Result is the graded outcome of one answered question.
type Result struct {
	ID                  string    `json:"id"`
	AttemptID           string    `json:"attempt_id"`
	QuestionID          string    `json:"question_id"`
	SelectedOptionIndex *int      `json:"selected_option_index,omitempty"`
	AnswerText          *string   `json:"answer_text,omitempty"`
	Correct             bool      `json:"correct"`
	Feedback            *Feedback `json:"feedback,omitempty"`
}

// Answer is one submitted answer. Exactly one of the two payload fields applies,
// depending on the quiz type.
type Answer struct {
	QuestionID          string  `json:"question_id"`
	SelectedOptionIndex *int    `json:"selected_option_index,omitempty"`
	AnswerText          *string `json:"answer_text,omitempty"`
}

// Submission is the outcome of a successful submit.
type Submission struct {
	AttemptID  string  `json:"attempt_id"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// GradedResult is a result joined with the labels of its question, used by analytics.
type GradedResult struct {
	AttemptID  string
	QuestionID string
	Correct    bool
	SLOTag     *string
	Topic      *string
}
