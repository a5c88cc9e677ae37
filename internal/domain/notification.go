package domain

import "time"

// Audience addresses a notification to a single user or to every user of a role.
type Audience struct {
	ToUser *string `json:"to_user,omitempty"`
	ToRole *Role   `json:"to_role,omitempty"`
}

// Matches reports whether the identity is part of the audience.
func (a Audience) Matches(id Identity) bool {
	if a.ToUser != nil && *a.ToUser == id.UserID {
		return true
	}
	return a.ToRole != nil && *a.ToRole == id.Role
}

// Notification types emitted by the engine.
const (
	NotificationQuizPublished   = "quiz_published"
	NotificationResultPublished = "result_published"
)

// Notification is an informational event for users.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Audience  Audience  `json:"audience"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Overview holds system-wide counts.
type Overview struct {
	Users    int `json:"users"`
	Notes    int `json:"notes"`
	Lectures int `json:"lectures"`
	Quizzes  int `json:"quizzes"`
	Attempts int `json:"attempts"`
}

// StudentOverview summarizes one student's completed attempts.
type StudentOverview struct {
	StudentID         string  `json:"student_id"`
	Attempts          int     `json:"attempts"`
	AveragePercentage float64 `json:"average_percentage"`
	BestPercentage    float64 `json:"best_percentage"`
	PublishedQuizzes  int     `json:"published_quizzes"`
}

// Accuracy is one row of a per-label accuracy rollup.
type Accuracy struct {
	Label    string  `json:"label"`
	Accuracy float64 `json:"accuracy"`
}
