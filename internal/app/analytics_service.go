package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/Zainify/onlineportal-sub001/internal/grading"
)

// AnalyticsService computes read-only accuracy views on demand.
type AnalyticsService struct {
	results   ResultReader
	attempts  AttemptStore
	quizzes   QuizStore
	directory Directory
}

func NewAnalyticsService(results ResultReader, attempts AttemptStore, quizzes QuizStore, directory Directory) *AnalyticsService {
	return &AnalyticsService{results: results, attempts: attempts, quizzes: quizzes, directory: directory}
}

// ResolveStudent decides whose analytics the caller may read. Students read their own,
// parents read a linked child, teachers and admins any student.
func (s *AnalyticsService) ResolveStudent(caller domain.Identity, requested string) (string, error) {
	switch caller.Role {
	case domain.RoleStudent:
		if requested != "" && requested != caller.UserID {
			return "", domain.ErrRoleNotAllowed
		}
		return caller.UserID, nil
	case domain.RoleParent:
		if requested == "" {
			return "", domain.NewValidationError("student_id is required")
		}
		if !caller.HasChild(requested) {
			return "", domain.ErrRoleNotAllowed
		}
		return requested, nil
	case domain.RoleTeacher, domain.RoleAdmin:
		if requested == "" {
			return "", domain.NewValidationError("student_id is required")
		}
		return requested, nil
	}
	return "", domain.ErrRoleNotAllowed
}

// TagAccuracy returns per-SLO-tag accuracy for the student.
func (s *AnalyticsService) TagAccuracy(ctx context.Context, studentID string) ([]domain.Accuracy, error) {
	results, err := s.results.StudentResults(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student results: %w", err)
	}
	return accuracyBy(results, func(r domain.GradedResult) *string { return r.SLOTag }), nil
}

// TopicAccuracy returns per-topic accuracy for the student.
func (s *AnalyticsService) TopicAccuracy(ctx context.Context, studentID string) ([]domain.Accuracy, error) {
	results, err := s.results.StudentResults(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student results: %w", err)
	}
	return accuracyBy(results, func(r domain.GradedResult) *string { return r.Topic }), nil
}

// StudentOverview summarizes the student's completed attempts.
func (s *AnalyticsService) StudentOverview(ctx context.Context, studentID string) (domain.StudentOverview, error) {
	attempts, err := s.attempts.ListStudentAttempts(ctx, studentID)
	if err != nil {
		return domain.StudentOverview{}, fmt.Errorf("list student attempts: %w", err)
	}
	published, err := s.quizzes.CountQuizzes(ctx, domain.QuizPublished)
	if err != nil {
		return domain.StudentOverview{}, fmt.Errorf("count quizzes: %w", err)
	}

	overview := domain.StudentOverview{StudentID: studentID, PublishedQuizzes: published}
	var sum float64
	for _, a := range attempts {
		if a.Status != domain.AttemptCompleted {
			continue
		}
		overview.Attempts++
		sum += a.Percentage
		if a.Percentage > overview.BestPercentage {
			overview.BestPercentage = a.Percentage
		}
	}
	if overview.Attempts > 0 {
		overview.AveragePercentage = grading.Round2(sum / float64(overview.Attempts))
	}
	return overview, nil
}

// SystemOverview returns platform-wide counts. Admin only.
func (s *AnalyticsService) SystemOverview(ctx context.Context, caller domain.Identity) (domain.Overview, error) {
	if !caller.IsAdmin() {
		return domain.Overview{}, domain.ErrRoleNotAllowed
	}
	var (
		out domain.Overview
		err error
	)
	if s.directory != nil {
		if out.Users, err = s.directory.CountUsers(ctx); err != nil {
			return domain.Overview{}, fmt.Errorf("count users: %w", err)
		}
		if out.Notes, err = s.directory.CountNotes(ctx); err != nil {
			return domain.Overview{}, fmt.Errorf("count notes: %w", err)
		}
		if out.Lectures, err = s.directory.CountLectures(ctx); err != nil {
			return domain.Overview{}, fmt.Errorf("count lectures: %w", err)
		}
	}
	if out.Quizzes, err = s.quizzes.CountQuizzes(ctx, ""); err != nil {
		return domain.Overview{}, fmt.Errorf("count quizzes: %w", err)
	}
	if out.Attempts, err = s.attempts.CountAttempts(ctx); err != nil {
		return domain.Overview{}, fmt.Errorf("count attempts: %w", err)
	}
	return out, nil
}

// accuracyBy groups results by label, skipping unlabelled ones. Each result counts
// 100 when correct and 0 otherwise; rows are ordered by label.
func accuracyBy(results []domain.GradedResult, label func(domain.GradedResult) *string) []domain.Accuracy {
	type tally struct{ correct, total int }
	groups := make(map[string]*tally)
	for _, r := range results {
		l := label(r)
		if l == nil || strings.TrimSpace(*l) == "" {
			continue
		}
		t, ok := groups[*l]
		if !ok {
			t = &tally{}
			groups[*l] = t
		}
		t.total++
		if r.Correct {
			t.correct++
		}
	}

	out := make([]domain.Accuracy, 0, len(groups))
	for l, t := range groups {
		out = append(out, domain.Accuracy{Label: l, Accuracy: grading.Percentage(t.correct, t.total)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
