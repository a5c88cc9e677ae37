package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	store := &countingStore{Store: seededStore(t)}
	cache := NewQuizCache(store, time.Minute)

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected store once, got %d", store.calls)
	}

	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls %d", store.calls)
	}
}

func TestQuizCacheInvalidatesOnPublish(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: seededStore(t)}
	cache := NewQuizCache(store, time.Minute)

	quiz, _ := cache.GetQuiz(ctx, "quiz-1")
	if quiz.Status != domain.QuizDraft {
		t.Fatalf("expected draft, got %s", quiz.Status)
	}
	if _, err := cache.PublishQuiz(ctx, "quiz-1", time.Now()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	quiz, _ = cache.GetQuiz(ctx, "quiz-1")
	if quiz.Status != domain.QuizPublished || store.calls != 2 {
		t.Fatalf("expected a fresh published copy, got %s after %d loads", quiz.Status, store.calls)
	}
}

func TestQuizCacheExpires(t *testing.T) {
	store := &countingStore{Store: seededStore(t)}
	cache := NewQuizCache(store, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	_, _ = cache.GetQuiz(context.Background(), "quiz-1")
	now = now.Add(2 * time.Minute)
	_, _ = cache.GetQuiz(context.Background(), "quiz-1")
	if store.calls != 2 {
		t.Fatalf("expected reload after ttl, got %d loads", store.calls)
	}
}

func TestQuizCacheDoesNotCacheMisses(t *testing.T) {
	store := &countingStore{Store: NewStore()}
	cache := NewQuizCache(store, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.GetQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if store.calls != 2 {
		t.Fatalf("expected misses to reach the store, got %d", store.calls)
	}
}

func TestQuizCacheDropsLoadOverlappingPublish(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{Store: seededStore(t), loaded: make(chan struct{}), release: make(chan struct{})}
	cache := NewQuizCache(store, time.Minute)

	done := make(chan domain.Quiz)
	go func() {
		quiz, _ := cache.GetQuiz(ctx, "quiz-1")
		done <- quiz
	}()
	<-store.loaded

	if _, err := cache.PublishQuiz(ctx, "quiz-1", time.Now()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	close(store.release)
	if quiz := <-done; quiz.Status != domain.QuizDraft {
		t.Fatalf("expected the in-flight load to return its draft snapshot, got %s", quiz.Status)
	}

	quiz, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Status != domain.QuizPublished {
		t.Fatalf("cache kept the draft loaded before publish, got %s", quiz.Status)
	}
}

// gatedStore pauses the first GetQuiz after it has read the store.
type gatedStore struct {
	*Store
	once    sync.Once
	loaded  chan struct{}
	release chan struct{}
}

func (s *gatedStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.Store.GetQuiz(ctx, quizID)
	s.once.Do(func() {
		close(s.loaded)
		<-s.release
	})
	return quiz, err
}

type countingStore struct {
	*Store
	calls int
}

func (s *countingStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	s.calls++
	return s.Store.GetQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	correct := 1
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Arithmetic",
		CreatedBy: "teacher-1",
		Status:    domain.QuizDraft,
		Type:      domain.QuizMCQ,
		Questions: []domain.Question{
			{
				ID:                 "q1",
				QuizID:             "quiz-1",
				Text:               "What is 2 + 2?",
				Options:            []string{"3", "4", "5"},
				CorrectOptionIndex: &correct,
			},
		},
	}
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	if err := store.CreateQuiz(context.Background(), sampleQuiz()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}
