package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/Zainify/onlineportal-sub001/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuizCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := &countingStore{Store: seededStore(t)}
	cache := NewQuizCache(newClient(mr), store, time.Minute)

	quiz, err := cache.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected store called once, got %d", store.calls)
	}
	if !mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected quiz document in redis")
	}

	// Second call should hit cache, store not incremented.
	cached, _ := cache.GetQuiz(context.Background(), "quiz-1")
	if store.calls != 1 {
		t.Fatalf("expected cache hit, store calls=%d", store.calls)
	}
	if cached.Questions[0].CorrectOptionIndex == nil || *cached.Questions[0].CorrectOptionIndex != *quiz.Questions[0].CorrectOptionIndex {
		t.Fatalf("answer key lost in cache round trip: %+v", cached.Questions[0])
	}
}

func TestQuizCacheInvalidatesOnWrite(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	cache := NewQuizCache(newClient(mr), seededStore(t), time.Minute)
	_, _ = cache.GetQuiz(ctx, "quiz-1")

	if _, err := cache.PublishQuiz(ctx, "quiz-1", time.Now()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected cache entry to be dropped")
	}
	quiz, _ := cache.GetQuiz(ctx, "quiz-1")
	if quiz.Status != domain.QuizPublished {
		t.Fatalf("expected fresh status, got %s", quiz.Status)
	}
}

func TestQuizCacheFallsBackWhenRedisIsDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	cache := NewQuizCache(client, seededStore(t), time.Minute)
	if _, err := cache.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("expected store fallback, got %v", err)
	}
}

func TestBrokerForwardsToLocalHub(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := NewBroker(newClient(mr), "")
	sink := &collector{got: make(chan domain.Notification, 1)}
	ready := make(chan struct{})
	go func() { _ = broker.Run(ctx, sink, ready) }()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatalf("subscription not ready")
	}

	user := "s1"
	if err := broker.Publish(ctx, domain.Notification{ID: "n1", Title: "result", Audience: domain.Audience{ToUser: &user}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case n := <-sink.got:
		if n.ID != "n1" || n.Audience.ToUser == nil || *n.Audience.ToUser != "s1" {
			t.Fatalf("unexpected notification %+v", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("notification not forwarded")
	}
}

type collector struct {
	mu  sync.Mutex
	got chan domain.Notification
}

func (c *collector) Deliver(n domain.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got <- n
}

func TestQuizCacheDropsFillOverlappingPublish(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := &gatedStore{Store: seededStore(t), loaded: make(chan struct{}), release: make(chan struct{})}
	cache := NewQuizCache(newClient(mr), store, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.GetQuiz(ctx, "quiz-1")
	}()
	<-store.loaded

	if _, err := cache.PublishQuiz(ctx, "quiz-1", time.Now()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	close(store.release)
	<-done

	if mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected the draft loaded before publish not to be cached")
	}
	quiz, err := cache.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Status != domain.QuizPublished {
		t.Fatalf("expected published quiz, got %s", quiz.Status)
	}
}

// gatedStore pauses the first GetQuiz after it has read the store.
type gatedStore struct {
	*memory.Store
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
	*memory.Store
	calls int
}

func (s *countingStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	s.calls++
	return s.Store.GetQuiz(ctx, quizID)
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	correct := 1
	store := memory.NewStore()
	err := store.CreateQuiz(context.Background(), domain.Quiz{
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
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
