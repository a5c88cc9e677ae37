package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuizCache caches GetQuiz with a TTL to avoid repeated store hits on the submit path.
// Writes go to the wrapped store, drop the cached entry and bump the quiz's
// generation. A load only fills the cache if the generation it started under
// is still current.
type QuizCache struct {
	app.QuizStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu          sync.RWMutex
	cache       map[string]cachedQuiz
	generations map[string]uint64
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(store app.QuizStore, ttl time.Duration) *QuizCache {
	return &QuizCache{
		QuizStore: store,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:       make(map[string]cachedQuiz),
		generations: make(map[string]uint64),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.lookup(quizID); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		if quiz, ok := c.lookup(quizID); ok {
			return quiz, nil
		}
		c.mu.RLock()
		gen := c.generations[quizID]
		c.mu.RUnlock()

		quiz, err := c.QuizStore.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		c.mu.Lock()
		if c.generations[quizID] == gen {
			c.cache[quizID] = cachedQuiz{quiz: quiz, expiresAt: c.clock().Add(c.ttlWithJitter())}
		}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	defer c.Invalidate(quiz.ID)
	return c.QuizStore.UpdateQuiz(ctx, quiz)
}

func (c *QuizCache) PublishQuiz(ctx context.Context, quizID string, at time.Time) (bool, error) {
	defer c.Invalidate(quizID)
	return c.QuizStore.PublishQuiz(ctx, quizID, at)
}

func (c *QuizCache) DeleteQuiz(ctx context.Context, quizID string) error {
	defer c.Invalidate(quizID)
	return c.QuizStore.DeleteQuiz(ctx, quizID)
}

func (c *QuizCache) CreateQuestion(ctx context.Context, question domain.Question) error {
	defer c.Invalidate(question.QuizID)
	return c.QuizStore.CreateQuestion(ctx, question)
}

func (c *QuizCache) UpdateQuestion(ctx context.Context, question domain.Question) error {
	defer c.Invalidate(question.QuizID)
	return c.QuizStore.UpdateQuestion(ctx, question)
}

func (c *QuizCache) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	defer c.Invalidate(quizID)
	return c.QuizStore.DeleteQuestion(ctx, quizID, questionID)
}

// Invalidate drops the cached copy of a quiz and discards loads still in flight.
func (c *QuizCache) Invalidate(quizID string) {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.generations[quizID]++
	c.mu.Unlock()
	c.sf.Forget(quizID)
}

func (c *QuizCache) lookup(quizID string) (domain.Quiz, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
