package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/app"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// QuizCache keeps full quiz documents (questions and answer keys included) in Redis:
//
//	SET quiz:{quizID} <json> EX ttl
//	INCR quiz:{quizID}:gen
//
// so every instance shares one copy. Writes pass through to the wrapped store,
// delete the document and bump the generation key. A fill is a WATCHed SET that
// only lands if the generation read before the load is unchanged. Redis errors
// degrade to a direct store read.
type QuizCache struct {
	app.QuizStore
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuizCache(client *redis.Client, store app.QuizStore, ttl time.Duration) *QuizCache {
	return &QuizCache{
		QuizStore: store,
		client:    client,
		ttl:       ttl,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := c.cached(ctx, quizID); ok {
			return quiz, nil
		}
		gen, genErr := c.generation(ctx, quizID)
		quiz, err := c.QuizStore.GetQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if genErr == nil {
			genErr = c.fill(ctx, quizID, gen, quiz)
		}
		if genErr != nil {
			log.Warn().Err(genErr).Str("quiz_id", quizID).Msg("quiz cache fill failed")
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	defer c.Invalidate(ctx, quiz.ID)
	return c.QuizStore.UpdateQuiz(ctx, quiz)
}

func (c *QuizCache) PublishQuiz(ctx context.Context, quizID string, at time.Time) (bool, error) {
	defer c.Invalidate(ctx, quizID)
	return c.QuizStore.PublishQuiz(ctx, quizID, at)
}

func (c *QuizCache) DeleteQuiz(ctx context.Context, quizID string) error {
	defer c.Invalidate(ctx, quizID)
	return c.QuizStore.DeleteQuiz(ctx, quizID)
}

func (c *QuizCache) CreateQuestion(ctx context.Context, question domain.Question) error {
	defer c.Invalidate(ctx, question.QuizID)
	return c.QuizStore.CreateQuestion(ctx, question)
}

func (c *QuizCache) UpdateQuestion(ctx context.Context, question domain.Question) error {
	defer c.Invalidate(ctx, question.QuizID)
	return c.QuizStore.UpdateQuestion(ctx, question)
}

func (c *QuizCache) DeleteQuestion(ctx context.Context, quizID, questionID string) error {
	defer c.Invalidate(ctx, quizID)
	return c.QuizStore.DeleteQuestion(ctx, quizID, questionID)
}

// Invalidate deletes the cached document of a quiz and discards fills still in flight.
func (c *QuizCache) Invalidate(ctx context.Context, quizID string) {
	ctx = context.WithoutCancel(ctx)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(quizID))
		pipe.Del(ctx, c.key(quizID))
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("quiz_id", quizID).Msg("quiz cache invalidation failed")
	}
	c.sf.Forget(quizID)
}

var errStaleFill = errors.New("quiz changed while loading")

func (c *QuizCache) generation(ctx context.Context, quizID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(quizID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *QuizCache) fill(ctx context.Context, quizID string, gen int64, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	genKey := c.generationKey(quizID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(quizID), data, c.ttlWithJitter())
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, errStaleFill) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *QuizCache) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	data, err := c.client.Get(ctx, c.key(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("quiz_id", quizID).Msg("quiz cache read failed")
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (c *QuizCache) key(quizID string) string {
	return "quiz:" + quizID
}

func (c *QuizCache) generationKey(quizID string) string {
	return "quiz:" + quizID + ":gen"
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
