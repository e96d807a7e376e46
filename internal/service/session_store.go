package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/screening"
)

// ErrSessionNotCached is returned by a SessionStore that holds no copy of a session.
var ErrSessionNotCached = errors.New("session not cached")

// RedisSessionStore keeps in-progress sessions in Redis under the owner's key.
// Every save slides the expiry forward.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionStore creates a new RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

// Load fetches a session owned by userID.
func (s *RedisSessionStore) Load(ctx context.Context, userID int, id uuid.UUID) (screening.Session, error) {
	data, err := s.rdb.Get(ctx, config.CacheKey.AssessmentSessionKey(userID, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return screening.Session{}, ErrSessionNotCached
		}
		return screening.Session{}, fmt.Errorf("get session: %w", err)
	}

	var sess screening.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return screening.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

// Save stores a session owned by userID.
func (s *RedisSessionStore) Save(ctx context.Context, userID int, sess screening.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.AssessmentSessionKey(userID, sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// Delete removes a session owned by userID. Deleting a missing session is not an error.
func (s *RedisSessionStore) Delete(ctx context.Context, userID int, id uuid.UUID) error {
	return s.rdb.Del(ctx, config.CacheKey.AssessmentSessionKey(userID, id)).Err()
}

// RedisAnswerJournal queues answers for the draft answer worker, which upserts
// them into PostgreSQL so an evicted session can be rebuilt.
type RedisAnswerJournal struct {
	rdb *redis.Client
}

// NewRedisAnswerJournal creates a new RedisAnswerJournal.
func NewRedisAnswerJournal(rdb *redis.Client) *RedisAnswerJournal {
	return &RedisAnswerJournal{rdb: rdb}
}

// Record queues one answer.
func (j *RedisAnswerJournal) Record(ctx context.Context, sessionID uuid.UUID, uid screening.UID, optionID int, answeredAt time.Time) error {
	raw, err := json.Marshal(model.DraftAnswerEvent{
		SessionID:  sessionID,
		UID:        string(uid),
		OptionID:   optionID,
		AnsweredAt: answeredAt,
	})
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	return j.rdb.RPush(ctx, config.WorkerKey.PersistDraftAnswersQueue, raw).Err()
}

// QueueSubmitter hands results to the result worker through Redis.
// The result id doubles as the idempotency key of the stored row.
type QueueSubmitter struct {
	rdb *redis.Client
}

// NewQueueSubmitter creates a new QueueSubmitter.
func NewQueueSubmitter(rdb *redis.Client) *QueueSubmitter {
	return &QueueSubmitter{rdb: rdb}
}

// Submit queues the payload and its classified result.
func (q *QueueSubmitter) Submit(ctx context.Context, sub screening.Submission, result model.AssessmentResult) (*model.AssessmentResult, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}
	raw, err := json.Marshal(model.PendingResult{SessionID: result.ID, Result: result, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	if err := q.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return nil, fmt.Errorf("queue result: %w", err)
	}
	return &result, nil
}
