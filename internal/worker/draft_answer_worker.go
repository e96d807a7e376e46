package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/model"
)

// DraftAnswerStore upserts journaled answers.
type DraftAnswerStore interface {
	UpsertDraftAnswer(ctx context.Context, sessionID uuid.UUID, a model.DraftAnswer) error
}

// DraftAnswerWorker consumes persist_draft_answers_queue and UPSERTs answers to PostgreSQL.
type DraftAnswerWorker struct {
	store      DraftAnswerStore
	rdb        *redis.Client
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewDraftAnswerWorker creates a new DraftAnswerWorker.
func NewDraftAnswerWorker(store DraftAnswerStore, rdb *redis.Client, log zerolog.Logger) *DraftAnswerWorker {
	return &DraftAnswerWorker{
		store:      store,
		rdb:        rdb,
		retryDelay: 5 * time.Second,
		log:        log.With().Str("component", "draft_answer_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *DraftAnswerWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *DraftAnswerWorker) processNext(ctx context.Context) {
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistDraftAnswersQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	event, ok := w.decode(result[1])
	if !ok {
		return
	}

	if err := w.persist(ctx, event); err != nil {
		w.log.Error().Err(err).
			Str("session_id", event.SessionID.String()).
			Str("uid", event.UID).
			Dur("retry_in", w.retryDelay).
			Msg("Persist error, requeueing")
		w.rdb.RPush(ctx, config.WorkerKey.PersistDraftAnswersQueue, result[1])

		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
	}
}

func (w *DraftAnswerWorker) decode(raw string) (model.DraftAnswerEvent, bool) {
	var event model.DraftAnswerEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping")
		return event, false
	}
	return event, true
}

func (w *DraftAnswerWorker) persist(ctx context.Context, e model.DraftAnswerEvent) error {
	return w.store.UpsertDraftAnswer(ctx, e.SessionID, model.DraftAnswer{
		UID:        e.UID,
		OptionID:   e.OptionID,
		AnsweredAt: e.AnsweredAt,
	})
}

// drain processes all remaining items in the queue before shutdown.
func (w *DraftAnswerWorker) drain(ctx context.Context) {
	drained := 0
	for {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.PersistDraftAnswersQueue).Result()
		if err != nil {
			break
		}

		event, ok := w.decode(raw)
		if !ok {
			continue
		}
		if err := w.persist(ctx, event); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistDraftAnswersQueue, raw)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
