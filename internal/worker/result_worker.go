package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultStore persists submitted results.
type ResultStore interface {
	InsertBatch(ctx context.Context, batch []model.PendingResult) error
	Insert(ctx context.Context, p model.PendingResult) error
}

// ResultWorker consumes persist_results_queue and stores results in batches.
type ResultWorker struct {
	store ResultStore
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewResultWorker(store ResultStore, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes and drains the queue.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]model.PendingResult, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			w.drain(context.Background())
			w.log.Info().Msg("ResultWorker stopped")
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			if p, ok := w.decode(item[1]); ok {
				batch = append(batch, p)
			}
		}
	}
}

func (w *ResultWorker) decode(raw string) (model.PendingResult, bool) {
	var p model.PendingResult
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload, dropping")
		return p, false
	}
	return p, true
}

// ----------------------------------------------------------------
// Batch insert with per-item fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []model.PendingResult) {
	if len(batch) == 0 {
		return
	}

	err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Results persisted")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk result insert failed, using fallback")

	for _, p := range batch {
		if err := w.store.Insert(ctx, p); err != nil {
			w.log.Error().Err(err).
				Str("session_id", p.SessionID.String()).
				Msg("Insert failed, requeueing")
			w.requeue(ctx, p)
		}
	}
}

func (w *ResultWorker) requeue(ctx context.Context, p model.PendingResult) {
	raw, err := json.Marshal(p)
	if err != nil {
		w.log.Error().Err(err).Str("session_id", p.SessionID.String()).Msg("Cannot requeue result")
		return
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("session_id", p.SessionID.String()).Msg("Requeue failed, result lost")
	}
}

// drain persists whatever is still queued. It stops at the first batch that had to
// be requeued so shutdown cannot spin on a failing database.
func (w *ResultWorker) drain(ctx context.Context) {
	drained := 0
	for {
		items, err := w.rdb.LPopCount(ctx, config.WorkerKey.PersistResultsQueue, ResultBatchSize).Result()
		if err != nil || len(items) == 0 {
			break
		}

		batch := make([]model.PendingResult, 0, len(items))
		for _, raw := range items {
			if p, ok := w.decode(raw); ok {
				batch = append(batch, p)
			}
		}

		before, _ := w.rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result()
		w.flushSafe(ctx, batch)
		after, _ := w.rdb.LLen(ctx, config.WorkerKey.PersistResultsQueue).Result()
		drained += len(batch)
		if after > before {
			break
		}
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining results")
	}
}
