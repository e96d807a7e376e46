package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/screening"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisAnswerJournal_StampsAnswerTime(t *testing.T) {
	mr, rdb := newTestRedis(t)
	journal := NewRedisAnswerJournal(rdb)

	id := uuid.New()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, journal.Record(context.Background(), id, screening.FixedUID(1), 101, at))

	queued, err := mr.List(config.WorkerKey.PersistDraftAnswersQueue)
	require.NoError(t, err)
	require.Len(t, queued, 1)

	var event model.DraftAnswerEvent
	require.NoError(t, json.Unmarshal([]byte(queued[0]), &event))
	assert.Equal(t, id, event.SessionID)
	assert.Equal(t, "f:1", event.UID)
	assert.Equal(t, 101, event.OptionID)
	assert.True(t, event.AnsweredAt.Equal(at))
}
