package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stemsi/screening-backend/internal/model"
	"github.com/stemsi/screening-backend/internal/service"
	ws "github.com/stemsi/screening-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamMessage struct {
	Event   ws.Event              `json:"event"`
	Session service.SessionView   `json:"session"`
	Outcome service.SubmitOutcome `json:"outcome"`
	Code    string                `json:"code"`
}

func dialStream(t *testing.T, env *testEnv, sessionID, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	srv := httptest.NewServer(env.engine)
	t.Cleanup(srv.Close)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/ws/v1/assessments/" + sessionID + "/stream?token=" + url.QueryEscape(token)
	return websocket.DefaultDialer.Dial(u, nil)
}

func TestWSHandler_AnswerAndSubmit(t *testing.T) {
	env := newTestEnv(t)
	view := env.start(t, model.StartAssessmentRequest{InstrumentType: "CRAFFT"})

	conn, _, err := dialStream(t, env, view.SessionID.String(), env.userToken)
	require.NoError(t, err)
	defer conn.Close()

	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.EventSession, msg.Event)
	assert.Equal(t, view.SessionID, msg.Session.SessionID)

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionPing}))
	msg = streamMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.EventPong, msg.Event)

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionSubmit}))
	msg = streamMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.EventError, msg.Event)
	assert.Equal(t, "INCOMPLETE_SESSION", msg.Code)

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionAnswer, UID: "f:1", OptionID: 555}))
	msg = streamMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "INVALID_ANSWER", msg.Code)

	for _, a := range []ws.RequestPayload{
		{Action: ws.ActionAnswer, UID: "f:1", OptionID: 102},
		{Action: ws.ActionNext},
		{Action: ws.ActionAnswer, UID: "f:2", OptionID: 201},
	} {
		require.NoError(t, conn.WriteJSON(a))
		msg = streamMessage{}
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, ws.EventSession, msg.Event, msg.Code)
	}
	assert.True(t, msg.Session.Complete)
	assert.Equal(t, 1, msg.Session.CurrentIndex)

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionSubmit}))
	msg = streamMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.EventSubmitted, msg.Event)
	assert.Equal(t, model.RiskMedium, msg.Outcome.Result.OverallRiskLevel)
}

func TestWSHandler_SubmitSharesRateLimit(t *testing.T) {
	env := newTestEnv(t)
	view := env.start(t, model.StartAssessmentRequest{InstrumentType: "CRAFFT"})

	// Use up the user's submit window.
	for range 10 {
		d, err := env.limiter.Allow(context.Background(), testUserID)
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	conn, _, err := dialStream(t, env, view.SessionID.String(), env.userToken)
	require.NoError(t, err)
	defer conn.Close()

	var msg streamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.EventSession, msg.Event)

	require.NoError(t, conn.WriteJSON(ws.RequestPayload{Action: ws.ActionSubmit}))
	msg = streamMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, ws.EventError, msg.Event)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", msg.Code)

	w := env.do(http.MethodPost, "/api/v1/assessments/"+view.SessionID.String()+"/submit", env.userToken, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestWSHandler_RejectsBeforeUpgrade(t *testing.T) {
	env := newTestEnv(t)

	_, resp, err := dialStream(t, env, uuid.NewString(), env.userToken)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = dialStream(t, env, uuid.NewString(), "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
