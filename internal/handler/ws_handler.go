package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/screening-backend/internal/middleware"
	"github.com/stemsi/screening-backend/internal/response"
	"github.com/stemsi/screening-backend/internal/screening"
	"github.com/stemsi/screening-backend/internal/service"
	ws "github.com/stemsi/screening-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a screening session over a WebSocket.
type WSHandler struct {
	assessments   *service.AssessmentService
	submitLimiter *middleware.RateLimiter
	log           zerolog.Logger
	upgrader      websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. Stream submissions share submitLimiter
// with the REST submit route.
func NewWSHandler(assessments *service.AssessmentService, submitLimiter *middleware.RateLimiter, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		assessments:   assessments,
		submitLimiter: submitLimiter,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
	}
}

// AssessmentStream godoc
// WS /ws/v1/assessments/:session_id/stream?token=...
// Every accepted action replies with the fresh session view; rejected actions
// reply with an error event and leave the session unchanged.
func (h *WSHandler) AssessmentStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	// Reject before upgrading so a plain HTTP status reaches the client.
	sess, err := h.assessments.Get(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		fail(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()
	wsLog.Info().Msg("Respondent connected")

	if err := writeSession(conn, sess); err != nil {
		return
	}

	ctx := context.Background()
	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if done := h.dispatch(ctx, conn, wsLog, claims.UserID, sessionID, msg); done {
			return
		}
	}
}

// dispatch runs one client action. It reports true once the session has been
// submitted and the stream should close.
func (h *WSHandler) dispatch(ctx context.Context, conn *websocket.Conn, log zerolog.Logger, userID int, sessionID uuid.UUID, msg ws.RequestPayload) bool {
	var (
		sess screening.Session
		err  error
	)

	switch msg.Action {
	case ws.ActionPing:
		_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		return false
	case ws.ActionAnswer:
		if msg.UID == "" || msg.OptionID <= 0 {
			writeCode(conn, response.ErrValidation, map[string]string{"uid": "required", "option_id": "required"})
			return false
		}
		sess, err = h.assessments.Answer(ctx, userID, sessionID, screening.UID(msg.UID), msg.OptionID)
	case ws.ActionNext:
		sess, err = h.assessments.Navigate(ctx, userID, sessionID, service.NavigateNext, "")
	case ws.ActionPrevious:
		sess, err = h.assessments.Navigate(ctx, userID, sessionID, service.NavigatePrevious, "")
	case ws.ActionJump:
		if msg.UID == "" {
			writeCode(conn, response.ErrValidation, map[string]string{"uid": "required"})
			return false
		}
		sess, err = h.assessments.Navigate(ctx, userID, sessionID, service.NavigateJump, screening.UID(msg.UID))
	case ws.ActionSubmit:
		if !h.allowSubmit(ctx, log, userID) {
			writeCode(conn, response.ErrRateLimitExceeded, nil)
			return false
		}
		outcome, err := h.assessments.Submit(ctx, userID, sessionID)
		if err != nil {
			writeAPIError(conn, log, err)
			return false
		}
		log.Info().Str("risk_level", string(outcome.Result.OverallRiskLevel)).Msg("Submitted over stream")
		_ = ws.WriteTyped(conn, ws.SubmittedResponse{Event: ws.EventSubmitted, Outcome: outcome})
		return true
	default:
		log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		writeCode(conn, response.ErrInvalidPayload, map[string]string{"action": string(msg.Action)})
		return false
	}

	if err != nil {
		writeAPIError(conn, log, err)
		return false
	}
	_ = writeSession(conn, sess)
	return false
}

// allowSubmit applies the submit rate limit. Redis errors let the submission through.
func (h *WSHandler) allowSubmit(ctx context.Context, log zerolog.Logger, userID int) bool {
	if h.submitLimiter == nil {
		return true
	}
	d, err := h.submitLimiter.Allow(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("Rate limit check failed")
		return true
	}
	return d.Allowed
}

func writeSession(conn *websocket.Conn, sess screening.Session) error {
	return ws.WriteTyped(conn, ws.SessionResponse{Event: ws.EventSession, Session: service.NewSessionView(sess)})
}

func writeAPIError(conn *websocket.Conn, log zerolog.Logger, err error) {
	e := classify(err)
	if e.status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Stream action failed")
	}
	writeCode(conn, e.code, e.fields)
}

func writeCode(conn *websocket.Conn, code response.ErrCode, fields map[string]string) {
	_ = ws.WriteError(conn, string(code), response.GetMessage(code), fields)
}
