package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionJump     Action = "jump"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is every client message. UID is read by answer and jump;
// OptionID only by answer.
type RequestPayload struct {
	Action   Action `json:"action"`
	UID      string `json:"uid,omitempty"`
	OptionID int    `json:"option_id,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSession   Event = "session"
	EventSubmitted Event = "submitted"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// SessionResponse carries the session view after any accepted action.
type SessionResponse struct {
	Event   Event `json:"event"`
	Session any   `json:"session"`
}

// SubmittedResponse carries the result and recommended courses.
type SubmittedResponse struct {
	Event   Event `json:"event"`
	Outcome any   `json:"outcome"`
}

// ErrorResponse reports a rejected action. The session is unchanged.
type ErrorResponse struct {
	Event   Event             `json:"event"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
