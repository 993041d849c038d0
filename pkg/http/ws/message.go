package ws

import "encoding/json"

// MessageType constants for the balance game WebSocket protocol.
const (
	// Client -> Server
	TypeSelectOption  = "select_option"
	TypeOpenComment   = "open_comment"
	TypeConfirmSubmit = "confirm_submit"
	TypeRequestState  = "request_state"

	// Server -> Client
	TypeGameState       = "game_state"
	TypeCommentReady    = "comment_ready"
	TypeAnswerAck       = "answer_ack"
	TypeHistorySaved    = "history_saved"
	TypeCountdown       = "countdown"
	TypeConnectRequired = "connect_required"
	TypeError           = "error"
	TypePing            = "ping"
	TypePong            = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type SelectOptionPayload struct {
	Option string `json:"option"` // "A" or "B"
}

type ConfirmSubmitPayload struct {
	Comment string `json:"comment"`
}

// Server Messages (outgoing)

// GameStatePayload mirrors the shared daily state plus view hints for this member.
type GameStatePayload struct {
	Date            string           `json:"date"`
	Question        *QuestionPayload `json:"question,omitempty"`
	OwnAnswer       *AnswerPayload   `json:"own_answer,omitempty"`
	PartnerAnswered bool             `json:"partner_answered"`
	PartnerAnswer   *AnswerPayload   `json:"partner_answer,omitempty"`
	CompletedCount  int              `json:"completed_count"`
}

type QuestionPayload struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
}

type AnswerPayload struct {
	Option  string `json:"option"`
	Comment string `json:"comment"`
}

// CommentReadyPayload confirms the comment editor may open, with any draft prefill.
type CommentReadyPayload struct {
	Option string `json:"option"`
	Draft  string `json:"draft"`
}

type AnswerAckPayload struct {
	QuestionID       string   `json:"question_id"`
	Option           string   `json:"option"`
	EditMode         bool     `json:"edit_mode"`
	XPGranted        int      `json:"xp_granted"`
	AchievementIDs   []string `json:"achievement_ids,omitempty"`
	ServerReceivedAt string   `json:"server_received_at"`
}

type HistorySavedPayload struct {
	QuestionID string `json:"question_id"`
	IsMatch    bool   `json:"is_match"`
}

type CountdownPayload struct {
	RemainingSeconds int    `json:"remaining_seconds"`
	NextDate         string `json:"next_date"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
