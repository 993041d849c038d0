package game

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/pairday/balance-platform/internal/auth/jwt"
	"github.com/pairday/balance-platform/internal/docstore"
	httperrors "github.com/pairday/balance-platform/pkg/http/errors"
	ws "github.com/pairday/balance-platform/pkg/http/ws"
)

// Upgrader handles WebSocket upgrades for game sessions.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the web client's domains are final
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler manages game WebSocket sessions: live settings subscriptions,
// the per-member submission flow, and countdown pushes.
type Handler struct {
	service *Service
	hub     *ws.Hub
	tokens  *jwt.Manager
	store   docstore.Store
	clock   *Clock
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
}

type session struct {
	userID      uuid.UUID
	coupleID    uuid.UUID
	flow        *Flow
	unsubscribe func()
}

// NewHandler creates the game WebSocket handler.
func NewHandler(service *Service, hub *ws.Hub, tokens *jwt.Manager, store docstore.Store, clock *Clock, logger zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		hub:      hub,
		tokens:   tokens,
		store:    store,
		clock:    clock,
		logger:   logger.With().Str("component", "game_ws").Logger(),
		sessions: make(map[uuid.UUID]*session),
	}
}

// HandleWebSocket upgrades the connection after validating the token
// query parameter.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.tokens.Validate(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.HandleConnection(conn, claims)
}

// HandleConnection runs one member's session until the socket closes.
func (h *Handler) HandleConnection(conn *websocket.Conn, claims *jwt.Claims) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(claims.UserID, wsConn)
	h.hub.JoinCouple(claims.CoupleID, claims.UserID)

	go wsConn.WritePump()

	sess := &session{
		userID:   claims.UserID,
		coupleID: claims.CoupleID,
		flow:     NewFlow(),
	}

	// Snapshot-then-listen: every settings change re-runs the stale check
	// and pushes the refreshed view to this member. Reconcile's skip-write
	// guard keeps the listener from looping on its own write.
	unsubscribe, err := h.store.Subscribe(context.Background(), claims.CoupleID, func(settings *docstore.Settings) {
		h.onSettingsEvent(sess, settings)
	})
	if err != nil {
		h.logger.Error().Err(err).Str("couple_id", claims.CoupleID.String()).Msg("settings subscription failed")
		h.sendError(claims.UserID, httperrors.ErrCodeStateFetchFailed, "Could not subscribe to game state")
	} else {
		sess.unsubscribe = unsubscribe
	}

	h.mu.Lock()
	h.sessions[claims.UserID] = sess
	h.mu.Unlock()

	// No stored document yet: force the initial reconciliation so the
	// first day's question exists before the member sees the card.
	if err := h.service.Refresh(context.Background(), claims.CoupleID); err != nil {
		h.logger.Warn().Err(err).Str("couple_id", claims.CoupleID.String()).Msg("initial refresh failed")
	}

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), sess, msg)
	})

	h.mu.Lock()
	delete(h.sessions, claims.UserID)
	h.mu.Unlock()
	if sess.unsubscribe != nil {
		sess.unsubscribe()
	}
	h.hub.UnregisterConnection(claims.UserID)
}

func (h *Handler) handleMessage(ctx context.Context, sess *session, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeSelectOption:
		return h.handleSelectOption(ctx, sess, msg.Payload)
	case ws.TypeOpenComment:
		return h.handleOpenComment(ctx, sess)
	case ws.TypeConfirmSubmit:
		return h.handleConfirmSubmit(ctx, sess, msg.Payload)
	case ws.TypeRequestState:
		return h.pushState(ctx, sess)
	case ws.TypePing:
		return h.hub.SendToUser(sess.userID, ws.Message{Type: ws.TypePong})
	default:
		return h.sendError(sess.userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleSelectOption(ctx context.Context, sess *session, payload json.RawMessage) error {
	var req ws.SelectOptionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sess.userID, httperrors.ErrCodeInvalidPayload, "Invalid select_option payload")
	}

	var prior *Answer
	if view, err := h.service.Today(ctx, sess.coupleID); err == nil {
		if ans, ok := view.State.AnswerFor(sess.userID.String()); ok {
			prior = &ans
		}
	}

	if err := sess.flow.SelectOption(req.Option, prior); err != nil {
		return h.sendFlowError(sess.userID, err)
	}
	return h.pushState(ctx, sess)
}

func (h *Handler) handleOpenComment(ctx context.Context, sess *session) error {
	connected, err := h.service.IsConnected(ctx, sess.coupleID)
	if err != nil {
		return h.sendError(sess.userID, httperrors.ErrCodeStateFetchFailed, "Could not check couple connection")
	}

	draft, err := sess.flow.OpenCommentEditor(connected)
	if err == ErrNotConnected {
		// Redirect to the connection flow instead of opening the editor.
		return h.hub.SendToUser(sess.userID, ws.Message{Type: ws.TypeConnectRequired})
	}
	if err != nil {
		return h.sendFlowError(sess.userID, err)
	}

	return h.send(sess.userID, ws.TypeCommentReady, ws.CommentReadyPayload{
		Option: sess.flow.Option(),
		Draft:  draft,
	})
}

func (h *Handler) handleConfirmSubmit(ctx context.Context, sess *session, payload json.RawMessage) error {
	var req ws.ConfirmSubmitPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(sess.userID, httperrors.ErrCodeInvalidPayload, "Invalid confirm_submit payload")
	}

	option, err := sess.flow.BeginSubmit(req.Comment)
	if err != nil {
		return h.sendFlowError(sess.userID, err)
	}

	result, err := h.service.Submit(ctx, SubmitRequest{
		CoupleID: sess.coupleID,
		UserID:   sess.userID,
		Option:   option,
		Comment:  req.Comment,
	})
	sess.flow.FinishSubmit(err)
	if err == ErrNotConnected {
		return h.hub.SendToUser(sess.userID, ws.Message{Type: ws.TypeConnectRequired})
	}
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", sess.userID.String()).Msg("submit failed")
		return h.sendError(sess.userID, httperrors.ErrCodeSubmitFailed, "Could not save your answer")
	}

	if err := h.send(sess.userID, ws.TypeAnswerAck, ws.AnswerAckPayload{
		QuestionID:       result.Question.ID,
		Option:           option,
		EditMode:         result.EditMode,
		XPGranted:        result.XPGranted,
		AchievementIDs:   result.NewAchievements,
		ServerReceivedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}

	if result.HistorySaved {
		h.broadcast(sess.coupleID, ws.TypeHistorySaved, ws.HistorySavedPayload{
			QuestionID: result.Question.ID,
			IsMatch:    result.IsMatch,
		})
	}
	return nil
}

func (h *Handler) pushState(ctx context.Context, sess *session) error {
	view, err := h.service.Today(ctx, sess.coupleID)
	if err != nil {
		return h.sendError(sess.userID, httperrors.ErrCodeStateFetchFailed, "Could not load today's game")
	}
	return h.send(sess.userID, ws.TypeGameState, h.stateView(view.State, view.Question, sess.userID))
}

// onSettingsEvent handles a settings snapshot or change notification.
func (h *Handler) onSettingsEvent(sess *session, settings *docstore.Settings) {
	ctx := context.Background()

	stored, err := h.service.Manager().FromSettings(settings)
	if err != nil {
		h.logger.Warn().Err(err).Msg("malformed settings event")
		return
	}

	prevDate := ""
	if stored != nil {
		prevDate = stored.TodayDate
	}

	state, _, err := h.service.Manager().Reconcile(ctx, sess.coupleID, stored)
	if err != nil {
		h.logger.Warn().Err(err).Str("couple_id", sess.coupleID.String()).Msg("reconcile on event failed")
		return
	}
	if state.TodayDate != prevDate {
		sess.flow.Reset()
	}

	question, ok := h.service.bank.ByID(state.QuestionID)
	if !ok {
		return
	}
	if err := h.send(sess.userID, ws.TypeGameState, h.stateView(state, question, sess.userID)); err != nil && err != ws.ErrConnectionNotFound {
		h.logger.Warn().Err(err).Str("user_id", sess.userID.String()).Msg("state push failed")
	}
}

// stateView builds this member's view: the partner's pick stays hidden
// until the member has answered too.
func (h *Handler) stateView(state *DailyGameState, question Question, userID uuid.UUID) ws.GameStatePayload {
	selfID := userID.String()
	payload := ws.GameStatePayload{
		Date: state.TodayDate,
		Question: &ws.QuestionPayload{
			ID:       question.ID,
			Category: question.Category,
			OptionA:  question.OptionA,
			OptionB:  question.OptionB,
		},
		CompletedCount: len(state.CompletedIDs),
	}

	own, hasOwn := state.AnswerFor(selfID)
	if hasOwn {
		payload.OwnAnswer = &ws.AnswerPayload{Option: own.Option, Comment: own.Comment}
	}

	if _, partner, ok := state.PartnerAnswer(selfID); ok {
		payload.PartnerAnswered = true
		if hasOwn {
			payload.PartnerAnswer = &ws.AnswerPayload{Option: partner.Option, Comment: partner.Comment}
		}
	}
	return payload
}

// BroadcastCountdown pushes the remaining time to every live couple.
func (h *Handler) BroadcastCountdown(remaining time.Duration) {
	now := h.clock.now()
	payload := ws.CountdownPayload{
		RemainingSeconds: int(remaining / time.Second),
		NextDate:         DateOf(h.clock.NextMidnight(now), h.clock.loc),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := ws.Message{Type: ws.TypeCountdown, Payload: raw}
	for _, coupleID := range h.hub.ActiveCouples() {
		_ = h.hub.BroadcastToCouple(coupleID, msg)
	}
}

// RefreshActive forces the stale check for every live couple; invoked by
// the rollover clock at local midnight.
func (h *Handler) RefreshActive(ctx context.Context) {
	for _, coupleID := range h.hub.ActiveCouples() {
		if err := h.service.Refresh(ctx, coupleID); err != nil {
			h.logger.Warn().Err(err).Str("couple_id", coupleID.String()).Msg("rollover refresh failed")
		}
	}
}

func (h *Handler) send(userID uuid.UUID, msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.hub.SendToUser(userID, ws.Message{Type: msgType, Payload: raw})
}

func (h *Handler) broadcast(coupleID uuid.UUID, msgType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = h.hub.BroadcastToCouple(coupleID, ws.Message{Type: msgType, Payload: raw})
}

func (h *Handler) sendFlowError(userID uuid.UUID, err error) error {
	code := httperrors.ErrCodeInvalidRequest
	switch err {
	case ErrInvalidOption:
		code = httperrors.ErrCodeInvalidOption
	case ErrNoSelection:
		code = httperrors.ErrCodeNoSelection
	case ErrCommentNotOpen:
		code = httperrors.ErrCodeCommentNotOpen
	case ErrSubmitInProgress:
		code = httperrors.ErrCodeSubmitInProgress
	case ErrNotConnected:
		code = httperrors.ErrCodeNotConnected
	}
	return h.sendError(userID, code, err.Error())
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) error {
	raw, err := json.Marshal(ws.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	return h.hub.SendToUser(userID, ws.Message{Type: ws.TypeError, Payload: raw})
}
