package game

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pairday/balance-platform/internal/auth"
	"github.com/pairday/balance-platform/internal/history"
	httperrors "github.com/pairday/balance-platform/pkg/http/errors"
)

// HTTPHandler serves the REST surface of the balance game.
type HTTPHandler struct {
	service *Service
	clock   *Clock
	logger  zerolog.Logger
}

// NewHTTPHandler creates the REST handler.
func NewHTTPHandler(service *Service, clock *Clock, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		clock:   clock,
		logger:  logger.With().Str("component", "game_http").Logger(),
	}
}

type todayResponse struct {
	Date             string       `json:"date"`
	Question         questionJSON `json:"question"`
	OwnAnswer        *answerJSON  `json:"own_answer,omitempty"`
	PartnerAnswered  bool         `json:"partner_answered"`
	PartnerAnswer    *answerJSON  `json:"partner_answer,omitempty"`
	CompletedCount   int          `json:"completed_count"`
	RemainingSeconds int          `json:"remaining_seconds"`
}

type questionJSON struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
}

type answerJSON struct {
	Option  string `json:"option"`
	Comment string `json:"comment"`
}

// HandleToday returns the member's view of today's game.
func (h *HTTPHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	view, err := h.service.Today(r.Context(), claims.CoupleID)
	if err != nil {
		h.logger.Error().Err(err).Str("couple_id", claims.CoupleID.String()).Msg("today fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeStateFetchFailed, "Could not load today's game")
		return
	}

	selfID := claims.UserID.String()
	resp := todayResponse{
		Date: view.State.TodayDate,
		Question: questionJSON{
			ID:       view.Question.ID,
			Category: view.Question.Category,
			OptionA:  view.Question.OptionA,
			OptionB:  view.Question.OptionB,
		},
		CompletedCount:   len(view.State.CompletedIDs),
		RemainingSeconds: int(h.clock.Remaining(h.clock.now()) / time.Second),
	}
	if own, has := view.State.AnswerFor(selfID); has {
		resp.OwnAnswer = &answerJSON{Option: own.Option, Comment: own.Comment}
		if _, partner, ok := view.State.PartnerAnswer(selfID); ok {
			resp.PartnerAnswer = &answerJSON{Option: partner.Option, Comment: partner.Comment}
		}
	}
	if _, _, ok := view.State.PartnerAnswer(selfID); ok {
		resp.PartnerAnswered = true
	}

	respondJSON(w, http.StatusOK, resp)
}

type historyItemJSON struct {
	ID         string                          `json:"id"`
	QuestionID string                          `json:"question_id"`
	Category   string                          `json:"category"`
	OptionA    string                          `json:"option_a"`
	OptionB    string                          `json:"option_b"`
	Date       string                          `json:"date"`
	Answers    map[string]history.RecordAnswer `json:"answers"`
	IsMatch    bool                            `json:"is_match"`
}

// HandleHistory lists the couple's completed questions.
func (h *HTTPHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	records, err := h.service.History(r.Context(), claims.CoupleID)
	if err != nil {
		h.logger.Error().Err(err).Msg("history fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeHistoryFetchFailed, "Could not load history")
		return
	}

	items := make([]historyItemJSON, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItemJSON{
			ID:         rec.ID.String(),
			QuestionID: rec.QuestionID,
			Category:   rec.Category,
			OptionA:    rec.OptionA,
			OptionB:    rec.OptionB,
			Date:       rec.Date,
			Answers:    rec.Answers,
			IsMatch:    rec.IsMatch,
		})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// HandleDeleteHistoryItem removes one archived record (manual cleanup).
func (h *HTTPHandler) HandleDeleteHistoryItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	recordID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid history id")
		return
	}

	if err := h.service.DeleteHistoryItem(r.Context(), claims.CoupleID, recordID); err != nil {
		h.logger.Error().Err(err).Msg("history delete failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeHistoryDeleteFailed, "Could not delete history item")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
