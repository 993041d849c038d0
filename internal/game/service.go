package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pairday/balance-platform/internal/couple"
	"github.com/pairday/balance-platform/internal/docstore"
	"github.com/pairday/balance-platform/internal/growth"
	"github.com/pairday/balance-platform/internal/history"
)

// GrowthService grants participation rewards; implemented by growth.Service.
type GrowthService interface {
	GrantParticipation(ctx context.Context, coupleID, userID uuid.UUID) (growth.GrantResult, error)
}

// Service orchestrates the daily balance game: state reconciliation,
// answer submission, history archiving, and growth rewards. It never
// touches storage except through the injected collaborators.
type Service struct {
	store   docstore.Store
	bank    *Bank
	manager *StateManager
	history history.Store
	growth  GrowthService
	couples couple.Directory
	logger  zerolog.Logger
}

// NewService wires the game service.
func NewService(store docstore.Store, bank *Bank, manager *StateManager, historyStore history.Store, growthSvc GrowthService, couples couple.Directory, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		bank:    bank,
		manager: manager,
		history: historyStore,
		growth:  growthSvc,
		couples: couples,
		logger:  logger.With().Str("component", "balance_game").Logger(),
	}
}

// Manager exposes the state manager for clock- and snapshot-driven refreshes.
func (s *Service) Manager() *StateManager {
	return s.manager
}

// TodayView is the per-member view of the current daily state.
type TodayView struct {
	State    *DailyGameState
	Question Question
}

// Today loads and, if stale, reconciles the couple's daily state.
func (s *Service) Today(ctx context.Context, coupleID uuid.UUID) (*TodayView, error) {
	stored, err := s.manager.Load(ctx, coupleID)
	if err != nil {
		return nil, err
	}
	state, _, err := s.manager.Reconcile(ctx, coupleID, stored)
	if err != nil {
		return nil, err
	}

	question, ok := s.bank.ByID(state.QuestionID)
	if !ok {
		// A persisted id outside the current bank means the bank shrank
		// between deploys; repair by forcing reselection on next load.
		return nil, fmt.Errorf("unknown question id %q", state.QuestionID)
	}
	return &TodayView{State: state, Question: question}, nil
}

// Refresh re-runs the stale check for a couple, e.g. after the midnight
// rollover. Errors are surfaced but leave the stored state untouched.
func (s *Service) Refresh(ctx context.Context, coupleID uuid.UUID) error {
	stored, err := s.manager.Load(ctx, coupleID)
	if err != nil {
		return err
	}
	_, _, err = s.manager.Reconcile(ctx, coupleID, stored)
	return err
}

// Members returns the couple's members.
func (s *Service) Members(ctx context.Context, coupleID uuid.UUID) ([]couple.Member, error) {
	return s.couples.Members(ctx, coupleID)
}

// IsConnected reports whether the couple has both members present.
func (s *Service) IsConnected(ctx context.Context, coupleID uuid.UUID) (bool, error) {
	members, err := s.couples.Members(ctx, coupleID)
	if err != nil {
		return false, err
	}
	return couple.Connected(members), nil
}

// SubmitRequest carries one member's confirmed answer.
type SubmitRequest struct {
	CoupleID uuid.UUID
	UserID   uuid.UUID
	Option   string
	Comment  string
}

// SubmitResult reports what a confirmed submission did.
type SubmitResult struct {
	State           *DailyGameState
	Question        Question
	EditMode        bool
	PartnerAnswered bool
	HistorySaved    bool
	IsMatch         bool
	XPGranted       int
	NewAchievements []string
}

// Submit merges the member's answer into the shared per-day answer map.
// The whole read-modify-write runs inside the store's transactional
// update, so a partner's interleaved write is built upon rather than
// overwritten. First submissions (not edits) grant the participation
// reward; once both answers are present the question is appended to
// completedIds and archived, with the history store's natural key
// guaranteeing exactly one record even across retries.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if !ValidOption(req.Option) {
		return nil, ErrInvalidOption
	}

	members, err := s.couples.Members(ctx, req.CoupleID)
	if err != nil {
		return nil, fmt.Errorf("load couple members: %w", err)
	}
	if !couple.Connected(members) {
		return nil, ErrNotConnected
	}

	selfID := req.UserID.String()
	var (
		merged          *DailyGameState
		question        Question
		editMode        bool
		partnerAnswer   Answer
		partnerAnswered bool
	)

	err = s.store.Update(ctx, req.CoupleID, SettingsField, func(current json.RawMessage) (json.RawMessage, error) {
		stored, err := decodeState(current)
		if err != nil {
			return nil, err
		}

		today := s.manager.Today()
		if s.manager.Classify(stored, today) != PhaseFresh {
			stored = s.manager.candidate(req.CoupleID, stored, today)
		}

		var ok bool
		question, ok = s.bank.ByID(stored.QuestionID)
		if !ok {
			return nil, fmt.Errorf("unknown question id %q", stored.QuestionID)
		}

		_, editMode = stored.AnswerFor(selfID)

		merged = stored.Clone()
		merged.TodayAnswers[selfID] = Answer{
			Option:  req.Option,
			Comment: TrimComment(req.Comment),
		}

		_, partnerAnswer, partnerAnswered = merged.PartnerAnswer(selfID)

		if partnerAnswered && !merged.Completed(merged.QuestionID) {
			merged.CompletedIDs = append(merged.CompletedIDs, merged.QuestionID)
		}
		return json.Marshal(merged)
	})
	if err != nil {
		return nil, fmt.Errorf("persist answer: %w", err)
	}

	result := &SubmitResult{
		State:           merged,
		Question:        question,
		EditMode:        editMode,
		PartnerAnswered: partnerAnswered,
	}
	if editMode {
		answerSubmits.WithLabelValues("edit").Inc()
	} else {
		answerSubmits.WithLabelValues("first").Inc()
	}

	if !editMode && s.growth != nil {
		grant, err := s.growth.GrantParticipation(ctx, req.CoupleID, req.UserID)
		if err != nil {
			// The answer is already durable; reward failure must not
			// roll the submission back. Log and report the answer.
			s.logger.Error().Err(err).Str("user_id", selfID).Msg("participation grant failed")
		} else {
			result.XPGranted = grant.XP
			result.NewAchievements = grant.NewAchievements
		}
	}

	// Archive whenever both answers are present, not only on the first
	// completion observed: if an earlier append failed after completedIds
	// was persisted, the record would otherwise be lost for good. The
	// natural key dedupes, reporting created=false for the repeats.
	if partnerAnswered {
		isMatch := merged.TodayAnswers[selfID].Option == partnerAnswer.Option
		rec := s.buildRecord(req.CoupleID, question, merged, members, isMatch)
		created, err := s.history.Append(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("archive history: %w", err)
		}
		if created {
			historyAppends.WithLabelValues("created").Inc()
		} else {
			historyAppends.WithLabelValues("duplicate").Inc()
		}
		result.HistorySaved = created
		result.IsMatch = isMatch
		if created {
			s.logger.Info().
				Str("couple_id", req.CoupleID.String()).
				Str("question_id", question.ID).
				Bool("is_match", isMatch).
				Msg("question completed")
		}
	}

	return result, nil
}

// History lists the couple's archived questions.
func (s *Service) History(ctx context.Context, coupleID uuid.UUID) ([]history.Record, error) {
	return s.history.List(ctx, coupleID)
}

// DeleteHistoryItem removes one archived record (manual cleanup).
func (s *Service) DeleteHistoryItem(ctx context.Context, coupleID, recordID uuid.UUID) error {
	return s.history.Delete(ctx, coupleID, recordID)
}

func (s *Service) buildRecord(coupleID uuid.UUID, question Question, state *DailyGameState, members []couple.Member, isMatch bool) *history.Record {
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID.String()] = m.DisplayName
	}

	answers := make(map[string]history.RecordAnswer, len(state.TodayAnswers))
	for uid, ans := range state.TodayAnswers {
		answers[uid] = history.RecordAnswer{
			Option:  ans.Option,
			Comment: ans.Comment,
			Name:    names[uid],
		}
	}

	return &history.Record{
		ID:         uuid.New(),
		CoupleID:   coupleID,
		QuestionID: question.ID,
		Category:   question.Category,
		OptionA:    question.OptionA,
		OptionB:    question.OptionB,
		Date:       state.TodayDate,
		Answers:    answers,
		IsMatch:    isMatch,
		CreatedAt:  time.Now().UTC(),
	}
}
