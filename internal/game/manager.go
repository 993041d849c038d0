package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pairday/balance-platform/internal/docstore"
)

// Phase classifies the stored daily state against the current local date.
type Phase string

const (
	// PhaseStale means no stored state, a stored state for another date,
	// or a stored state missing its question.
	PhaseStale Phase = "stale"
	// PhaseFresh means the stored state matches today and has a question.
	PhaseFresh Phase = "fresh"
	// PhaseReconciling means a Stale->Fresh merge-write is in flight.
	PhaseReconciling Phase = "reconciling"
)

// StateManager owns the per-couple daily state: it detects staleness,
// computes the corrected state, and persists it via merge-write without
// clobbering a partner's concurrent write. Reconciliation is deterministic
// given the same (completedIds, today), so redundant concurrent runs from
// both members converge on identical values.
type StateManager struct {
	store    docstore.Store
	selector *Selector
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// ManagerOption customizes a StateManager.
type ManagerOption func(*StateManager)

// WithNow overrides the time source, for tests and clock-driven refreshes.
func WithNow(now func() time.Time) ManagerOption {
	return func(m *StateManager) { m.now = now }
}

// NewStateManager creates a manager over the given document store.
func NewStateManager(store docstore.Store, selector *Selector, loc *time.Location, logger zerolog.Logger, opts ...ManagerOption) *StateManager {
	m := &StateManager{
		store:    store,
		selector: selector,
		loc:      loc,
		now:      time.Now,
		logger:   logger.With().Str("component", "daily_state_manager").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Today returns the current local calendar date.
func (m *StateManager) Today() string {
	return DateOf(m.now(), m.loc)
}

// Classify reports the stored state's phase for the given date.
func (m *StateManager) Classify(stored *DailyGameState, today string) Phase {
	if stored == nil || stored.TodayDate != today || stored.QuestionID == "" {
		return PhaseStale
	}
	return PhaseFresh
}

// Load extracts the daily state from the couple's settings document.
// A missing document or missing field yields a nil state, not an error.
func (m *StateManager) Load(ctx context.Context, coupleID uuid.UUID) (*DailyGameState, error) {
	settings, err := m.store.Read(ctx, coupleID)
	if err == docstore.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load daily state: %w", err)
	}
	return m.FromSettings(settings)
}

// FromSettings decodes the daily state field out of a settings snapshot.
func (m *StateManager) FromSettings(settings *docstore.Settings) (*DailyGameState, error) {
	var state DailyGameState
	ok, err := settings.Get(SettingsField, &state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &state, nil
}

// Reconcile rolls a stale stored state forward to today and persists the
// result. It returns the effective state and whether a write was issued.
// The correction is recomputed from the latest stored bytes inside the
// store's transactional update, so a partner's interleaved write is built
// upon instead of overwritten. A fresh state, or a candidate identical to
// the stored one, issues no write; subscription listeners re-firing on
// our own write therefore terminate instead of looping.
func (m *StateManager) Reconcile(ctx context.Context, coupleID uuid.UUID, stored *DailyGameState) (*DailyGameState, bool, error) {
	today := m.Today()

	if m.Classify(stored, today) == PhaseFresh {
		reconcileWrites.WithLabelValues("skipped").Inc()
		return stored, false, nil
	}

	var result *DailyGameState
	wrote := false
	err := m.store.Update(ctx, coupleID, SettingsField, func(current json.RawMessage) (json.RawMessage, error) {
		wrote = false

		latest, err := decodeState(current)
		if err != nil {
			return nil, err
		}
		if m.Classify(latest, today) == PhaseFresh {
			result = latest
			return nil, nil
		}
		candidate := m.candidate(coupleID, latest, today)
		if statesEqual(latest, candidate) {
			result = candidate
			return nil, nil
		}
		result = candidate
		wrote = true
		return json.Marshal(candidate)
	})
	if err != nil {
		// State remains stale; the next snapshot event or manual retry
		// gets another reconciliation opportunity.
		reconcileWrites.WithLabelValues("failed").Inc()
		return stored, false, fmt.Errorf("persist daily state: %w", err)
	}

	if !wrote {
		reconcileWrites.WithLabelValues("skipped").Inc()
		return result, false, nil
	}
	reconcileWrites.WithLabelValues("issued").Inc()
	m.logger.Info().
		Str("couple_id", coupleID.String()).
		Str("date", result.TodayDate).
		Str("question_id", result.QuestionID).
		Msg("daily state reconciled")
	return result, true, nil
}

// decodeState parses the stored daily-state bytes; absent yields nil.
func decodeState(raw json.RawMessage) (*DailyGameState, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	state := &DailyGameState{}
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, fmt.Errorf("decode daily state: %w", err)
	}
	return state, nil
}

// candidate computes the corrected state for today. A real date change
// resets todayAnswers; a same-date state that merely lost its questionId
// is repaired with answers preserved. completedIds pass through untouched.
func (m *StateManager) candidate(coupleID uuid.UUID, stored *DailyGameState, today string) *DailyGameState {
	next := &DailyGameState{
		TodayDate:    today,
		TodayAnswers: map[string]Answer{},
	}

	if stored != nil {
		next.CompletedIDs = append([]string(nil), stored.CompletedIDs...)
		if stored.TodayDate == today {
			for uid, ans := range stored.TodayAnswers {
				next.TodayAnswers[uid] = ans
			}
			next.QuestionID = stored.QuestionID
		}
	}

	if next.QuestionID == "" {
		next.QuestionID = m.selector.SelectNext(coupleID.String(), today, next.CompletedIDs).ID
	}
	return next
}

func statesEqual(a, b *DailyGameState) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.TodayDate != b.TodayDate || a.QuestionID != b.QuestionID {
		return false
	}
	if len(a.TodayAnswers) != len(b.TodayAnswers) {
		return false
	}
	for uid, ans := range a.TodayAnswers {
		if other, ok := b.TodayAnswers[uid]; !ok || other != ans {
			return false
		}
	}
	if len(a.CompletedIDs) != len(b.CompletedIDs) {
		return false
	}
	for i, id := range a.CompletedIDs {
		if b.CompletedIDs[i] != id {
			return false
		}
	}
	return true
}
