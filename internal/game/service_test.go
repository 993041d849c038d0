package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairday/balance-platform/internal/couple"
	"github.com/pairday/balance-platform/internal/docstore"
	"github.com/pairday/balance-platform/internal/growth"
	"github.com/pairday/balance-platform/internal/history"
)

// stubHistory is an in-memory history log deduplicating on the natural
// (coupleID, questionID) key, like the Postgres store does.
type stubHistory struct {
	mu      sync.Mutex
	records []history.Record
	seen    map[string]bool
	appends int
}

func newStubHistory() *stubHistory {
	return &stubHistory{seen: map[string]bool{}}
}

func (h *stubHistory) Append(ctx context.Context, rec *history.Record) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appends++
	key := rec.CoupleID.String() + "|" + rec.QuestionID
	if h.seen[key] {
		return false, nil
	}
	h.seen[key] = true
	h.records = append(h.records, *rec)
	return true, nil
}

func (h *stubHistory) List(ctx context.Context, coupleID uuid.UUID) ([]history.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []history.Record
	for _, rec := range h.records {
		if rec.CoupleID == coupleID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (h *stubHistory) Delete(ctx context.Context, coupleID, recordID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, rec := range h.records {
		if rec.CoupleID == coupleID && rec.ID == recordID {
			h.records = append(h.records[:i], h.records[i+1:]...)
			return nil
		}
	}
	return nil
}

type stubGrowth struct {
	grants int
}

func (g *stubGrowth) GrantParticipation(ctx context.Context, coupleID, userID uuid.UUID) (growth.GrantResult, error) {
	g.grants++
	return growth.GrantResult{XP: 10}, nil
}

type stubDirectory struct {
	members []couple.Member
}

func (d *stubDirectory) Members(ctx context.Context, coupleID uuid.UUID) ([]couple.Member, error) {
	return d.members, nil
}

type serviceFixture struct {
	svc     *Service
	store   *docstore.MemoryStore
	history *stubHistory
	growth  *stubGrowth
	dir     *stubDirectory
	userA   uuid.UUID
	userB   uuid.UUID
	couple  uuid.UUID
}

func newServiceFixture(t *testing.T, connected bool) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		store:   docstore.NewMemoryStore(),
		history: newStubHistory(),
		growth:  &stubGrowth{},
		userA:   uuid.New(),
		userB:   uuid.New(),
		couple:  uuid.New(),
	}

	members := []couple.Member{{ID: f.userA, DisplayName: "Ari"}}
	if connected {
		members = append(members, couple.Member{ID: f.userB, DisplayName: "Bo"})
	}

	f.dir = &stubDirectory{members: members}
	bank := testBank()
	manager := NewStateManager(f.store, NewSelector(bank), time.UTC, zerolog.Nop(),
		WithNow(func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }))
	f.svc = NewService(f.store, bank, manager, f.history, f.growth, f.dir, zerolog.Nop())
	return f
}

func (f *serviceFixture) submit(t *testing.T, userID uuid.UUID, option, comment string) *SubmitResult {
	t.Helper()
	res, err := f.svc.Submit(context.Background(), SubmitRequest{
		CoupleID: f.couple,
		UserID:   userID,
		Option:   option,
		Comment:  comment,
	})
	require.NoError(t, err)
	return res
}

func TestSubmitRequiresConnectedCouple(t *testing.T) {
	f := newServiceFixture(t, false)

	_, err := f.svc.Submit(context.Background(), SubmitRequest{
		CoupleID: f.couple,
		UserID:   f.userA,
		Option:   OptionA,
	})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 0, f.growth.grants)
}

func TestSubmitRejectsInvalidOption(t *testing.T) {
	f := newServiceFixture(t, true)

	_, err := f.svc.Submit(context.Background(), SubmitRequest{
		CoupleID: f.couple,
		UserID:   f.userA,
		Option:   "X",
	})
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestSubmitPreservesPartnerAnswer(t *testing.T) {
	f := newServiceFixture(t, true)

	f.submit(t, f.userA, OptionA, "mountains")
	res := f.submit(t, f.userB, OptionB, "beach")

	// B's write merged over A's; neither answer was lost.
	assert.Len(t, res.State.TodayAnswers, 2)
	assert.Equal(t, OptionA, res.State.TodayAnswers[f.userA.String()].Option)
	assert.Equal(t, "mountains", res.State.TodayAnswers[f.userA.String()].Comment)
	assert.Equal(t, OptionB, res.State.TodayAnswers[f.userB.String()].Option)
	assert.True(t, res.PartnerAnswered)
}

func TestSubmitConcurrentMembersKeepBothAnswers(t *testing.T) {
	f := newServiceFixture(t, true)

	// Both members submit at once, starting from the same (empty)
	// snapshot. The read-modify-write runs inside the store's atomic
	// update, so neither write may erase the other's answer.
	submits := []struct {
		user   uuid.UUID
		option string
	}{
		{f.userA, OptionA},
		{f.userB, OptionB},
	}

	errCh := make(chan error, len(submits))
	var wg sync.WaitGroup
	for _, sub := range submits {
		wg.Add(1)
		go func(user uuid.UUID, option string) {
			defer wg.Done()
			_, err := f.svc.Submit(context.Background(), SubmitRequest{
				CoupleID: f.couple,
				UserID:   user,
				Option:   option,
			})
			errCh <- err
		}(sub.user, sub.option)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	view, err := f.svc.Today(context.Background(), f.couple)
	require.NoError(t, err)
	require.Len(t, view.State.TodayAnswers, 2, "a concurrent submit erased the other member's answer")
	assert.Equal(t, OptionA, view.State.TodayAnswers[f.userA.String()].Option)
	assert.Equal(t, OptionB, view.State.TodayAnswers[f.userB.String()].Option)
	assert.Len(t, f.history.records, 1)
}

// flakyHistory fails its first appends, then recovers.
type flakyHistory struct {
	*stubHistory
	failures int
}

func (h *flakyHistory) Append(ctx context.Context, rec *history.Record) (bool, error) {
	if h.failures > 0 {
		h.failures--
		return false, errors.New("history store unavailable")
	}
	return h.stubHistory.Append(ctx, rec)
}

func TestSubmitRetriesArchiveAfterAppendFailure(t *testing.T) {
	f := newServiceFixture(t, true)
	flaky := &flakyHistory{stubHistory: f.history, failures: 1}
	svc := NewService(f.store, f.svc.bank, f.svc.manager, flaky, f.growth, f.dir, zerolog.Nop())

	_, err := svc.Submit(context.Background(), SubmitRequest{
		CoupleID: f.couple, UserID: f.userA, Option: OptionA,
	})
	require.NoError(t, err)

	// The completing submit persists the answer but the archive fails.
	_, err = svc.Submit(context.Background(), SubmitRequest{
		CoupleID: f.couple, UserID: f.userB, Option: OptionA,
	})
	require.Error(t, err)
	assert.Empty(t, f.history.records)

	// The retry must archive even though completedIds already contains
	// the question from the failed attempt.
	res, err := svc.Submit(context.Background(), SubmitRequest{
		CoupleID: f.couple, UserID: f.userB, Option: OptionA,
	})
	require.NoError(t, err)
	assert.True(t, res.HistorySaved)
	require.Len(t, f.history.records, 1)
	assert.True(t, f.history.records[0].IsMatch)
	assert.Equal(t, []string{res.State.QuestionID}, res.State.CompletedIDs)
}

func TestSubmitCompletionArchivesHistoryOnce(t *testing.T) {
	f := newServiceFixture(t, true)

	first := f.submit(t, f.userA, OptionA, "")
	assert.False(t, first.HistorySaved, "one answer is not a completion")
	assert.Empty(t, f.history.records)

	second := f.submit(t, f.userB, OptionA, "same")
	assert.True(t, second.HistorySaved)
	assert.True(t, second.IsMatch)
	require.Len(t, f.history.records, 1)

	rec := f.history.records[0]
	assert.Equal(t, second.State.QuestionID, rec.QuestionID)
	assert.Equal(t, "2026-08-31", rec.Date)
	assert.True(t, rec.IsMatch)
	assert.Equal(t, "Ari", rec.Answers[f.userA.String()].Name)
	assert.Equal(t, "Bo", rec.Answers[f.userB.String()].Name)

	// And the question is marked completed exactly once.
	assert.Equal(t, []string{rec.QuestionID}, second.State.CompletedIDs)
}

func TestSubmitMismatchRecordedAsNoMatch(t *testing.T) {
	f := newServiceFixture(t, true)

	f.submit(t, f.userA, OptionA, "")
	res := f.submit(t, f.userB, OptionB, "")

	assert.True(t, res.HistorySaved)
	assert.False(t, res.IsMatch)
	require.Len(t, f.history.records, 1)
	assert.False(t, f.history.records[0].IsMatch)
}

func TestSubmitEditDoesNotRegrantOrRearchive(t *testing.T) {
	f := newServiceFixture(t, true)

	f.submit(t, f.userA, OptionA, "v1")
	f.submit(t, f.userB, OptionB, "")
	require.Len(t, f.history.records, 1)
	grantsAfterCompletion := f.growth.grants

	edit := f.submit(t, f.userA, OptionB, "changed my mind")
	assert.True(t, edit.EditMode)
	assert.Zero(t, edit.XPGranted, "edits earn nothing")
	assert.Equal(t, grantsAfterCompletion, f.growth.grants)
	assert.Len(t, f.history.records, 1, "completion must archive exactly one record")
	assert.Equal(t, "changed my mind", edit.State.TodayAnswers[f.userA.String()].Comment)
}

func TestSubmitGrantsParticipationOnFirstAnswerOnly(t *testing.T) {
	f := newServiceFixture(t, true)

	res := f.submit(t, f.userA, OptionA, "")
	assert.False(t, res.EditMode)
	assert.Equal(t, 10, res.XPGranted)
	assert.Equal(t, 1, f.growth.grants)

	f.submit(t, f.userA, OptionA, "added a comment")
	assert.Equal(t, 1, f.growth.grants)
}

func TestSubmitTrimsCommentWhitespace(t *testing.T) {
	f := newServiceFixture(t, true)

	res := f.submit(t, f.userA, OptionA, "  pizza every time \n")

	assert.Equal(t, "pizza every time", res.State.TodayAnswers[f.userA.String()].Comment)
}

func TestTodayReconcilesOnFirstLoad(t *testing.T) {
	f := newServiceFixture(t, true)

	view, err := f.svc.Today(context.Background(), f.couple)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-31", view.State.TodayDate)
	assert.Equal(t, view.State.QuestionID, view.Question.ID)
	assert.Empty(t, view.State.TodayAnswers)
}

func TestDeleteHistoryItem(t *testing.T) {
	f := newServiceFixture(t, true)

	f.submit(t, f.userA, OptionA, "")
	f.submit(t, f.userB, OptionA, "")
	records, err := f.svc.History(context.Background(), f.couple)
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NoError(t, f.svc.DeleteHistoryItem(context.Background(), f.couple, records[0].ID))
	records, err = f.svc.History(context.Background(), f.couple)
	require.NoError(t, err)
	assert.Empty(t, records)
}
