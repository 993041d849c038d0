package growth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) IncrementParticipation(ctx context.Context, coupleID, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, coupleID, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) AddXP(ctx context.Context, coupleID, userID uuid.UUID, amount int) error {
	args := m.Called(ctx, coupleID, userID, amount)
	return args.Error(0)
}

func (m *mockStore) RecordAchievement(ctx context.Context, coupleID, userID uuid.UUID, achievementID string) (bool, error) {
	args := m.Called(ctx, coupleID, userID, achievementID)
	return args.Bool(0), args.Error(1)
}

func TestGrantParticipationFirstAnswer(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, 10, 50, zerolog.Nop())
	coupleID, userID := uuid.New(), uuid.New()

	store.On("IncrementParticipation", mock.Anything, coupleID, userID).Return(1, nil)
	store.On("AddXP", mock.Anything, coupleID, userID, 10).Return(nil)
	store.On("RecordAchievement", mock.Anything, coupleID, userID, "balance-first").Return(true, nil)
	store.On("AddXP", mock.Anything, coupleID, userID, 50).Return(nil)

	result, err := svc.GrantParticipation(context.Background(), coupleID, userID)
	require.NoError(t, err)

	assert.Equal(t, 60, result.XP)
	assert.Equal(t, []string{"balance-first"}, result.NewAchievements)
	store.AssertExpectations(t)
}

func TestGrantParticipationAlreadyRecordedAchievementAddsNothing(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, 10, 50, zerolog.Nop())
	coupleID, userID := uuid.New(), uuid.New()

	// Count 3 is past the first threshold, but that achievement already
	// exists; only the base reward lands.
	store.On("IncrementParticipation", mock.Anything, coupleID, userID).Return(3, nil)
	store.On("AddXP", mock.Anything, coupleID, userID, 10).Return(nil)
	store.On("RecordAchievement", mock.Anything, coupleID, userID, "balance-first").Return(false, nil)

	result, err := svc.GrantParticipation(context.Background(), coupleID, userID)
	require.NoError(t, err)

	assert.Equal(t, 10, result.XP)
	assert.Empty(t, result.NewAchievements)
	store.AssertNotCalled(t, "AddXP", mock.Anything, coupleID, userID, 50)
}

func TestGrantParticipationCrossingMultipleThresholds(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, 10, 50, zerolog.Nop())
	coupleID, userID := uuid.New(), uuid.New()

	// A member whose older achievements were never recorded catches up in
	// one grant: every crossed threshold pays out once.
	store.On("IncrementParticipation", mock.Anything, coupleID, userID).Return(5, nil)
	store.On("AddXP", mock.Anything, coupleID, userID, 10).Return(nil)
	store.On("RecordAchievement", mock.Anything, coupleID, userID, "balance-first").Return(true, nil)
	store.On("RecordAchievement", mock.Anything, coupleID, userID, "balance-5").Return(true, nil)
	store.On("AddXP", mock.Anything, coupleID, userID, 50).Return(nil).Times(2)

	result, err := svc.GrantParticipation(context.Background(), coupleID, userID)
	require.NoError(t, err)

	assert.Equal(t, 110, result.XP)
	assert.Equal(t, []string{"balance-first", "balance-5"}, result.NewAchievements)
	store.AssertExpectations(t)
}

func TestGrantParticipationBelowThresholdSkipsAchievements(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, 10, 50, zerolog.Nop())
	coupleID, userID := uuid.New(), uuid.New()

	store.On("IncrementParticipation", mock.Anything, coupleID, userID).Return(2, nil)
	store.On("AddXP", mock.Anything, coupleID, userID, 10).Return(nil)
	store.On("RecordAchievement", mock.Anything, coupleID, userID, "balance-first").Return(false, nil)

	result, err := svc.GrantParticipation(context.Background(), coupleID, userID)
	require.NoError(t, err)

	assert.Empty(t, result.NewAchievements)
	store.AssertNotCalled(t, "RecordAchievement", mock.Anything, coupleID, userID, "balance-5")
}

func TestGrantParticipationIncrementFailure(t *testing.T) {
	store := new(mockStore)
	svc := NewService(store, 10, 50, zerolog.Nop())
	coupleID, userID := uuid.New(), uuid.New()

	store.On("IncrementParticipation", mock.Anything, coupleID, userID).Return(0, errors.New("db down"))

	_, err := svc.GrantParticipation(context.Background(), coupleID, userID)
	assert.Error(t, err)
	store.AssertNotCalled(t, "AddXP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
