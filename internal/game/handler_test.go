package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateViewHidesPartnerAnswerUntilSelfAnswered(t *testing.T) {
	h := &Handler{}
	self, partner := uuid.New(), uuid.New()
	question := Question{ID: "q1", Category: CategoryFun, OptionA: "a", OptionB: "b"}

	state := &DailyGameState{
		TodayDate:  "2026-08-31",
		QuestionID: "q1",
		TodayAnswers: map[string]Answer{
			partner.String(): {Option: OptionB, Comment: "secret until you pick"},
		},
	}

	view := h.stateView(state, question, self)
	assert.True(t, view.PartnerAnswered, "the fact of an answer is visible")
	assert.Nil(t, view.PartnerAnswer, "its content is not")
	assert.Nil(t, view.OwnAnswer)

	state.TodayAnswers[self.String()] = Answer{Option: OptionA}
	view = h.stateView(state, question, self)
	require.NotNil(t, view.PartnerAnswer)
	assert.Equal(t, OptionB, view.PartnerAnswer.Option)
	assert.Equal(t, "secret until you pick", view.PartnerAnswer.Comment)
	require.NotNil(t, view.OwnAnswer)
	assert.Equal(t, OptionA, view.OwnAnswer.Option)
}

func TestStateViewCompletedCount(t *testing.T) {
	h := &Handler{}
	state := &DailyGameState{
		TodayDate:    "2026-08-31",
		QuestionID:   "q3",
		CompletedIDs: []string{"q1", "q2"},
	}

	view := h.stateView(state, Question{ID: "q3"}, uuid.New())
	assert.Equal(t, 2, view.CompletedCount)
	assert.Equal(t, "2026-08-31", view.Date)
	assert.Equal(t, "q3", view.Question.ID)
}
