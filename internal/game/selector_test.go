package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testBank() *Bank {
	return NewBank(
		Question{ID: "q1", Category: CategoryFun, OptionA: "a", OptionB: "b"},
		Question{ID: "q2", Category: CategoryFun, OptionA: "a", OptionB: "b"},
		Question{ID: "q3", Category: CategoryFun, OptionA: "a", OptionB: "b"},
		Question{ID: "q4", Category: CategoryFun, OptionA: "a", OptionB: "b"},
	)
}

func TestSelectNextDeterministicPerCoupleAndDate(t *testing.T) {
	selector := NewSelector(testBank())

	first := selector.SelectNext("couple-1", "2026-08-31", nil)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.ID, selector.SelectNext("couple-1", "2026-08-31", nil).ID,
			"same couple and date must always compute the same question")
	}
}

func TestSelectNextVariesAcrossDates(t *testing.T) {
	selector := NewSelector(testBank())

	picks := map[string]bool{}
	dates := []string{"2026-08-25", "2026-08-26", "2026-08-27", "2026-08-28", "2026-08-29", "2026-08-30", "2026-08-31"}
	for _, date := range dates {
		picks[selector.SelectNext("couple-1", date, nil).ID] = true
	}
	assert.Greater(t, len(picks), 1, "selection should not be constant across dates")
}

func TestSelectNextSkipsCompleted(t *testing.T) {
	selector := NewSelector(testBank())

	completed := []string{"q1", "q2", "q3"}
	for _, date := range []string{"2026-08-29", "2026-08-30", "2026-08-31"} {
		q := selector.SelectNext("couple-1", date, completed)
		assert.Equal(t, "q4", q.ID, "only unvisited question must be chosen")
	}
}

func TestSelectNextExhaustedPoolFallsBackToFullSet(t *testing.T) {
	selector := NewSelector(testBank())

	completed := []string{"q1", "q2", "q3", "q4"}
	q := selector.SelectNext("couple-1", "2026-08-31", completed)
	assert.Contains(t, []string{"q1", "q2", "q3", "q4"}, q.ID)
}
