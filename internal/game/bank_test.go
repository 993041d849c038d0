package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBankBuiltinQuestions(t *testing.T) {
	bank := NewBank()

	assert.Greater(t, bank.Len(), 0)

	seen := map[string]bool{}
	for _, q := range bank.All() {
		assert.False(t, seen[q.ID], "duplicate question id %s", q.ID)
		seen[q.ID] = true
		assert.NotEmpty(t, q.Category)
		assert.NotEmpty(t, q.OptionA)
		assert.NotEmpty(t, q.OptionB)
	}
}

func TestBankByID(t *testing.T) {
	bank := NewBank(
		Question{ID: "q1", Category: CategoryFun, OptionA: "a", OptionB: "b"},
		Question{ID: "q2", Category: CategoryFood, OptionA: "a", OptionB: "b"},
	)

	q, ok := bank.ByID("q2")
	assert.True(t, ok)
	assert.Equal(t, CategoryFood, q.Category)

	_, ok = bank.ByID("missing")
	assert.False(t, ok)
}
