package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameDefaultsToUTCRollover(t *testing.T) {
	t.Setenv("GAME_TIMEZONE", "")

	var g Game
	require.NoError(t, env.Parse(&g))
	assert.Equal(t, "UTC", g.Timezone)

	loc, err := g.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestGameLocationRejectsUnknownZone(t *testing.T) {
	g := Game{Timezone: "Mars/Olympus_Mons"}
	_, err := g.Location()
	assert.Error(t, err)
}
