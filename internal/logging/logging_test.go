package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Info().Msg("quiet")
	assert.Empty(t, buf.String())

	log.Warn().Msg("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "nonsense")

	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewDisabled(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "disabled")

	log.Error().Msg("nothing")
	assert.Empty(t, buf.String())
}
