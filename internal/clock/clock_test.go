package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	c.Advance(2 * time.Hour)
	assert.Equal(t, time.Date(2024, 1, 11, 1, 0, 0, 0, time.UTC), c.Now())
}

func TestSystemClockDefaultsToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, System(nil).Now().Location())
}
