package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemClockUsesLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	c := New(loc)
	assert.Equal(t, loc, c.Now().Location())
	assert.Equal(t, loc, c.Location())
}

func TestNilLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, New(nil).Location())
}

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	c := Fixed{At: at}
	assert.Equal(t, at, c.Now())
	assert.Equal(t, time.UTC, c.Location())
}
