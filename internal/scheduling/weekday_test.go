package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	day, err := ParseWeekday(" wednesday ")
	require.NoError(t, err)
	assert.Equal(t, Wednesday, day)

	_, err = ParseWeekday("Funday")
	assert.Error(t, err)
}

func TestWeekdayOfCoversEveryDay(t *testing.T) {
	monday := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	for i, expected := range Weekdays() {
		assert.Equal(t, expected, WeekdayOf(monday.AddDate(0, 0, i)))
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:05")
	require.NoError(t, err)
	assert.Equal(t, "07:05", tod.String())

	tod, err = ParseTimeOfDay("17:30:00")
	require.NoError(t, err)
	assert.Equal(t, 17*60+30, tod.MinutesSinceMidnight())

	_, err = ParseTimeOfDay("25:00")
	assert.ErrorIs(t, err, ErrInvalidWindow)
}
