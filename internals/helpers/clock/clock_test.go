package clock

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthStamp(t *testing.T) {
	nairobi, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)

	// 22:30 UTC on the last day is already the next month in Nairobi
	utc := time.Date(2025, 2, 28, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-02", MonthStamp(utc))
	assert.Equal(t, "2025-03", MonthStamp(utc.In(nairobi)))
}

func TestManualClock(t *testing.T) {
	c := NewManual(time.Date(2025, 3, 10, 15, 4, 5, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), c.Today())

	c.Advance(10 * time.Hour)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), c.Today())
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-03", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), m)

	_, err = ParseMonth("2025-3", nil)
	assert.Error(t, err)
}
