package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRunTime(t *testing.T) {
	after := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC) // a Tuesday

	// Daily at 06:00: next fire is tomorrow morning
	next, err := NextRunTime("0 6 * * *", "UTC", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC), next)

	// Every Monday at 08:00
	next, err = NextRunTime("0 8 * * 1", "UTC", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC), next)
	assert.Equal(t, time.Monday, next.Weekday())

	// First of the month at midnight
	next, err = NextRunTime("0 0 1 * *", "UTC", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestNextRunTimeTimezone(t *testing.T) {
	after := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	next, err := NextRunTime("0 6 * * *", "America/New_York", after)
	require.NoError(t, err)

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.Equal(t, 6, next.In(loc).Hour())
}

func TestNextRunTimeInvalid(t *testing.T) {
	after := time.Now()

	_, err := NextRunTime("not a cron", "UTC", after)
	assert.Error(t, err)

	_, err = NextRunTime("0 6 * * *", "Mars/Olympus", after)
	assert.Error(t, err)

	// Five-field format only, no seconds column
	_, err = NextRunTime("0 0 6 * * *", "UTC", after)
	assert.Error(t, err)
}
