package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/project-spoque/clock/clocktest"
)

func TestCalendar_TodayUsesLocation(t *testing.T) {
	clk := clocktest.New(time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC))

	assert.Equal(t, "2024-06-01", New(clk, nil).Today())

	tokyo := time.FixedZone("JST", 9*60*60)
	assert.Equal(t, "2024-06-02", New(clk, tokyo).Today())
}

func TestCalendar_TodayFollowsClock(t *testing.T) {
	clk := clocktest.New(time.Date(2024, 6, 1, 23, 59, 59, 0, time.UTC))
	cal := New(clk, time.UTC)
	assert.Equal(t, "2024-06-01", cal.Today())

	clk.Advance(time.Second)
	assert.Equal(t, "2024-06-02", cal.Today())
}

func TestCalendar_Parse(t *testing.T) {
	cal := New(clocktest.New(time.Now()), time.UTC)

	start, err := cal.Parse("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), start)

	for _, bad := range []string{"", "2024-6-1", "2024-13-01", "01-06-2024", "2024-06-01T00:00:00Z"} {
		assert.False(t, cal.Valid(bad), bad)
	}
}

func TestBefore(t *testing.T) {
	assert.True(t, Before("2024-05-31", "2024-06-01"))
	assert.False(t, Before("2024-06-01", "2024-06-01"))
}
