package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestNow_ReturnsCurrentTime(t *testing.T) {
	before := time.Now()
	result := Now()
	after := time.Now()

	assert.False(t, result.Before(before))
	assert.False(t, result.After(after))
}

func TestMockClock_Advance(t *testing.T) {
	mock := NewMockClock(epoch)

	first := mock.Now()
	mock.Advance(time.Hour)

	assert.Equal(t, epoch, first)
	assert.Equal(t, epoch.Add(time.Hour), mock.Now())
}

func TestMockClock_Set(t *testing.T) {
	mock := NewMockClock(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	mock.Set(epoch)
	assert.Equal(t, epoch, mock.Now())
}

func TestMockClock_SinceUntil(t *testing.T) {
	mock := NewMockClock(epoch)
	assert.Equal(t, time.Hour, mock.Since(epoch.Add(-time.Hour)))
	assert.Equal(t, time.Hour, mock.Until(epoch.Add(time.Hour)))
}

func TestSinceUntil(t *testing.T) {
	assert.InDelta(t, float64(time.Hour), float64(Since(time.Now().Add(-time.Hour))), float64(time.Second))
	assert.InDelta(t, float64(time.Hour), float64(Until(time.Now().Add(time.Hour))), float64(time.Second))
}

func TestStamp(t *testing.T) {
	assert.Equal(t, epoch.Unix(), Stamp(NewMockClock(epoch)))
}

func TestRemaining(t *testing.T) {
	mock := NewMockClock(epoch)
	start := Stamp(mock)

	tests := []struct {
		name      string
		advance   time.Duration
		timestamp int64
		lifetime  uint32
		want      uint32
	}{
		{"fresh", 0, start, 3600, 3600},
		{"half", 30 * time.Minute, start, 3600, 1800},
		{"expired", 2 * time.Hour, start, 3600, 0},
		{"permanent", 2 * time.Hour, start, Permanent, Permanent},
		{"unstamped", 2 * time.Hour, 0, 600, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock.Set(epoch.Add(tt.advance))
			assert.Equal(t, tt.want, Remaining(mock, tt.timestamp, tt.lifetime))
		})
	}
}

func TestClockInterface(t *testing.T) {
	var _ Clock = &RealClock{}
	var _ Clock = &MockClock{}
}

func TestRealClock(t *testing.T) {
	c := &RealClock{}

	before := time.Now()
	result := c.Now()
	assert.False(t, result.Before(before))
	assert.InDelta(t, float64(time.Hour), float64(c.Since(time.Now().Add(-time.Hour))), float64(time.Second))
	assert.InDelta(t, float64(time.Hour), float64(c.Until(time.Now().Add(time.Hour))), float64(time.Second))
}
