package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(hour, min int) time.Time {
	return time.Date(2026, 8, 29, hour, min, 0, 0, time.UTC)
}

func TestIntervalsOverlap(t *testing.T) {
	tests := []struct {
		name   string
		aStart time.Time
		aEnd   time.Time
		bStart time.Time
		bEnd   time.Time
		want   bool
	}{
		{"partial overlap", ts(9, 0), ts(11, 0), ts(10, 0), ts(12, 0), true},
		{"containment", ts(9, 0), ts(17, 0), ts(10, 0), ts(11, 0), true},
		{"identical", ts(9, 0), ts(10, 0), ts(9, 0), ts(10, 0), true},
		{"disjoint", ts(9, 0), ts(10, 0), ts(14, 0), ts(15, 0), false},
		{"back to back does not overlap", ts(9, 0), ts(10, 0), ts(10, 0), ts(11, 0), false},
		{"back to back reversed", ts(10, 0), ts(11, 0), ts(9, 0), ts(10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IntervalsOverlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// Overlap is symmetric
			assert.Equal(t, tt.want, IntervalsOverlap(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestValidateInterval(t *testing.T) {
	assert.NoError(t, ValidateInterval(ts(9, 0), ts(10, 0)))
	assert.ErrorIs(t, ValidateInterval(ts(9, 0), ts(9, 0)), ErrInvalidInterval)
	assert.ErrorIs(t, ValidateInterval(ts(10, 0), ts(9, 0)), ErrInvalidInterval)
}

func TestFindConflict(t *testing.T) {
	existing := []Reservation{
		{ID: 1, StartTime: ts(9, 0), EndTime: ts(10, 0), Status: ReservationActive},
		{ID: 2, StartTime: ts(11, 0), EndTime: ts(12, 0), Status: ReservationCancelled},
		{ID: 3, StartTime: ts(14, 0), EndTime: ts(16, 0), Status: ReservationActive},
	}

	t.Run("no conflict in free gap", func(t *testing.T) {
		assert.Nil(t, FindConflict(ts(10, 0), ts(11, 0), existing, 0))
	})

	t.Run("finds overlapping reservation", func(t *testing.T) {
		c := FindConflict(ts(15, 0), ts(17, 0), existing, 0)
		require.NotNil(t, c)
		assert.Equal(t, 3, c.ID)
	})

	t.Run("cancelled reservations do not block", func(t *testing.T) {
		assert.Nil(t, FindConflict(ts(11, 0), ts(12, 0), existing, 0))
	})

	t.Run("excluded reservation does not conflict with itself", func(t *testing.T) {
		// Rescheduling #3 into a window overlapping its own slot
		assert.Nil(t, FindConflict(ts(15, 0), ts(17, 0), existing, 3))
	})

	t.Run("exclusion does not hide other conflicts", func(t *testing.T) {
		c := FindConflict(ts(9, 30), ts(15, 0), existing, 3)
		require.NotNil(t, c)
		assert.Equal(t, 1, c.ID)
	})
}
