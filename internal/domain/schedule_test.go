package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildVehicleSchedule(t *testing.T) {
	now := ts(12, 0)
	// 1 ended, 2 current, 3 upcoming soon, 4 upcoming outside the window, 5 cancelled
	reservations := []Reservation{
		{ID: 1, StartTime: ts(8, 0), EndTime: ts(9, 0), Status: ReservationActive},
		{ID: 2, StartTime: ts(11, 30), EndTime: ts(13, 0), Status: ReservationActive},
		{ID: 3, StartTime: ts(12, 30), EndTime: ts(14, 0), Status: ReservationActive},
		{ID: 4, StartTime: ts(16, 0), EndTime: ts(17, 0), Status: ReservationActive},
		{ID: 5, StartTime: ts(10, 0), EndTime: ts(11, 0), Status: ReservationCancelled},
	}

	schedule := BuildVehicleSchedule(reservations, now)

	require.NotNil(t, schedule.Current)
	assert.Equal(t, 2, schedule.Current.ID)

	activeIDs := make([]int, 0, len(schedule.Active))
	for _, r := range schedule.Active {
		activeIDs = append(activeIDs, r.ID)
	}
	assert.Equal(t, []int{2, 3, 4}, activeIDs, "active sorted by start ascending")

	pastIDs := make([]int, 0, len(schedule.Past))
	for _, r := range schedule.Past {
		pastIDs = append(pastIDs, r.ID)
	}
	assert.Equal(t, []int{5, 1}, pastIDs, "past sorted by start descending")

	require.NotNil(t, schedule.UpcomingSoon)
	assert.Equal(t, 3, schedule.UpcomingSoon.ID)
}

func TestBuildVehicleScheduleEveryReservationInExactlyOneGroup(t *testing.T) {
	now := ts(12, 0)
	reservations := []Reservation{
		{ID: 1, StartTime: ts(8, 0), EndTime: ts(9, 0), Status: ReservationActive},
		{ID: 2, StartTime: ts(11, 0), EndTime: ts(12, 0), Status: ReservationActive}, // ends exactly at now
		{ID: 3, StartTime: ts(12, 0), EndTime: ts(13, 0), Status: ReservationActive}, // starts exactly at now
		{ID: 4, StartTime: ts(9, 0), EndTime: ts(10, 0), Status: ReservationCancelled},
	}

	schedule := BuildVehicleSchedule(reservations, now)
	assert.Equal(t, len(reservations), len(schedule.Active)+len(schedule.Past))

	// end_time == now means the reservation is over
	for _, r := range schedule.Active {
		assert.NotEqual(t, 2, r.ID)
	}
	// start_time == now means the reservation is current, not upcoming
	require.NotNil(t, schedule.Current)
	assert.Equal(t, 3, schedule.Current.ID)
}

func TestBuildVehicleScheduleUpcomingSoonWindowBoundary(t *testing.T) {
	now := ts(12, 0)

	t.Run("start exactly at window edge counts", func(t *testing.T) {
		schedule := BuildVehicleSchedule([]Reservation{
			{ID: 1, StartTime: now.Add(UpcomingSoonWindow), EndTime: ts(15, 0), Status: ReservationActive},
		}, now)
		require.NotNil(t, schedule.UpcomingSoon)
		assert.Equal(t, 1, schedule.UpcomingSoon.ID)
	})

	t.Run("start past window edge does not count", func(t *testing.T) {
		schedule := BuildVehicleSchedule([]Reservation{
			{ID: 1, StartTime: now.Add(UpcomingSoonWindow + time.Minute), EndTime: ts(15, 0), Status: ReservationActive},
		}, now)
		assert.Nil(t, schedule.UpcomingSoon)
	})

	t.Run("current reservation is not upcoming", func(t *testing.T) {
		schedule := BuildVehicleSchedule([]Reservation{
			{ID: 1, StartTime: ts(11, 0), EndTime: ts(13, 0), Status: ReservationActive},
		}, now)
		assert.Nil(t, schedule.UpcomingSoon)
	})
}

func TestBuildVehicleScheduleEmpty(t *testing.T) {
	schedule := BuildVehicleSchedule(nil, ts(12, 0))
	assert.Nil(t, schedule.Current)
	assert.Nil(t, schedule.UpcomingSoon)
	assert.Empty(t, schedule.Active)
	assert.Empty(t, schedule.Past)
}
