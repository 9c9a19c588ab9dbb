package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- in-memory fakes ----

type fakeVehicleRepo struct {
	mu       sync.Mutex
	vehicles map[int]domain.Vehicle
}

func newFakeVehicleRepo(vehicles ...domain.Vehicle) *fakeVehicleRepo {
	repo := &fakeVehicleRepo{vehicles: make(map[int]domain.Vehicle)}
	for _, v := range vehicles {
		repo.vehicles[v.ID] = v
	}
	return repo
}

func (f *fakeVehicleRepo) Create(_ context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vehicle.ID = len(f.vehicles) + 1
	f.vehicles[vehicle.ID] = *vehicle
	return vehicle, nil
}

func (f *fakeVehicleRepo) FindByID(_ context.Context, id int) (*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (f *fakeVehicleRepo) FindAll(_ context.Context) ([]domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Vehicle, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeVehicleRepo) Update(_ context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[vehicle.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	f.vehicles[vehicle.ID] = *vehicle
	return vehicle, nil
}

func (f *fakeVehicleRepo) SetMaintenance(_ context.Context, id int, inMaintenance bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.InMaintenance = inMaintenance
	f.vehicles[id] = v
	return nil
}

func (f *fakeVehicleRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.vehicles, id)
	return nil
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[int]domain.Reservation
	nextID       int

	// forceConflictOnWrite mô phỏng database từ chối ghi vì ràng buộc
	// loại trừ khoảng thời gian (hai request chạy đua).
	forceConflictOnWrite bool
	updateCount          int
}

func newFakeReservationRepo(reservations ...domain.Reservation) *fakeReservationRepo {
	repo := &fakeReservationRepo{reservations: make(map[int]domain.Reservation), nextID: 1}
	for _, r := range reservations {
		repo.reservations[r.ID] = r
		if r.ID >= repo.nextID {
			repo.nextID = r.ID + 1
		}
	}
	return repo
}

func (f *fakeReservationRepo) Create(_ context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceConflictOnWrite {
		return nil, repository.ErrConflict
	}
	r.ID = f.nextID
	f.nextID++
	f.reservations[r.ID] = *r
	return r, nil
}

func (f *fakeReservationRepo) FindByID(_ context.Context, id int) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (f *fakeReservationRepo) FindByVehicleID(_ context.Context, vehicleID int) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Reservation, 0)
	for _, r := range f.reservations {
		if r.VehicleID == vehicleID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) Find(_ context.Context, filter domain.ReservationFilterDTO) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Reservation, 0)
	for _, r := range f.reservations {
		if filter.VehicleID != nil && r.VehicleID != *filter.VehicleID {
			continue
		}
		if filter.RequesterID != nil && r.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.Status != nil && string(r.Status) != *filter.Status {
			continue
		}
		if filter.Date != nil {
			dayStart, err := time.Parse("2006-01-02", *filter.Date)
			if err != nil {
				return nil, err
			}
			dayEnd := dayStart.Add(24 * time.Hour)
			if !domain.IntervalsOverlap(r.StartTime, r.EndTime, dayStart, dayEnd) {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReservationRepo) Update(_ context.Context, r *domain.Reservation) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceConflictOnWrite {
		return nil, repository.ErrConflict
	}
	if _, ok := f.reservations[r.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	f.updateCount++
	f.reservations[r.ID] = *r
	return r, nil
}

func (f *fakeReservationRepo) DeleteFutureByVehicleID(_ context.Context, vehicleID int, from time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, r := range f.reservations {
		if r.VehicleID == vehicleID && r.EndTime.After(from) {
			delete(f.reservations, id)
			count++
		}
	}
	return count, nil
}

func (f *fakeReservationRepo) GuestNames(_ context.Context, requesterID int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0)
	for _, r := range f.reservations {
		if r.RequesterID == requesterID && r.GuestName.Valid {
			names = append(names, r.GuestName.String)
		}
	}
	return names, nil
}

type recordingInvalidator struct {
	mu      sync.Mutex
	userIDs []int
}

func (r *recordingInvalidator) InvalidateFor(userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userIDs = append(r.userIDs, userID)
}

func (r *recordingInvalidator) calls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.userIDs...)
}

// ---- helpers ----

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 29, hour, min, 0, 0, time.UTC)
}

func newTestReservationService(vehicleRepo *fakeVehicleRepo, reservationRepo *fakeReservationRepo) (*ReservationService, *recordingInvalidator) {
	inv := &recordingInvalidator{}
	svc := NewReservationService(vehicleRepo, reservationRepo, inv)
	svc.now = func() time.Time { return testNow }
	return svc, inv
}

// ---- tests ----

func TestReservationCreate(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := newFakeVehicleRepo(domain.Vehicle{ID: 1, Name: "Kia Carnival"})

	t.Run("success invalidates the requester's snapshot", func(t *testing.T) {
		resRepo := newFakeReservationRepo()
		svc, inv := newTestReservationService(vehicleRepo, resRepo)

		created, err := svc.Create(ctx, 42, domain.CreateReservationDTO{
			VehicleID: 1, StartTime: at(14, 0), EndTime: at(15, 0), Notes: "đi sân bay",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationActive, created.Status)
		assert.Equal(t, 42, created.RequesterID)
		assert.False(t, created.IsForGuest)
		assert.True(t, created.Notes.Valid)
		assert.Equal(t, []int{42}, inv.calls())
	})

	t.Run("guest name marks the reservation as for a guest", func(t *testing.T) {
		resRepo := newFakeReservationRepo()
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		created, err := svc.Create(ctx, 42, domain.CreateReservationDTO{
			VehicleID: 1, StartTime: at(14, 0), EndTime: at(15, 0), GuestName: "Chị Hoa",
		})
		require.NoError(t, err)
		assert.True(t, created.IsForGuest)
		assert.Equal(t, "Chị Hoa", created.GuestName.String)
		assert.Equal(t, 42, created.RequesterID, "requester stays the logged-in user")
	})

	t.Run("overlap is rejected with the conflicting reservation", func(t *testing.T) {
		resRepo := newFakeReservationRepo(domain.Reservation{
			ID: 1, VehicleID: 1, StartTime: at(14, 0), EndTime: at(16, 0), Status: domain.ReservationActive,
		})
		svc, inv := newTestReservationService(vehicleRepo, resRepo)

		_, err := svc.Create(ctx, 42, domain.CreateReservationDTO{
			VehicleID: 1, StartTime: at(15, 0), EndTime: at(17, 0),
		})
		var conflictErr *domain.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		require.NotNil(t, conflictErr.Conflicting)
		assert.Equal(t, 1, conflictErr.Conflicting.ID)
		assert.Empty(t, inv.calls(), "failed create must not invalidate")
	})

	t.Run("back to back intervals do not conflict", func(t *testing.T) {
		resRepo := newFakeReservationRepo(domain.Reservation{
			ID: 1, VehicleID: 1, StartTime: at(14, 0), EndTime: at(16, 0), Status: domain.ReservationActive,
		})
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		_, err := svc.Create(ctx, 42, domain.CreateReservationDTO{
			VehicleID: 1, StartTime: at(16, 0), EndTime: at(17, 0),
		})
		assert.NoError(t, err)
	})

	t.Run("cancelled reservations do not block", func(t *testing.T) {
		resRepo := newFakeReservationRepo(domain.Reservation{
			ID: 1, VehicleID: 1, StartTime: at(14, 0), EndTime: at(16, 0), Status: domain.ReservationCancelled,
		})
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		_, err := svc.Create(ctx, 42, domain.CreateReservationDTO{
			VehicleID: 1, StartTime: at(14, 0), EndTime: at(16, 0),
		})
		assert.NoError(t, err)
	})

	t.Run("invalid interval", func(t *testing.T) {
		resRepo := newFakeReservationRepo()
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		_, err := svc.Create(ctx, 42, domain.CreateReservationDTO{
			VehicleID: 1, StartTime: at(15, 0), EndTime: at(15, 0),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInterval)
	})

	t.Run("vehicle in maintenance", func(t *testing.T) {
		maintRepo := newFakeVehicleRepo(domain.Vehicle{ID: 1, InMaintenance: true})
		svc, _ := newTestReservationService(maintRepo, newFakeReservationRepo())

		_, err := svc.Create(ctx, 42, domain.CreateReservationDTO{
			VehicleID: 1, StartTime: at(14, 0), EndTime: at(15, 0),
		})
		assert.ErrorIs(t, err, domain.ErrVehicleUnavailable)
	})

	t.Run("store-level conflict maps to ConflictError", func(t *testing.T) {
		resRepo := newFakeReservationRepo()
		resRepo.forceConflictOnWrite = true
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		_, err := svc.Create(ctx, 42, domain.CreateReservationDTO{
			VehicleID: 1, StartTime: at(14, 0), EndTime: at(15, 0),
		})
		var conflictErr *domain.ConflictError
		assert.ErrorAs(t, err, &conflictErr)
	})
}

func TestReservationReschedule(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := newFakeVehicleRepo(domain.Vehicle{ID: 1})

	base := domain.Reservation{
		ID: 1, VehicleID: 1, RequesterID: 42,
		StartTime: at(14, 0), EndTime: at(16, 0), Status: domain.ReservationActive,
	}

	t.Run("moving within own slot is not a self-conflict", func(t *testing.T) {
		svc, _ := newTestReservationService(vehicleRepo, newFakeReservationRepo(base))

		updated, err := svc.Reschedule(ctx, 1, 42, false, domain.RescheduleReservationDTO{
			StartTime: at(15, 0), EndTime: at(17, 0),
		})
		require.NoError(t, err)
		assert.Equal(t, at(15, 0), updated.StartTime)
		assert.Equal(t, at(17, 0), updated.EndTime)
	})

	t.Run("conflict with another reservation is rejected", func(t *testing.T) {
		other := domain.Reservation{
			ID: 2, VehicleID: 1, RequesterID: 7,
			StartTime: at(17, 0), EndTime: at(18, 0), Status: domain.ReservationActive,
		}
		svc, _ := newTestReservationService(vehicleRepo, newFakeReservationRepo(base, other))

		_, err := svc.Reschedule(ctx, 1, 42, false, domain.RescheduleReservationDTO{
			StartTime: at(16, 30), EndTime: at(17, 30),
		})
		var conflictErr *domain.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, 2, conflictErr.Conflicting.ID)
	})

	t.Run("only the requester or an admin may reschedule", func(t *testing.T) {
		svc, _ := newTestReservationService(vehicleRepo, newFakeReservationRepo(base))

		_, err := svc.Reschedule(ctx, 1, 99, false, domain.RescheduleReservationDTO{
			StartTime: at(15, 0), EndTime: at(17, 0),
		})
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)

		_, err = svc.Reschedule(ctx, 1, 99, true, domain.RescheduleReservationDTO{
			StartTime: at(15, 0), EndTime: at(17, 0),
		})
		assert.NoError(t, err)
	})

	t.Run("cancelled reservation cannot be rescheduled", func(t *testing.T) {
		cancelled := base
		cancelled.Status = domain.ReservationCancelled
		svc, _ := newTestReservationService(vehicleRepo, newFakeReservationRepo(cancelled))

		_, err := svc.Reschedule(ctx, 1, 42, false, domain.RescheduleReservationDTO{
			StartTime: at(15, 0), EndTime: at(17, 0),
		})
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})
}

func TestReservationCancel(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := newFakeVehicleRepo(domain.Vehicle{ID: 1})
	base := domain.Reservation{
		ID: 1, VehicleID: 1, RequesterID: 42,
		StartTime: at(14, 0), EndTime: at(16, 0), Status: domain.ReservationActive,
	}

	t.Run("cancel stamps cancelled_at", func(t *testing.T) {
		resRepo := newFakeReservationRepo(base)
		svc, inv := newTestReservationService(vehicleRepo, resRepo)

		require.NoError(t, svc.Cancel(ctx, 1, 42, false))

		stored, err := resRepo.FindByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.ReservationCancelled, stored.Status)
		assert.True(t, stored.CancelledAt.Valid)
		assert.Equal(t, testNow, stored.CancelledAt.Time)
		assert.Equal(t, []int{42}, inv.calls())
	})

	t.Run("cancelling twice is a no-op, not an error", func(t *testing.T) {
		resRepo := newFakeReservationRepo(base)
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		require.NoError(t, svc.Cancel(ctx, 1, 42, false))
		updatesAfterFirst := resRepo.updateCount

		require.NoError(t, svc.Cancel(ctx, 1, 42, false))
		assert.Equal(t, updatesAfterFirst, resRepo.updateCount, "second cancel must not write")
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		svc, _ := newTestReservationService(vehicleRepo, newFakeReservationRepo(base))
		assert.ErrorIs(t, svc.Cancel(ctx, 1, 99, false), domain.ErrPermissionDenied)
	})
}

func TestReservationFinishNow(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := newFakeVehicleRepo(domain.Vehicle{ID: 1})

	t.Run("running reservation ends now and stays active", func(t *testing.T) {
		resRepo := newFakeReservationRepo(domain.Reservation{
			ID: 1, VehicleID: 1, RequesterID: 42,
			StartTime: at(11, 0), EndTime: at(16, 0), Status: domain.ReservationActive,
		})
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		updated, err := svc.FinishNow(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, testNow, updated.EndTime)
		assert.Equal(t, domain.ReservationActive, updated.Status, "finished is not cancelled")
	})

	t.Run("not started yet", func(t *testing.T) {
		resRepo := newFakeReservationRepo(domain.Reservation{
			ID: 1, VehicleID: 1, StartTime: at(14, 0), EndTime: at(16, 0), Status: domain.ReservationActive,
		})
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		_, err := svc.FinishNow(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})

	t.Run("already over is a no-op so end_time never moves backwards", func(t *testing.T) {
		resRepo := newFakeReservationRepo(domain.Reservation{
			ID: 1, VehicleID: 1, StartTime: at(8, 0), EndTime: at(9, 0), Status: domain.ReservationActive,
		})
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		updated, err := svc.FinishNow(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, at(9, 0), updated.EndTime)
		assert.Equal(t, 0, resRepo.updateCount)
	})

	t.Run("cancelled reservation cannot be finished", func(t *testing.T) {
		resRepo := newFakeReservationRepo(domain.Reservation{
			ID: 1, VehicleID: 1, StartTime: at(11, 0), EndTime: at(16, 0), Status: domain.ReservationCancelled,
		})
		svc, _ := newTestReservationService(vehicleRepo, resRepo)

		_, err := svc.FinishNow(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})
}

func TestReservationSetNote(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := newFakeVehicleRepo(domain.Vehicle{ID: 1})
	base := domain.Reservation{
		ID: 1, VehicleID: 1, RequesterID: 42,
		StartTime: at(14, 0), EndTime: at(16, 0), Status: domain.ReservationActive,
	}

	t.Run("set and clear", func(t *testing.T) {
		svc, _ := newTestReservationService(vehicleRepo, newFakeReservationRepo(base))

		updated, err := svc.SetNote(ctx, 1, 42, "nhớ đổ xăng")
		require.NoError(t, err)
		assert.True(t, updated.Notes.Valid)

		updated, err = svc.SetNote(ctx, 1, 42, "")
		require.NoError(t, err)
		assert.False(t, updated.Notes.Valid, "empty string clears the note")
	})

	t.Run("note works on a cancelled reservation", func(t *testing.T) {
		cancelled := base
		cancelled.Status = domain.ReservationCancelled
		svc, _ := newTestReservationService(vehicleRepo, newFakeReservationRepo(cancelled))

		_, err := svc.SetNote(ctx, 1, 42, "lý do hủy: khách báo bận")
		assert.NoError(t, err)
	})

	t.Run("only the requester may edit the note", func(t *testing.T) {
		svc, _ := newTestReservationService(vehicleRepo, newFakeReservationRepo(base))
		_, err := svc.SetNote(ctx, 1, 99, "x")
		assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	})
}

func TestGetVehicleDaySchedule(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := newFakeVehicleRepo(domain.Vehicle{ID: 1, Name: "Kia Carnival"})
	resRepo := newFakeReservationRepo(
		domain.Reservation{ID: 1, VehicleID: 1, StartTime: at(8, 0), EndTime: at(9, 0), Status: domain.ReservationActive},
		domain.Reservation{ID: 2, VehicleID: 1, StartTime: at(11, 30), EndTime: at(13, 0), Status: domain.ReservationActive},
	)
	svc, _ := newTestReservationService(vehicleRepo, resRepo)

	day, err := svc.GetVehicleDaySchedule(ctx, 1, "2026-08-29")
	require.NoError(t, err)

	require.NotNil(t, day.Schedule.Current)
	assert.Equal(t, 2, day.Schedule.Current.ID)
	assert.Len(t, day.Timeline, 2)

	_, err = svc.GetVehicleDaySchedule(ctx, 1, "not-a-date")
	assert.Error(t, err)

	_, err = svc.GetVehicleDaySchedule(ctx, 99, "2026-08-29")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGuestNameSuggestions(t *testing.T) {
	ctx := context.Background()
	vehicleRepo := newFakeVehicleRepo(domain.Vehicle{ID: 1})
	resRepo := newFakeReservationRepo()
	svc, _ := newTestReservationService(vehicleRepo, resRepo)

	_, err := svc.Create(ctx, 42, domain.CreateReservationDTO{
		VehicleID: 1, StartTime: at(14, 0), EndTime: at(15, 0), GuestName: "Chị Hoa",
	})
	require.NoError(t, err)

	names, err := svc.GuestNameSuggestions(ctx, 42)
	require.NoError(t, err)
	assert.Contains(t, names, "Chị Hoa")

	other, err := svc.GuestNameSuggestions(ctx, 7)
	require.NoError(t, err)
	assert.NotContains(t, other, "Chị Hoa")
}

var errStoreDown = errors.New("store down")
