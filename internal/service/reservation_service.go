package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"

	"gopkg.in/guregu/null.v4"
)

// SnapshotInvalidator - phần dashboard cần biết khi lịch đặt xe thay đổi.
// Tách interface để tránh phụ thuộc vòng giữa hai service.
type SnapshotInvalidator interface {
	InvalidateFor(userID int)
}

type ReservationService struct {
	vehicleRepo     repository.VehicleRepository
	reservationRepo repository.ReservationRepository
	invalidator     SnapshotInvalidator

	// now được tiêm vào để mỗi lần tính view dẫn xuất chỉ đọc đồng hồ MỘT lần,
	// và để test điều khiển được thời gian.
	now func() time.Time
}

func NewReservationService(
	vehicleRepo repository.VehicleRepository,
	reservationRepo repository.ReservationRepository,
	invalidator SnapshotInvalidator,
) *ReservationService {
	return &ReservationService{
		vehicleRepo:     vehicleRepo,
		reservationRepo: reservationRepo,
		invalidator:     invalidator,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// checkBookable gom các precondition chung của Create và Reschedule:
// xe tồn tại, không bảo trì, khoảng thời gian hợp lệ, không trùng lịch.
func (s *ReservationService) checkBookable(ctx context.Context, vehicleID int, start, end time.Time, excludeID int) error {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("lỗi khi kiểm tra xe: %w", err)
	}
	if vehicle.InMaintenance {
		return domain.ErrVehicleUnavailable
	}

	if err := domain.ValidateInterval(start, end); err != nil {
		return err
	}

	existing, err := s.reservationRepo.FindByVehicleID(ctx, vehicleID)
	if err != nil {
		return fmt.Errorf("lỗi khi đọc lịch đặt hiện tại của xe %d: %w", vehicleID, err)
	}
	if conflict := domain.FindConflict(start, end, existing, excludeID); conflict != nil {
		return &domain.ConflictError{Conflicting: conflict}
	}
	return nil
}

// mapStoreConflict dịch ErrConflict từ ràng buộc loại trừ của database
// (trường hợp hai request chạy đua cùng vượt qua fast-path) thành
// ConflictError. Đọc lại lịch để tìm lượt trùng cho thông báo lỗi; nếu
// không tìm được thì trả về ConflictError không kèm tham chiếu.
func (s *ReservationService) mapStoreConflict(ctx context.Context, vehicleID int, start, end time.Time, excludeID int, err error) error {
	if !errors.Is(err, repository.ErrConflict) {
		return err
	}
	log.Printf("Database từ chối ghi vì trùng lịch trên xe %d (hai request chạy đua?)", vehicleID)
	existing, listErr := s.reservationRepo.FindByVehicleID(ctx, vehicleID)
	if listErr != nil {
		return &domain.ConflictError{}
	}
	return &domain.ConflictError{Conflicting: domain.FindConflict(start, end, existing, excludeID)}
}

func (s *ReservationService) Create(ctx context.Context, requesterID int, dto domain.CreateReservationDTO) (*domain.Reservation, error) {
	start := dto.StartTime.UTC()
	end := dto.EndTime.UTC()

	if err := s.checkBookable(ctx, dto.VehicleID, start, end, 0); err != nil {
		return nil, err
	}

	reservation := &domain.Reservation{
		VehicleID:   dto.VehicleID,
		RequesterID: requesterID,
		GuestName:   null.NewString(dto.GuestName, dto.GuestName != ""),
		IsForGuest:  dto.GuestName != "",
		StartTime:   start,
		EndTime:     end,
		Status:      domain.ReservationActive,
		Notes:       null.NewString(dto.Notes, dto.Notes != ""),
	}

	created, err := s.reservationRepo.Create(ctx, reservation)
	if err != nil {
		return nil, s.mapStoreConflict(ctx, dto.VehicleID, start, end, 0, err)
	}
	log.Printf("Đã tạo lượt đặt xe mới ID: %d (xe %d, người đặt %d, khách: %t)",
		created.ID, created.VehicleID, created.RequesterID, created.IsForGuest)

	s.invalidator.InvalidateFor(requesterID)
	return created, nil
}

func (s *ReservationService) Reschedule(ctx context.Context, id int, actingUserID int, isAdmin bool, dto domain.RescheduleReservationDTO) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && reservation.RequesterID != actingUserID {
		return nil, domain.ErrPermissionDenied
	}
	if reservation.IsCancelled() {
		// Lượt đã hủy là trạng thái cuối, không dời lịch được nữa
		return nil, domain.ErrIllegalTransition
	}

	start := dto.StartTime.UTC()
	end := dto.EndTime.UTC()

	// Loại chính lượt này khỏi tập kiểm tra để nó không tự xung đột với
	// khoảng thời gian cũ của mình
	if err := s.checkBookable(ctx, reservation.VehicleID, start, end, reservation.ID); err != nil {
		return nil, err
	}

	reservation.StartTime = start
	reservation.EndTime = end

	updated, err := s.reservationRepo.Update(ctx, reservation)
	if err != nil {
		return nil, s.mapStoreConflict(ctx, reservation.VehicleID, start, end, reservation.ID, err)
	}
	log.Printf("Đã dời lịch lượt đặt ID: %d sang %s - %s", updated.ID,
		start.Format(time.RFC3339), end.Format(time.RFC3339))

	s.invalidator.InvalidateFor(reservation.RequesterID)
	return updated, nil
}

func (s *ReservationService) Cancel(ctx context.Context, id int, actingUserID int, isAdmin bool) error {
	reservation, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && reservation.RequesterID != actingUserID {
		return domain.ErrPermissionDenied
	}
	if reservation.IsCancelled() {
		// Hủy một lượt đã hủy là no-op thành công. Vẫn log lại vì caller
		// có thể đang tưởng mình hủy một lượt còn active.
		log.Printf("Lượt đặt ID %d đã bị hủy từ trước (lúc %v), bỏ qua yêu cầu hủy lặp từ user %d",
			reservation.ID, reservation.CancelledAt.Time, actingUserID)
		return nil
	}

	now := s.now()
	reservation.Status = domain.ReservationCancelled
	reservation.CancelledAt = null.TimeFrom(now)

	if _, err := s.reservationRepo.Update(ctx, reservation); err != nil {
		return fmt.Errorf("lỗi khi hủy lượt đặt %d: %w", id, err)
	}
	log.Printf("Đã hủy lượt đặt ID: %d (người thao tác %d)", id, actingUserID)

	s.invalidator.InvalidateFor(reservation.RequesterID)
	return nil
}

// FinishNow kết thúc sớm một lượt đang chạy: đặt end_time = now, GIỮ NGUYÊN
// trạng thái active để lượt này vẫn hiện trong lịch sử như một lượt đã hoàn
// thành (khác với hủy).
func (s *ReservationService) FinishNow(ctx context.Context, id int) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.IsCancelled() {
		return nil, domain.ErrIllegalTransition
	}

	now := s.now()
	if reservation.StartTime.After(now) {
		// Chưa bắt đầu thì không có gì để kết thúc sớm
		return nil, domain.ErrIllegalTransition
	}
	if !reservation.EndTime.After(now) {
		// Đã kết thúc rồi, no-op để end_time không bao giờ bị kéo lùi
		// xuống trước start_time
		log.Printf("Lượt đặt ID %d đã kết thúc từ trước, bỏ qua finish-now", id)
		return reservation, nil
	}

	reservation.EndTime = now
	updated, err := s.reservationRepo.Update(ctx, reservation)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi kết thúc sớm lượt đặt %d: %w", id, err)
	}
	log.Printf("Đã kết thúc sớm lượt đặt ID: %d tại %s", id, now.Format(time.RFC3339))

	s.invalidator.InvalidateFor(reservation.RequesterID)
	return updated, nil
}

// SetNote cập nhật ghi chú, hợp lệ với mọi trạng thái. Chuỗi rỗng là xóa
// ghi chú chứ không phải lỗi.
func (s *ReservationService) SetNote(ctx context.Context, id int, actingUserID int, text string) (*domain.Reservation, error) {
	reservation, err := s.reservationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.RequesterID != actingUserID {
		return nil, domain.ErrPermissionDenied
	}

	reservation.Notes = null.NewString(text, text != "")
	updated, err := s.reservationRepo.Update(ctx, reservation)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi cập nhật ghi chú lượt đặt %d: %w", id, err)
	}
	return updated, nil
}

func (s *ReservationService) GetByID(ctx context.Context, id int) (*domain.Reservation, error) {
	return s.reservationRepo.FindByID(ctx, id)
}

func (s *ReservationService) Find(ctx context.Context, filter domain.ReservationFilterDTO) ([]domain.Reservation, error) {
	return s.reservationRepo.Find(ctx, filter)
}

// GuestNameSuggestions - danh sách tên khách đã dùng, chỉ phục vụ
// autocomplete; tên khách là nhãn tự do, không phải entity có định danh.
func (s *ReservationService) GuestNameSuggestions(ctx context.Context, requesterID int) ([]string, error) {
	return s.reservationRepo.GuestNames(ctx, requesterID)
}

// VehicleDaySchedule gộp các view dẫn xuất và timeline của một xe cho một
// ngày. Cả hai được tính từ cùng một lần đọc dữ liệu và một giá trị now.
type VehicleDaySchedule struct {
	Vehicle  *domain.Vehicle          `json:"vehicle"`
	Schedule domain.VehicleSchedule   `json:"schedule"`
	Timeline []domain.TimelineSegment `json:"timeline"`
	Date     string                   `json:"date"`
}

func (s *ReservationService) GetVehicleDaySchedule(ctx context.Context, vehicleID int, date string) (*VehicleDaySchedule, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	dayStart, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("ngày không hợp lệ '%s': %w", date, err)
	}

	reservations, err := s.reservationRepo.FindByVehicleID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("lỗi khi đọc lịch đặt của xe %d: %w", vehicleID, err)
	}

	now := s.now()
	return &VehicleDaySchedule{
		Vehicle:  vehicle,
		Schedule: domain.BuildVehicleSchedule(reservations, now),
		Timeline: domain.ProjectDayTimeline(reservations, dayStart),
		Date:     date,
	}, nil
}
