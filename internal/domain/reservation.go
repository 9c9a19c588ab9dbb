package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "active"
	ReservationCancelled ReservationStatus = "cancelled" // Trạng thái cuối, không quay lại được
)

type Reservation struct {
	ID          int               `json:"id"`
	VehicleID   int               `json:"vehicle_id"`
	RequesterID int               `json:"requester_id"` // Người tạo lượt đặt, kể cả khi đặt hộ khách
	GuestName   null.String       `json:"guest_name"`
	IsForGuest  bool              `json:"is_for_guest"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time"` // Nửa mở: [start_time, end_time)
	Status      ReservationStatus `json:"status"`
	Notes       null.String       `json:"notes"`
	CancelledAt null.Time         `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	Vehicle *Vehicle `json:"vehicle,omitempty"` // Không map vào DB, dùng để trả về API
}

// IsCancelled - lượt đặt đã bị hủy chưa (trạng thái cuối)
func (r *Reservation) IsCancelled() bool {
	return r.Status == ReservationCancelled
}

// IsCurrent - lượt đặt đang diễn ra tại thời điểm now
func (r *Reservation) IsCurrent(now time.Time) bool {
	return !r.IsCancelled() && !r.StartTime.After(now) && r.EndTime.After(now)
}

// IsUpcoming - lượt đặt chưa bắt đầu tại thời điểm now
func (r *Reservation) IsUpcoming(now time.Time) bool {
	return !r.IsCancelled() && r.StartTime.After(now)
}

type CreateReservationDTO struct {
	VehicleID int       `json:"vehicle_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Notes     string    `json:"notes,omitempty"`
	GuestName string    `json:"guest_name,omitempty"` // Điền khi đặt hộ khách ngoài hệ thống
}

type RescheduleReservationDTO struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type ReservationNoteDTO struct {
	Notes string `json:"notes"` // Chuỗi rỗng nghĩa là xóa ghi chú
}

type ReservationFilterDTO struct {
	VehicleID   *int    `form:"vehicleId"`
	RequesterID *int    `form:"requesterId"`
	Status      *string `form:"status"`
	// Lọc theo ngày (YYYY-MM-DD): trả về các lượt đặt giao với ngày đó
	Date *string `form:"date"`
}
