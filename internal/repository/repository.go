package repository

import (
	"context"
	"errors"
	"time"

	"jaracar_backend/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")

// ErrConflict - database từ chối ghi vì vi phạm ràng buộc loại trừ khoảng
// thời gian (hai lượt đặt active trùng nhau trên cùng một xe). Đây là hàng
// rào cuối cùng khi hai request vượt qua kiểm tra xung đột phía service
// cùng lúc; kiểm tra trong service chỉ là fast-path cho UX.
var ErrConflict = errors.New("khoảng thời gian đặt xe bị trùng (ràng buộc database)")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	FindByID(ctx context.Context, id int) (*domain.Vehicle, error)
	FindAll(ctx context.Context) ([]domain.Vehicle, error)
	Update(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	SetMaintenance(ctx context.Context, id int, inMaintenance bool) error
	Delete(ctx context.Context, id int) error
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	FindByID(ctx context.Context, id int) (*domain.Reservation, error)
	// FindByVehicleID trả về TOÀN BỘ lượt đặt của một xe (kể cả đã hủy),
	// là tập dữ liệu cho kiểm tra xung đột và các view dẫn xuất.
	FindByVehicleID(ctx context.Context, vehicleID int) ([]domain.Reservation, error)
	Find(ctx context.Context, filter domain.ReservationFilterDTO) ([]domain.Reservation, error)
	Update(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	// DeleteFutureByVehicleID xóa các lượt chưa kết thúc khi chính chiếc xe
	// bị admin xóa khỏi hệ thống (cascade). Trả về số bản ghi đã xóa.
	DeleteFutureByVehicleID(ctx context.Context, vehicleID int, from time.Time) (int, error)
	// GuestNames liệt kê tên khách đã dùng của một người đặt, mới nhất trước,
	// phục vụ autocomplete khi đặt hộ khách.
	GuestNames(ctx context.Context, requesterID int) ([]string, error)
}

type MealRepository interface {
	FindTemplatesByDate(ctx context.Context, date string) ([]domain.MealTemplate, error)
	FindOrdersByUserAndDate(ctx context.Context, userID int, date string) ([]domain.MealOrder, error)
	UpsertOrder(ctx context.Context, order *domain.MealOrder) (*domain.MealOrder, error)
	DeleteOrder(ctx context.Context, userID int, templateID int) error
}

type MaintenanceRepository interface {
	CountOpen(ctx context.Context) (int, error)
}

// SnapshotStore - key-value store cục bộ cho snapshot dashboard.
// Get/Put làm việc theo GIÁ TRỊ: Put thay thế nguyên khối, Get trả về bản
// sao, nên người đọc không bao giờ thấy snapshot trộn field cũ lẫn mới.
type SnapshotStore interface {
	Get(key string) (domain.DashboardSnapshot, bool)
	Put(key string, snapshot domain.DashboardSnapshot)
	Delete(key string)
	// DeleteOlderThan xóa các snapshot có Date trước cutoffDate (YYYY-MM-DD),
	// trả về số entry đã dọn.
	DeleteOlderThan(cutoffDate string) int
}
