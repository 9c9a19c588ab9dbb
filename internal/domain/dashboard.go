package domain

import (
	"strconv"
	"time"
)

// VehicleSummary - dòng tóm tắt một xe trên dashboard.
type VehicleSummary struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	InMaintenance bool   `json:"in_maintenance"`
	BookedNow     bool   `json:"booked_now"`
}

// DashboardSnapshot là bản sao tổng hợp dữ liệu dashboard của MỘT người dùng
// trong MỘT ngày. Snapshot luôn được thay thế nguyên khối khi refresh xong,
// không bao giờ merge từng field, nên người đọc chỉ thấy hoặc bản cũ hoặc
// bản mới hoàn chỉnh.
type DashboardSnapshot struct {
	UserID            int              `json:"user_id"`
	Date              string           `json:"date"` // YYYY-MM-DD
	GeneratedAt       time.Time        `json:"generated_at"`
	AvailableVehicles int              `json:"available_vehicles"` // Xe không bảo trì và không có lượt đang chạy
	Vehicles          []VehicleSummary `json:"vehicles"`
	TodayReservations []Reservation    `json:"today_reservations"` // Các lượt chưa hủy giao với ngày
	Meals             []MealEntry      `json:"meals"`
	OpenMaintenance   int              `json:"open_maintenance"`
}

// SnapshotKey ghép user và ngày thành khóa của snapshot store.
func SnapshotKey(userID int, date string) string {
	return "dashboard:" + date + ":" + strconv.Itoa(userID)
}
