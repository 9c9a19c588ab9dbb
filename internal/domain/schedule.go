package domain

import (
	"sort"
	"time"
)

// UpcomingSoonWindow - cửa sổ báo trước cho lượt đặt sắp tới.
const UpcomingSoonWindow = 60 * time.Minute

// VehicleSchedule là các view dẫn xuất từ danh sách lượt đặt của một xe.
// Tất cả được tính từ MỘT giá trị now duy nhất để một lượt đặt không bị
// xếp vào hai nhóm khác nhau trong cùng một lần đánh giá.
type VehicleSchedule struct {
	// Lượt đặt đang diễn ra (chứa now), nếu có
	Current *Reservation `json:"current,omitempty"`
	// Các lượt chưa hủy và chưa kết thúc, xếp theo start_time tăng dần
	Active []Reservation `json:"active"`
	// Các lượt đã kết thúc hoặc đã hủy, xếp theo start_time giảm dần
	Past []Reservation `json:"past"`
	// Lượt active sớm nhất bắt đầu trong vòng UpcomingSoonWindow kể từ now
	UpcomingSoon *Reservation `json:"upcoming_soon,omitempty"`
}

// BuildVehicleSchedule phân loại reservations theo now truyền vào.
// Caller chịu trách nhiệm lấy now một lần và dùng lại cho cả lần render.
func BuildVehicleSchedule(reservations []Reservation, now time.Time) VehicleSchedule {
	var schedule VehicleSchedule

	for i := range reservations {
		r := reservations[i]
		if !r.IsCancelled() && r.EndTime.After(now) {
			schedule.Active = append(schedule.Active, r)
		} else {
			// Đã kết thúc (end_time <= now) hoặc đã hủy
			schedule.Past = append(schedule.Past, r)
		}
	}

	sort.SliceStable(schedule.Active, func(i, j int) bool {
		return schedule.Active[i].StartTime.Before(schedule.Active[j].StartTime)
	})
	sort.SliceStable(schedule.Past, func(i, j int) bool {
		return schedule.Past[i].StartTime.After(schedule.Past[j].StartTime)
	})

	for i := range schedule.Active {
		r := &schedule.Active[i]
		if r.IsCurrent(now) {
			schedule.Current = r
			break
		}
	}

	// Active đã xếp theo start tăng dần nên lượt đầu tiên thỏa điều kiện
	// chính là lượt sắp tới sớm nhất.
	for i := range schedule.Active {
		r := &schedule.Active[i]
		if r.StartTime.After(now) && !r.StartTime.After(now.Add(UpcomingSoonWindow)) {
			schedule.UpcomingSoon = r
			break
		}
	}

	return schedule
}
