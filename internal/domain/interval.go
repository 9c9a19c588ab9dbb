package domain

import "time"

// Các khoảng thời gian đặt xe theo ngữ nghĩa nửa mở [start, end):
// lượt đặt kết thúc đúng lúc lượt khác bắt đầu thì KHÔNG tính là trùng.

// IntervalsOverlap kiểm tra hai khoảng nửa mở có giao nhau không.
func IntervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ValidateInterval kiểm tra start phải đứng trước end một cách chặt.
// Khoảng rỗng (start == end) và khoảng ngược (end trước start) đều bị từ chối.
func ValidateInterval(start, end time.Time) error {
	if !start.Before(end) {
		return ErrInvalidInterval
	}
	return nil
}

// FindConflict tìm lượt đặt đầu tiên trong existing bị trùng với khoảng
// [start, end). Bỏ qua lượt đã hủy và lượt có ID bằng excludeID (dùng khi
// dời lịch một lượt đặt để nó không tự xung đột với chính mình).
// Trả về nil nếu không có xung đột. excludeID = 0 nghĩa là không loại trừ.
func FindConflict(start, end time.Time, existing []Reservation, excludeID int) *Reservation {
	for i := range existing {
		r := &existing[i]
		if r.IsCancelled() {
			continue
		}
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		if IntervalsOverlap(start, end, r.StartTime, r.EndTime) {
			return r
		}
	}
	return nil
}
