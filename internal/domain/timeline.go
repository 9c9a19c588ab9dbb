package domain

import "time"

const (
	minutesPerDay = 24 * 60

	// MinTimelineSegmentMinutes - độ rộng hiển thị tối thiểu của một khối
	// trên timeline, để lượt đặt rất ngắn vẫn bấm được trên giao diện.
	MinTimelineSegmentMinutes = 5
)

// TimelineSegment là một khối hiển thị trên lưới giờ của một ngày.
type TimelineSegment struct {
	ReservationID   int  `json:"reservation_id"`
	OffsetMinutes   int  `json:"offset_minutes"`
	DurationMinutes int  `json:"duration_minutes"`
	IsForGuest      bool `json:"is_for_guest"`
}

// ProjectDayTimeline chiếu danh sách lượt đặt lên ngày bắt đầu tại dayStart.
// Mỗi khoảng được cắt về [dayStart, dayStart+24h) theo đúng ngữ nghĩa nửa mở:
// lượt đặt kết thúc đúng nửa đêm không được vẽ sang ngày hôm sau.
// Lượt đã hủy và lượt không giao với ngày đích bị bỏ qua.
func ProjectDayTimeline(reservations []Reservation, dayStart time.Time) []TimelineSegment {
	dayEnd := dayStart.Add(24 * time.Hour)
	segments := make([]TimelineSegment, 0, len(reservations))

	for i := range reservations {
		r := &reservations[i]
		if r.IsCancelled() {
			continue
		}

		clipStart := r.StartTime
		if clipStart.Before(dayStart) {
			clipStart = dayStart
		}
		clipEnd := r.EndTime
		if clipEnd.After(dayEnd) {
			clipEnd = dayEnd
		}
		if !clipStart.Before(clipEnd) {
			// Không giao với ngày đích
			continue
		}

		offset := int(clipStart.Sub(dayStart) / time.Minute)
		duration := int(clipEnd.Sub(clipStart) / time.Minute)
		if duration < MinTimelineSegmentMinutes {
			duration = MinTimelineSegmentMinutes
			if offset+duration > minutesPerDay {
				// Nới về phía trước để không tràn sang ngày hôm sau
				offset = minutesPerDay - duration
			}
		}

		segments = append(segments, TimelineSegment{
			ReservationID:   r.ID,
			OffsetMinutes:   offset,
			DurationMinutes: duration,
			IsForGuest:      r.IsForGuest,
		})
	}
	return segments
}
