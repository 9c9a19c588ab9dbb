package domain

import "time"

type DashboardEventType string

const (
	DashboardEventRefreshed   DashboardEventType = "dashboard_refreshed"
	DashboardEventInvalidated DashboardEventType = "dashboard_invalidated"
)

// DashboardNotification - event đẩy đến frontend qua WebSocket khi snapshot
// của một người dùng được làm mới, để giao diện đọc lại từ cache.
type DashboardNotification struct {
	EventID   string             `json:"event_id"`
	UserID    int                `json:"user_id"`
	Date      string             `json:"date"`
	EventType DashboardEventType `json:"event_type"`
	Timestamp time.Time          `json:"timestamp"`
}
