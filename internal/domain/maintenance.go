package domain

import "time"

type MaintenanceTicketStatus string

const (
	TicketOpen   MaintenanceTicketStatus = "open"
	TicketClosed MaintenanceTicketStatus = "closed"
)

// MaintenanceTicket - phiếu báo hỏng trong nhà. Hệ thống đặt xe chỉ đọc
// số lượng phiếu đang mở cho phần tóm tắt trên dashboard.
type MaintenanceTicket struct {
	ID         int                     `json:"id"`
	ReporterID int                     `json:"reporter_id"`
	Title      string                  `json:"title"`
	Status     MaintenanceTicketStatus `json:"status"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}
