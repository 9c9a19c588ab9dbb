package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInterval    = errors.New("thời gian bắt đầu phải đứng trước thời gian kết thúc")
	ErrVehicleUnavailable = errors.New("xe đang bảo trì, không thể đặt")
	ErrIllegalTransition  = errors.New("thao tác không hợp lệ với trạng thái hiện tại của lượt đặt")
	ErrPermissionDenied   = errors.New("không có quyền thao tác trên lượt đặt này")
)

// ConflictError mang theo lượt đặt bị trùng để frontend hiển thị
// thông báo cụ thể cho người dùng.
type ConflictError struct {
	Conflicting *Reservation
}

func (e *ConflictError) Error() string {
	if e.Conflicting == nil {
		return "khoảng thời gian bị trùng với một lượt đặt khác"
	}
	return fmt.Sprintf("khoảng thời gian bị trùng với lượt đặt #%d (%s - %s)",
		e.Conflicting.ID,
		e.Conflicting.StartTime.Format("02/01 15:04"),
		e.Conflicting.EndTime.Format("02/01 15:04"))
}
