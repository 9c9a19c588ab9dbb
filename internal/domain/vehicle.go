package domain

import "time"

type Vehicle struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	LicensePlate  string    `json:"license_plate"`
	Seats         int       `json:"seats"`
	InMaintenance bool      `json:"in_maintenance"` // Xe đang bảo trì/sửa chữa thì không thể đặt
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type VehicleDTO struct {
	Name         string `json:"name" binding:"required"`
	LicensePlate string `json:"license_plate" binding:"required"`
	Seats        int    `json:"seats"`
}

type VehicleMaintenanceDTO struct {
	InMaintenance *bool `json:"in_maintenance" binding:"required"`
}
