package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"
)

// VehicleService - quản trị đội xe của nhà. Việc tạo/sửa/xóa xe là thao tác
// của admin; hệ thống đặt xe chỉ đọc cờ bảo trì.
type VehicleService struct {
	vehicleRepo     repository.VehicleRepository
	reservationRepo repository.ReservationRepository
	now             func() time.Time
}

func NewVehicleService(vehicleRepo repository.VehicleRepository, reservationRepo repository.ReservationRepository) *VehicleService {
	return &VehicleService{
		vehicleRepo:     vehicleRepo,
		reservationRepo: reservationRepo,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *VehicleService) Create(ctx context.Context, dto domain.VehicleDTO) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{
		Name:         dto.Name,
		LicensePlate: dto.LicensePlate,
		Seats:        dto.Seats,
	}
	return s.vehicleRepo.Create(ctx, vehicle)
}

func (s *VehicleService) GetByID(ctx context.Context, id int) (*domain.Vehicle, error) {
	return s.vehicleRepo.FindByID(ctx, id)
}

func (s *VehicleService) GetAll(ctx context.Context) ([]domain.Vehicle, error) {
	return s.vehicleRepo.FindAll(ctx)
}

func (s *VehicleService) Update(ctx context.Context, id int, dto domain.VehicleDTO) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vehicle.Name = dto.Name
	vehicle.LicensePlate = dto.LicensePlate
	vehicle.Seats = dto.Seats
	return s.vehicleRepo.Update(ctx, vehicle)
}

// SetMaintenance bật/tắt cờ bảo trì. Cờ bật thì mọi lượt đặt mới đều bị từ
// chối bất kể khoảng thời gian; các lượt đã có không bị đụng đến.
func (s *VehicleService) SetMaintenance(ctx context.Context, id int, inMaintenance bool) (*domain.Vehicle, error) {
	if err := s.vehicleRepo.SetMaintenance(ctx, id, inMaintenance); err != nil {
		return nil, err
	}
	log.Printf("Đã đặt cờ bảo trì xe %d = %t", id, inMaintenance)
	return s.vehicleRepo.FindByID(ctx, id)
}

// Delete xóa xe và cascade các lượt đặt chưa kết thúc của nó.
func (s *VehicleService) Delete(ctx context.Context, id int) error {
	if _, err := s.vehicleRepo.FindByID(ctx, id); err != nil {
		return err
	}

	deleted, err := s.reservationRepo.DeleteFutureByVehicleID(ctx, id, s.now())
	if err != nil {
		return fmt.Errorf("lỗi xóa các lượt đặt tương lai của xe %d: %w", id, err)
	}
	if deleted > 0 {
		log.Printf("Đã xóa %d lượt đặt tương lai của xe %d trước khi xóa xe", deleted, id)
	}

	return s.vehicleRepo.Delete(ctx, id)
}
