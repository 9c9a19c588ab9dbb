package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"

	"github.com/google/uuid"
)

// DashboardBroadcaster đẩy thông báo refresh đến các client WebSocket.
type DashboardBroadcaster interface {
	BroadcastDashboardEvent(event domain.DashboardNotification)
}

// DashboardService cài đặt cache snapshot kiểu stale-while-revalidate:
// Load trả về ngay bản snapshot đang có trong store (chấp nhận cũ) rồi làm
// mới ở background; Refresh tính lại TOÀN BỘ aggregate từ các store gốc và
// ghi đè nguyên khối. Kiểm tra xung đột đặt xe KHÔNG bao giờ đọc cache này.
type DashboardService struct {
	store           repository.SnapshotStore
	vehicleRepo     repository.VehicleRepository
	reservationRepo repository.ReservationRepository
	mealRepo        repository.MealRepository
	maintenanceRepo repository.MaintenanceRepository
	broadcaster     DashboardBroadcaster

	retentionDays int
	now           func() time.Time
}

func NewDashboardService(
	store repository.SnapshotStore,
	vehicleRepo repository.VehicleRepository,
	reservationRepo repository.ReservationRepository,
	mealRepo repository.MealRepository,
	maintenanceRepo repository.MaintenanceRepository,
	broadcaster DashboardBroadcaster,
	retentionDays int,
) *DashboardService {
	return &DashboardService{
		store:           store,
		vehicleRepo:     vehicleRepo,
		reservationRepo: reservationRepo,
		mealRepo:        mealRepo,
		maintenanceRepo: maintenanceRepo,
		broadcaster:     broadcaster,
		retentionDays:   retentionDays,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Load trả về snapshot cho (userID, date). Nếu cache có sẵn thì trả về ngay
// bản đó (có thể cũ) và kích refresh chạy nền; nếu chưa có (lần đầu trong
// ngày) thì dựng đồng bộ rồi lưu.
func (s *DashboardService) Load(ctx context.Context, userID int, date string) (domain.DashboardSnapshot, error) {
	key := domain.SnapshotKey(userID, date)

	if snapshot, ok := s.store.Get(key); ok {
		go s.refreshInBackground(userID, date)
		return snapshot, nil
	}

	snapshot, err := s.rebuild(ctx, userID, date)
	if err != nil {
		return domain.DashboardSnapshot{}, fmt.Errorf("lỗi dựng snapshot dashboard lần đầu: %w", err)
	}
	s.store.Put(key, snapshot)
	return snapshot, nil
}

// Refresh tính lại aggregate và ghi đè snapshot nguyên khối. Thất bại thì
// giữ nguyên bản cũ trong store.
func (s *DashboardService) Refresh(ctx context.Context, userID int, date string) error {
	snapshot, err := s.rebuild(ctx, userID, date)
	if err != nil {
		return fmt.Errorf("lỗi refresh snapshot dashboard (user %d, ngày %s): %w", userID, date, err)
	}
	s.store.Put(domain.SnapshotKey(userID, date), snapshot)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastDashboardEvent(domain.DashboardNotification{
			EventID:   uuid.NewString(),
			UserID:    userID,
			Date:      date,
			EventType: domain.DashboardEventRefreshed,
			Timestamp: s.now(),
		})
	}
	return nil
}

func (s *DashboardService) refreshInBackground(userID int, date string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.Refresh(ctx, userID, date); err != nil {
		// Giữ bản snapshot cũ, lần load sau sẽ thử lại
		log.Printf("Refresh nền snapshot dashboard thất bại: %v", err)
	}
}

// InvalidateFor xóa snapshot ngày hiện tại của một người dùng sau khi lịch
// đặt xe thay đổi, rồi dựng lại ở background. Người đọc trong khoảng giữa
// sẽ bị cache miss và được dựng đồng bộ, không bao giờ thấy bản dở dang.
func (s *DashboardService) InvalidateFor(userID int) {
	date := s.now().Format("2006-01-02")
	s.store.Delete(domain.SnapshotKey(userID, date))

	if s.broadcaster != nil {
		s.broadcaster.BroadcastDashboardEvent(domain.DashboardNotification{
			EventID:   uuid.NewString(),
			UserID:    userID,
			Date:      date,
			EventType: domain.DashboardEventInvalidated,
			Timestamp: s.now(),
		})
	}

	go s.refreshInBackground(userID, date)
}

// SetMealOrder - mutation lạc quan: cập nhật snapshot trong cache ngay để
// giao diện phản hồi tức thì, rồi gọi store gốc. Nếu ghi thất bại thì nạp
// lại TOÀN BỘ trạng thái chuẩn từ store gốc, bỏ bản đoán lạc quan — không
// cố làm mutation ngược để bù.
func (s *DashboardService) SetMealOrder(ctx context.Context, userID int, date string, dto domain.MealOrderDTO) (domain.DashboardSnapshot, error) {
	key := domain.SnapshotKey(userID, date)

	if snapshot, ok := s.store.Get(key); ok {
		s.store.Put(key, applyMealOrderOptimistic(snapshot, userID, date, dto))
	}

	var persistErr error
	if dto.Portions <= 0 {
		persistErr = s.mealRepo.DeleteOrder(ctx, userID, dto.TemplateID)
		if errors.Is(persistErr, repository.ErrNotFound) {
			// Hủy một suất chưa đăng ký: coi như đã ở trạng thái mong muốn
			persistErr = nil
		}
	} else {
		_, persistErr = s.mealRepo.UpsertOrder(ctx, &domain.MealOrder{
			UserID:     userID,
			TemplateID: dto.TemplateID,
			Date:       date,
			Portions:   dto.Portions,
		})
	}

	if persistErr != nil {
		log.Printf("Ghi đăng ký suất ăn thất bại, nạp lại trạng thái chuẩn: %v", persistErr)
		fresh, rebuildErr := s.rebuild(ctx, userID, date)
		if rebuildErr != nil {
			// Cả ghi lẫn nạp lại đều hỏng: xóa bản đoán để lần load sau
			// dựng lại từ store gốc
			s.store.Delete(key)
			return domain.DashboardSnapshot{}, fmt.Errorf("lỗi ghi đăng ký suất ăn: %w", persistErr)
		}
		s.store.Put(key, fresh)
		return fresh, fmt.Errorf("lỗi ghi đăng ký suất ăn: %w", persistErr)
	}

	// Ghi thành công: refresh nền để snapshot nhận ID thật của bản ghi
	go s.refreshInBackground(userID, date)

	snapshot, _ := s.store.Get(key)
	return snapshot, nil
}

// applyMealOrderOptimistic dựng bản snapshot MỚI với thay đổi suất ăn đã
// áp; không sửa tại chỗ để người đang đọc bản cũ không thấy trạng thái trộn.
func applyMealOrderOptimistic(snapshot domain.DashboardSnapshot, userID int, date string, dto domain.MealOrderDTO) domain.DashboardSnapshot {
	meals := make([]domain.MealEntry, 0, len(snapshot.Meals))
	for _, entry := range snapshot.Meals {
		var templateID int
		var template *domain.MealTemplate
		switch entry.Kind {
		case domain.MealEntryConfirmed:
			templateID = entry.Order.TemplateID
			template = entry.Template
		case domain.MealEntryPlanned:
			templateID = entry.Template.ID
			template = entry.Template
		}
		if templateID != dto.TemplateID {
			meals = append(meals, entry)
			continue
		}
		if dto.Portions <= 0 {
			// Quay về trạng thái "theo thực đơn, chưa đăng ký"
			if template != nil {
				meals = append(meals, domain.MealEntry{Kind: domain.MealEntryPlanned, Template: template})
			}
			continue
		}
		order := &domain.MealOrder{
			UserID:     userID,
			TemplateID: dto.TemplateID,
			Date:       date,
			Portions:   dto.Portions,
		}
		meals = append(meals, domain.MealEntry{Kind: domain.MealEntryConfirmed, Order: order, Template: template})
	}
	snapshot.Meals = meals
	return snapshot
}

// EvictStale dọn các snapshot cũ hơn số ngày giữ lại. Chạy định kỳ từ cron
// job trong main.
func (s *DashboardService) EvictStale() int {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays).Format("2006-01-02")
	return s.store.DeleteOlderThan(cutoff)
}

// rebuild tính lại toàn bộ aggregate từ các store gốc. Kết quả là một giá
// trị mới hoàn chỉnh; caller ghi đè vào cache nguyên khối.
func (s *DashboardService) rebuild(ctx context.Context, userID int, date string) (domain.DashboardSnapshot, error) {
	now := s.now()

	vehicles, err := s.vehicleRepo.FindAll(ctx)
	if err != nil {
		return domain.DashboardSnapshot{}, fmt.Errorf("lỗi đọc danh sách xe: %w", err)
	}

	activeStatus := string(domain.ReservationActive)
	dayReservations, err := s.reservationRepo.Find(ctx, domain.ReservationFilterDTO{
		Date:   &date,
		Status: &activeStatus,
	})
	if err != nil {
		return domain.DashboardSnapshot{}, fmt.Errorf("lỗi đọc lượt đặt trong ngày: %w", err)
	}

	available := 0
	summaries := make([]domain.VehicleSummary, 0, len(vehicles))
	for _, vehicle := range vehicles {
		bookedNow := false
		for i := range dayReservations {
			r := &dayReservations[i]
			if r.VehicleID == vehicle.ID && r.IsCurrent(now) {
				bookedNow = true
				break
			}
		}
		if !vehicle.InMaintenance && !bookedNow {
			available++
		}
		summaries = append(summaries, domain.VehicleSummary{
			ID:            vehicle.ID,
			Name:          vehicle.Name,
			InMaintenance: vehicle.InMaintenance,
			BookedNow:     bookedNow,
		})
	}

	meals, err := s.buildMealEntries(ctx, userID, date)
	if err != nil {
		return domain.DashboardSnapshot{}, err
	}

	openTickets, err := s.maintenanceRepo.CountOpen(ctx)
	if err != nil {
		return domain.DashboardSnapshot{}, fmt.Errorf("lỗi đếm phiếu báo hỏng: %w", err)
	}

	return domain.DashboardSnapshot{
		UserID:            userID,
		Date:              date,
		GeneratedAt:       now,
		AvailableVehicles: available,
		Vehicles:          summaries,
		TodayReservations: dayReservations,
		Meals:             meals,
		OpenMaintenance:   openTickets,
	}, nil
}

// buildMealEntries ghép thực đơn của ngày với các đăng ký đã có của người
// dùng thành danh sách biến thể có nhãn: đăng ký thật hoặc suất theo thực
// đơn chưa đăng ký.
func (s *DashboardService) buildMealEntries(ctx context.Context, userID int, date string) ([]domain.MealEntry, error) {
	templates, err := s.mealRepo.FindTemplatesByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc thực đơn ngày %s: %w", date, err)
	}
	orders, err := s.mealRepo.FindOrdersByUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc đăng ký suất ăn: %w", err)
	}

	ordersByTemplate := make(map[int]*domain.MealOrder, len(orders))
	for i := range orders {
		ordersByTemplate[orders[i].TemplateID] = &orders[i]
	}

	entries := make([]domain.MealEntry, 0, len(templates))
	for i := range templates {
		template := &templates[i]
		if order, ok := ordersByTemplate[template.ID]; ok {
			entries = append(entries, domain.MealEntry{
				Kind:     domain.MealEntryConfirmed,
				Order:    order,
				Template: template,
			})
		} else {
			entries = append(entries, domain.MealEntry{
				Kind:     domain.MealEntryPlanned,
				Template: template,
			})
		}
	}
	return entries, nil
}
