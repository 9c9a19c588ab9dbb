package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jaracar_backend/internal/api"
	"jaracar_backend/internal/api/handler"
	"jaracar_backend/internal/api/middleware"
	"jaracar_backend/internal/cache"
	"jaracar_backend/internal/config"
	"jaracar_backend/internal/repository/postgresql"
	"jaracar_backend/internal/service"

	"github.com/robfig/cron/v3"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Không thể kết nối database: %v", err)
	}
	defer db.Close()
	log.Println("Đã kết nối database thành công!")

	// 3. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	vehicleRepo := postgresql.NewPgVehicleRepository(db)
	reservationRepo := postgresql.NewPgReservationRepository(db)
	mealRepo := postgresql.NewPgMealRepository(db)
	maintenanceRepo := postgresql.NewPgMaintenanceRepository(db)

	// Snapshot store cho dashboard nằm trong bộ nhớ, mất khi restart
	// và được dựng lại lazily ở request đầu tiên của mỗi user.
	snapshotStore := cache.NewMemorySnapshotStore()

	// init websocket manager
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("WebSocket Manager đã được khởi động.")

	// 4. Initialize Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	dashboardService := service.NewDashboardService(snapshotStore, vehicleRepo, reservationRepo,
		mealRepo, maintenanceRepo, webSocketManager, cfg.SnapshotRetentionDays)
	reservationService := service.NewReservationService(vehicleRepo, reservationRepo, dashboardService)
	vehicleService := service.NewVehicleService(vehicleRepo, reservationRepo)

	// 5. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 6. Job dọn snapshot cũ theo lịch cron (mặc định 3 giờ sáng hàng ngày)
	evictionCron := cron.New()
	_, err = evictionCron.AddFunc(cfg.SnapshotEvictionCron, func() {
		removed := dashboardService.EvictStale()
		if removed > 0 {
			log.Printf("Đã dọn %d snapshot dashboard cũ", removed)
		}
	})
	if err != nil {
		log.Fatalf("Lịch cron dọn snapshot không hợp lệ (%q): %v", cfg.SnapshotEvictionCron, err)
	}
	evictionCron.Start()

	// 7. Setup HTTP Router
	router := api.SetupRouter(authService, vehicleService, reservationService,
		dashboardService, authMiddleware, webSocketManager)

	// 8. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	cronCtx := evictionCron.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	log.Println("Server đã tắt.")
}
