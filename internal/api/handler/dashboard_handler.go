package handler

import (
	"net/http"
	"time"

	"jaracar_backend/internal/api/middleware"
	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(ds *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds}
}

// GET /dashboard?date=YYYY-MM-DD (mặc định là hôm nay)
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Không xác định được người dùng"})
		return
	}

	date := c.Query("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tham số date phải có định dạng YYYY-MM-DD"})
		return
	}

	snapshot, err := h.dashboardService.Load(c.Request.Context(), userID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi tải dashboard", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// POST /dashboard/meals - đăng ký/hủy suất ăn với cập nhật lạc quan
func (h *DashboardHandler) SetMealOrder(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Không xác định được người dùng"})
		return
	}

	var dto domain.MealOrderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	date := time.Now().UTC().Format("2006-01-02")
	snapshot, err := h.dashboardService.SetMealOrder(c.Request.Context(), userID, date, dto)
	if err != nil {
		// Bản đoán lạc quan đã bị thay bằng trạng thái chuẩn; trả về kèm lỗi
		// để frontend hiển thị lại đúng thực tế
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    "Không ghi được đăng ký suất ăn, đã nạp lại trạng thái chuẩn",
			"details":  err.Error(),
			"snapshot": snapshot,
		})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
