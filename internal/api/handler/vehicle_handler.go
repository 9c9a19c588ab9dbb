package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"
	"jaracar_backend/internal/service"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	vehicleService     *service.VehicleService
	reservationService *service.ReservationService
}

func NewVehicleHandler(vs *service.VehicleService, rs *service.ReservationService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vs, reservationService: rs}
}

// POST /vehicles
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var dto domain.VehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// GET /vehicles
func (h *VehicleHandler) GetAllVehicles(c *gin.Context) {
	vehicles, err := h.vehicleService.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// GET /vehicles/:id
func (h *VehicleHandler) GetVehicleByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID xe không hợp lệ"})
		return
	}
	vehicle, err := h.vehicleService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// PUT /vehicles/:id
func (h *VehicleHandler) UpdateVehicle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID xe không hợp lệ"})
		return
	}
	var dto domain.VehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), id, dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// PUT /vehicles/:id/maintenance
func (h *VehicleHandler) SetMaintenance(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID xe không hợp lệ"})
		return
	}
	var dto domain.VehicleMaintenanceDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	vehicle, err := h.vehicleService.SetMaintenance(c.Request.Context(), id, *dto.InMaintenance)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật cờ bảo trì", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}

// DELETE /vehicles/:id
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID xe không hợp lệ"})
		return
	}
	if err := h.vehicleService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa xe", "details": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /vehicles/:id/schedule?date=YYYY-MM-DD
func (h *VehicleHandler) GetVehicleSchedule(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID xe không hợp lệ"})
		return
	}
	date := c.Query("date")
	if _, perr := time.Parse("2006-01-02", date); perr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tham số date phải có định dạng YYYY-MM-DD"})
		return
	}

	schedule, err := h.reservationService.GetVehicleDaySchedule(c.Request.Context(), id, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy lịch xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, schedule)
}
