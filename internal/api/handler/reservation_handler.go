package handler

import (
	"errors"
	"net/http"
	"strconv"

	"jaracar_backend/internal/domain"
	"jaracar_backend/internal/repository"
	"jaracar_backend/internal/service"

	"jaracar_backend/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(rs *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: rs}
}

// respondSchedulingError dịch lỗi của lifecycle đặt xe sang HTTP. Mỗi lý do
// từ chối phải phân biệt được với nhau cho người dùng: trùng lịch, khoảng
// thời gian sai và xe bảo trì không bao giờ gộp thành một thông báo chung.
func respondSchedulingError(c *gin.Context, err error) {
	var conflictErr *domain.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		body := gin.H{"error": conflictErr.Error(), "reason": "conflict"}
		if conflictErr.Conflicting != nil {
			body["conflicting"] = conflictErr.Conflicting
		}
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, domain.ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "reason": "invalid_interval"})
	case errors.Is(err, domain.ErrVehicleUnavailable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "reason": "vehicle_unavailable"})
	case errors.Is(err, domain.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "reason": "illegal_transition"})
	case errors.Is(err, domain.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "reason": "permission_denied"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy lượt đặt hoặc xe"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Thao tác đặt xe thất bại", "details": err.Error()})
	}
}

// POST /reservations
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Không xác định được người dùng"})
		return
	}

	var dto domain.CreateReservationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	reservation, err := h.reservationService.Create(c.Request.Context(), userID, dto)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// PUT /reservations/:id/reschedule
func (h *ReservationHandler) RescheduleReservation(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID lượt đặt không hợp lệ"})
		return
	}
	var dto domain.RescheduleReservationDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	reservation, err := h.reservationService.Reschedule(c.Request.Context(), id, userID, middleware.IsAdmin(c), dto)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// POST /reservations/:id/cancel
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID lượt đặt không hợp lệ"})
		return
	}

	if err := h.reservationService.Cancel(c.Request.Context(), id, userID, middleware.IsAdmin(c)); err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /reservations/:id/finish - kết thúc sớm lượt đang chạy (quyền admin)
func (h *ReservationHandler) FinishReservationNow(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID lượt đặt không hợp lệ"})
		return
	}

	reservation, err := h.reservationService.FinishNow(c.Request.Context(), id)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// PUT /reservations/:id/note
func (h *ReservationHandler) SetReservationNote(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID lượt đặt không hợp lệ"})
		return
	}
	var dto domain.ReservationNoteDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	reservation, err := h.reservationService.SetNote(c.Request.Context(), id, userID, dto.Notes)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// GET /reservations/:id
func (h *ReservationHandler) GetReservationByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID lượt đặt không hợp lệ"})
		return
	}
	reservation, err := h.reservationService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy lượt đặt"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin lượt đặt", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// GET /reservations
func (h *ReservationHandler) FindReservations(c *gin.Context) {
	var filter domain.ReservationFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tham số filter không hợp lệ: " + err.Error()})
		return
	}

	reservations, err := h.reservationService.Find(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi tìm kiếm lượt đặt", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, reservations)
}

// GET /reservations/guest-suggestions
func (h *ReservationHandler) GetGuestNameSuggestions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Không xác định được người dùng"})
		return
	}

	names, err := h.reservationService.GuestNameSuggestions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy gợi ý tên khách", "details": err.Error()})
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": names})
}
