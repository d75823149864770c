package appointment

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"baroni/internal/api"
	"baroni/internal/auth"
	"baroni/internal/ledger"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Book godoc
// @Summary      Book an appointment
// @Description  Fan books a paid appointment with a star; coins are escrowed immediately.
// @Tags         appointments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      BookRequest  true  "Appointment details"
// @Success      201      {object}  Appointment
// @Failure      400      {object}  api.ErrorResponse
// @Failure      402      {object}  api.ErrorResponse
// @Router       /appointments [post]
func (h *Handler) Book(c *gin.Context) {
	fanID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "scheduled_at must be RFC3339"})
		return
	}

	appointment, err := h.service.Book(c.Request.Context(), fanID, req.StarID, scheduledAt, req.Note, req.Fee)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// Approve godoc
// @Summary      Approve an appointment
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Param        appointmentID  path      int  true  "Appointment ID"
// @Success      200            {object}  Appointment
// @Failure      403            {object}  api.ErrorResponse
// @Failure      404            {object}  api.ErrorResponse
// @Failure      409            {object}  api.ErrorResponse
// @Router       /appointments/{appointmentID}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject godoc
// @Summary      Reject an appointment
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Param        appointmentID  path      int  true  "Appointment ID"
// @Success      200            {object}  Appointment
// @Failure      403            {object}  api.ErrorResponse
// @Failure      404            {object}  api.ErrorResponse
// @Failure      409            {object}  api.ErrorResponse
// @Router       /appointments/{appointmentID}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

// Cancel godoc
// @Summary      Cancel an appointment
// @Description  Fan cancels; escrow is released (pending) or refunded (approved).
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Param        appointmentID  path      int  true  "Appointment ID"
// @Success      200            {object}  Appointment
// @Failure      403            {object}  api.ErrorResponse
// @Failure      404            {object}  api.ErrorResponse
// @Failure      409            {object}  api.ErrorResponse
// @Router       /appointments/{appointmentID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	fanID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	appointmentID, err := strconv.Atoi(c.Param("appointmentID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid appointment ID"})
		return
	}

	appointment, err := h.service.Cancel(c.Request.Context(), fanID, appointmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// List godoc
// @Summary      List own appointments
// @Description  Fans see their bookings, stars see their schedule.
// @Tags         appointments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Appointment
// @Failure      401  {object}  api.ErrorResponse
// @Router       /appointments [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	role, _ := auth.GetRole(c)

	var (
		appointments []Appointment
		err          error
	)
	if role == auth.RoleStar {
		appointments, err = h.service.ListForStar(c.Request.Context(), userID)
	} else {
		appointments, err = h.service.ListForFan(c.Request.Context(), userID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error"})
		return
	}

	c.JSON(http.StatusOK, appointments)
}

func (h *Handler) transition(c *gin.Context, op func(ctx context.Context, actorID int, actorRole string, id int) (*Appointment, error)) {
	actorID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	role, _ := auth.GetRole(c)

	appointmentID, err := strconv.Atoi(c.Param("appointmentID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid appointment ID"})
		return
	}

	appointment, err := op(c.Request.Context(), actorID, role, appointmentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotYourCall), errors.Is(err, ErrNotYourBooking):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrStateConflict), errors.Is(err, ledger.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrScheduleInPast), errors.Is(err, ledger.ErrAmountInvalid),
		errors.Is(err, ledger.ErrPayerNotFound), errors.Is(err, ledger.ErrReceiverNotFound):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "something went wrong"})
	}
}
