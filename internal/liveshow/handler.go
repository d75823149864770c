package liveshow

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

// Host godoc
// @Summary      Host a live show
// @Description  Star schedules a show; the hosting fee is escrowed toward the platform.
// @Tags         liveshows
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      HostRequest  true  "Show details"
// @Success      201      {object}  LiveShow
// @Failure      400      {object}  api.ErrorResponse
// @Failure      402      {object}  api.ErrorResponse
// @Router       /shows [post]
func (h *Handler) Host(c *gin.Context) {
	starID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req HostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "scheduled_at must be RFC3339"})
		return
	}

	show, err := h.service.Host(c.Request.Context(), starID, req.Title, scheduledAt, req.HostingFee, req.AttendanceFee)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, show)
}

// Join godoc
// @Summary      Join a live show
// @Description  Fan buys a ticket; the attendance fee is escrowed toward the star.
// @Tags         liveshows
// @Security     BearerAuth
// @Produce      json
// @Param        showID  path      int  true  "Show ID"
// @Success      201     {object}  Attendance
// @Failure      402     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Router       /shows/{showID}/join [post]
func (h *Handler) Join(c *gin.Context) {
	fanID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	showID, err := strconv.Atoi(c.Param("showID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid show ID"})
		return
	}

	attendance, err := h.service.Join(c.Request.Context(), fanID, showID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attendance)
}

// Cancel godoc
// @Summary      Cancel a live show
// @Description  Star cancels; hosting fee and every ticket are refunded. Per-attendee
// @Description  failures are reported, not fatal.
// @Tags         liveshows
// @Security     BearerAuth
// @Produce      json
// @Param        showID  path      int  true  "Show ID"
// @Success      200     {object}  BatchResult
// @Failure      403     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Router       /shows/{showID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	h.fanOutOp(c, h.service.CancelShow)
}

// Complete godoc
// @Summary      Complete a live show
// @Description  Star settles the show after it ends: hosting fee and all ticket
// @Description  payments are completed, best-effort per attendee.
// @Tags         liveshows
// @Security     BearerAuth
// @Produce      json
// @Param        showID  path      int  true  "Show ID"
// @Success      200     {object}  BatchResult
// @Failure      403     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Router       /shows/{showID}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	h.fanOutOp(c, h.service.CompleteShow)
}

// List godoc
// @Summary      List live shows
// @Tags         liveshows
// @Security     BearerAuth
// @Produce      json
// @Param        active  query     bool  false  "Only active shows"
// @Success      200     {array}   LiveShow
// @Router       /shows [get]
func (h *Handler) List(c *gin.Context) {
	onlyActive := c.DefaultQuery("active", "true") == "true"

	shows, err := h.service.ListShows(c.Request.Context(), onlyActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error"})
		return
	}

	c.JSON(http.StatusOK, shows)
}

// GetByCode godoc
// @Summary      Look up a show by join code
// @Tags         liveshows
// @Security     BearerAuth
// @Produce      json
// @Param        code  path      string  true  "Show code"
// @Success      200   {object}  LiveShow
// @Failure      404   {object}  api.ErrorResponse
// @Router       /shows/code/{code} [get]
func (h *Handler) GetByCode(c *gin.Context) {
	show, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, show)
}

func (h *Handler) fanOutOp(c *gin.Context, op func(ctx context.Context, starID, showID int) (*BatchResult, error)) {
	starID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	showID, err := strconv.Atoi(c.Param("showID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid show ID"})
		return
	}

	result, err := op(c.Request.Context(), starID, showID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrShowNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotYourShow), errors.Is(err, ErrOwnShow):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrShowNotActive), errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrStateConflict), errors.Is(err, ledger.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrAmountInvalid), errors.Is(err, ledger.ErrPayerNotFound),
		errors.Is(err, ledger.ErrReceiverNotFound):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "something went wrong"})
	}
}
