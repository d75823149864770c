package dedication

import (
	"context"
	"errors"
	"net/http"
	"strconv"

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

// Request godoc
// @Summary      Request a video dedication
// @Description  Fan requests a paid dedication; coins are escrowed until delivery.
// @Tags         dedications
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRequest  true  "Dedication details"
// @Success      201      {object}  DedicationRequest
// @Failure      400      {object}  api.ErrorResponse
// @Failure      402      {object}  api.ErrorResponse
// @Router       /dedications [post]
func (h *Handler) Request(c *gin.Context) {
	fanID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	request, err := h.service.Request(c.Request.Context(), fanID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// Approve godoc
// @Summary      Accept a dedication request
// @Description  Accepting does not settle the payment; only delivery does.
// @Tags         dedications
// @Security     BearerAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  DedicationRequest
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /dedications/{requestID}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject godoc
// @Summary      Reject a dedication request
// @Tags         dedications
// @Security     BearerAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  DedicationRequest
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /dedications/{requestID}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

// UploadVideo godoc
// @Summary      Deliver the dedication video
// @Description  Star uploads the video; this settles the escrowed payment.
// @Tags         dedications
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        requestID  path      int                 true  "Request ID"
// @Param        request    body      UploadVideoRequest  true  "Video URL"
// @Success      200        {object}  DedicationRequest
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /dedications/{requestID}/video [post]
func (h *Handler) UploadVideo(c *gin.Context) {
	starID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request ID"})
		return
	}

	var req UploadVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	request, err := h.service.UploadVideo(c.Request.Context(), starID, requestID, req.VideoURL)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// Cancel godoc
// @Summary      Cancel a dedication request
// @Description  Fan cancels a still-pending request; escrow is released.
// @Tags         dedications
// @Security     BearerAuth
// @Produce      json
// @Param        requestID  path      int  true  "Request ID"
// @Success      200        {object}  DedicationRequest
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /dedications/{requestID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	fanID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request ID"})
		return
	}

	request, err := h.service.Cancel(c.Request.Context(), fanID, requestID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// List godoc
// @Summary      List own dedication requests
// @Tags         dedications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   DedicationRequest
// @Failure      401  {object}  api.ErrorResponse
// @Router       /dedications [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	role, _ := auth.GetRole(c)

	var (
		requests []DedicationRequest
		err      error
	)
	if role == auth.RoleStar {
		requests, err = h.service.ListForStar(c.Request.Context(), userID)
	} else {
		requests, err = h.service.ListForFan(c.Request.Context(), userID)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error"})
		return
	}

	c.JSON(http.StatusOK, requests)
}

func (h *Handler) transition(c *gin.Context, op func(ctx context.Context, actorID int, actorRole string, id int) (*DedicationRequest, error)) {
	actorID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	role, _ := auth.GetRole(c)

	requestID, err := strconv.Atoi(c.Param("requestID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid request ID"})
		return
	}

	request, err := op(c.Request.Context(), actorID, role, requestID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrNotYourRequest), errors.Is(err, ErrNotYourStar):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrStateConflict), errors.Is(err, ErrNotApproved),
		errors.Is(err, ledger.ErrInvalidStateTransition):
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
