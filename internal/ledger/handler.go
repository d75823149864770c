package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"baroni/internal/api"
	"baroni/internal/auth"
	"baroni/internal/logger"
	"baroni/internal/metrics"
)

type Handler struct {
	engine Engine
}

func NewHandler(engine Engine) *Handler {
	return &Handler{engine: engine}
}

type TopUpRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// GetBalance godoc
// @Summary      Get wallet balance
// @Description  Returns the authenticated user's coin balance.
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  map[string]int64
// @Failure      401  {object}  api.ErrorResponse
// @Router       /wallet [get]
func (h *Handler) GetBalance(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	balance, err := h.engine.Balance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// ListTransactions godoc
// @Summary      List wallet transactions
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {array}   Transaction
// @Failure      401     {object}  api.ErrorResponse
// @Router       /wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	transactions, err := h.engine.ListForUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// TopUp godoc
// @Summary      Buy coins
// @Description  Models an off-ledger coin purchase: opens an external-mode
// @Description  transaction and completes it, crediting the wallet.
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      TopUpRequest  true  "Coin amount"
// @Success      200      {object}  Transaction
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /wallet/topup [post]
func (h *Handler) TopUp(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "user not authenticated"})
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "amount must be positive"})
		return
	}

	transaction, err := h.engine.Create(c.Request.Context(), CreateParams{
		Type:        TypeCoinPurchase,
		PayerID:     userID,
		ReceiverID:  userID,
		Amount:      req.Amount,
		PaymentMode: ModeExternal,
		Description: "coin purchase",
	})
	if err != nil {
		if errors.Is(err, ErrAmountInvalid) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to open purchase"})
		return
	}

	completed, err := h.engine.Complete(c.Request.Context(), transaction.ID)
	if err != nil {
		logger.Errorf("top-up %s left pending: %v", transaction.TrackingID, err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to credit purchase"})
		return
	}

	metrics.RecordTransaction(string(TypeCoinPurchase), string(completed.Status))

	c.JSON(http.StatusOK, completed)
}
