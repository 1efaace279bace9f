package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"trooc/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Handlers carries the services behind the HTTP surface
type Handlers struct {
	auth                 *Authenticator
	ledger               service.LedgerService
	settlement           service.SettlementService
	shops                service.ShopService
	settlementWindowDays int
}

// NewHandlers creates the HTTP handlers
func NewHandlers(auth *Authenticator, ledger service.LedgerService, settlement service.SettlementService, shops service.ShopService, settlementWindowDays int) *Handlers {
	return &Handlers{
		auth:                 auth,
		ledger:               ledger,
		settlement:           settlement,
		shops:                shops,
		settlementWindowDays: settlementWindowDays,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login issues an admin bearer token
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

type recordEarningRequest struct {
	ShopID          int64           `json:"shop_id" binding:"required"`
	OrderID         string          `json:"order_id" binding:"required"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	TransactionDate *time.Time      `json:"transaction_date"`
}

// RecordEarning writes a revenue record for a completed order
func (h *Handlers) RecordEarning(c *gin.Context) {
	var req recordEarningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txDate := time.Now().UTC()
	if req.TransactionDate != nil {
		txDate = *req.TransactionDate
	}

	record, err := h.ledger.RecordEarning(c.Request.Context(), req.ShopID, req.OrderID, req.TotalAmount, txDate)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"record": record})
}

// QueryUnpaid lists unpaid revenue records
func (h *Handlers) QueryUnpaid(c *gin.Context) {
	var shopID *int64
	if raw := c.Query("shop_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop_id"})
			return
		}
		shopID = &parsed
	}

	from, to, err := h.parseWindow(c.Query("from"), c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.ledger.QueryUnpaid(c.Request.Context(), shopID, from, to)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

type createBatchRequest struct {
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// CreateBatch aggregates unpaid records into a pending payment batch.
// Without an explicit window the trailing configured window is used.
func (h *Handlers) CreateBatch(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -h.settlementWindowDays)
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if req.EndDate != nil {
		end = *req.EndDate
	}

	result, err := h.settlement.CreateBatch(c.Request.Context(), start, end)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"batch":       result.Batch,
		"shop_totals": result.ShopTotals,
	})
}

type processBatchRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

// ProcessBatch settles a pending batch
func (h *Handlers) ProcessBatch(c *gin.Context) {
	batchID := c.Param("batchId")

	var req processBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.settlement.ProcessBatch(c.Request.Context(), batchID, req.TransactionID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records_updated": result.RecordsUpdated,
		"batch":           result.Batch,
	})
}

// GetBatch returns a batch by its batch id
func (h *Handlers) GetBatch(c *gin.Context) {
	batch, err := h.settlement.GetBatch(c.Request.Context(), c.Param("batchId"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch": batch})
}

type createShopRequest struct {
	Name           string           `json:"name" binding:"required"`
	OwnerEmail     string           `json:"owner_email" binding:"required"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
}

// CreateShop registers a new shop
func (h *Handlers) CreateShop(defaultRate decimal.Decimal) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createShopRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		rate := defaultRate
		if req.CommissionRate != nil {
			rate = *req.CommissionRate
		}

		shop, err := h.shops.CreateShop(c.Request.Context(), req.Name, req.OwnerEmail, rate)
		if err != nil {
			h.renderError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"shop": shop})
	}
}

// GetShop returns a shop by ID
func (h *Handlers) GetShop(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop id"})
		return
	}

	shop, err := h.shops.GetShop(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shop": shop})
}

// parseWindow parses optional RFC3339 from/to parameters, defaulting to
// the trailing configured window.
func (h *Handlers) parseWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -h.settlementWindowDays)

	if fromRaw != "" {
		parsed, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from timestamp, want RFC3339")
		}
		from = parsed
	}
	if toRaw != "" {
		parsed, err := time.Parse(time.RFC3339, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to timestamp, want RFC3339")
		}
		to = parsed
	}
	return from, to, nil
}

// renderError maps settlement error kinds onto HTTP statuses
func (h *Handlers) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateOrder):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "duplicate_order"})
	case errors.Is(err, service.ErrNoEligibleRecords):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "no_eligible_records"})
	case errors.Is(err, service.ErrBatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "batch_not_found"})
	case errors.Is(err, service.ErrInvalidBatchState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_batch_state"})
	case errors.Is(err, service.ErrShopNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "shop_not_found"})
	default:
		log.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
