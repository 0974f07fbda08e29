package public

import (
	"strconv"

	handlershared "github.com/shoplite/shoplite/internal/http/handlers/shared"
	"github.com/shoplite/shoplite/internal/http/response"
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/repository"
	"github.com/shoplite/shoplite/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结算请求
// transaction_details 为支付侧载荷, 其中 paypal_order_id 用于后续 webhook 对账。
type CheckoutRequest struct {
	TransactionDetails models.JSON `json:"transaction_details"`
}

// Checkout 把当前购物车转为待支付订单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, response.CodeBadRequest, "invalid request body", nil)
		return
	}

	order, err := h.OrderService.Checkout(service.CheckoutInput{
		UserID:             uid,
		TransactionDetails: req.TransactionDetails,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "checkout failed")
		return
	}
	response.Created(c, order)
}

// ListOrders 用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListByUser(uid, repository.OrderListParams{
		Page:     page,
		PageSize: pageSize,
		State:    c.Query("state"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	totalPage := (total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.OrderService.GetByIDAndUser(uint(orderID), uid)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order fetch failed")
		return
	}
	response.Success(c, order)
}
