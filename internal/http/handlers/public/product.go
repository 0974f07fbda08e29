package public

import (
	"strconv"

	handlershared "github.com/shoplite/shoplite/internal/http/handlers/shared"
	"github.com/shoplite/shoplite/internal/http/response"
	"github.com/shoplite/shoplite/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	result, err := h.ProductService.List(c.Request.Context(), repository.ProductListParams{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}

	totalPage := (result.Total + int64(pageSize) - 1) / int64(pageSize)
	response.SuccessWithPage(c, result.Products, response.Pagination{
		Page:      result.Page,
		PageSize:  result.PageSize,
		Total:     result.Total,
		TotalPage: totalPage,
	})
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid product id", nil)
		return
	}
	product, err := h.ProductService.GetByID(uint(id))
	if err != nil {
		respondWithMappedError(c, err, cartErrorRules, response.CodeInternal, "product fetch failed")
		return
	}
	response.Success(c, product)
}
