package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shoplite/shoplite/internal/cache"
	"github.com/shoplite/shoplite/internal/logger"
	"github.com/shoplite/shoplite/internal/models"
	"github.com/shoplite/shoplite/internal/repository"
)

const productListCacheTTL = 60 * time.Second

// ProductListResult 商品列表结果
type ProductListResult struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ProductService 商品服务
type ProductService struct {
	productRepo repository.ProductRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// List 分页查询上架商品, 无关键词的页结果走 Redis 缓存
func (s *ProductService) List(ctx context.Context, params repository.ProductListParams) (*ProductListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	cacheable := cache.Enabled() && params.Keyword == ""
	cacheKey := fmt.Sprintf("products:list:%d:%d", params.Page, params.PageSize)
	if cacheable {
		var cached ProductListResult
		hit, err := cache.GetJSON(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warnw("product_list_cache_read_failed", "error", err.Error())
		} else if hit {
			return &cached, nil
		}
	}

	products, total, err := s.productRepo.ListActive(params)
	if err != nil {
		return nil, err
	}
	result := &ProductListResult{
		Products: products,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	}
	if cacheable {
		if err := cache.SetJSON(ctx, cacheKey, result, productListCacheTTL); err != nil {
			logger.Warnw("product_list_cache_write_failed", "error", err.Error())
		}
	}
	return result, nil
}

// GetByID 获取上架商品详情
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetActiveByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}
