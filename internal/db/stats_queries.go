package db

import (
	"context"
	"fmt"
)

// CatalogCounts is the catalog summary served by the stats endpoint.
type CatalogCounts struct {
	Products int64 `json:"products"`
	Videos   int64 `json:"videos"`
	Reviews  int64 `json:"reviews"`
}

func (p *Pool) CountCatalog(ctx context.Context) (CatalogCounts, error) {
	if p == nil || p.gdb == nil {
		return CatalogCounts{}, fmt.Errorf("database pool is not initialized")
	}

	var counts CatalogCounts
	if err := p.gdb.WithContext(ctx).Model(&Product{}).Count(&counts.Products).Error; err != nil {
		return CatalogCounts{}, fmt.Errorf("count products: %w", err)
	}
	if err := p.gdb.WithContext(ctx).Model(&Video{}).Count(&counts.Videos).Error; err != nil {
		return CatalogCounts{}, fmt.Errorf("count videos: %w", err)
	}
	if err := p.gdb.WithContext(ctx).Model(&Review{}).Count(&counts.Reviews).Error; err != nil {
		return CatalogCounts{}, fmt.Errorf("count reviews: %w", err)
	}
	return counts, nil
}

// ListRecentProducts returns the newest catalog entries for the API.
func (p *Pool) ListRecentProducts(ctx context.Context, limit int) ([]Product, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		limit = 25
	}
	var products []Product
	if err := p.gdb.WithContext(ctx).Order("created_at DESC, product_id DESC").Limit(limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list recent products: %w", err)
	}
	return products, nil
}
