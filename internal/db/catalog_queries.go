package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// HasVideo reports whether an item was already fully processed.
func (p *Pool) HasVideo(ctx context.Context, videoID string) (bool, error) {
	if p == nil || p.gdb == nil {
		return false, fmt.Errorf("database pool is not initialized")
	}
	var count int64
	if err := p.gdb.WithContext(ctx).Model(&Video{}).Where("video_id = ?", videoID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count videos: %w", err)
	}
	return count > 0, nil
}

// ListProducts returns the full catalog, oldest first. The resolver scans it
// in this order, so insertion order decides fuzzy-match ties.
func (p *Pool) ListProducts(ctx context.Context) ([]Product, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	var products []Product
	if err := p.gdb.WithContext(ctx).Order("created_at ASC, product_id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// CommitItem persists one processed item atomically: the video row, any new
// products it introduced, and the reviews linking them. Either everything
// lands or nothing does, so a crash mid-item never leaves a partial catalog.
func (p *Pool) CommitItem(ctx context.Context, video Video, newProducts []Product, reviews []Review) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	return p.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&video).Error; err != nil {
			return fmt.Errorf("create video %s: %w", video.VideoID, err)
		}
		for i := range newProducts {
			if err := tx.Create(&newProducts[i]).Error; err != nil {
				return fmt.Errorf("create product %q: %w", newProducts[i].Name, err)
			}
		}
		for i := range reviews {
			if err := tx.Create(&reviews[i]).Error; err != nil {
				return fmt.Errorf("create review for video %s: %w", video.VideoID, err)
			}
		}
		return nil
	})
}

// ListProductsMissingDetails returns products the enricher has not filled in
// yet, oldest first.
func (p *Pool) ListProductsMissingDetails(ctx context.Context, limit int) ([]Product, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	query := p.gdb.WithContext(ctx).
		Where("description IS NULL OR description = ''").
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var products []Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products missing details: %w", err)
	}
	return products, nil
}

// UpdateProductDetails writes the enrichment fields that were actually
// reported; nil fields leave the stored values alone.
func (p *Pool) UpdateProductDetails(ctx context.Context, productID string, details ProductDetails) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if details.Description != nil {
		updates["description"] = *details.Description
	}
	if len(details.Features) > 0 {
		payload, err := json.Marshal(details.Features)
		if err != nil {
			return fmt.Errorf("marshal features: %w", err)
		}
		updates["features"] = json.RawMessage(payload)
	}
	if details.Ingredients != nil {
		updates["ingredients"] = *details.Ingredients
	}
	if details.Volume != nil {
		updates["volume"] = *details.Volume
	}
	if details.HowToUse != nil {
		updates["how_to_use"] = *details.HowToUse
	}
	if len(updates) == 1 {
		return nil
	}

	result := p.gdb.WithContext(ctx).Model(&Product{}).Where("product_id = ?", productID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update product %s details: %w", productID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("product %s not found", productID)
	}
	return nil
}
