package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CreateWebsite inserts a website for website.UserID.
func (s *Storage) CreateWebsite(ctx context.Context, website *Website) error {
	if err := ValidateWebsite(website); err != nil {
		return err
	}
	return translateError("create website", s.db.WithContext(ctx).Create(website).Error)
}

// ListWebsites returns every website owned by userID with its pages and
// aggregates, oldest first.
func (s *Storage) ListWebsites(ctx context.Context, userID uint) ([]WebsiteWithStats, error) {
	var websites []Website
	err := s.db.WithContext(ctx).
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		Order("id").
		Find(&websites).Error
	if err != nil {
		return nil, translateError("list websites", err)
	}

	ids := make([]uint, len(websites))
	for i, w := range websites {
		ids[i] = w.ID
	}

	stats, err := s.WebsiteStats(ctx, ids...)
	if err != nil {
		return nil, err
	}

	out := make([]WebsiteWithStats, len(websites))
	for i, w := range websites {
		out[i] = WebsiteWithStats{Website: w, WebsiteStats: stats[w.ID]}
	}
	return out, nil
}

// GetWebsite returns a website owned by userID with its pages and aggregates.
// Websites of other users are reported as ErrNotFound.
func (s *Storage) GetWebsite(ctx context.Context, userID, id uint) (*WebsiteWithStats, error) {
	var website Website
	err := s.db.WithContext(ctx).
		Preload("Pages", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&website).Error
	if err != nil {
		return nil, translateError("get website", err)
	}

	stats, err := s.WebsiteStats(ctx, website.ID)
	if err != nil {
		return nil, err
	}

	return &WebsiteWithStats{Website: website, WebsiteStats: stats[website.ID]}, nil
}

// UpdateWebsite writes the name and base URL of an existing website.
func (s *Storage) UpdateWebsite(ctx context.Context, website *Website) error {
	if err := ValidateWebsite(website); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&Website{}).
		Where("id = ? AND user_id = ?", website.ID, website.UserID).
		Updates(map[string]any{
			"name":     website.Name,
			"base_url": website.BaseURL,
		})
	if result.Error != nil {
		return translateError("update website", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update website: %w", ErrNotFound)
	}
	return nil
}

// DeleteWebsite removes a website owned by userID together with its pages and
// their checks.
func (s *Storage) DeleteWebsite(ctx context.Context, userID, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var website Website
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&website).Error; err != nil {
			return translateError("delete website", err)
		}

		pageIDs := tx.Model(&Page{}).Select("id").Where("website_id = ?", website.ID)
		if err := tx.Where("page_id IN (?)", pageIDs).Delete(&PageCheck{}).Error; err != nil {
			return translateError("delete website checks", err)
		}
		if err := tx.Where("website_id = ?", website.ID).Delete(&Page{}).Error; err != nil {
			return translateError("delete website pages", err)
		}
		if err := tx.Delete(&website).Error; err != nil {
			return translateError("delete website", err)
		}
		return nil
	})
}

// WebsiteStats computes page aggregates for the given websites with a single
// grouped query. Websites without pages get zero counts and are healthy.
func (s *Storage) WebsiteStats(ctx context.Context, websiteIDs ...uint) (map[uint]WebsiteStats, error) {
	stats := make(map[uint]WebsiteStats, len(websiteIDs))
	for _, id := range websiteIDs {
		stats[id] = WebsiteStats{IsHealthy: true}
	}
	if len(websiteIDs) == 0 {
		return stats, nil
	}

	var rows []struct {
		WebsiteID  uint
		TotalCount int64
		UpCount    int64
	}
	err := s.db.WithContext(ctx).
		Model(&Page{}).
		Select("website_id, COUNT(*) AS total_count, SUM(CASE WHEN is_up THEN 1 ELSE 0 END) AS up_count").
		Where("website_id IN ?", websiteIDs).
		Group("website_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError("website stats", err)
	}

	for _, row := range rows {
		down := row.TotalCount - row.UpCount
		stats[row.WebsiteID] = WebsiteStats{
			PagesUpCount:    row.UpCount,
			PagesDownCount:  down,
			TotalPagesCount: row.TotalCount,
			IsHealthy:       down == 0,
		}
	}
	return stats, nil
}

// WebsiteOwner returns the user id owning a website.
func (s *Storage) WebsiteOwner(ctx context.Context, websiteID uint) (uint, error) {
	var website Website
	err := s.db.WithContext(ctx).
		Select("id", "user_id").
		First(&website, websiteID).Error
	if err != nil {
		return 0, translateError("website owner", err)
	}
	return website.UserID, nil
}
