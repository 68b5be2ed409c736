package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// InsertPageCheck appends a check row. A missing page yields ErrNotFound.
func (s *Storage) InsertPageCheck(ctx context.Context, check *PageCheck) error {
	if err := ValidatePageCheck(check); err != nil {
		return err
	}
	return translateError("insert page check", s.db.WithContext(ctx).Create(check).Error)
}

// UpdatePageCache copies the outcome of check into the cache fields of its page.
func (s *Storage) UpdatePageCache(ctx context.Context, check *PageCheck) error {
	result := s.db.WithContext(ctx).
		Model(&Page{}).
		Where("id = ?", check.PageID).
		Updates(map[string]any{
			"is_up":                 check.Status == StatusUp,
			"last_checked_at":       check.CheckedAt,
			"last_status_code":      check.StatusCode,
			"last_response_time_ms": check.ResponseTimeMs,
		})
	if result.Error != nil {
		return translateError("update page cache", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update page cache: %w", ErrNotFound)
	}
	return nil
}

// RecordCheck inserts check and updates the page cache in one transaction, so
// readers never see one without the other.
func (s *Storage) RecordCheck(ctx context.Context, check *PageCheck) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := &Storage{db: tx}
		if err := txs.InsertPageCheck(ctx, check); err != nil {
			return err
		}
		return txs.UpdatePageCache(ctx, check)
	})
}

// ListPageChecks returns one page of a page's check history, newest first,
// and the total number of checks.
func (s *Storage) ListPageChecks(ctx context.Context, pageID uint, limit, offset int) ([]PageCheck, int64, error) {
	return s.listChecks(ctx, "page_id = ?", pageID, limit, offset)
}

// ListWebsiteChecks returns one page of the check history of all pages of a
// website, newest first, and the total number of checks.
func (s *Storage) ListWebsiteChecks(ctx context.Context, websiteID uint, limit, offset int) ([]PageCheck, int64, error) {
	return s.listChecks(ctx, "website_id = ?", websiteID, limit, offset)
}

func (s *Storage) listChecks(ctx context.Context, cond string, id uint, limit, offset int) ([]PageCheck, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&PageCheck{}).Where(cond, id).Count(&total).Error; err != nil {
		return nil, 0, translateError("count checks", err)
	}

	checks := []PageCheck{}
	err := s.db.WithContext(ctx).
		Where(cond, id).
		Order("checked_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&checks).Error
	if err != nil {
		return nil, 0, translateError("list checks", err)
	}
	return checks, total, nil
}
