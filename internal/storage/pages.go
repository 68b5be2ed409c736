package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CreatePage inserts a page. A missing parent website yields ErrNotFound.
func (s *Storage) CreatePage(ctx context.Context, page *Page) error {
	if err := ValidatePage(page); err != nil {
		return err
	}
	return translateError("create page", s.db.WithContext(ctx).Create(page).Error)
}

// GetPage returns a page by id regardless of owner.
func (s *Storage) GetPage(ctx context.Context, id uint) (*Page, error) {
	var page Page
	if err := s.db.WithContext(ctx).First(&page, id).Error; err != nil {
		return nil, translateError("get page", err)
	}
	return &page, nil
}

// GetPageForUser returns a page whose website is owned by userID.
func (s *Storage) GetPageForUser(ctx context.Context, userID, id uint) (*Page, error) {
	var page Page
	err := s.ownedPages(ctx, userID).
		Where("id = ?", id).
		First(&page).Error
	if err != nil {
		return nil, translateError("get page", err)
	}
	return &page, nil
}

// GetPageWithChecks returns an owned page with its latest checks, newest first.
func (s *Storage) GetPageWithChecks(ctx context.Context, userID, id uint, limit int) (*Page, error) {
	var page Page
	err := s.ownedPages(ctx, userID).
		Preload("Checks", func(db *gorm.DB) *gorm.DB {
			return db.Order("checked_at DESC, id DESC").Limit(limit)
		}).
		Where("id = ?", id).
		First(&page).Error
	if err != nil {
		return nil, translateError("get page", err)
	}
	return &page, nil
}

// ListPages returns the pages of a website, oldest first.
func (s *Storage) ListPages(ctx context.Context, websiteID uint) ([]Page, error) {
	var pages []Page
	err := s.db.WithContext(ctx).
		Where("website_id = ?", websiteID).
		Order("id").
		Find(&pages).Error
	if err != nil {
		return nil, translateError("list pages", err)
	}
	return pages, nil
}

// UpdatePageURL changes the URL of a page. Cache fields are left untouched.
func (s *Storage) UpdatePageURL(ctx context.Context, page *Page) error {
	if err := ValidatePage(page); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Model(&Page{}).
		Where("id = ?", page.ID).
		Update("url", page.URL)
	if result.Error != nil {
		return translateError("update page", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update page: %w", ErrNotFound)
	}
	return nil
}

// DeletePage removes a page and all of its checks.
func (s *Storage) DeletePage(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("page_id = ?", id).Delete(&PageCheck{}).Error; err != nil {
			return translateError("delete page checks", err)
		}

		result := tx.Delete(&Page{}, id)
		if result.Error != nil {
			return translateError("delete page", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("delete page: %w", ErrNotFound)
		}
		return nil
	})
}

// EachPage streams every page in id order, loading batchSize rows at a time,
// and calls fn once per page. Iteration stops at the first error returned by
// fn or when ctx is done.
func (s *Storage) EachPage(ctx context.Context, batchSize int, fn func(Page) error) error {
	var batch []Page
	result := s.db.WithContext(ctx).
		Model(&Page{}).
		FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			for _, page := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := fn(page); err != nil {
					return err
				}
			}
			return nil
		})
	if result.Error != nil {
		return fmt.Errorf("each page: %w", result.Error)
	}
	return nil
}

// ownedPages scopes a page query to pages of websites owned by userID.
func (s *Storage) ownedPages(ctx context.Context, userID uint) *gorm.DB {
	owned := s.db.Model(&Website{}).Select("id").Where("user_id = ?", userID)
	return s.db.WithContext(ctx).Where("website_id IN (?)", owned)
}
