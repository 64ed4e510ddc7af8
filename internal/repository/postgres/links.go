package postgres

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ListUserLinks returns all links of a user, newest first.
func (s *PostgresStorage) ListUserLinks(ctx context.Context, userID int64) ([]*domain.ReferralLink, error) {
	var links []*domain.ReferralLink

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&links).Error
	if err != nil {
		s.log.Error("failed to list user links", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list user links: %w", err)
	}

	return links, nil
}

func (s *PostgresStorage) GetLinkByID(ctx context.Context, id int64) (*domain.ReferralLink, error) {
	var link domain.ReferralLink

	err := s.db.WithContext(ctx).First(&link, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.Int64("link_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// ResolveActiveLink finds an active link by short code or custom slug.
func (s *PostgresStorage) ResolveActiveLink(ctx context.Context, code string) (*domain.ReferralLink, error) {
	var link domain.ReferralLink

	err := s.db.WithContext(ctx).
		Where("(short_code = ? OR custom_slug = ?) AND is_active = ?", code, code, true).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to resolve link", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to resolve link: %w", err)
	}

	return &link, nil
}

// ShortCodeExists reports whether the code is used as a short code or a custom slug.
// Both columns are resolved by /r/{code}.
func (s *PostgresStorage) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	exists, err := codeTaken(s.db.WithContext(ctx), code, 0)
	if err != nil {
		s.log.Error("failed to check short code", zap.String("code", code), zap.Error(err))
		return false, err
	}
	return exists, nil
}

// CustomSlugTaken reports whether another link already uses the slug as its slug or short code.
func (s *PostgresStorage) CustomSlugTaken(ctx context.Context, slug string, excludeID int64) (bool, error) {
	return codeTaken(s.db.WithContext(ctx), slug, excludeID)
}

func codeTaken(db *gorm.DB, code string, excludeID int64) (bool, error) {
	var count int64
	err := db.Model(&domain.ReferralLink{}).
		Where("(short_code = ? OR custom_slug = ?) AND id <> ?", code, code, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}
	return count > 0, nil
}

func (s *PostgresStorage) CountActiveLinks(ctx context.Context, userID int64) (int64, error) {
	return countActive(s.db.WithContext(ctx), userID, 0)
}

func countActive(db *gorm.DB, userID, excludeID int64) (int64, error) {
	var count int64
	err := db.Model(&domain.ReferralLink{}).
		Where("user_id = ? AND is_active = ? AND id <> ?", userID, true, excludeID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active links: %w", err)
	}
	return count, nil
}

// CreateLink locks the owner row, checks the quota and inserts in one transaction.
func (s *PostgresStorage) CreateLink(ctx context.Context, link *domain.ReferralLink, maxLinks int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, link.UserID); err != nil {
			return err
		}

		if link.IsActive {
			count, err := countActive(tx, link.UserID, 0)
			if err != nil {
				return err
			}
			if count >= int64(maxLinks) {
				return &repository.QuotaExceededError{CurrentCount: count, MaxLinks: maxLinks}
			}
		}

		if link.CustomSlug != nil {
			taken, err := codeTaken(tx, *link.CustomSlug, 0)
			if err != nil {
				return err
			}
			if taken {
				return repository.ErrSlugTaken
			}
		}

		taken, err := codeTaken(tx, link.ShortCode, 0)
		if err != nil {
			return err
		}
		if taken {
			return repository.ErrShortCodeExists
		}

		if err := tx.Create(link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return repository.ErrShortCodeExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.log.Error("failed to create link", zap.Int64("user_id", link.UserID), zap.Error(err))
			return fmt.Errorf("failed to create link: %w", err)
		}
		return err
	}

	s.log.Info("created link", zap.Int64("link_id", link.ID), zap.String("short_code", link.ShortCode))
	return nil
}

// UpdateLink saves a link, enforcing the quota when it is being re-activated.
func (s *PostgresStorage) UpdateLink(ctx context.Context, link *domain.ReferralLink, maxLinks int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, link.UserID); err != nil {
			return err
		}

		var current domain.ReferralLink
		if err := tx.First(&current, link.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}

		if link.IsActive && !current.IsActive {
			count, err := countActive(tx, link.UserID, link.ID)
			if err != nil {
				return err
			}
			if count >= int64(maxLinks) {
				return &repository.QuotaExceededError{CurrentCount: count, MaxLinks: maxLinks}
			}
		}

		if link.CustomSlug != nil {
			taken, err := codeTaken(tx, *link.CustomSlug, link.ID)
			if err != nil {
				return err
			}
			if taken {
				return repository.ErrSlugTaken
			}
		}

		if err := tx.Save(link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return repository.ErrSlugTaken
			}
			return err
		}
		return nil
	})
	if err != nil && !isDomainError(err) {
		s.log.Error("failed to update link", zap.Int64("link_id", link.ID), zap.Error(err))
		return fmt.Errorf("failed to update link: %w", err)
	}
	return err
}

// DeleteLink removes the link row. Clicks keep their link_id.
func (s *PostgresStorage) DeleteLink(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.ReferralLink{}, id)
	if result.Error != nil {
		s.log.Error("failed to delete link", zap.Int64("link_id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to delete link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}

	s.log.Info("deleted link", zap.Int64("link_id", id))
	return nil
}

func (s *PostgresStorage) IncrementClickCount(ctx context.Context, linkID int64) error {
	result := s.db.WithContext(ctx).
		Model(&domain.ReferralLink{}).
		Where("id = ?", linkID).
		UpdateColumn("click_count", gorm.Expr("click_count + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment click count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isDomainError(err error) bool {
	var quotaErr *repository.QuotaExceededError
	return errors.As(err, &quotaErr) ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrSlugTaken) ||
		errors.Is(err, repository.ErrShortCodeExists)
}
