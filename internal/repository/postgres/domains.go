package postgres

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

func (s *PostgresStorage) CreateCustomDomain(ctx context.Context, d *domain.CustomDomain) error {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrDomainExists
		}
		return fmt.Errorf("failed to create custom domain: %w", err)
	}
	return nil
}

func (s *PostgresStorage) GetCustomDomain(ctx context.Context, id int64) (*domain.CustomDomain, error) {
	var d domain.CustomDomain
	err := s.db.WithContext(ctx).First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom domain: %w", err)
	}
	return &d, nil
}

func (s *PostgresStorage) ListCustomDomains(ctx context.Context, userID int64) ([]*domain.CustomDomain, error) {
	var domains []*domain.CustomDomain
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&domains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list custom domains: %w", err)
	}
	return domains, nil
}

func (s *PostgresStorage) UpdateCustomDomain(ctx context.Context, d *domain.CustomDomain) error {
	if err := s.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("failed to update custom domain: %w", err)
	}
	return nil
}

func (s *PostgresStorage) DeleteCustomDomain(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.CustomDomain{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete custom domain: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
