package postgres

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CreateClick записывает клик; клики не изменяются и не удаляются
func (s *PostgresStorage) CreateClick(ctx context.Context, click *domain.Click) error {
	if err := s.db.WithContext(ctx).Create(click).Error; err != nil {
		s.log.Error("failed to create click", zap.Int64("link_id", click.LinkID), zap.Error(err))
		return fmt.Errorf("failed to create click: %w", err)
	}
	return nil
}

// GetClickBreakdown возвращает распределение кликов по браузерам, ОС и устройствам
func (s *PostgresStorage) GetClickBreakdown(ctx context.Context, linkID int64) (*repository.ClickBreakdown, error) {
	breakdown := &repository.ClickBreakdown{}

	var totals struct {
		Total int64 `gorm:"column:total"`
		Bots  int64 `gorm:"column:bots"`
	}
	err := s.db.WithContext(ctx).
		Model(&domain.Click{}).
		Select("count(*) AS total, count(*) FILTER (WHERE is_bot) AS bots").
		Where("link_id = ?", linkID).
		Scan(&totals).Error
	if err != nil {
		s.log.Error("failed to count clicks", zap.Int64("link_id", linkID), zap.Error(err))
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}
	breakdown.Total = totals.Total
	breakdown.Bots = totals.Bots

	for column, target := range map[string]*map[string]int64{
		"browser": &breakdown.ByBrowser,
		"os":      &breakdown.ByOS,
		"device":  &breakdown.ByDevice,
	} {
		counts, err := s.groupClicks(ctx, linkID, column)
		if err != nil {
			return nil, err
		}
		*target = counts
	}

	return breakdown, nil
}

func (s *PostgresStorage) groupClicks(ctx context.Context, linkID int64, column string) (map[string]int64, error) {
	var results []struct {
		Value string `gorm:"column:value"`
		Count int64  `gorm:"column:count"`
	}

	err := s.db.WithContext(ctx).
		Model(&domain.Click{}).
		Select(column+" AS value, count(*) AS count").
		Where("link_id = ?", linkID).
		Group(column).
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to group clicks", zap.Int64("link_id", linkID), zap.String("column", column), zap.Error(err))
		return nil, fmt.Errorf("failed to group clicks by %s: %w", column, err)
	}

	counts := make(map[string]int64, len(results))
	for _, r := range results {
		counts[r.Value] = r.Count
	}
	return counts, nil
}
