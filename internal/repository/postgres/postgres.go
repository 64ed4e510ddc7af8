package postgres

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStorage реализует интерфейс Storage для PostgreSQL
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр PostgreSQL storage.
// Соединение должно быть открыто с TranslateError, иначе дубликаты не распознаются.
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// Ping проверяет доступность базы данных
func (s *PostgresStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// --- User Methods ---

// CreateUser создает пользователя; email и username уникальны
func (s *PostgresStorage) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrUserExists
		}
		s.log.Error("failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created new user", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

// GetUserByID получает пользователя по ID
func (s *PostgresStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

// GetUserByEmail получает пользователя по email
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

// GetUserByUsername получает пользователя по username
func (s *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *PostgresStorage) findUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		s.log.Error("failed to get user", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// UpdateUser сохраняет изменения профиля
func (s *PostgresStorage) UpdateUser(ctx context.Context, user *domain.User) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrUserExists
	}
	if err != nil {
		s.log.Error("failed to update user", zap.Int64("user_id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// lockUser блокирует строку владельца до конца транзакции.
// Все изменения квоты одного пользователя выполняются последовательно.
func lockUser(tx *gorm.DB, userID int64) error {
	var user domain.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}

var _ repository.Storage = (*PostgresStorage)(nil)
