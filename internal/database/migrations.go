package database

import (
	"RefStack-Backend/internal/domain"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AutoMigrate выполняет автоматические миграции для всех доменных моделей
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("starting database auto-migration")

	// Справочники, затем пользователи и зависимые от них таблицы
	models := []interface{}{
		&domain.SubscriptionPlan{},
		&domain.Addon{},
		&domain.User{},
		&domain.ReferralLink{},
		&domain.Click{}, // без внешнего ключа на referral_links
		&domain.Subscription{},
		&domain.UserAddon{},
		&domain.Invoice{},
		&domain.Notification{},
		&domain.AuditLog{},
		&domain.CustomDomain{},
		&domain.WebhookEvent{},
	}

	for i, model := range models {
		modelName := fmt.Sprintf("%T", model)
		log.Info("migrating model",
			zap.String("model", modelName),
			zap.Int("step", i+1),
			zap.Int("total", len(models)))

		if err := db.AutoMigrate(model); err != nil {
			log.Error("failed to migrate model", zap.String("model", modelName), zap.Error(err))
			return fmt.Errorf("failed to migrate model %s: %w", modelName, err)
		}
	}

	log.Info("database auto-migration completed", zap.Int("migrated_models", len(models)))
	return nil
}

// SeedData заполняет каталог тарифов и дополнений, если он пуст
func SeedData(db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.Model(&domain.SubscriptionPlan{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count plans: %w", err)
	}
	if count > 0 {
		log.Info("subscription plans already exist, skipping seeding", zap.Int64("existing_count", count))
		return nil
	}

	plans := domain.DefaultPlans()
	addons := domain.DefaultAddons()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&plans).Error; err != nil {
			return fmt.Errorf("failed to seed plans: %w", err)
		}
		if err := tx.Create(&addons).Error; err != nil {
			return fmt.Errorf("failed to seed addons: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("database seeding failed", zap.Error(err))
		return err
	}

	log.Info("database seeding completed",
		zap.Int("plans_created", len(plans)),
		zap.Int("addons_created", len(addons)))
	return nil
}
