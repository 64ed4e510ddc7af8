//go:build integration

package postgres

import (
	"RefStack-Backend/internal/config"
	"RefStack-Backend/internal/database"
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
)

func setupStorage(t *testing.T) *PostgresStorage {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("refstack"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := zap.NewNop()
	db, err := database.Open(gormpostgres.Open(dsn), &config.Database{
		DBName:          "refstack",
		MaxIdleConns:    5,
		MaxOpenConns:    20,
		ConnMaxLifetime: "1h",
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db, log) })

	require.NoError(t, database.AutoMigrate(db, log))
	require.NoError(t, database.SeedData(db, log))

	return New(db, log)
}

func createUser(t *testing.T, s *PostgresStorage, username string) *domain.User {
	t.Helper()

	user := &domain.User{Email: username + "@example.com", Username: username, PasswordHash: "x"}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func TestPostgresStorage(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	s := setupStorage(t)
	ctx := context.Background()

	t.Run("duplicate user", func(t *testing.T) {
		createUser(t, s, "dup")
		err := s.CreateUser(ctx, &domain.User{Email: "dup@example.com", Username: "dup2", PasswordHash: "x"})
		assert.ErrorIs(t, err, repository.ErrUserExists)
	})

	t.Run("seeded catalog", func(t *testing.T) {
		plans, err := s.ListPlans(ctx)
		require.NoError(t, err)
		assert.Len(t, plans, 3)

		addons, err := s.ListAddons(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, addons)
	})

	t.Run("quota and slugs", func(t *testing.T) {
		user := createUser(t, s, "quota")

		for i := 0; i < 2; i++ {
			link := &domain.ReferralLink{UserID: user.ID, Name: "l", URL: "https://example.com", ShortCode: fmt.Sprintf("QUOTA00%d", i), IsActive: true, IsPublic: true}
			require.NoError(t, s.CreateLink(ctx, link, 2))
		}

		err := s.CreateLink(ctx, &domain.ReferralLink{UserID: user.ID, Name: "l", URL: "https://example.com", ShortCode: "QUOTA009", IsActive: true}, 2)
		var quota *repository.QuotaExceededError
		require.ErrorAs(t, err, &quota)
		assert.Equal(t, int64(2), quota.CurrentCount)

		// неактивные ссылки не учитываются в лимите
		require.NoError(t, s.CreateLink(ctx, &domain.ReferralLink{UserID: user.ID, Name: "l", URL: "https://example.com", ShortCode: "QUOTA010"}, 2))

		slug := "taken-slug"
		other := createUser(t, s, "slugger")
		require.NoError(t, s.CreateLink(ctx, &domain.ReferralLink{UserID: other.ID, Name: "l", URL: "https://example.com", ShortCode: "SLUG0001", CustomSlug: &slug, IsActive: true}, 5))
		err = s.CreateLink(ctx, &domain.ReferralLink{UserID: other.ID, Name: "l", URL: "https://example.com", ShortCode: "SLUG0002", CustomSlug: &slug, IsActive: true}, 5)
		assert.ErrorIs(t, err, repository.ErrSlugTaken)

		link, err := s.ResolveActiveLink(ctx, slug)
		require.NoError(t, err)
		assert.Equal(t, "SLUG0001", link.ShortCode)

		// short codes and slugs share one namespace
		codeAsSlug := "SLUG0001"
		err = s.CreateLink(ctx, &domain.ReferralLink{UserID: other.ID, Name: "l", URL: "https://example.com", ShortCode: "SLUG0003", CustomSlug: &codeAsSlug, IsActive: true}, 5)
		assert.ErrorIs(t, err, repository.ErrSlugTaken)
		err = s.CreateLink(ctx, &domain.ReferralLink{UserID: other.ID, Name: "l", URL: "https://example.com", ShortCode: slug, IsActive: true}, 5)
		assert.ErrorIs(t, err, repository.ErrShortCodeExists)

		exists, err := s.ShortCodeExists(ctx, slug)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("concurrent creates respect quota", func(t *testing.T) {
		user := createUser(t, s, "racer")

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- s.CreateLink(ctx, &domain.ReferralLink{UserID: user.ID, Name: "l", URL: "https://example.com", ShortCode: fmt.Sprintf("RACE%04d", i), IsActive: true}, 3)
			}(i)
		}
		wg.Wait()
		close(errs)

		created := 0
		for err := range errs {
			var quota *repository.QuotaExceededError
			switch {
			case err == nil:
				created++
			case errors.As(err, &quota):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 3, created)

		count, err := s.CountActiveLinks(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("clicks survive link deletion", func(t *testing.T) {
		user := createUser(t, s, "clicker")
		link := &domain.ReferralLink{UserID: user.ID, Name: "l", URL: "https://example.com", ShortCode: "CLICK001", IsActive: true}
		require.NoError(t, s.CreateLink(ctx, link, 5))

		require.NoError(t, s.CreateClick(ctx, &domain.Click{LinkID: link.ID, IP: "203.0.113.7", Browser: "Chrome", OS: "Linux", Device: "Desktop"}))
		require.NoError(t, s.CreateClick(ctx, &domain.Click{LinkID: link.ID, IP: "203.0.113.8", Browser: "Other", OS: "Other", Device: "Desktop", IsBot: true}))
		referer := strings.Repeat("ж", domain.MaxClickRefererLength)
		require.NoError(t, s.CreateClick(ctx, &domain.Click{LinkID: link.ID, IP: strings.Repeat("f", domain.MaxClickIPLength), Referer: &referer, Browser: "Other", OS: "Other", Device: "Desktop", IsBot: true}))
		require.NoError(t, s.IncrementClickCount(ctx, link.ID))

		got, err := s.GetLinkByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ClickCount)

		require.NoError(t, s.DeleteLink(ctx, link.ID))
		_, err = s.GetLinkByID(ctx, link.ID)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		breakdown, err := s.GetClickBreakdown(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), breakdown.Total)
		assert.Equal(t, int64(2), breakdown.Bots)
		assert.Equal(t, int64(1), breakdown.ByBrowser["Chrome"])
	})

	t.Run("webhook events are deduplicated", func(t *testing.T) {
		event := &domain.WebhookEvent{Provider: domain.ProviderStripe, ProviderEventID: "evt_1", EventType: "checkout.session.completed", Payload: "{}"}
		processed, err := s.BeginWebhookEvent(ctx, event)
		require.NoError(t, err)
		assert.False(t, processed)

		// пока первая попытка держит захват, повторная доставка пропускается
		inFlight := &domain.WebhookEvent{Provider: domain.ProviderStripe, ProviderEventID: "evt_1", EventType: "checkout.session.completed", Payload: "{}"}
		processed, err = s.BeginWebhookEvent(ctx, inFlight)
		require.NoError(t, err)
		assert.True(t, processed)
		require.NoError(t, s.FinishWebhookEvent(ctx, event.ID, errors.New("boom")))

		retry := &domain.WebhookEvent{Provider: domain.ProviderStripe, ProviderEventID: "evt_1", EventType: "checkout.session.completed", Payload: "{}"}
		processed, err = s.BeginWebhookEvent(ctx, retry)
		require.NoError(t, err)
		assert.False(t, processed)
		assert.Equal(t, event.ID, retry.ID)
		require.NoError(t, s.FinishWebhookEvent(ctx, retry.ID, nil))

		again := &domain.WebhookEvent{Provider: domain.ProviderStripe, ProviderEventID: "evt_1", EventType: "checkout.session.completed", Payload: "{}"}
		processed, err = s.BeginWebhookEvent(ctx, again)
		require.NoError(t, err)
		assert.True(t, processed)

		// захват умершей попытки истекает
		stale := &domain.WebhookEvent{Provider: domain.ProviderStripe, ProviderEventID: "evt_stale", EventType: "invoice.payment_succeeded", Payload: "{}"}
		processed, err = s.BeginWebhookEvent(ctx, stale)
		require.NoError(t, err)
		require.False(t, processed)
		require.NoError(t, s.db.Model(&domain.WebhookEvent{}).Where("id = ?", stale.ID).
			Update("claimed_at", time.Now().Add(-2*domain.WebhookClaimTTL)).Error)
		processed, err = s.BeginWebhookEvent(ctx, &domain.WebhookEvent{Provider: domain.ProviderStripe, ProviderEventID: "evt_stale", EventType: "invoice.payment_succeeded", Payload: "{}"})
		require.NoError(t, err)
		assert.False(t, processed)

		// тот же id у другого провайдера это другое событие
		other := &domain.WebhookEvent{Provider: domain.ProviderCrypto, ProviderEventID: "evt_1", EventType: "charge:confirmed", Payload: "{}"}
		processed, err = s.BeginWebhookEvent(ctx, other)
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("invoices are unique per transaction", func(t *testing.T) {
		user := createUser(t, s, "payer")
		invoice := func(number string) *domain.Invoice {
			return &domain.Invoice{
				UserID:                user.ID,
				Number:                number,
				Amount:                9.99,
				Currency:              "USD",
				Status:                domain.InvoiceStatusPaid,
				Provider:              domain.ProviderPayPal,
				ProviderTransactionID: "SALE-1",
				PaidAt:                time.Now(),
			}
		}

		require.NoError(t, s.CreateInvoice(ctx, invoice("INV-1")))
		assert.ErrorIs(t, s.CreateInvoice(ctx, invoice("INV-2")), repository.ErrDuplicate)

		invoices, err := s.ListInvoices(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, 9.99, invoices[0].Amount)
	})

	t.Run("subscription upsert keeps one row", func(t *testing.T) {
		user := createUser(t, s, "subscriber")
		stripeID := "sub_1"
		planID := int64(2)
		sub := &domain.Subscription{UserID: user.ID, PlanID: &planID, Plan: domain.PlanPro, Status: domain.SubscriptionStatusActive, Provider: domain.ProviderStripe, MaxLinks: 25, StripeSubscriptionID: &stripeID}
		require.NoError(t, s.UpsertSubscription(ctx, sub))

		sub.Status = domain.SubscriptionStatusPastDue
		require.NoError(t, s.UpsertSubscription(ctx, sub))

		got, err := s.GetSubscriptionByStripeID(ctx, stripeID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.UserID)
		assert.Equal(t, domain.SubscriptionStatusPastDue, got.Status)
	})
}
