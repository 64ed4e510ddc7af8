package service

import (
	"RefStack-Backend/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicProfile_OrderingAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	links := newLinkService(env)
	clicks := newClickService(env)
	profiles := NewProfileService(env.storage, "https://refstack.io/", env.log)

	second, err := links.Create(ctx, user.ID, LinkInput{Name: "second", URL: "https://b.example", DisplayOrder: intPtr(1)})
	require.NoError(t, err)
	first, err := links.Create(ctx, user.ID, LinkInput{Name: "first", URL: "https://a.example", CustomSlug: strPtr("first-slug")})
	require.NoError(t, err)
	third, err := links.Create(ctx, user.ID, LinkInput{Name: "third", URL: "https://c.example", DisplayOrder: intPtr(1)})
	require.NoError(t, err)
	_, err = links.Create(ctx, user.ID, LinkInput{Name: "hidden", URL: "https://d.example", IsPublic: boolPtr(false)})
	require.NoError(t, err)
	inactive, err := links.Create(ctx, user.ID, LinkInput{Name: "inactive", URL: "https://e.example"})
	require.NoError(t, err)
	_, err = links.Update(ctx, user.ID, inactive.ID, LinkPatch{IsActive: boolPtr(false)})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := clicks.Redirect(ctx, first.ShortCode, ClickInfo{})
		require.NoError(t, err)
	}
	_, err = clicks.Redirect(ctx, second.ShortCode, ClickInfo{})
	require.NoError(t, err)

	profile, err := profiles.PublicProfile(ctx, "ann")
	require.NoError(t, err)

	require.Len(t, profile.Links, 3)
	assert.Equal(t, first.ID, profile.Links[0].ID)
	assert.Equal(t, second.ID, profile.Links[1].ID)
	assert.Equal(t, third.ID, profile.Links[2].ID)

	assert.Equal(t, "https://refstack.io/r/first-slug", profile.Links[0].RedirectURL)
	assert.Equal(t, "https://refstack.io/r/"+second.ShortCode, profile.Links[1].RedirectURL)

	assert.Equal(t, int64(4), profile.Stats.TotalClicks)
	assert.Equal(t, 3, profile.Stats.LinkCount)
	assert.Equal(t, 1.3, profile.Stats.AverageClicks)

	assert.Equal(t, "ann", profile.DisplayName)
	assert.True(t, profile.ShowPlatformBranding)
}

func TestPublicProfile_WhiteLabel(t *testing.T) {
	ctx := context.Background()

	t.Run("addon", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ann@example.com", "ann")
		require.NoError(t, env.storage.CreateUserAddon(ctx, &domain.UserAddon{UserID: user.ID, AddonID: 1, IsActive: true}))

		profile, err := NewProfileService(env.storage, "http://localhost:8080", env.log).PublicProfile(ctx, "ann")
		require.NoError(t, err)
		assert.False(t, profile.ShowPlatformBranding)
	})

	t.Run("business plan", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ann@example.com", "ann")
		_, err := env.subs.ChangePlan(ctx, user.ID, 3)
		require.NoError(t, err)

		profile, err := NewProfileService(env.storage, "http://localhost:8080", env.log).PublicProfile(ctx, "ann")
		require.NoError(t, err)
		assert.False(t, profile.ShowPlatformBranding)
	})

	t.Run("canceled business plan restores branding", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ann@example.com", "ann")
		_, err := env.subs.ChangePlan(ctx, user.ID, 3)
		require.NoError(t, err)
		_, err = env.subs.Cancel(ctx, user.ID, "")
		require.NoError(t, err)

		profile, err := NewProfileService(env.storage, "http://localhost:8080", env.log).PublicProfile(ctx, "ann")
		require.NoError(t, err)
		assert.True(t, profile.ShowPlatformBranding)
	})

	t.Run("past due business plan restores branding", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ann@example.com", "ann")
		sub, err := env.subs.ChangePlan(ctx, user.ID, 3)
		require.NoError(t, err)
		sub.Status = domain.SubscriptionStatusPastDue
		require.NoError(t, env.storage.UpsertSubscription(ctx, sub))

		profile, err := NewProfileService(env.storage, "http://localhost:8080", env.log).PublicProfile(ctx, "ann")
		require.NoError(t, err)
		assert.True(t, profile.ShowPlatformBranding)
	})

	t.Run("pro plan keeps branding", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ann@example.com", "ann")
		_, err := env.subs.ChangePlan(ctx, user.ID, 2)
		require.NoError(t, err)

		profile, err := NewProfileService(env.storage, "http://localhost:8080", env.log).PublicProfile(ctx, "ann")
		require.NoError(t, err)
		assert.True(t, profile.ShowPlatformBranding)
	})
}

func TestPublicReferrals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	_, err := newLinkService(env).Create(ctx, user.ID, LinkInput{Name: "a", URL: "https://a.example"})
	require.NoError(t, err)

	profiles := NewProfileService(env.storage, "http://localhost:8080", env.log)

	refs, err := profiles.PublicReferrals(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "ann", refs.Username)
	assert.Len(t, refs.Links, 1)
	assert.Equal(t, 0.0, refs.Stats.AverageClicks)

	_, err = profiles.PublicReferrals(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = profiles.PublicProfile(ctx, "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublicProfile_EmptyStats(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ann@example.com", "ann")

	profile, err := NewProfileService(env.storage, "http://localhost:8080", env.log).PublicProfile(context.Background(), "ann")
	require.NoError(t, err)
	assert.NotNil(t, profile.Links)
	assert.Empty(t, profile.Links)
	assert.Equal(t, ProfileStats{}, profile.Stats)
}

func TestRoundOneDecimal(t *testing.T) {
	assert.Equal(t, 1.3, roundOneDecimal(4.0/3.0))
	assert.Equal(t, 2.5, roundOneDecimal(2.45))
	assert.Equal(t, 0.7, roundOneDecimal(2.0/3.0))
}
