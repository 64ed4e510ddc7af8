package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/pkg/useragent"
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uaChromeAndroid = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.144 Mobile Safari/537.36"

func newClickService(env *testEnv) *ClickService {
	return NewClickService(env.storage, useragent.NewDefault(env.log), env.log)
}

func TestRedirect_RecordsClick(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	link, err := newLinkService(env).Create(ctx, user.ID, LinkInput{Name: "Dropbox", URL: "https://db.tt/abc?x=1"})
	require.NoError(t, err)

	clicks := newClickService(env)
	res, err := clicks.Redirect(ctx, link.ShortCode, ClickInfo{
		IP:        "203.0.113.7",
		UserAgent: uaChromeAndroid,
		Referer:   strPtr("https://twitter.com"),
	})
	require.NoError(t, err)

	assert.Equal(t, "https://db.tt/abc?x=1", res.URL)
	assert.Equal(t, "ann", res.OwnerUsername)
	assert.Equal(t, link.ID, res.LinkID)

	recorded := env.storage.Clicks(link.ID)
	require.Len(t, recorded, 1)
	assert.Equal(t, "203.0.113.7", recorded[0].IP)
	assert.Equal(t, useragent.BrowserChrome, recorded[0].Browser)
	assert.Equal(t, useragent.OSAndroid, recorded[0].OS)
	assert.Equal(t, useragent.DeviceMobile, recorded[0].Device)
	assert.False(t, recorded[0].IsBot)
	require.NotNil(t, recorded[0].Referer)
	assert.Equal(t, "https://twitter.com", *recorded[0].Referer)

	stored, err := env.storage.GetLinkByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ClickCount)
}

func TestRedirect_ByCustomSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	link, err := newLinkService(env).Create(ctx, user.ID, LinkInput{Name: "a", URL: "https://a.example", CustomSlug: strPtr("promo")})
	require.NoError(t, err)

	res, err := newClickService(env).Redirect(ctx, "promo", ClickInfo{})
	require.NoError(t, err)
	assert.Equal(t, link.ID, res.LinkID)

	recorded := env.storage.Clicks(link.ID)
	require.Len(t, recorded, 1)
	assert.Equal(t, domain.UnknownIP, recorded[0].IP)
}

func TestRedirect_InactiveOrUnknown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	links := newLinkService(env)
	link, err := links.Create(ctx, user.ID, LinkInput{Name: "a", URL: "https://a.example"})
	require.NoError(t, err)
	_, err = links.Update(ctx, user.ID, link.ID, LinkPatch{IsActive: boolPtr(false)})
	require.NoError(t, err)

	clicks := newClickService(env)

	_, err = clicks.Redirect(ctx, link.ShortCode, ClickInfo{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = clicks.Redirect(ctx, "missing1", ClickInfo{})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, env.storage.Clicks(link.ID))
}

func TestLinkStats_Breakdown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	links := newLinkService(env)
	link, err := links.Create(ctx, user.ID, LinkInput{Name: "a", URL: "https://a.example"})
	require.NoError(t, err)

	clicks := newClickService(env)
	_, err = clicks.Redirect(ctx, link.ShortCode, ClickInfo{UserAgent: uaChromeAndroid})
	require.NoError(t, err)
	_, err = clicks.Redirect(ctx, link.ShortCode, ClickInfo{UserAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"})
	require.NoError(t, err)

	stats, err := links.Stats(ctx, user.ID, link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Clicks.Total)
	assert.Equal(t, int64(1), stats.Clicks.Bots)
	assert.Equal(t, int64(1), stats.Clicks.ByBrowser[useragent.BrowserChrome])
	assert.Equal(t, int64(2), stats.Link.ClickCount)
}

func TestRedirect_TruncatesLongClientFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	link, err := newLinkService(env).Create(ctx, user.ID, LinkInput{Name: "a", URL: "https://a.example"})
	require.NoError(t, err)

	referer := "https://search.example/?q=" + strings.Repeat("ж", 600)
	_, err = newClickService(env).Redirect(ctx, link.ShortCode, ClickInfo{
		IP:      strings.Repeat("1", 100),
		Referer: &referer,
	})
	require.NoError(t, err)

	recorded := env.storage.Clicks(link.ID)
	require.Len(t, recorded, 1)
	require.NotNil(t, recorded[0].Referer)
	assert.Equal(t, domain.MaxClickRefererLength, utf8.RuneCountInString(*recorded[0].Referer))
	assert.True(t, strings.HasPrefix(referer, *recorded[0].Referer))
	assert.Len(t, recorded[0].IP, domain.MaxClickIPLength)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "аб", truncate("абв", 2))
	assert.Equal(t, "", truncate("", 3))
}
