package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// PublicLink is a referral link as shown on a public page.
type PublicLink struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	RedirectURL  string  `json:"redirectUrl"`
	ShortCode    string  `json:"shortCode"`
	CustomSlug   *string `json:"customSlug,omitempty"`
	Description  *string `json:"description,omitempty"`
	CustomColor  *string `json:"customColor,omitempty"`
	CustomLogo   *string `json:"customLogo,omitempty"`
	DisplayOrder int     `json:"displayOrder"`
	ClickCount   int64   `json:"clickCount"`
	Conversions  int64   `json:"conversionCount"`
}

// ProfileStats summarises the public links of one user.
type ProfileStats struct {
	TotalClicks      int64   `json:"totalClicks"`
	TotalConversions int64   `json:"totalConversions"`
	LinkCount        int     `json:"linkCount"`
	AverageClicks    float64 `json:"averageClicks"`
}

// PublicProfile is the anonymous view of a user's referral stack.
type PublicProfile struct {
	Username             string         `json:"username"`
	DisplayName          string         `json:"displayName"`
	Bio                  *string        `json:"bio,omitempty"`
	AvatarURL            *string        `json:"avatarUrl,omitempty"`
	Socials              datatypes.JSON `json:"socials,omitempty"`
	Theme                datatypes.JSON `json:"theme,omitempty"`
	Branding             datatypes.JSON `json:"branding,omitempty"`
	ShowPlatformBranding bool           `json:"showPlatformBranding"`
	Links                []PublicLink   `json:"links"`
	Stats                ProfileStats   `json:"stats"`
}

// PublicReferrals is the link list without profile fields.
type PublicReferrals struct {
	Username string       `json:"username"`
	Links    []PublicLink `json:"links"`
	Stats    ProfileStats `json:"stats"`
}

type ProfileService struct {
	storage repository.Storage
	baseURL string
	log     *zap.Logger
}

func NewProfileService(storage repository.Storage, baseURL string, log *zap.Logger) *ProfileService {
	return &ProfileService{
		storage: storage,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

func (s *ProfileService) PublicProfile(ctx context.Context, username string) (*PublicProfile, error) {
	user, links, err := s.load(ctx, username)
	if err != nil {
		return nil, err
	}

	whiteLabel, err := s.isWhiteLabel(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &PublicProfile{
		Username:             user.Username,
		DisplayName:          user.PublicName(),
		Bio:                  user.Bio,
		AvatarURL:            user.AvatarURL,
		Socials:              user.Socials,
		Theme:                user.Theme,
		Branding:             user.Branding,
		ShowPlatformBranding: !whiteLabel,
		Links:                links,
		Stats:                computeStats(links),
	}, nil
}

func (s *ProfileService) PublicReferrals(ctx context.Context, username string) (*PublicReferrals, error) {
	user, links, err := s.load(ctx, username)
	if err != nil {
		return nil, err
	}
	return &PublicReferrals{
		Username: user.Username,
		Links:    links,
		Stats:    computeStats(links),
	}, nil
}

func (s *ProfileService) load(ctx context.Context, username string) (*domain.User, []PublicLink, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil, ErrNotFound
	}

	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	all, err := s.storage.ListUserLinks(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	visible := make([]*domain.ReferralLink, 0, len(all))
	for _, l := range all {
		if l.IsActive && l.IsPublic {
			visible = append(visible, l)
		}
	}

	// creation order first, then display_order keeps ties in creation order
	sort.Slice(visible, func(i, j int) bool {
		if !visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].CreatedAt.Before(visible[j].CreatedAt)
		}
		return visible[i].ID < visible[j].ID
	})
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].DisplayOrder < visible[j].DisplayOrder
	})

	links := make([]PublicLink, 0, len(visible))
	for _, l := range visible {
		links = append(links, s.publicLink(l))
	}
	return user, links, nil
}

func (s *ProfileService) publicLink(l *domain.ReferralLink) PublicLink {
	code := l.ShortCode
	if slug := l.Slug(); slug != "" {
		code = slug
	}
	return PublicLink{
		ID:           l.ID,
		Name:         l.Name,
		URL:          l.URL,
		RedirectURL:  s.baseURL + "/r/" + code,
		ShortCode:    l.ShortCode,
		CustomSlug:   l.CustomSlug,
		Description:  l.Description,
		CustomColor:  l.CustomColor,
		CustomLogo:   l.CustomLogo,
		DisplayOrder: l.DisplayOrder,
		ClickCount:   l.ClickCount,
		Conversions:  l.ConversionCount,
	}
}

// isWhiteLabel reports an active white_label addon or an ACTIVE subscription whose plan carries the feature.
func (s *ProfileService) isWhiteLabel(ctx context.Context, userID int64) (bool, error) {
	addons, err := s.storage.ListUserAddons(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, ua := range addons {
		if ua.IsActive && ua.Addon != nil && ua.Addon.Key == domain.AddonWhiteLabel {
			return true, nil
		}
	}

	sub, err := s.storage.GetSubscriptionByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	// отмененная или просроченная подписка функций плана не дает
	if sub.Status != domain.SubscriptionStatusActive {
		return false, nil
	}
	return sub.HasFeature(domain.FeatureWhiteLabel), nil
}

func computeStats(links []PublicLink) ProfileStats {
	stats := ProfileStats{LinkCount: len(links)}
	for _, l := range links {
		stats.TotalClicks += l.ClickCount
		stats.TotalConversions += l.Conversions
	}
	if stats.LinkCount > 0 {
		stats.AverageClicks = roundOneDecimal(float64(stats.TotalClicks) / float64(stats.LinkCount))
	}
	return stats
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
