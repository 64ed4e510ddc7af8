package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	entityReferralLink = "referral_link"
	maxCodeAttempts    = 3
)

// LimitInfo describes how many more links the user may create.
type LimitInfo struct {
	CanCreate    bool  `json:"canCreate"`
	CurrentCount int64 `json:"currentCount"`
	MaxLinks     int   `json:"maxLinks"`
}

// LinkInput is the payload for creating a link.
type LinkInput struct {
	Name         string
	URL          string
	CustomSlug   *string
	Description  *string
	CustomColor  *string
	CustomLogo   *string
	IsPublic     *bool
	DisplayOrder *int
}

// LinkPatch carries the fields to change. Nil fields are left untouched and an
// empty CustomSlug clears the slug.
type LinkPatch struct {
	Name         *string
	URL          *string
	CustomSlug   *string
	Description  *string
	CustomColor  *string
	CustomLogo   *string
	IsActive     *bool
	IsPublic     *bool
	DisplayOrder *int
}

// LinkStats is the per-link click breakdown.
type LinkStats struct {
	Link   *domain.ReferralLink       `json:"link"`
	Clicks *repository.ClickBreakdown `json:"clicks"`
}

// LinkService manages the referral links of a user.
type LinkService struct {
	storage         repository.Storage
	allocator       *CodeAllocator
	defaultMaxLinks int
	audit           auditor
	log             *zap.Logger
}

func NewLinkService(storage repository.Storage, allocator *CodeAllocator, defaultMaxLinks int, log *zap.Logger) *LinkService {
	if defaultMaxLinks <= 0 {
		defaultMaxLinks = domain.DefaultMaxLinks
	}
	return &LinkService{
		storage:         storage,
		allocator:       allocator,
		defaultMaxLinks: defaultMaxLinks,
		audit:           auditor{storage: storage, log: log},
		log:             log,
	}
}

// List returns the user's links newest first together with the quota state.
func (s *LinkService) List(ctx context.Context, userID int64) ([]*domain.ReferralLink, LimitInfo, error) {
	links, err := s.storage.ListUserLinks(ctx, userID)
	if err != nil {
		return nil, LimitInfo{}, err
	}

	maxLinks, err := s.maxLinks(ctx, userID)
	if err != nil {
		return nil, LimitInfo{}, err
	}

	// та же выборка, что проверяет лимит при создании
	active, err := s.storage.CountActiveLinks(ctx, userID)
	if err != nil {
		return nil, LimitInfo{}, err
	}

	return links, LimitInfo{
		CanCreate:    active < int64(maxLinks),
		CurrentCount: active,
		MaxLinks:     maxLinks,
	}, nil
}

// Create validates the input, allocates a short code and stores the link under the quota.
func (s *LinkService) Create(ctx context.Context, userID int64, in LinkInput) (*domain.ReferralLink, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	target, err := validateTargetURL(in.URL)
	if err != nil {
		return nil, err
	}

	link := &domain.ReferralLink{
		UserID:      userID,
		Name:        name,
		URL:         target,
		Description: trimmed(in.Description),
		CustomColor: trimmed(in.CustomColor),
		CustomLogo:  trimmed(in.CustomLogo),
		IsActive:    true,
		IsPublic:    true,
	}
	if in.IsPublic != nil {
		link.IsPublic = *in.IsPublic
	}
	if in.DisplayOrder != nil {
		link.DisplayOrder = *in.DisplayOrder
	}

	if slug := trimmed(in.CustomSlug); slug != nil {
		if err := ValidateCustomSlug(*slug); err != nil {
			return nil, err
		}
		if err := s.allocator.EnsureSlugAvailable(ctx, *slug, 0); err != nil {
			return nil, err
		}
		link.CustomSlug = slug
	}

	maxLinks, err := s.maxLinks(ctx, userID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		link.ShortCode, err = s.allocator.GenerateUniqueShortCode(ctx)
		if err != nil {
			return nil, err
		}

		err = s.storage.CreateLink(ctx, link, maxLinks)
		if errors.Is(err, repository.ErrShortCodeExists) && attempt < maxCodeAttempts {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionCreate, entityReferralLink, strconv.FormatInt(link.ID, 10), map[string]any{
		"name":      link.Name,
		"url":       link.URL,
		"shortCode": link.ShortCode,
		"slug":      link.Slug(),
	})

	s.log.Info("referral link created",
		zap.Int64("user_id", userID),
		zap.Int64("link_id", link.ID),
		zap.String("short_code", link.ShortCode))

	return link, nil
}

// Update applies a patch to a link owned by the user.
func (s *LinkService) Update(ctx context.Context, userID, id int64, patch LinkPatch) (*domain.ReferralLink, error) {
	link, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]any{}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, invalid("name", "name is required")
		}
		link.Name = name
		changed["name"] = name
	}
	if patch.URL != nil {
		target, err := validateTargetURL(*patch.URL)
		if err != nil {
			return nil, err
		}
		link.URL = target
		changed["url"] = target
	}
	if patch.CustomSlug != nil {
		slug := trimmed(patch.CustomSlug)
		if slug != nil {
			if err := ValidateCustomSlug(*slug); err != nil {
				return nil, err
			}
			if err := s.allocator.EnsureSlugAvailable(ctx, *slug, link.ID); err != nil {
				return nil, err
			}
		}
		link.CustomSlug = slug
		changed["slug"] = link.Slug()
	}
	if patch.Description != nil {
		link.Description = trimmed(patch.Description)
		changed["description"] = true
	}
	if patch.CustomColor != nil {
		link.CustomColor = trimmed(patch.CustomColor)
		changed["customColor"] = true
	}
	if patch.CustomLogo != nil {
		link.CustomLogo = trimmed(patch.CustomLogo)
		changed["customLogo"] = true
	}
	if patch.IsActive != nil {
		link.IsActive = *patch.IsActive
		changed["active"] = link.IsActive
	}
	if patch.IsPublic != nil {
		link.IsPublic = *patch.IsPublic
		changed["isPublic"] = link.IsPublic
	}
	if patch.DisplayOrder != nil {
		link.DisplayOrder = *patch.DisplayOrder
		changed["displayOrder"] = link.DisplayOrder
	}

	maxLinks, err := s.maxLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.storage.UpdateLink(ctx, link, maxLinks); err != nil {
		return nil, err
	}

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionUpdate, entityReferralLink, strconv.FormatInt(link.ID, 10), changed)
	return link, nil
}

// Delete removes a link owned by the user. Its clicks stay in storage.
func (s *LinkService) Delete(ctx context.Context, userID, id int64) error {
	link, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteLink(ctx, link.ID); err != nil {
		return err
	}

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionDelete, entityReferralLink, strconv.FormatInt(link.ID, 10), map[string]any{
		"name":       link.Name,
		"shortCode":  link.ShortCode,
		"clickCount": link.ClickCount,
	})

	s.log.Info("referral link deleted", zap.Int64("user_id", userID), zap.Int64("link_id", link.ID))
	return nil
}

// Stats returns the click breakdown of a link owned by the user.
func (s *LinkService) Stats(ctx context.Context, userID, id int64) (*LinkStats, error) {
	link, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.storage.GetClickBreakdown(ctx, link.ID)
	if err != nil {
		return nil, err
	}

	return &LinkStats{Link: link, Clicks: breakdown}, nil
}

func (s *LinkService) owned(ctx context.Context, userID, id int64) (*domain.ReferralLink, error) {
	link, err := s.storage.GetLinkByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.UserID != userID {
		return nil, ErrNotFound
	}
	return link, nil
}

// maxLinks is the subscription limit, or the default when the user has none.
func (s *LinkService) maxLinks(ctx context.Context, userID int64) (int, error) {
	sub, err := s.storage.GetSubscriptionByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.defaultMaxLinks, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load subscription: %w", err)
	}
	if sub.MaxLinks <= 0 {
		return s.defaultMaxLinks, nil
	}
	return sub.MaxLinks, nil
}

func validateTargetURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("url", "url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", invalid("url", "url must be an absolute http or https URL")
	}
	return raw, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
