package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"RefStack-Backend/pkg/useragent"
	"context"
	"strconv"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ClickInfo is what the transport layer knows about a visitor.
type ClickInfo struct {
	IP        string
	UserAgent string
	Referer   *string
}

// Redirect is the outcome of resolving a code.
type Redirect struct {
	LinkID        int64
	URL           string
	OwnerUsername string
}

// ClickService resolves codes and records clicks.
type ClickService struct {
	storage repository.Storage
	parser  *useragent.Parser
	audit   auditor
	log     *zap.Logger
}

func NewClickService(storage repository.Storage, parser *useragent.Parser, log *zap.Logger) *ClickService {
	return &ClickService{
		storage: storage,
		parser:  parser,
		audit:   auditor{storage: storage, log: log},
		log:     log,
	}
}

// Redirect resolves a short code or custom slug of an active link and records
// the click. Recording is best-effort: failures are logged and the redirect proceeds.
func (s *ClickService) Redirect(ctx context.Context, code string, info ClickInfo) (*Redirect, error) {
	link, err := s.storage.ResolveActiveLink(ctx, code)
	if err != nil {
		return nil, err
	}

	s.track(ctx, link, info)

	result := &Redirect{LinkID: link.ID, URL: link.URL}
	if owner, err := s.storage.GetUserByID(ctx, link.UserID); err == nil {
		result.OwnerUsername = owner.Username
	} else {
		s.log.Debug("link owner lookup failed", zap.Int64("user_id", link.UserID), zap.Error(err))
	}

	return result, nil
}

func (s *ClickService) track(ctx context.Context, link *domain.ReferralLink, info ClickInfo) {
	ip := truncate(info.IP, domain.MaxClickIPLength)
	if ip == "" {
		ip = domain.UnknownIP
	}
	var referer *string
	if info.Referer != nil {
		r := truncate(*info.Referer, domain.MaxClickRefererLength)
		referer = &r
	}
	class := s.parser.Classify(info.UserAgent)

	click := &domain.Click{
		LinkID:    link.ID,
		IP:        ip,
		UserAgent: info.UserAgent,
		Browser:   class.Browser,
		OS:        class.OS,
		Device:    class.Device,
		Referer:   referer,
		IsBot:     class.IsBot,
	}
	if err := s.storage.CreateClick(ctx, click); err != nil {
		s.log.Error("failed to record click", zap.Int64("link_id", link.ID), zap.Error(err))
	}

	if err := s.storage.IncrementClickCount(ctx, link.ID); err != nil {
		s.log.Error("failed to increment click count", zap.Int64("link_id", link.ID), zap.Error(err))
	}

	s.audit.record(ctx, nil, domain.AuditActionClick, entityReferralLink, strconv.FormatInt(link.ID, 10), map[string]any{
		"ip":      ip,
		"browser": class.Browser,
		"os":      class.OS,
		"device":  class.Device,
		"isBot":   class.IsBot,
	})
}

// truncate cuts s to at most n runes; varchar limits count characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
