package service

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	entityCustomDomain = "custom_domain"
	// VerificationPrefix is the DNS label holding the TXT verification record.
	VerificationPrefix = "_refstack."
)

var hostnamePattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)

// Resolver looks up TXT records. *net.Resolver satisfies it.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

type DomainService struct {
	storage  repository.Storage
	resolver Resolver
	audit    auditor
	log      *zap.Logger
}

func NewDomainService(storage repository.Storage, resolver Resolver, log *zap.Logger) *DomainService {
	return &DomainService{
		storage:  storage,
		resolver: resolver,
		audit:    auditor{storage: storage, log: log},
		log:      log,
	}
}

// NormalizeDomain lowercases the host and strips a scheme, path and trailing dot.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return strings.TrimSuffix(d, ".")
}

func (s *DomainService) Add(ctx context.Context, userID int64, raw string) (*domain.CustomDomain, error) {
	name := NormalizeDomain(raw)
	if name == "" {
		return nil, invalid("domain", "domain is required")
	}
	if len(name) > 253 || !hostnamePattern.MatchString(name) {
		return nil, invalid("domain", "invalid hostname")
	}

	d := &domain.CustomDomain{
		UserID:            userID,
		Domain:            name,
		Status:            domain.CustomDomainPending,
		VerificationToken: uuid.NewString(),
	}
	if err := s.storage.CreateCustomDomain(ctx, d); err != nil {
		return nil, err
	}

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionCreate, entityCustomDomain, strconv.FormatInt(d.ID, 10), map[string]any{
		"domain": d.Domain,
	})
	return d, nil
}

func (s *DomainService) List(ctx context.Context, userID int64) ([]*domain.CustomDomain, error) {
	return s.storage.ListCustomDomains(ctx, userID)
}

// Verify looks for the verification token in the domain's TXT records.
// A failed lookup moves the domain to error and is not returned as an error.
func (s *DomainService) Verify(ctx context.Context, userID, id int64) (*domain.CustomDomain, error) {
	d, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	lookupErr := s.lookupToken(ctx, d)
	if lookupErr != nil {
		msg := lookupErr.Error()
		d.DNSVerified = false
		d.Status = domain.CustomDomainError
		d.LastError = &msg
		s.log.Info("custom domain verification failed",
			zap.Int64("domain_id", d.ID),
			zap.String("domain", d.Domain),
			zap.Error(lookupErr))
	} else {
		d.DNSVerified = true
		d.LastError = nil
	}
	d.RefreshStatus()

	if err := s.storage.UpdateCustomDomain(ctx, d); err != nil {
		return nil, err
	}

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionUpdate, entityCustomDomain, strconv.FormatInt(d.ID, 10), map[string]any{
		"dnsVerified": d.DNSVerified,
		"status":      string(d.Status),
	})
	return d, nil
}

func (s *DomainService) lookupToken(ctx context.Context, d *domain.CustomDomain) error {
	records, err := s.resolver.LookupTXT(ctx, VerificationPrefix+d.Domain)
	if err != nil {
		return fmt.Errorf("dns lookup failed: %w", err)
	}
	for _, r := range records {
		if strings.TrimSpace(r) == d.VerificationToken {
			return nil
		}
	}
	return ErrDomainTokenNotPresent
}

// MarkSSLProvisioned records an issued certificate for the domain.
func (s *DomainService) MarkSSLProvisioned(ctx context.Context, userID, id int64) (*domain.CustomDomain, error) {
	d, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	d.SSLProvisioned = true
	d.RefreshStatus()
	if err := s.storage.UpdateCustomDomain(ctx, d); err != nil {
		return nil, err
	}

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionUpdate, entityCustomDomain, strconv.FormatInt(d.ID, 10), map[string]any{
		"sslProvisioned": true,
		"status":         string(d.Status),
	})
	return d, nil
}

func (s *DomainService) Delete(ctx context.Context, userID, id int64) error {
	d, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteCustomDomain(ctx, d.ID); err != nil {
		return err
	}

	s.audit.record(ctx, int64Ptr(userID), domain.AuditActionDelete, entityCustomDomain, strconv.FormatInt(d.ID, 10), map[string]any{
		"domain": d.Domain,
	})
	return nil
}

func (s *DomainService) owned(ctx context.Context, userID, id int64) (*domain.CustomDomain, error) {
	d, err := s.storage.GetCustomDomain(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, ErrNotFound
	}
	return d, nil
}
