package memory

import (
	"RefStack-Backend/internal/domain"
	"RefStack-Backend/internal/repository"
	"context"
	"sort"
	"time"
)

func (s *MemStorage) ListUserLinks(_ context.Context, userID int64) ([]*domain.ReferralLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userLinks []*domain.ReferralLink
	for _, link := range s.links {
		if link.UserID == userID {
			c := *link
			userLinks = append(userLinks, &c)
		}
	}

	sort.Slice(userLinks, func(i, j int) bool {
		if !userLinks[i].CreatedAt.Equal(userLinks[j].CreatedAt) {
			return userLinks[i].CreatedAt.After(userLinks[j].CreatedAt)
		}
		return userLinks[i].ID > userLinks[j].ID
	})
	return userLinks, nil
}

func (s *MemStorage) GetLinkByID(_ context.Context, id int64) (*domain.ReferralLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.links[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *link
	return &c, nil
}

func (s *MemStorage) ResolveActiveLink(_ context.Context, code string) (*domain.ReferralLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, link := range s.links {
		if !link.IsActive {
			continue
		}
		if link.ShortCode == code || (link.CustomSlug != nil && *link.CustomSlug == code) {
			c := *link
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemStorage) ShortCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.codeTaken(code, 0), nil
}

func (s *MemStorage) CustomSlugTaken(_ context.Context, slug string, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codeTaken(slug, excludeID), nil
}

// codeTaken checks short codes and custom slugs together, as redirects resolve both.
func (s *MemStorage) codeTaken(code string, excludeID int64) bool {
	for id, link := range s.links {
		if id == excludeID {
			continue
		}
		if link.ShortCode == code || (link.CustomSlug != nil && *link.CustomSlug == code) {
			return true
		}
	}
	return false
}

func (s *MemStorage) CountActiveLinks(_ context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countActive(userID, 0), nil
}

func (s *MemStorage) countActive(userID, excludeID int64) int64 {
	var count int64
	for id, link := range s.links {
		if id != excludeID && link.UserID == userID && link.IsActive {
			count++
		}
	}
	return count
}

// CreateLink checks the quota and inserts under the write lock.
func (s *MemStorage) CreateLink(_ context.Context, link *domain.ReferralLink, maxLinks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[link.UserID]; !ok {
		return repository.ErrNotFound
	}
	if link.IsActive {
		if count := s.countActive(link.UserID, 0); count >= int64(maxLinks) {
			return &repository.QuotaExceededError{CurrentCount: count, MaxLinks: maxLinks}
		}
	}
	if link.CustomSlug != nil && s.codeTaken(*link.CustomSlug, 0) {
		return repository.ErrSlugTaken
	}
	if s.codeTaken(link.ShortCode, 0) {
		return repository.ErrShortCodeExists
	}

	now := time.Now()
	link.ID = s.nextID("links")
	link.CreatedAt, link.UpdatedAt = now, now
	c := *link
	s.links[link.ID] = &c
	return nil
}

func (s *MemStorage) UpdateLink(_ context.Context, link *domain.ReferralLink, maxLinks int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.links[link.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if link.IsActive && !current.IsActive {
		if count := s.countActive(link.UserID, link.ID); count >= int64(maxLinks) {
			return &repository.QuotaExceededError{CurrentCount: count, MaxLinks: maxLinks}
		}
	}
	if link.CustomSlug != nil && s.codeTaken(*link.CustomSlug, link.ID) {
		return repository.ErrSlugTaken
	}

	link.UpdatedAt = time.Now()
	c := *link
	s.links[link.ID] = &c
	return nil
}

func (s *MemStorage) DeleteLink(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.links[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.links, id)
	return nil
}

func (s *MemStorage) IncrementClickCount(_ context.Context, linkID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.links[linkID]
	if !ok {
		return repository.ErrNotFound
	}
	link.ClickCount++
	return nil
}

// --- Click Methods ---

func (s *MemStorage) CreateClick(_ context.Context, click *domain.Click) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	click.ID = s.nextID("clicks")
	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now()
	}
	c := *click
	s.clicks = append(s.clicks, &c)
	return nil
}

func (s *MemStorage) GetClickBreakdown(_ context.Context, linkID int64) (*repository.ClickBreakdown, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := &repository.ClickBreakdown{
		ByBrowser: make(map[string]int64),
		ByOS:      make(map[string]int64),
		ByDevice:  make(map[string]int64),
	}
	for _, click := range s.clicks {
		if click.LinkID != linkID {
			continue
		}
		b.Total++
		if click.IsBot {
			b.Bots++
		}
		b.ByBrowser[click.Browser]++
		b.ByOS[click.OS]++
		b.ByDevice[click.Device]++
	}
	return b, nil
}

// Clicks returns every stored click of a link.
func (s *MemStorage) Clicks(linkID int64) []domain.Click {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Click
	for _, click := range s.clicks {
		if click.LinkID == linkID {
			out = append(out, *click)
		}
	}
	return out
}
