package service

import (
	"RefStack-Backend/internal/repository"
	"RefStack-Backend/pkg/random"
	"context"
	"fmt"
	"regexp"
)

const DefaultShortCodeLength = 8

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// CodeGenerator produces candidate short codes.
type CodeGenerator func(length int) (string, error)

// CodeAllocator hands out unused short codes and checks custom slugs.
type CodeAllocator struct {
	storage  repository.Storage
	generate CodeGenerator
	length   int
}

func NewCodeAllocator(storage repository.Storage, length int) *CodeAllocator {
	if length <= 0 {
		length = DefaultShortCodeLength
	}
	return &CodeAllocator{
		storage:  storage,
		generate: random.NewRandomString,
		length:   length,
	}
}

// WithGenerator replaces the random source.
func (a *CodeAllocator) WithGenerator(g CodeGenerator) *CodeAllocator {
	a.generate = g
	return a
}

// GenerateUniqueShortCode draws codes until one is unused. Only ctx bounds the loop.
func (a *CodeAllocator) GenerateUniqueShortCode(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		code, err := a.generate(a.length)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		exists, err := a.storage.ShortCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check short code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
}

// ValidateCustomSlug accepts letters, digits, underscores and hyphens.
func ValidateCustomSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return invalid("customSlug", "may only contain letters, numbers, underscores and hyphens")
	}
	return nil
}

// EnsureSlugAvailable fails with ErrSlugTaken when another link uses the slug.
func (a *CodeAllocator) EnsureSlugAvailable(ctx context.Context, slug string, excludeID int64) error {
	taken, err := a.storage.CustomSlugTaken(ctx, slug, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		return ErrSlugTaken
	}
	return nil
}
