package service

import (
	"RefStack-Backend/internal/domain"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(codes ...string) CodeGenerator {
	i := 0
	return func(int) (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestGenerateUniqueShortCode_SkipsTakenCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")

	taken := &domain.ReferralLink{UserID: user.ID, Name: "a", URL: "https://a.example", ShortCode: "AAAA0000", IsActive: true}
	require.NoError(t, env.storage.CreateLink(ctx, taken, 5))

	alloc := NewCodeAllocator(env.storage, 8).WithGenerator(sequence("AAAA0000", "BBBB1111"))

	code, err := alloc.GenerateUniqueShortCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BBBB1111", code)
}

func TestGenerateUniqueShortCode_StopsOnCancelledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCodeAllocator(env.storage, 8).GenerateUniqueShortCode(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateUniqueShortCode_GeneratorError(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("entropy exhausted")

	alloc := NewCodeAllocator(env.storage, 8).WithGenerator(func(int) (string, error) { return "", boom })

	_, err := alloc.GenerateUniqueShortCode(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNewCodeAllocator_DefaultLength(t *testing.T) {
	env := newTestEnv(t)

	code, err := NewCodeAllocator(env.storage, 0).GenerateUniqueShortCode(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, DefaultShortCodeLength)
}

func TestValidateCustomSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"my-dropbox", true},
		{"Promo_2024", true},
		{"a", true},
		{"has space", false},
		{"slash/path", false},
		{"emoji🙂", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateCustomSlug(tt.slug)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}
