package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	svc := NewPasswordServiceWithCost(bcrypt.MinCost)

	hash, err := svc.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, svc.VerifyPassword(hash, "correct horse"))
	assert.ErrorIs(t, svc.VerifyPassword(hash, "wrong horse"), ErrInvalidPassword)
	assert.ErrorIs(t, svc.VerifyPassword("not-a-hash", "correct horse"), ErrInvalidPassword)
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("short"), ErrPasswordTooShort)
	assert.NoError(t, ValidatePassword("12345678"))
	// восемь рун, но больше восьми байт
	assert.NoError(t, ValidatePassword("пароль12"))
	assert.NoError(t, ValidatePassword(strings.Repeat("a", 72)))
	assert.ErrorIs(t, ValidatePassword(strings.Repeat("a", 73)), ErrPasswordTooLong)

	_, err := NewPasswordServiceWithCost(bcrypt.MinCost).HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
