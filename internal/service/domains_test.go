package service

import (
	"RefStack-Backend/internal/domain"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestNormalizeDomain(t *testing.T) {
	tests := map[string]string{
		"Links.Example.COM":              "links.example.com",
		"https://links.example.com/path": "links.example.com",
		"http://links.example.com?x=1":   "links.example.com",
		"  links.example.com.  ":         "links.example.com",
		"links.example.com#anchor":       "links.example.com",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeDomain(in), in)
	}
}

func TestDomainAdd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	svc := NewDomainService(env.storage, new(MockResolver), env.log)

	d, err := svc.Add(ctx, user.ID, "https://Links.Example.com/")
	require.NoError(t, err)
	assert.Equal(t, "links.example.com", d.Domain)
	assert.Equal(t, domain.CustomDomainPending, d.Status)
	assert.NotEmpty(t, d.VerificationToken)
	assert.False(t, d.DNSVerified)

	_, err = svc.Add(ctx, user.ID, "links.example.com")
	assert.ErrorIs(t, err, ErrDomainExists)

	for _, bad := range []string{"", "localhost", "-bad.example.com", "under_score.example.com"} {
		_, err := svc.Add(ctx, user.ID, bad)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, bad)
	}
}

func TestDomainVerify_ThenSSL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ann@example.com", "ann")
	resolver := new(MockResolver)
	svc := NewDomainService(env.storage, resolver, env.log)

	d, err := svc.Add(ctx, user.ID, "links.example.com")
	require.NoError(t, err)
	resolver.On("LookupTXT", mock.Anything, "_refstack.links.example.com").
		Return([]string{"unrelated", " " + d.VerificationToken + " "}, nil)

	verified, err := svc.Verify(ctx, user.ID, d.ID)
	require.NoError(t, err)
	assert.True(t, verified.DNSVerified)
	assert.Equal(t, domain.CustomDomainPending, verified.Status)

	active, err := svc.MarkSSLProvisioned(ctx, user.ID, d.ID)
	require.NoError(t, err)
	assert.True(t, active.SSLProvisioned)
	assert.Equal(t, domain.CustomDomainActive, active.Status)
	resolver.AssertExpectations(t)
}

func TestDomainVerify_Failures(t *testing.T) {
	tests := []struct {
		name    string
		records []string
		err     error
	}{
		{"token missing", []string{"something-else"}, nil},
		{"lookup error", nil, errors.New("no such host")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			user := env.createUser(t, "ann@example.com", "ann")
			resolver := new(MockResolver)
			resolver.On("LookupTXT", mock.Anything, "_refstack.links.example.com").Return(tt.records, tt.err)
			svc := NewDomainService(env.storage, resolver, env.log)

			d, err := svc.Add(ctx, user.ID, "links.example.com")
			require.NoError(t, err)

			got, err := svc.Verify(ctx, user.ID, d.ID)
			require.NoError(t, err)
			assert.False(t, got.DNSVerified)
			assert.Equal(t, domain.CustomDomainError, got.Status)
			require.NotNil(t, got.LastError)

			// ssl alone does not clear the error
			got, err = svc.MarkSSLProvisioned(ctx, user.ID, d.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.CustomDomainError, got.Status)
		})
	}
}

func TestDomainOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ann := env.createUser(t, "ann@example.com", "ann")
	bob := env.createUser(t, "bob@example.com", "bob")
	svc := NewDomainService(env.storage, new(MockResolver), env.log)

	d, err := svc.Add(ctx, ann.ID, "links.example.com")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, bob.ID, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.MarkSSLProvisioned(ctx, bob.ID, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, bob.ID, d.ID), ErrNotFound)

	list, err := svc.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.Delete(ctx, ann.ID, d.ID))
	list, err = svc.List(ctx, ann.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
