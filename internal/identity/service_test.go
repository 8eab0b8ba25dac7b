// Copyright 2026 The EdgeGate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edgegate/edgegate/internal/audit"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, p *Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Principal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Principal), args.Error(1)
}

func (m *mockRepo) GetByEmail(ctx context.Context, email string) (*Principal, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Principal), args.Error(1)
}

// Small parameters keep the test fast; production values live in config.
func testHasher() *PasswordHasher {
	return NewPasswordHasher(8*1024, 1, 1, 16, 32)
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := testHasher()

	encoded, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, encoded, "$argon2id$")

	ok, err := h.Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_StoredParamsWin(t *testing.T) {
	encoded, err := testHasher().Hash("pw")
	require.NoError(t, err)

	// A hasher configured with different parameters still verifies hashes
	// minted under the old ones.
	upgraded := NewPasswordHasher(16*1024, 2, 2, 16, 32)
	ok, err := upgraded.Verify("pw", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_RejectsMalformedHash(t *testing.T) {
	h := testHasher()

	_, err := h.Verify("pw", "not-a-hash")
	assert.Error(t, err)

	_, err = h.Verify("pw", "$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA")
	assert.Error(t, err)
}

func TestService_Authenticate(t *testing.T) {
	repo := new(mockRepo)
	h := testHasher()
	svc := NewService(repo, h, audit.NewSlogLogger())

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	stored := &Principal{ID: "p1", Email: "ada@example.com", PasswordHash: hash}

	repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(stored, nil)

	p, err := svc.Authenticate(context.Background(), "  Ada@Example.COM  ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	_, err = svc.Authenticate(context.Background(), "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

// A missing account and a wrong password are indistinguishable to callers.
func TestService_AuthenticateUnknownEmail(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, testHasher(), audit.NewSlogLogger())

	repo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, ErrPrincipalNotFound)

	_, err := svc.Authenticate(context.Background(), "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestService_Provision(t *testing.T) {
	repo := new(mockRepo)
	h := testHasher()
	svc := NewService(repo, h, audit.NewSlogLogger())

	repo.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, ErrPrincipalNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*identity.Principal")).Return(nil)

	p, err := svc.Provision(context.Background(), "New@Example.com", "s3cret", true)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "new@example.com", p.Email)
	assert.True(t, p.IsOperator)

	ok, err := h.Verify("s3cret", p.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestService_ProvisionExisting(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, testHasher(), audit.NewSlogLogger())

	repo.On("GetByEmail", mock.Anything, "ada@example.com").Return(&Principal{ID: "p1"}, nil)

	_, err := svc.Provision(context.Background(), "ada@example.com", "pw", false)
	assert.ErrorIs(t, err, ErrPrincipalExists)
}
