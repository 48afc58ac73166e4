package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tech-arch1tect/authcore/services/account"
	"github.com/tech-arch1tect/authcore/services/refreshtoken"
	"github.com/tech-arch1tect/authcore/testutils"
)

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) LookupByIdentifier(ctx context.Context, identifier string) (*account.Credential, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Credential), args.Error(1)
}

func (m *MockCredentialStore) GetByID(ctx context.Context, id uint) (*account.Credential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Credential), args.Error(1)
}

func (m *MockCredentialStore) UpdatePasswordHash(ctx context.Context, id uint, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockCredentialStore) ReplaceDigest(ctx context.Context, id uint, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, digest string) (bool, error) {
	args := m.Called(password, digest)
	return args.Bool(0), args.Error(1)
}

func (m *MockPasswordHasher) DummyVerify(password string) {
	m.Called(password)
}

func (m *MockPasswordHasher) NeedsRehash(digest string) bool {
	args := m.Called(digest)
	return args.Bool(0)
}

func (m *MockPasswordHasher) ValidatePolicy(password string) error {
	args := m.Called(password)
	return args.Error(0)
}

type MockLockoutPolicy struct {
	mock.Mock
}

func (m *MockLockoutPolicy) RecordFailure(ctx context.Context, cred *account.Credential) (bool, error) {
	args := m.Called(ctx, cred)
	return args.Bool(0), args.Error(1)
}

func (m *MockLockoutPolicy) RecordSuccess(ctx context.Context, cred *account.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockLockoutPolicy) Remaining(cred *account.Credential) time.Duration {
	args := m.Called(cred)
	return args.Get(0).(time.Duration)
}

func TestService_Login_StoreFailures(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("database is closed")

	t.Run("lookup failure", func(t *testing.T) {
		accounts := new(MockCredentialStore)
		accounts.On("LookupByIdentifier", ctx, "user@hackhub.io").Return(nil, dbErr)

		service := NewService(Dependencies{Accounts: accounts})

		_, err := service.Login(ctx, "user@hackhub.io", "Password123", refreshtoken.DeviceInfo{})
		testutils.AssertErrorType(t, ErrStoreUnavailable, err)
		assert.ErrorIs(t, err, dbErr)
		accounts.AssertExpectations(t)
	})

	t.Run("unknown identifier still verifies a dummy digest", func(t *testing.T) {
		accounts := new(MockCredentialStore)
		accounts.On("LookupByIdentifier", ctx, "ghost@hackhub.io").Return(nil, account.ErrNotFound)
		passwords := new(MockPasswordHasher)
		passwords.On("DummyVerify", "Password123").Return()

		service := NewService(Dependencies{Accounts: accounts, Passwords: passwords})

		_, err := service.Login(ctx, "ghost@hackhub.io", "Password123", refreshtoken.DeviceInfo{})
		testutils.AssertErrorType(t, ErrInvalidCredentials, err)
		passwords.AssertExpectations(t)
	})

	t.Run("failure counter unavailable", func(t *testing.T) {
		cred := &account.Credential{ID: 3, PasswordHash: "digest"}
		accounts := new(MockCredentialStore)
		accounts.On("LookupByIdentifier", ctx, "user@hackhub.io").Return(cred, nil)
		passwords := new(MockPasswordHasher)
		passwords.On("Verify", "Wrong1234", "digest").Return(false, nil)
		policy := new(MockLockoutPolicy)
		policy.On("Remaining", cred).Return(time.Duration(0))
		policy.On("RecordFailure", ctx, cred).Return(false, dbErr)

		service := NewService(Dependencies{Accounts: accounts, Passwords: passwords, Lockout: policy})

		_, err := service.Login(ctx, "user@hackhub.io", "Wrong1234", refreshtoken.DeviceInfo{})
		testutils.AssertErrorType(t, ErrStoreUnavailable, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
		policy.AssertExpectations(t)
	})
}

func TestService_ChangePassword_RejectsWeakPasswordBeforeHashing(t *testing.T) {
	ctx := context.Background()
	weak := errors.New("too weak")

	cred := &account.Credential{ID: 3, PasswordHash: "digest"}
	accounts := new(MockCredentialStore)
	accounts.On("GetByID", ctx, uint(3)).Return(cred, nil)
	passwords := new(MockPasswordHasher)
	passwords.On("Verify", "Password123", "digest").Return(true, nil)
	passwords.On("ValidatePolicy", "short").Return(weak)

	service := NewService(Dependencies{Accounts: accounts, Passwords: passwords})

	err := service.ChangePassword(ctx, 3, "Password123", "short")
	assert.ErrorIs(t, err, weak)
	passwords.AssertNotCalled(t, "Hash", mock.Anything)
	accounts.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything)
}
