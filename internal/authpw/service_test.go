package authpw

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"willvault/api/internal/store"
)

// mockUserStore is a mock implementation of UserStore for testing
type mockUserStore struct {
	users map[string]store.User
	err   error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]store.User)}
}

func (m *mockUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	if m.err != nil {
		return store.User{}, m.err
	}
	user, ok := m.users[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *mockUserStore) CreateUser(_ context.Context, user store.User) (store.User, error) {
	if _, ok := m.users[user.Email]; ok {
		return store.User{}, store.ErrEmailTaken
	}
	user.ID = "user-" + user.Email
	m.users[user.Email] = user
	return user, nil
}

func newTestService(m *mockUserStore) *Service {
	return NewService(m).WithCost(bcrypt.MinCost)
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockUserStore()
	svc := newTestService(mockStore)

	t.Run("successful sign up", func(t *testing.T) {
		user, err := svc.SignUp(ctx, SignUpRequest{Email: " Test@Example.com", Password: "password123", DisplayName: "Test User"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID == "" {
			t.Error("expected ID to be set")
		}
		if user.Email != "test@example.com" {
			t.Errorf("expected normalised email, got %q", user.Email)
		}
		if user.PasswordHash == "password123" {
			t.Error("password stored in clear")
		}
	})

	cases := []struct {
		name string
		req  SignUpRequest
		want error
	}{
		{"duplicate email", SignUpRequest{Email: "test@example.com", Password: "password123"}, ErrEmailTaken},
		{"short password", SignUpRequest{Email: "test2@example.com", Password: "short"}, ErrWeakPassword},
		{"bad email", SignUpRequest{Email: "not-an-email", Password: "password123"}, ErrInvalidEmail},
		{"missing fields", SignUpRequest{}, ErrMissingFields},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SignUp(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	mockStore := newMockUserStore()
	svc := newTestService(mockStore)

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "test@example.com", Password: "password123"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	t.Run("successful sign in", func(t *testing.T) {
		user, err := svc.SignIn(ctx, SignInRequest{Email: "TEST@example.com", Password: "password123"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != "test@example.com" {
			t.Errorf("expected email test@example.com, got %s", user.Email)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		if _, err := svc.SignIn(ctx, SignInRequest{Email: "test@example.com", Password: "wrongpassword"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("non-existent user", func(t *testing.T) {
		if _, err := svc.SignIn(ctx, SignInRequest{Email: "nobody@example.com", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("store failure is not masked", func(t *testing.T) {
		mockStore.err = errors.New("db down")
		defer func() { mockStore.err = nil }()
		_, err := svc.SignIn(ctx, SignInRequest{Email: "test@example.com", Password: "password123"})
		if err == nil || errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})
}
