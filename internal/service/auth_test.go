package service

import (
	"context"
	"strings"
	"testing"

	"github.com/tunegift/checkout-api/internal/models"
)

type fakeUserStore struct {
	users []*models.User
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func TestEnsureAdmin_SeedsOnce(t *testing.T) {
	users := &fakeUserStore{}
	svc := NewAuthService(users, "test-secret", 24)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "ops@example.com", "hunter2", "Support"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users.users) != 1 {
		t.Fatalf("expected one seeded account, got %d", len(users.users))
	}

	seeded := users.users[0]
	if seeded.Role != "admin" {
		t.Errorf("expected admin role, got %q", seeded.Role)
	}
	if seeded.PasswordHash == "hunter2" || !strings.HasPrefix(seeded.PasswordHash, "$2") {
		t.Error("password must be stored as a bcrypt hash")
	}

	// Re-seeding the same email on the next boot changes nothing
	if err := svc.EnsureAdmin(ctx, "ops@example.com", "hunter2", "Support"); err != nil {
		t.Fatalf("re-seed must be a no-op, got %v", err)
	}
	if len(users.users) != 1 {
		t.Errorf("re-seed must not create a second account, got %d", len(users.users))
	}
}

func TestLogin_SeededAdminRoundTrip(t *testing.T) {
	users := &fakeUserStore{}
	svc := NewAuthService(users, "test-secret", 24)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "ops@example.com", "hunter2", "Support"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := svc.Login(ctx, "ops@example.com", "hunter2")
	if err != nil {
		t.Fatalf("seeded credentials must log in: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("issued token must validate: %v", err)
	}
	if claims["email"] != "ops@example.com" || claims["role"] != "admin" {
		t.Errorf("unexpected claims: %v", claims)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	users := &fakeUserStore{}
	svc := NewAuthService(users, "test-secret", 24)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "ops@example.com", "hunter2", "Support"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Login(ctx, "ops@example.com", "wrong"); err == nil {
		t.Error("wrong password must be rejected")
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "hunter2"); err == nil {
		t.Error("unknown email must be rejected")
	}
}
