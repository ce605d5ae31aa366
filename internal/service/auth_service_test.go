package service

import (
	"errors"
	"testing"
	"time"

	"kintree/internal/security"
)

func newAuthService(t *testing.T) (*AuthService, *security.TokenManager) {
	t.Helper()
	env := newTestEnv(t)
	tokens := security.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(env.userRepo, tokens), tokens
}

func TestRegisterAndLogin(t *testing.T) {
	auth, tokens := newAuthService(t)

	user, err := auth.Register("Ada@Example.com", "long-enough-password", "Ada")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized %q", user.Email, "ada@example.com")
	}
	if user.PasswordHash == "long-enough-password" {
		t.Error("password stored in plaintext")
	}

	token, loggedIn, err := auth.Login("ada@example.com", "long-enough-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("login returned user %d, want %d", loggedIn.ID, user.ID)
	}
	userID, err := tokens.ValidateToken(token)
	if err != nil || userID != user.ID {
		t.Errorf("token validates to (%d, %v), want user %d", userID, err, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	auth, _ := newAuthService(t)

	tests := []struct {
		name     string
		email    string
		password string
		userName string
	}{
		{"empty email", "", "long-enough-password", "X"},
		{"no at sign", "not-an-email", "long-enough-password", "X"},
		{"short password", "x@example.com", "short", "X"},
		{"empty name", "x@example.com", "long-enough-password", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.Register(tt.email, tt.password, tt.userName); !errors.Is(err, ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	auth, _ := newAuthService(t)

	if _, err := auth.Register("ada@example.com", "long-enough-password", "Ada"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := auth.Register("ada@example.com", "another-password-123", "Imposter")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("error = %v, want ErrEmailTaken", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth, _ := newAuthService(t)

	if _, err := auth.Register("ada@example.com", "long-enough-password", "Ada"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, _, err := auth.Login("ada@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := auth.Login("ghost@example.com", "long-enough-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", err)
	}
}
