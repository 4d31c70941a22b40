package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing-0123456789"

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, err := GenerateAccessToken("dashboard", RoleOperator, testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateAccessToken() returned empty token")
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "dashboard" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "dashboard")
	}
	if claims.Role != RoleOperator {
		t.Errorf("Role = %q, want %q", claims.Role, RoleOperator)
	}
	if claims.SessionID == "" {
		t.Error("SessionID should not be empty")
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
}

func TestGenerateAccessToken_Errors(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		role    Role
		secret  string
		wantErr error
	}{
		{"bad subject", "has space", RoleViewer, testSecret, ErrInvalidSubject},
		{"empty subject", "", RoleViewer, testSecret, ErrInvalidSubject},
		{"bad role", "svc", Role("owner"), testSecret, ErrInvalidRole},
		{"short secret", "svc", RoleViewer, "short", ErrSecretTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateAccessToken(tt.subject, tt.role, tt.secret, 15)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GenerateAccessToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken("svc", RoleViewer, testSecret, 15)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	_, err = ParseToken(token, strings.Repeat("x", MinSecretLength))
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_Malformed(t *testing.T) {
	for _, raw := range []string{"", "abc.def", "not-a-valid-jwt"} {
		if _, err := ParseToken(raw, testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("ParseToken(%q) error = %v, want ErrTokenInvalid", raw, err)
		}
	}
}

func TestParseToken_Expired(t *testing.T) {
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "svc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Role: RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
	}
}

func TestParseToken_ClaimChecks(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	tests := []struct {
		name   string
		claims CustomClaims
	}{
		{"missing subject", CustomClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}, Role: RoleAdmin}},
		{"unknown role", CustomClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "svc", ExpiresAt: future}, Role: "owner"}},
		{"no expiry", CustomClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "svc"}, Role: RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString([]byte(testSecret))
			if err != nil {
				t.Fatalf("signing: %v", err)
			}
			if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	token, err := GenerateAccessToken("svc", RoleViewer, testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	expectedExpiry := time.Now().Add(defaultTTLMinutes * time.Minute)
	diff := claims.ExpiresAt.Time.Sub(expectedExpiry)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("default TTL should be ~%d minutes, got expiry diff of %v", defaultTTLMinutes, diff)
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range ValidRoles {
		got, err := ParseRole(string(r))
		if err != nil || got != r {
			t.Errorf("ParseRole(%q) = %q, %v", r, got, err)
		}
	}
	if _, err := ParseRole("owner"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("ParseRole(owner) error = %v, want ErrInvalidRole", err)
	}
}
