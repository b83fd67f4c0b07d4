package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/existflow/prayerlist/internal/db"
	"github.com/existflow/prayerlist/internal/model"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(exp)}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestTokenUsable(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"future expiry", signed(t, now.Add(time.Hour)), true},
		{"past expiry", signed(t, now.Add(-time.Minute)), false},
		{"opaque", "not-a-jwt", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		if got := TokenUsable(tt.token, now); got != tt.want {
			t.Errorf("%s: TokenUsable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSealer_RoundTripAndTamper(t *testing.T) {
	s := NewSealer([]byte("secret"), []byte("0123456789abcdef"))
	sealed, err := s.Seal([]byte("hunter22"))
	if err != nil {
		t.Fatalf("Seal returned error: %v", err)
	}
	plain, err := s.Open(sealed)
	if err != nil || string(plain) != "hunter22" {
		t.Fatalf("Open = %q, %v, want hunter22", plain, err)
	}

	other := NewSealer([]byte("other"), []byte("0123456789abcdef"))
	if _, err := other.Open(sealed); err == nil {
		t.Fatal("Open with wrong key returned nil error")
	}
}

func TestLoadOrCreateSealer_ReusesKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "vault.key")
	first, err := LoadOrCreateSealer(path)
	if err != nil {
		t.Fatalf("LoadOrCreateSealer returned error: %v", err)
	}
	sealed, err := first.Seal([]byte("pw"))
	if err != nil {
		t.Fatalf("Seal returned error: %v", err)
	}

	second, err := LoadOrCreateSealer(path)
	if err != nil {
		t.Fatalf("second LoadOrCreateSealer returned error: %v", err)
	}
	if plain, err := second.Open(sealed); err != nil || string(plain) != "pw" {
		t.Fatalf("Open with reloaded key = %q, %v", plain, err)
	}
}

func newVault(t *testing.T) (*Vault, *db.DB) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return NewVault(d, NewSealer([]byte("secret"), []byte("0123456789abcdef"))), d
}

func TestVault_SessionPersistsWithoutValidatedFlag(t *testing.T) {
	v, _ := newVault(t)
	ctx := context.Background()

	empty, err := v.LoadSession(ctx)
	if err != nil || empty.IsAuthenticated {
		t.Fatalf("LoadSession on empty store = %+v, %v", empty, err)
	}

	in := Session{
		Token:            "tok",
		User:             &model.User{UserProfileID: 3, Username: "ann"},
		IsAuthenticated:  true,
		IsTokenValidated: true,
	}
	if err := v.SaveSession(ctx, in); err != nil {
		t.Fatalf("SaveSession returned error: %v", err)
	}
	out, err := v.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession returned error: %v", err)
	}
	if out.Token != "tok" || !out.IsAuthenticated || out.UserID() != 3 {
		t.Fatalf("LoadSession = %+v, want persisted session", out)
	}
	if out.IsTokenValidated {
		t.Fatal("IsTokenValidated survived a reload")
	}

	if err := v.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession returned error: %v", err)
	}
	if out, _ := v.LoadSession(ctx); out.IsAuthenticated {
		t.Fatalf("session still present after clear: %+v", out)
	}
}

func TestVault_InconsistentSessionIsDropped(t *testing.T) {
	v, d := newVault(t)
	ctx := context.Background()
	if err := d.Set(ctx, KeySession, []byte(`{"token":"","user":null,"isAuthenticated":true}`)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	s, err := v.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession returned error: %v", err)
	}
	if s.IsAuthenticated {
		t.Fatalf("LoadSession = %+v, want empty session", s)
	}
}

func TestVault_CredentialsAreSealedAtRest(t *testing.T) {
	v, d := newVault(t)
	ctx := context.Background()

	if _, ok, err := v.Credentials(ctx); ok || err != nil {
		t.Fatalf("Credentials on empty store = ok %v, err %v", ok, err)
	}
	if err := v.SaveCredentials(ctx, Credentials{Username: "ann", Password: "hunter22"}); err != nil {
		t.Fatalf("SaveCredentials returned error: %v", err)
	}

	raw, err := d.Get(ctx, KeyRememberedPassword)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(raw) == "hunter22" {
		t.Fatal("password stored in plain text")
	}

	creds, ok, err := v.Credentials(ctx)
	if err != nil || !ok || creds.Username != "ann" || creds.Password != "hunter22" {
		t.Fatalf("Credentials = %+v, %v, %v", creds, ok, err)
	}

	if err := v.ClearCredentials(ctx); err != nil {
		t.Fatalf("ClearCredentials returned error: %v", err)
	}
	if _, ok, _ := v.Credentials(ctx); ok {
		t.Fatal("credentials still present after clear")
	}
}
