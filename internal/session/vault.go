package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/existflow/prayerlist/internal/db"
)

// Storage keys
const (
	KeySession            = "auth.session"
	KeyRememberedEmail    = "rememberedEmail"
	KeyRememberedPassword = "rememberedPassword"
)

// KV is the key-value store the vault persists into; *db.DB implements it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// Vault persists the session subset and the opt-in saved credentials.
type Vault struct {
	kv     KV
	sealer *Sealer
}

// NewVault creates a vault. sealer encrypts the remembered password.
func NewVault(kv KV, sealer *Sealer) *Vault {
	return &Vault{kv: kv, sealer: sealer}
}

// LoadSession returns the persisted session, or an empty one if none was saved.
// IsTokenValidated is always false on the result.
func (v *Vault) LoadSession(ctx context.Context) (Session, error) {
	data, err := v.kv.Get(ctx, KeySession)
	if errors.Is(err, db.ErrNotFound) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode persisted session: %w", err)
	}
	s.IsTokenValidated = false
	if !s.Consistent() {
		return Session{}, nil
	}
	return s, nil
}

// SaveSession persists {user, token, isAuthenticated}.
func (v *Vault) SaveSession(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return v.kv.Set(ctx, KeySession, data)
}

// ClearSession removes the persisted session.
func (v *Vault) ClearSession(ctx context.Context) error {
	return v.kv.Delete(ctx, KeySession)
}

// SaveCredentials remembers username and password for silent re-login.
func (v *Vault) SaveCredentials(ctx context.Context, creds Credentials) error {
	if creds.Username == "" || creds.Password == "" {
		return errors.New("credentials are incomplete")
	}
	sealed, err := v.sealer.Seal([]byte(creds.Password))
	if err != nil {
		return fmt.Errorf("seal password: %w", err)
	}
	if err := v.kv.Set(ctx, KeyRememberedEmail, []byte(creds.Username)); err != nil {
		return err
	}
	return v.kv.Set(ctx, KeyRememberedPassword, []byte(sealed))
}

// Credentials returns the saved credentials, ok=false when none are stored.
func (v *Vault) Credentials(ctx context.Context) (Credentials, bool, error) {
	user, err := v.kv.Get(ctx, KeyRememberedEmail)
	if errors.Is(err, db.ErrNotFound) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, err
	}
	sealed, err := v.kv.Get(ctx, KeyRememberedPassword)
	if errors.Is(err, db.ErrNotFound) {
		return Credentials{}, false, nil
	}
	if err != nil {
		return Credentials{}, false, err
	}
	password, err := v.sealer.Open(string(sealed))
	if err != nil {
		return Credentials{}, false, fmt.Errorf("open saved password: %w", err)
	}
	return Credentials{Username: string(user), Password: string(password)}, true, nil
}

// ClearCredentials forgets the saved credentials.
func (v *Vault) ClearCredentials(ctx context.Context) error {
	return v.kv.Delete(ctx, KeyRememberedEmail, KeyRememberedPassword)
}
