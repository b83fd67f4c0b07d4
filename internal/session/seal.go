package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keySize          = 32 // AES-256
	nonceSize        = 12 // GCM standard nonce size
	saltSize         = 16
	secretSize       = 32
	pbkdf2Iterations = 100000
)

// Sealer encrypts small secrets at rest with AES-256-GCM
type Sealer struct {
	key []byte
}

// NewSealer derives the sealing key from secret and salt
func NewSealer(secret, salt []byte) *Sealer {
	key := pbkdf2.Key(secret, salt, pbkdf2Iterations, keySize, sha256.New)
	return &Sealer{key: key}
}

type keyFile struct {
	Secret string `json:"secret"`
	Salt   string `json:"salt"`
}

// LoadOrCreateSealer reads the per-install key file at path, creating it with
// fresh random material on first use.
func LoadOrCreateSealer(path string) (*Sealer, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var kf keyFile
		if err := json.Unmarshal(data, &kf); err != nil {
			return nil, fmt.Errorf("parse key file: %w", err)
		}
		secret, err := base64.StdEncoding.DecodeString(kf.Secret)
		if err != nil {
			return nil, fmt.Errorf("decode key secret: %w", err)
		}
		salt, err := base64.StdEncoding.DecodeString(kf.Salt)
		if err != nil {
			return nil, fmt.Errorf("decode key salt: %w", err)
		}
		return NewSealer(secret, salt), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	secret, err := randomBytes(secretSize)
	if err != nil {
		return nil, err
	}
	salt, err := randomBytes(saltSize)
	if err != nil {
		return nil, err
	}
	data, err = json.Marshal(keyFile{
		Secret: base64.StdEncoding.EncodeToString(secret),
		Salt:   base64.StdEncoding.EncodeToString(salt),
	})
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}
	return NewSealer(secret, salt), nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate random bytes: %w", err)
	}
	return b, nil
}

// Seal encrypts plaintext; the result is base64(nonce || ciphertext)
func (s *Sealer) Seal(plaintext []byte) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal
func (s *Sealer) Open(sealed string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return nil, errors.New("decryption failed: invalid key or corrupted data")
	}
	return plaintext, nil
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
