package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltFile       = ".salt"
	saltSize       = 32
	keySize        = 32
	pbkdf2Rounds   = 100000
	keyDerivationV = "coursecal-token-v1"
)

// TokenSealer encrypts the cached OAuth token with a key bound to this
// machine and user.
type TokenSealer struct {
	key []byte
}

// NewTokenSealer derives the sealing key from the machine ID, the user's
// home directory and a salt kept in cacheDir.
func NewTokenSealer(cacheDir string) (*TokenSealer, error) {
	salt, err := loadOrCreateSalt(cacheDir)
	if err != nil {
		return nil, NewCryptoError("salt", "cannot prepare salt").WithCause(err)
	}

	machineID, err := machineID()
	if err != nil {
		return nil, NewCryptoError("machine_id", "cannot identify machine").WithCause(err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, NewCryptoError("home_dir", "cannot locate home directory").WithCause(err)
	}

	material := fmt.Sprintf("%s:%s:%s", keyDerivationV, machineID, home)
	return &TokenSealer{
		key: pbkdf2.Key([]byte(material), salt, pbkdf2Rounds, keySize, sha256.New),
	}, nil
}

func (s *TokenSealer) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext and returns base64(nonce || ciphertext).
func (s *TokenSealer) Seal(plaintext []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", NewCryptoError("seal", "plaintext is empty")
	}

	gcm, err := s.aead()
	if err != nil {
		return "", NewCryptoError("seal", "cipher setup failed").WithCause(err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", NewCryptoError("seal", "nonce generation failed").WithCause(err)
	}

	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plaintext, nil)), nil
}

// Open reverses Seal.
func (s *TokenSealer) Open(sealed string) ([]byte, error) {
	if sealed == "" {
		return nil, NewCryptoError("open", "ciphertext is empty")
	}

	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, NewCryptoError("open", "invalid base64").WithCause(err)
	}

	gcm, err := s.aead()
	if err != nil {
		return nil, NewCryptoError("open", "cipher setup failed").WithCause(err)
	}

	n := gcm.NonceSize()
	if len(data) < n {
		return nil, NewCryptoError("open", "ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, NewCryptoError("open", "authentication failed").WithCause(err)
	}
	return plaintext, nil
}

func loadOrCreateSalt(cacheDir string) ([]byte, error) {
	path := filepath.Join(cacheDir, saltFile)

	if salt, err := os.ReadFile(path); err == nil && len(salt) == saltSize {
		return salt, nil
	}

	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return nil, err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, salt, 0600); err != nil {
		return nil, err
	}
	return salt, nil
}

// machineID prefers the systemd/dbus machine ID and falls back to
// hostname plus uid.
func machineID() (string, error) {
	for _, path := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
			return string(data[:min(len(data), 32)]), nil
		}
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getuid()), nil
}
