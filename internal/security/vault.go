package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64MB
	argonThreads = 4
	argonKeyLen  = 32 // AES-256
	saltLen      = 16
)

// ErrSecretNotFound is returned when a secret is in neither the keyring nor
// the vault.
var ErrSecretNotFound = errors.New("secret not found")

// Vault is an encrypted JSON file of named secrets. The Argon2id salt lives
// next to the ciphertext so the same password always reopens it.
type Vault struct {
	mu       sync.Mutex
	path     string
	password string
}

type vaultFile struct {
	Salt string `json:"salt"`
	Data string `json:"data"`
}

// NewVault returns a vault stored at path and unlocked with password.
func NewVault(path, password string) *Vault {
	return &Vault{path: path, password: password}
}

// Get returns a secret. A locked vault reports ErrSecretNotFound so callers
// relying only on the keychain are not treated as failing.
func (v *Vault) Get(name string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.password == "" {
		return "", fmt.Errorf("%w: %s (vault locked)", ErrSecretNotFound, name)
	}

	secrets, _, err := v.load()
	if err != nil {
		return "", err
	}
	val, ok := secrets[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return val, nil
}

func (v *Vault) Set(name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, salt, err := v.load()
	if err != nil {
		return err
	}
	secrets[name] = value
	return v.save(secrets, salt)
}

func (v *Vault) Delete(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	secrets, salt, err := v.load()
	if err != nil {
		return err
	}
	if _, ok := secrets[name]; !ok {
		return nil
	}
	delete(secrets, name)
	return v.save(secrets, salt)
}

// load returns the decrypted secrets and the salt to reuse. A missing file
// yields an empty vault with a fresh salt.
func (v *Vault) load() (map[string]string, []byte, error) {
	if v.password == "" {
		return nil, nil, fmt.Errorf("vault is locked: no master password")
	}

	data, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			salt, err := generateSalt()
			return make(map[string]string), salt, err
		}
		return nil, nil, err
	}

	var f vaultFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse vault: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(f.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("decode salt: %w", err)
	}

	plaintext, err := decrypt(f.Data, deriveKey(v.password, salt))
	if err != nil {
		return nil, nil, fmt.Errorf("decrypt vault: %w", err)
	}

	secrets := make(map[string]string)
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, nil, fmt.Errorf("parse secrets: %w", err)
	}
	return secrets, salt, nil
}

func (v *Vault) save(secrets map[string]string, salt []byte) error {
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return err
	}
	encrypted, err := encrypt(plaintext, deriveKey(v.password, salt))
	if err != nil {
		return err
	}
	data, err := json.Marshal(vaultFile{
		Salt: base64.StdEncoding.EncodeToString(salt),
		Data: encrypted,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(v.path, data, 0600)
}

// deriveKey derives an AES-256 key from a password using Argon2id.
func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func generateSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// encrypt seals plaintext with AES-256-GCM and returns base64 with the nonce
// prepended.
func encrypt(plaintext, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, plaintext, nil)), nil
}

func decrypt(encoded string, key []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}
