package security

import (
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"

	"gc-portfolio/internal/config"
)

const (
	keyringService = "gc-portfolio"
	vaultFileName  = "vault.enc"

	// Secret names shared by the binaries.
	SecretLLMKey         = "llm_api_key"
	SecretFallbackLLMKey = "fallback_llm_api_key"
	SecretTelegramToken  = "telegram_token"
)

// secretBackend is what KeyStore needs from the OS keychain.
type secretBackend interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (osKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}
func (osKeyring) Delete(service, user string) error { return keyring.Delete(service, user) }

// KeyStore manages secure storage of API keys.
// Primary: OS Keychain. Fallback: encrypted vault file.
type KeyStore struct {
	keyring secretBackend
	vault   *Vault
}

// NewKeyStore creates a key store whose vault lives in ~/.gcportfolio.
// masterPassword unlocks the vault; it may be empty when only the keychain
// is used.
func NewKeyStore(masterPassword string) (*KeyStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".gcportfolio")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &KeyStore{
		keyring: osKeyring{},
		vault:   NewVault(filepath.Join(dir, vaultFileName), masterPassword),
	}, nil
}

// Set stores a secret (tries keyring first, falls back to the vault).
func (ks *KeyStore) Set(name, value string) error {
	if err := ks.keyring.Set(keyringService, name, value); err == nil {
		return nil
	}
	return ks.vault.Set(name, value)
}

// Get retrieves a secret.
func (ks *KeyStore) Get(name string) (string, error) {
	if val, err := ks.keyring.Get(keyringService, name); err == nil {
		return val, nil
	}
	val, err := ks.vault.Get(name)
	if err != nil && !errors.Is(err, ErrSecretNotFound) {
		return "", err
	}
	return val, err
}

// Delete removes a secret from both backends.
func (ks *KeyStore) Delete(name string) error {
	_ = ks.keyring.Delete(keyringService, name)
	return ks.vault.Delete(name)
}

// ResolveSecrets fills empty credential fields in cfg from the store. Values
// already present in the config file or environment win.
func (ks *KeyStore) ResolveSecrets(cfg *config.Config) {
	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		v, err := ks.Get(name)
		if err != nil {
			if !errors.Is(err, ErrSecretNotFound) {
				log.Printf("[security] could not read %s: %v", name, err)
			}
			return
		}
		*dst = v
	}

	fill(&cfg.LLM.APIKey, SecretLLMKey)
	if cfg.FallbackLLM != nil {
		fill(&cfg.FallbackLLM.APIKey, SecretFallbackLLMKey)
	}
	if cfg.Channels.Telegram != nil {
		fill(&cfg.Channels.Telegram.Token, SecretTelegramToken)
	}
}

// MaskKey returns a masked version of an API key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
