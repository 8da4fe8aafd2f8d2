package security

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gc-portfolio/internal/config"
)

func TestEncryptDecrypt(t *testing.T) {
	salt, err := generateSalt()
	if err != nil {
		t.Fatal(err)
	}

	key := deriveKey("test-password", salt)
	plaintext := []byte("super secret API key sk-abc123")

	encrypted, err := encrypt(plaintext, key)
	if err != nil {
		t.Fatal(err)
	}
	if encrypted == string(plaintext) {
		t.Fatal("encrypted should differ from plaintext")
	}

	decrypted, err := decrypt(encrypted, key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("expected %q, got %q", plaintext, decrypted)
	}

	if _, err := decrypt(encrypted, deriveKey("wrong-password", salt)); err == nil {
		t.Fatal("expected error decrypting with the wrong key")
	}
}

func TestVaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.enc")
	v := NewVault(path, "hunter2")

	if err := v.Set("llm_api_key", "sk-abc"); err != nil {
		t.Fatal(err)
	}

	raw, _ := os.ReadFile(path)
	if bytes.Contains(raw, []byte("sk-abc")) {
		t.Fatal("vault file contains the plaintext secret")
	}

	// A fresh handle with the same password reads it back
	reopened := NewVault(path, "hunter2")
	got, err := reopened.Get("llm_api_key")
	if err != nil {
		t.Fatal(err)
	}
	if got != "sk-abc" {
		t.Fatalf("expected sk-abc, got %s", got)
	}

	if _, err := NewVault(path, "wrong").Get("llm_api_key"); err == nil {
		t.Fatal("expected error with wrong password")
	}

	if err := reopened.Delete("llm_api_key"); err != nil {
		t.Fatal(err)
	}
	if _, err := reopened.Get("llm_api_key"); !errors.Is(err, ErrSecretNotFound) {
		t.Fatalf("expected ErrSecretNotFound, got %v", err)
	}
}

func TestVaultLocked(t *testing.T) {
	v := NewVault(filepath.Join(t.TempDir(), "vault.enc"), "")
	if err := v.Set("k", "v"); err == nil {
		t.Fatal("expected locked vault to refuse writes")
	}
}

type fakeKeyring struct {
	data map[string]string
	down bool
}

func (f *fakeKeyring) Get(service, user string) (string, error) {
	if f.down {
		return "", errors.New("keyring unavailable")
	}
	v, ok := f.data[service+"/"+user]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (f *fakeKeyring) Set(service, user, password string) error {
	if f.down {
		return errors.New("keyring unavailable")
	}
	f.data[service+"/"+user] = password
	return nil
}

func (f *fakeKeyring) Delete(service, user string) error {
	delete(f.data, service+"/"+user)
	return nil
}

func TestKeyStoreFallsBackToVault(t *testing.T) {
	ks := &KeyStore{
		keyring: &fakeKeyring{data: map[string]string{}, down: true},
		vault:   NewVault(filepath.Join(t.TempDir(), "vault.enc"), "pw"),
	}

	if err := ks.Set(SecretTelegramToken, "bot-123"); err != nil {
		t.Fatal(err)
	}
	got, err := ks.Get(SecretTelegramToken)
	if err != nil || got != "bot-123" {
		t.Fatalf("expected bot-123 from vault, got %q (%v)", got, err)
	}
}

func TestResolveSecrets(t *testing.T) {
	kr := &fakeKeyring{data: map[string]string{
		keyringService + "/" + SecretLLMKey:        "sk-from-keyring",
		keyringService + "/" + SecretTelegramToken: "token-from-keyring",
	}}
	ks := &KeyStore{keyring: kr, vault: NewVault(filepath.Join(t.TempDir(), "vault.enc"), "pw")}

	cfg := config.Defaults()
	cfg.Channels.Telegram = &config.TelegramConfig{Token: "explicit"}
	ks.ResolveSecrets(cfg)

	if cfg.LLM.APIKey != "sk-from-keyring" {
		t.Fatalf("expected key from keyring, got %q", cfg.LLM.APIKey)
	}
	if cfg.Channels.Telegram.Token != "explicit" {
		t.Fatal("explicit config value should not be overwritten")
	}
}

func TestMaskKey(t *testing.T) {
	if MaskKey("short") != "****" {
		t.Fatal("short keys should be fully masked")
	}
	if got := MaskKey("sk-1234567890abcd"); got != "sk-...abcd" {
		t.Fatalf("unexpected mask %s", got)
	}
}
