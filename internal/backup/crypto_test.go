package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(salt1) != saltSize {
		t.Errorf("salt length = %d, want %d", len(salt1), saltSize)
	}

	salt2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt 2: %v", err)
	}
	if bytes.Equal(salt1, salt2) {
		t.Error("two salts should not be equal")
	}
}

func TestDeriveKeyDeterminism(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := DeriveKey("mypassphrase", salt)
	key2 := DeriveKey("mypassphrase", salt)

	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	original := []byte("wallet and token rows worth keeping")
	if err := os.WriteFile(srcPath, original, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}

	if err := EncryptFile(srcPath, encPath, "test-passphrase-123", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	encrypted, _ := os.ReadFile(encPath)
	if bytes.Contains(encrypted, original) {
		t.Error("encrypted content should not contain the plaintext")
	}

	if err := DecryptFile(encPath, decPath, "test-passphrase-123"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	decrypted, _ := os.ReadFile(decPath)
	if !bytes.Equal(decrypted, original) {
		t.Errorf("round trip = %q, want %q", decrypted, original)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	if err := os.WriteFile(srcPath, []byte("secret contents"), 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if err := EncryptFile(srcPath, encPath, "right", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if err := DecryptFile(encPath, decPath, "wrong"); err == nil {
		t.Fatal("expected decryption to fail with wrong passphrase")
	}
}

func TestDecryptTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	encPath := filepath.Join(dir, "short.enc")
	if err := os.WriteFile(encPath, []byte("too small"), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := DecryptFile(encPath, filepath.Join(dir, "out.db"), "any"); err == nil {
		t.Fatal("expected error for truncated file")
	}
}
