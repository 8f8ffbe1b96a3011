package sshserver

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateHostKeyPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "host")
	first, created, err := LoadOrCreateHostKey(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatalf("expected a new key")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}

	second, created, err := LoadOrCreateHostKey(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if created {
		t.Fatalf("expected the stored key to be reused")
	}
	if !bytes.Equal(first.PublicKey().Marshal(), second.PublicKey().Marshal()) {
		t.Fatalf("expected the same public key after reload")
	}
}

func TestLoadOrCreateHostKeyRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host")
	if err := os.WriteFile(path, []byte("not a key"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadOrCreateHostKey(path); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, _, err := LoadOrCreateHostKey(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
