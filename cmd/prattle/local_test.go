package main

import (
	"path/filepath"
	"testing"

	"pkt.systems/prattle/internal/auth"
	"pkt.systems/prattle/schema"
)

func TestLocalUserIDFromFlagAndEnv(t *testing.T) {
	t.Setenv("USER", "Dave")
	got, err := localUserID("")
	if err != nil || got != "dave" {
		t.Fatalf("expected dave from USER, got %q (%v)", got, err)
	}
	got, err = localUserID(" erin ")
	if err != nil || got != "erin" {
		t.Fatalf("expected erin from flag, got %q (%v)", got, err)
	}
	if _, err := localUserID("Not Valid"); err == nil {
		t.Fatalf("expected invalid user error")
	}
	t.Setenv("USER", "")
	if _, err := localUserID(""); err == nil {
		t.Fatalf("expected error without any user")
	}
}

func TestOpenLocalLogCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prattle.log")
	f, err := openLocalLog(path)
	if err != nil {
		t.Fatalf("openLocalLog: %v", err)
	}
	_ = f.Close()
	if _, err := openLocalLog(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestAddKnownAccounts(t *testing.T) {
	userFile := filepath.Join(t.TempDir(), "users.json")
	var added []schema.UserID
	add := func(id schema.UserID) error {
		added = append(added, id)
		return nil
	}
	if err := addKnownAccounts(userFile, add, nil); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("expected nothing added, got %v", added)
	}

	store, err := auth.NewStore(userFile, nil, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, name := range []string{"zed", "amy"} {
		if _, err := store.Add(name, "pw", ""); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := addKnownAccounts(userFile, add, nil); err != nil {
		t.Fatalf("addKnownAccounts: %v", err)
	}
	if len(added) != 2 || added[0] != "amy" || added[1] != "zed" {
		t.Fatalf("expected [amy zed], got %v", added)
	}
}
