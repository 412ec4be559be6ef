package keystore

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func TestKeyringSetGetDelete(t *testing.T) {
	origSet, origGet, origDelete := keyringSet, keyringGet, keyringDelete
	defer func() {
		keyringSet, keyringGet, keyringDelete = origSet, origGet, origDelete
	}()

	store := map[string]string{}
	keyringSet = func(service, account, value string) error {
		store[service+"/"+account] = value
		return nil
	}
	keyringGet = func(service, account string) (string, error) {
		v, ok := store[service+"/"+account]
		if !ok {
			return "", errors.New("secret not found")
		}
		return v, nil
	}
	keyringDelete = func(service, account string) error {
		delete(store, service+"/"+account)
		return nil
	}

	kr := NewKeyring("/data/sessions")
	if kr.Service != KeyringService || !strings.HasPrefix(kr.Account, "master-") {
		t.Fatalf("unexpected entry: %+v", kr)
	}
	key := bytes.Repeat([]byte{0xab}, 32)
	if err := kr.Set(key); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if store[kr.Service+"/"+kr.Account] != hex.EncodeToString(key) {
		t.Fatal("key not stored hex encoded")
	}
	got, err := kr.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatal("round trip mismatch")
	}
	if err := kr.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kr.Get(); err == nil {
		t.Fatal("expected error after delete")
	}
}

func TestKeyringAccountsDifferPerDir(t *testing.T) {
	a := NewKeyring("/one")
	b := NewKeyring("/two")
	if a.Account == b.Account {
		t.Fatal("different storage dirs share an escrow account")
	}
	if NewKeyring("/one").Account != a.Account {
		t.Fatal("account is not stable")
	}
}

func TestKeyringGetRejectsBadValues(t *testing.T) {
	orig := keyringGet
	defer func() { keyringGet = orig }()

	kr := NewKeyring("/s")
	keyringGet = func(string, string) (string, error) { return "zz-not-hex", nil }
	if _, err := kr.Get(); err == nil || !strings.Contains(err.Error(), "invalid key format") {
		t.Fatalf("expected format error, got %v", err)
	}
	keyringGet = func(string, string) (string, error) { return "abcd", nil }
	if _, err := kr.Get(); err == nil || !strings.Contains(err.Error(), "invalid key length") {
		t.Fatalf("expected length error, got %v", err)
	}
}
