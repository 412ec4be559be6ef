package keystore

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/agclean/agclean/pkg/sessioncrypt"
	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service name used for escrow entries.
const KeyringService = "agclean"

// Keyring escrows the master key in the operating system keyring. Each
// storage directory gets its own account so that separate installations do
// not share keys.
type Keyring struct {
	Service string
	Account string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

// NewKeyring returns the escrow entry for storageDir.
func NewKeyring(storageDir string) *Keyring {
	abs, err := filepath.Abs(storageDir)
	if err != nil {
		abs = storageDir
	}
	sum := sha256.Sum256([]byte(abs))
	return &Keyring{
		Service: KeyringService,
		Account: "master-" + hex.EncodeToString(sum[:8]),
	}
}

// Set stores key hex encoded.
func (k *Keyring) Set(key []byte) error {
	return keyringSet(k.Service, k.Account, hex.EncodeToString(key))
}

// Get returns the escrowed key.
func (k *Keyring) Get() ([]byte, error) {
	s, err := keyringGet(k.Service, k.Account)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	if len(key) != sessioncrypt.KeySize {
		return nil, fmt.Errorf("invalid key length: expected %d, got %d", sessioncrypt.KeySize, len(key))
	}
	return key, nil
}

// Delete removes the escrow entry.
func (k *Keyring) Delete() error {
	return keyringDelete(k.Service, k.Account)
}

var _ Escrow = (*Keyring)(nil)
