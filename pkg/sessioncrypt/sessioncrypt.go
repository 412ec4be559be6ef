// Package sessioncrypt seals session blobs with AES-256-GCM under a key
// derived per blob from the master key with PBKDF2.
//
// Blob layout:
//
//	"AGS" | key version (1) | salt (32) | nonce (16) | tag (16) | ciphertext
//
// Blobs without the "AGS" header use the legacy layout (salt | nonce | tag |
// ciphertext) and are opened with the version 1 key.
package sessioncrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	KeySize   = 32
	SaltSize  = 32
	NonceSize = 16
	TagSize   = 16

	// Iterations is fixed so session files from earlier releases stay
	// readable.
	Iterations = 1000

	// LegacyKeyVersion is the version assumed for headerless blobs.
	LegacyKeyVersion byte = 1
)

var magic = []byte("AGS")

const headerSize = 4

// ErrIntegrity is returned when a blob cannot be authenticated: it was
// tampered with, truncated, or sealed with a different master key.
var ErrIntegrity = errors.New("session data failed integrity check")

var randRead = rand.Read

// Seal encrypts plaintext with the current key of keys.
func Seal(keys *KeySet, plaintext []byte) ([]byte, error) {
	version, master, err := keys.current()
	if err != nil {
		return nil, err
	}
	salt := make([]byte, SaltSize)
	if _, err := randRead(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := randRead(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	gcm, err := newGCM(master, salt)
	if err != nil {
		return nil, err
	}
	// gcm.Seal appends the tag after the ciphertext; the blob stores it first.
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	out := make([]byte, 0, headerSize+SaltSize+NonceSize+TagSize+len(ct))
	out = append(out, magic...)
	out = append(out, version)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

// Open authenticates and decrypts a blob produced by Seal or by the legacy
// writer. Any failure is reported as ErrIntegrity.
func Open(keys *KeySet, blob []byte) ([]byte, error) {
	if len(blob) >= headerSize && string(blob[:len(magic)]) == string(magic) {
		if master, ok := keys.Lookup(blob[len(magic)]); ok {
			if pt, err := openBody(master, blob[headerSize:]); err == nil {
				return pt, nil
			}
		}
		// A legacy salt may begin with the magic bytes by chance.
	}
	master, ok := keys.Lookup(LegacyKeyVersion)
	if !ok {
		return nil, fmt.Errorf("%w: no key for version %d", ErrIntegrity, LegacyKeyVersion)
	}
	return openBody(master, blob)
}

func openBody(master, body []byte) ([]byte, error) {
	if len(body) < SaltSize+NonceSize+TagSize {
		return nil, fmt.Errorf("%w: blob too short (%d bytes)", ErrIntegrity, len(body))
	}
	salt := body[:SaltSize]
	nonce := body[SaltSize : SaltSize+NonceSize]
	tag := body[SaltSize+NonceSize : SaltSize+NonceSize+TagSize]
	ct := body[SaltSize+NonceSize+TagSize:]

	gcm, err := newGCM(master, salt)
	if err != nil {
		return nil, err
	}
	sealed := make([]byte, 0, len(ct)+TagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	pt, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return pt, nil
}

// DeriveKey returns the per-blob AES key for master and salt.
func DeriveKey(master, salt []byte) []byte {
	return pbkdf2.Key(master, salt, Iterations, KeySize, sha1.New)
}

func newGCM(master, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(DeriveKey(master, salt))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, NonceSize)
}

// EncryptJSON serializes v as JSON and seals it.
func EncryptJSON(keys *KeySet, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return Seal(keys, data)
}

// DecryptJSON opens blob and decodes the JSON plaintext into v. Decoding is
// only attempted after authentication succeeded.
func DecryptJSON(keys *KeySet, blob []byte, v any) error {
	data, err := Open(keys, blob)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	return nil
}

// GenerateKey returns KeySize random bytes.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}
