package sessioncrypt

import (
	"errors"
	"fmt"
)

// KeySet maps key versions to master keys. New blobs are sealed with the
// current version; older versions stay available for Open.
type KeySet struct {
	currentVersion byte
	keys           map[byte][]byte
}

// NewKeySet returns a KeySet whose current key is master at version.
func NewKeySet(version byte, master []byte) (*KeySet, error) {
	ks := &KeySet{keys: make(map[byte][]byte)}
	if err := ks.Add(version, master); err != nil {
		return nil, err
	}
	ks.currentVersion = version
	return ks, nil
}

// Add registers a historical key. It does not change the current version.
func (ks *KeySet) Add(version byte, master []byte) error {
	if version == 0 {
		return errors.New("key version 0 is reserved")
	}
	if len(master) != KeySize {
		return fmt.Errorf("invalid key length: expected %d, got %d", KeySize, len(master))
	}
	ks.keys[version] = append([]byte(nil), master...)
	return nil
}

// Lookup returns the key registered for version.
func (ks *KeySet) Lookup(version byte) ([]byte, bool) {
	if ks == nil {
		return nil, false
	}
	k, ok := ks.keys[version]
	return k, ok
}

// CurrentVersion reports the version new blobs are sealed with.
func (ks *KeySet) CurrentVersion() byte {
	return ks.currentVersion
}

func (ks *KeySet) current() (byte, []byte, error) {
	k, ok := ks.Lookup(ks.currentVersion)
	if !ok {
		return 0, nil, errors.New("key set has no current key")
	}
	return ks.currentVersion, k, nil
}
