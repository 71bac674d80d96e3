package vault

import (
	"encoding/json"
	"errors"
	"io/fs"

	"covault/go-backend/internal/securestore"
)

// StateStore persists ledger snapshots as encrypted JSON. With an empty path
// or secret the store is a no-op and the ledger runs memory-only.
type StateStore struct {
	path   string
	secret string
}

func NewStateStore() *StateStore {
	return &StateStore{}
}

func (s *StateStore) Configure(path, secret string) {
	s.path, s.secret = securestore.NormalizeStorageConfig(path, secret)
}

// Bootstrap loads the persisted snapshot. The second return reports whether a
// snapshot existed; a missing file is a fresh start, not an error.
func (s *StateStore) Bootstrap() (Snapshot, bool, error) {
	if !securestore.IsStorageConfigured(s.path, s.secret) {
		return Snapshot{}, false, nil
	}
	plaintext, err := securestore.ReadDecryptedFile(s.path, s.secret)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(plaintext, &snap); err != nil {
		return Snapshot{}, false, err
	}
	if snap.Version != snapshotVersion {
		return Snapshot{}, false, ErrBadSnapshot
	}
	return snap, true, nil
}

func (s *StateStore) Persist(snap Snapshot) error {
	if !securestore.IsStorageConfigured(s.path, s.secret) {
		return nil
	}
	return securestore.WriteEncryptedJSON(s.path, s.secret, snap)
}
