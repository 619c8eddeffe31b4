package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"olmcore/internal/account"
)

const (
	accountFile  = "account.enc"
	sessionDir   = "sessions"
	groupDir     = "group-sessions"
	pickleSuffix = ".pickle"
)

// FileStore keeps the account and pickled sessions under one directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

// ---------- Account ----------

func (s *FileStore) SaveAccount(passphrase string, acct *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(acct)
	if err != nil {
		return err
	}
	blob, err := sealBlob(passphrase, raw)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, accountFile), blob, 0o600)
}

func (s *FileStore) LoadAccount(passphrase string) (*account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := os.ReadFile(filepath.Join(s.dir, accountFile))
	if err != nil {
		return nil, err
	}
	raw, err := openBlob(passphrase, blob)
	if err != nil {
		return nil, err
	}
	var acct account.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// ---------- Session pickles ----------
//
// Pickles are already encrypted under the caller's pickle key, so they are
// stored as plain files named by session id.

func (s *FileStore) SaveSessionPickle(id string, pickled []byte) error {
	return s.savePickle(sessionDir, id, pickled)
}

func (s *FileStore) LoadSessionPickle(id string) ([]byte, bool, error) {
	return s.loadPickle(sessionDir, id)
}

func (s *FileStore) SaveGroupSessionPickle(id string, pickled []byte) error {
	return s.savePickle(groupDir, id, pickled)
}

func (s *FileStore) LoadGroupSessionPickle(id string) ([]byte, bool, error) {
	return s.loadPickle(groupDir, id)
}

// ListSessions returns the ids of all stored pairwise session pickles.
func (s *FileStore) ListSessions() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, sessionDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), pickleSuffix); ok {
			ids = append(ids, name)
		}
	}
	return ids, nil
}

func (s *FileStore) savePickle(sub, id string, pickled []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, sub)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, id+pickleSuffix), pickled, 0o600)
}

func (s *FileStore) loadPickle(sub, id string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, sub, id+pickleSuffix))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}
