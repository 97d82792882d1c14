package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

const (
	// ListFileName stores the serialized identity list.
	ListFileName = "identities.json"

	// ActiveFileName stores the active identity id as a plain string.
	ActiveFileName = "active-id"

	lockFileName = ".state.lock"
)

// ErrStateNotFound indicates the identity list has never been written.
var ErrStateNotFound = errors.New("identity state not found")

// listFile is the on-disk shape of the identity list.
type listFile struct {
	Version    int        `json:"version"`
	Identities []Identity `json:"identities"`
}

// CurrentListVersion is the current schema version for the identity list.
const CurrentListVersion = 1

// Store persists the identity list and the active-id pointer under a
// state directory. Writes are guarded with a file lock so the watch
// daemon and one-shot CLI invocations can share the same state.
type Store struct {
	mu  sync.Mutex
	dir string
	fl  *flock.Flock
}

// NewStore creates a store rooted at the given state directory.
func NewStore(dir string) *Store {
	return &Store{
		dir: dir,
		fl:  flock.New(filepath.Join(dir, lockFileName)),
	}
}

// ListPath returns the path of the identity list file.
func (s *Store) ListPath() string {
	return filepath.Join(s.dir, ListFileName)
}

// ActivePath returns the path of the active-id file.
func (s *Store) ActivePath() string {
	return filepath.Join(s.dir, ActiveFileName)
}

// LoadIdentities reads the identity list from disk.
// Returns ErrStateNotFound if the list has never been saved.
func (s *Store) LoadIdentities() ([]Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.ListPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStateNotFound, s.ListPath())
		}
		return nil, fmt.Errorf("reading identity list: %w", err)
	}

	var f listFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing identity list: %w", err)
	}

	return f.Identities, nil
}

// SaveIdentities writes the identity list to disk. The file is created
// 0600 because identities carry credentials.
func (s *Store) SaveIdentities(ids []Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(); err != nil {
		return err
	}
	defer s.fl.Unlock()

	f := listFile{Version: CurrentListVersion, Identities: ids}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding identity list: %w", err)
	}

	if err := os.WriteFile(s.ListPath(), data, 0600); err != nil {
		return fmt.Errorf("writing identity list: %w", err)
	}

	return nil
}

// LoadActiveID reads the active identity id. Returns "" when unset.
func (s *Store) LoadActiveID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.ActivePath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading active id: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

// SaveActiveID writes the active identity id. An empty id clears it.
func (s *Store) SaveActiveID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock(); err != nil {
		return err
	}
	defer s.fl.Unlock()

	if err := os.WriteFile(s.ActivePath(), []byte(id+"\n"), 0644); err != nil {
		return fmt.Errorf("writing active id: %w", err)
	}

	return nil
}

// lock acquires the cross-process file lock, creating the state
// directory on first use.
func (s *Store) lock() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := s.fl.Lock(); err != nil {
		return fmt.Errorf("locking state: %w", err)
	}
	return nil
}
