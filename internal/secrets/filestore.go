package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SecretsFileName is the on-disk store file inside the state directory.
const SecretsFileName = "secrets.json"

// fileData is the serialized shape of the file store.
type fileData struct {
	// Generic maps "service\x00account" to raw bytes.
	Generic map[string][]byte `json:"generic"`

	// Network maps "server\x00account" to a password string.
	Network map[string]string `json:"network"`
}

// FileStore is a file-backed Store. It stands in for an OS keychain:
// entries live in a single 0600 JSON file under the state directory.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file store under the given state directory.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, SecretsFileName)}
}

func (f *FileStore) Save(service, account string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := f.load()
	d.Generic[service+"\x00"+account] = data
	return f.save(d)
}

func (f *FileStore) Read(service, account string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.load().Generic[service+"\x00"+account]
	return data, ok
}

func (f *FileStore) Delete(service, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := f.load()
	if _, ok := d.Generic[service+"\x00"+account]; !ok {
		return nil
	}
	delete(d.Generic, service+"\x00"+account)
	return f.save(d)
}

func (f *FileStore) SaveNetworkPassword(server, account, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := f.load()
	d.Network[server+"\x00"+account] = password
	return f.save(d)
}

func (f *FileStore) ReadNetworkPassword(server, account string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pw, ok := f.load().Network[server+"\x00"+account]
	return pw, ok
}

func (f *FileStore) DeleteNetworkPassword(server, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := f.load()
	if _, ok := d.Network[server+"\x00"+account]; !ok {
		return nil
	}
	delete(d.Network, server+"\x00"+account)
	return f.save(d)
}

// load reads the store file. A missing or unreadable file yields an
// empty store; absence is never an error at this layer.
func (f *FileStore) load() *fileData {
	d := &fileData{
		Generic: make(map[string][]byte),
		Network: make(map[string]string),
	}

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return d
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return &fileData{
			Generic: make(map[string][]byte),
			Network: make(map[string]string),
		}
	}
	if d.Generic == nil {
		d.Generic = make(map[string][]byte)
	}
	if d.Network == nil {
		d.Network = make(map[string]string)
	}
	return d
}

func (f *FileStore) save(d *fileData) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("creating secrets directory: %w", err)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding secrets: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("writing secrets: %w", err)
	}

	return nil
}
