// Package secrets provides access to the credential store used for
// token recovery and storage.
//
// The store exposes two independent namespaces: generic secrets keyed
// by (service, account), and network passwords keyed by (server,
// account) modeling credential-manager style entries. There are no
// transactional guarantees across the two namespaces.
package secrets

// Store is the consumed credential-store contract. Save overwrites any
// existing entry. Read reports absence via its bool result rather than
// an error. Delete is a no-op when the entry is absent.
type Store interface {
	Save(service, account string, data []byte) error
	Read(service, account string) ([]byte, bool)
	Delete(service, account string) error

	SaveNetworkPassword(server, account, password string) error
	ReadNetworkPassword(server, account string) (string, bool)
	DeleteNetworkPassword(server, account string) error
}

// Memory is an in-memory Store for tests.
type Memory struct {
	generic map[string][]byte
	network map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		generic: make(map[string][]byte),
		network: make(map[string]string),
	}
}

func (m *Memory) Save(service, account string, data []byte) error {
	m.generic[service+"\x00"+account] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Read(service, account string) ([]byte, bool) {
	data, ok := m.generic[service+"\x00"+account]
	return data, ok
}

func (m *Memory) Delete(service, account string) error {
	delete(m.generic, service+"\x00"+account)
	return nil
}

func (m *Memory) SaveNetworkPassword(server, account, password string) error {
	m.network[server+"\x00"+account] = password
	return nil
}

func (m *Memory) ReadNetworkPassword(server, account string) (string, bool) {
	pw, ok := m.network[server+"\x00"+account]
	return pw, ok
}

func (m *Memory) DeleteNetworkPassword(server, account string) error {
	delete(m.network, server+"\x00"+account)
	return nil
}
