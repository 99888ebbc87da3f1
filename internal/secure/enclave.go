package secure

import (
	"sort"
	"sync"

	"github.com/awnumar/memguard"
)

// SecureBuffer holds one credential value encrypted in memory until it is
// needed to build a child process environment.
type SecureBuffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	destroyed bool
}

// NewSecureBuffer seals data into an enclave. memguard wipes the source
// slice after copying it.
func NewSecureBuffer(data []byte) (*SecureBuffer, error) {
	if len(data) == 0 {
		return &SecureBuffer{}, nil
	}
	return &SecureBuffer{enclave: memguard.NewEnclave(data)}, nil
}

// NewSecureBufferFromString seals a string value.
func NewSecureBufferFromString(s string) (*SecureBuffer, error) {
	return NewSecureBuffer([]byte(s))
}

// Open decrypts the value into a locked buffer. The caller must Destroy it.
// A destroyed or empty buffer opens to an empty value.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed || s.enclave == nil {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return s.enclave.Open()
}

// Reveal returns the plaintext as a string. Use it only at the point where
// the value leaves the process, such as when building a child environment.
func (s *SecureBuffer) Reveal() (string, error) {
	locked, err := s.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()
	return string(locked.Bytes()), nil
}

// Destroy drops the enclave. It is safe to call more than once.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.destroyed = true
}

// Bag is a set of named secure buffers that are destroyed together.
type Bag struct {
	mu    sync.Mutex
	items map[string]*SecureBuffer
}

func NewBag() *Bag {
	return &Bag{items: map[string]*SecureBuffer{}}
}

// Put seals value under name, replacing and destroying any previous value.
func (b *Bag) Put(name, value string) error {
	buf, err := NewSecureBufferFromString(value)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.items[name]; ok {
		old.Destroy()
	}
	b.items[name] = buf
	return nil
}

// Names returns the stored names in sorted order.
func (b *Bag) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.items))
	for n := range b.items {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Environ reveals every value as NAME=value, sorted by name.
func (b *Bag) Environ() ([]string, error) {
	var env []string
	for _, name := range b.Names() {
		b.mu.Lock()
		buf := b.items[name]
		b.mu.Unlock()

		v, err := buf.Reveal()
		if err != nil {
			return nil, err
		}
		env = append(env, name+"="+v)
	}
	return env, nil
}

// Destroy destroys every buffer in the bag.
func (b *Bag) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, buf := range b.items {
		buf.Destroy()
		delete(b.items, name)
	}
}
