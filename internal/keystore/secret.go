package keystore

import (
	"runtime"
	"sync"
)

// Secret holds sensitive bytes and zeroes them on Destroy. The backing
// memory is locked against swapping where the platform allows it.
type Secret struct {
	mu     sync.Mutex
	data   []byte
	locked bool
}

// NewSecret copies data into a new Secret.
func NewSecret(data []byte) *Secret {
	s := &Secret{data: append([]byte(nil), data...)}
	s.locked = mlock(s.data)
	runtime.SetFinalizer(s, (*Secret).Destroy)
	return s
}

// Locked reports whether the secret memory is locked.
func (s *Secret) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// SecretString copies a string into a new Secret.
func SecretString(value string) *Secret {
	return NewSecret([]byte(value))
}

// Bytes returns the underlying slice, or nil after Destroy.
func (s *Secret) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// String returns a copy of the secret as a string.
func (s *Secret) String() string {
	return string(s.Bytes())
}

// Len returns the secret length.
func (s *Secret) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Destroy zeroes the secret. Safe to call more than once.
func (s *Secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return
	}
	wipe(s.data)
	if s.locked {
		munlock(s.data)
		s.locked = false
	}
	s.data = nil
	runtime.SetFinalizer(s, nil)
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
