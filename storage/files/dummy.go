package files

import (
	"context"
	"io"
	"io/ioutil"
	"sync"
)

// DummyStorage keeps stored files in memory; for tests.
type DummyStorage struct {
	mu    sync.RWMutex
	table map[string][]byte

	// FailStores / FailRemoves inject backend failures.
	FailStores  error
	FailRemoves error
}

var _ Storage = (*DummyStorage)(nil)

func NewDummyStorage() *DummyStorage {
	return &DummyStorage{table: make(map[string][]byte)}
}

func (s *DummyStorage) Store(ctx context.Context, key string, r io.Reader) (string, error) {
	if s.FailStores != nil {
		return "", s.FailStores
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table[key] = data
	return "dummy://" + key, nil
}

func (s *DummyStorage) Remove(ctx context.Context, ref string) error {
	if s.FailRemoves != nil {
		return s.FailRemoves
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.table, ref[len("dummy://"):])
	return nil
}

// Len reports how many files are currently stored.
func (s *DummyStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}
