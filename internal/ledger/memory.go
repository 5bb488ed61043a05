package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory. Updates are serialized by a
// single lock and staged in an overlay until fn returns without error.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]byte
	commit func(map[string][]byte) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Update(ctx context.Context, fn func(KV) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	staged := &overlay{base: s.data, writes: make(map[string][]byte)}
	if err := fn(staged); err != nil {
		return err
	}
	if len(staged.writes) == 0 {
		return nil
	}

	if s.commit != nil {
		next := make(map[string][]byte, len(s.data)+len(staged.writes))
		for k, v := range s.data {
			next[k] = v
		}
		for k, v := range staged.writes {
			next[k] = v
		}
		if err := s.commit(next); err != nil {
			return err
		}
	}

	for k, v := range staged.writes {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(KV) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&overlay{base: s.data})
}

// Snapshot returns a copy of every record.
func (s *MemoryStore) Snapshot() map[string][]byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		out[k] = clone(v)
	}
	return out
}

func (s *MemoryStore) Close() error {
	return nil
}

// overlay reads through to base and buffers writes. A nil writes map makes
// it read-only.
type overlay struct {
	base   map[string][]byte
	writes map[string][]byte
}

func (o *overlay) Get(_ context.Context, key string) ([]byte, bool, error) {
	if v, ok := o.writes[key]; ok {
		return clone(v), true, nil
	}
	v, ok := o.base[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (o *overlay) Put(_ context.Context, key string, value []byte) error {
	if o.writes == nil {
		return ErrReadOnly
	}
	o.writes[key] = clone(value)
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
