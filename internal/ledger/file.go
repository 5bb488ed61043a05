package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// snapshot is the on-disk form of a FileStore.
type snapshot struct {
	Records   map[string]hexutil.Bytes `json:"records"`
	UpdatedAt string                   `json:"updated_at"`
}

// FileStore is a MemoryStore that rewrites a JSON snapshot on every commit.
// The snapshot is replaced with a rename, so a crash leaves either the old
// or the new state on disk.
type FileStore struct {
	*MemoryStore
	path string
}

// OpenFileStore loads path if it exists and returns a store persisting to it.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is required")
	}

	data, err := load(path)
	if err != nil {
		return nil, err
	}

	mem := NewMemoryStore()
	mem.data = data
	fs := &FileStore{MemoryStore: mem, path: path}
	mem.commit = fs.save
	return fs, nil
}

func (f *FileStore) Path() string {
	return f.path
}

func load(path string) (map[string][]byte, error) {
	out := make(map[string][]byte)

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("stat state file: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("state file path is a directory")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	for k, v := range snap.Records {
		out[k] = []byte(v)
	}
	return out, nil
}

func (f *FileStore) save(records map[string][]byte) error {
	dir := filepath.Dir(f.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	snap := snapshot{
		Records:   make(map[string]hexutil.Bytes, len(records)),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range records {
		snap.Records[k] = v
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state file: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write state file tmp: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("rename state file: %w", err)
	}
	return nil
}
