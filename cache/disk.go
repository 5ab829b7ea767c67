package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	diskExt        = ".cache"
	diskHeaderSize = 8
)

// DiskStore keeps one file per key under a directory. Values survive process
// restarts.
//
// Each file holds an 8-byte big-endian expiry (Unix nanoseconds, zero for
// none) followed by the value. Writes go to a temporary file that is renamed
// into place, so readers never see a partial value.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a store rooted at dir, creating it if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: directory is required", ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create store directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+diskExt)
}

// Get reads the value for key. Returns (nil, false) on miss, expiry or a
// corrupt file.
func (s *DiskStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	path := s.path(key)
	data, err := os.ReadFile(path)
	if err != nil || len(data) < diskHeaderSize {
		return nil, false
	}

	expiresAt := int64(binary.BigEndian.Uint64(data[:diskHeaderSize]))
	if expiresAt != 0 && time.Now().UnixNano() > expiresAt {
		_ = os.Remove(path)
		return nil, false
	}

	return data[diskHeaderSize:], true
}

// Set writes value for key. A non-positive TTL stores the value without
// expiry.
func (s *DiskStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	buf := make([]byte, diskHeaderSize+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiresAt))
	copy(buf[diskHeaderSize:], value)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cache: write value: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cache: commit value: %w", err)
	}
	return nil
}

// Delete removes the value for key. Idempotent - no error on miss.
func (s *DiskStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every stored value.
func (s *DiskStore) Clear() error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+diskExt))
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Ensure DiskStore implements Store
var _ Store = (*DiskStore)(nil)
