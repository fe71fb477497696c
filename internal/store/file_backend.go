package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"dappkit/internal/domain"
)

const valueExt = ".json"

var errBackendClosed = errors.New("file backend closed")

// FileBackend stores one file per key under dir. When opened with a
// passphrase every value is sealed with chacha20poly1305 under a key derived
// once via scrypt; the KDF parameters live in keyring.json.
type FileBackend struct {
	dir    string
	mu     sync.Mutex
	sealer *sealer
	closed bool
}

// FileOption configures a FileBackend.
type FileOption func(*fileOptions)

type fileOptions struct {
	passphrase string
	n, r, p    int
}

// WithPassphrase seals values at rest.
func WithPassphrase(passphrase string) FileOption {
	return func(o *fileOptions) { o.passphrase = passphrase }
}

// WithScryptParams overrides the scrypt cost parameters used when a new
// keyring is created.
func WithScryptParams(N, r, p int) FileOption {
	return func(o *fileOptions) { o.n, o.r, o.p = N, r, p }
}

// NewFileBackend opens (creating if needed) a FileBackend rooted at dir.
func NewFileBackend(dir string, opts ...FileOption) (*FileBackend, error) {
	o := fileOptions{}
	o.n, o.r, o.p = scryptParamsDefault()
	for _, opt := range opts {
		opt(&o)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	fb := &FileBackend{dir: dir}
	if o.passphrase == "" {
		return fb, nil
	}

	path := filepath.Join(dir, keyringFile)
	b, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if b == nil {
		kr, s, err := newKeyring(o.passphrase, o.n, o.r, o.p)
		if err != nil {
			return nil, err
		}
		raw, err := json.MarshalIndent(kr, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := writeFile(path, raw, 0o600); err != nil {
			return nil, err
		}
		fb.sealer = s
		return fb, nil
	}

	var kr keyring
	if err := json.Unmarshal(b, &kr); err != nil {
		return nil, fmt.Errorf("keyring: %w", err)
	}
	s, err := kr.open(o.passphrase)
	if err != nil {
		return nil, err
	}
	fb.sealer = s
	return fb, nil
}

func (f *FileBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false, errBackendClosed
	}

	b, err := readFile(f.path(key))
	if err != nil || b == nil {
		return nil, false, err
	}
	if f.sealer != nil {
		if b, err = f.sealer.open(b, []byte(key)); err != nil {
			return nil, false, err
		}
	}
	return b, true, nil
}

func (f *FileBackend) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errBackendClosed
	}

	b := value
	if f.sealer != nil {
		var err error
		if b, err = f.sealer.seal(value, []byte(key)); err != nil {
			return err
		}
	}
	return writeFile(f.path(key), b, 0o600)
}

func (f *FileBackend) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errBackendClosed
	}
	return removeFile(f.path(key))
}

func (f *FileBackend) Keys(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errBackendClosed
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == keyringFile || !strings.HasSuffix(name, valueExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, valueExt))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+valueExt)
}

// Close wipes the in-memory sealing key. Later calls fail.
func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sealer != nil {
		f.sealer.wipe()
	}
	f.closed = true
	return nil
}

// Compile-time assertion that FileBackend implements domain.KeyValueBackend.
var _ domain.KeyValueBackend = (*FileBackend)(nil)
