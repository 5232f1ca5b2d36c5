package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
)

// FilePreferences stores all keys in a single JSON document on disk.
// Writes go to a temporary file that replaces the document atomically.
type FilePreferences struct {
	path string
	mu   sync.Mutex
}

var _ ports.Preferences = (*FilePreferences)(nil)

func NewFilePreferences(path string) *FilePreferences {
	return &FilePreferences{path: path}
}

// DefaultPath returns $XDG_CONFIG_HOME/partnersso/preferences.json
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("getting user config directory: %w", err)
	}
	return filepath.Join(dir, "partnersso", "preferences.json"), nil
}

func (p *FilePreferences) Load(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.read()
	if err != nil {
		return nil, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	return v, nil
}

func (p *FilePreferences) Save(_ context.Context, key string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.read()
	if err != nil {
		// an unreadable document is replaced rather than blocking writes
		doc = make(map[string][]byte)
	}
	doc[key] = data
	return p.write(doc)
}

// read returns the stored document. Values are kept as raw bytes and encoded
// base64 inside the JSON document.
func (p *FilePreferences) read() (map[string][]byte, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string][]byte), nil
		}
		return nil, fmt.Errorf("reading preferences '%s': %w", p.path, err)
	}

	doc := make(map[string][]byte)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding preferences '%s': %w", p.path, err)
	}
	return doc, nil
}

func (p *FilePreferences) write(doc map[string][]byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating preferences directory '%s': %w", dir, err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".preferences-*")
	if err != nil {
		return fmt.Errorf("creating temporary preferences file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing preferences: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("setting preferences permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("replacing preferences '%s': %w", p.path, err)
	}
	return nil
}
