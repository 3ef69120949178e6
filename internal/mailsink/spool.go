package mailsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Spool stores raw messages as .eml files.
type Spool struct {
	basePath string
}

// NewSpool creates the spool directory if needed
func NewSpool(basePath string) (*Spool, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &Spool{basePath: basePath}, nil
}

func (s *Spool) path(id string) string {
	return filepath.Join(s.basePath, filepath.Base(id)+".eml")
}

// Save writes a message to a file
func (s *Spool) Save(id string, data []byte) error {
	return os.WriteFile(s.path(id), data, 0o644)
}

// Load reads a message back
func (s *Spool) Load(id string) ([]byte, error) {
	return os.ReadFile(s.path(id))
}

// Delete removes a message file
func (s *Spool) Delete(id string) error {
	return os.Remove(s.path(id))
}

// List returns the stored message ids in name order.
func (s *Spool) List() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".eml") {
			ids = append(ids, strings.TrimSuffix(e.Name(), ".eml"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}
