package dataset

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sales-dashboard/internal/models"
)

const cacheVersion = "v2"

type cacheEntry struct {
	Source     string
	SourceSize int64
	SourceMod  time.Time
	Records    []models.SalesRecord
}

// Cache keeps parsed base tables on disk so a restart can skip spreadsheet parsing.
// An entry is only reused while the source file's size and modification time are unchanged.
type Cache struct {
	dir string
}

// NewCache returns nil for an empty dir; a nil *Cache never hits and never stores.
func NewCache(dir string) *Cache {
	if dir == "" {
		return nil
	}
	return &Cache{dir: dir}
}

func (c *Cache) filename(source string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(source)
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.gob", name, cacheVersion))
}

// Get returns the cached table for source, or false when there is no fresh entry.
func (c *Cache) Get(source string) (*Table, bool) {
	if c == nil {
		return nil, false
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, false
	}

	file, err := os.Open(c.filename(source))
	if err != nil {
		return nil, false
	}
	defer file.Close()

	var entry cacheEntry
	if err := gob.NewDecoder(file).Decode(&entry); err != nil {
		return nil, false
	}

	if entry.Source != source || entry.SourceSize != info.Size() || !entry.SourceMod.Equal(info.ModTime()) {
		return nil, false
	}
	return NewTable(source, entry.Records), true
}

func (c *Cache) Put(t *Table) error {
	if c == nil {
		return nil
	}
	if t == nil {
		return errors.New("nil table")
	}

	info, err := os.Stat(t.Source())
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, "table-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	entry := cacheEntry{
		Source:     t.Source(),
		SourceSize: info.Size(),
		SourceMod:  info.ModTime(),
		Records:    t.records,
	}
	if err := gob.NewEncoder(tmp).Encode(entry); err != nil {
		tmp.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}

	return os.Rename(tmp.Name(), c.filename(t.Source()))
}
