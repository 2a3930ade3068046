package asset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"vidstudio/internal/logging"
	"vidstudio/internal/services"
)

// SnapshotFileName is the metadata sidecar written beside the assets
// directory.
const SnapshotFileName = "assets.json"

// Store manages the assets of a single session.
type Store struct {
	mu           sync.Mutex
	assetsDir    string
	snapshotPath string
	logger       *slog.Logger
	assets       map[string]Asset
}

// NewStore creates a store rooted at the session directory. The assets
// directory must already exist (the session layout invariant).
func NewStore(sessionDir string, logger *slog.Logger) *Store {
	return &Store{
		assetsDir:    filepath.Join(sessionDir, "assets"),
		snapshotPath: filepath.Join(sessionDir, SnapshotFileName),
		logger:       logging.NewComponentLogger(logger, "assets"),
		assets:       make(map[string]Asset),
	}
}

// Dir returns the assets directory.
func (s *Store) Dir() string {
	return s.assetsDir
}

// Put registers an asset. The asset's backing file must exist; an asset is
// never exposed to callers without a live file behind it.
func (s *Store) Put(a Asset) error {
	if strings.TrimSpace(a.ID) == "" {
		return services.Wrap(services.ErrInvalidInput, "assets", "put", "asset id required", nil)
	}
	if a.Path == "" {
		a.Path = filepath.Join(s.assetsDir, a.FileName)
	}
	info, err := os.Stat(a.Path)
	if err != nil {
		return services.Wrap(services.ErrGone, "assets", "put", "asset file missing: "+a.Path, err)
	}
	a.SizeBytes = info.Size()

	s.mu.Lock()
	s.assets[a.ID] = a
	s.mu.Unlock()
	return nil
}

// Get resolves an asset by id.
func (s *Store) Get(id string) (Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	return a, ok
}

// List returns all assets sorted by creation time.
func (s *Store) List() []Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Asset, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len reports the number of tracked assets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assets)
}

// Remove drops an asset and deletes its backing files. File deletion is
// best-effort: an unlink error is logged and the asset is still removed from
// the store.
func (s *Store) Remove(id string) (Asset, error) {
	s.mu.Lock()
	a, ok := s.assets[id]
	if ok {
		delete(s.assets, id)
	}
	s.mu.Unlock()
	if !ok {
		return Asset{}, services.Wrap(services.ErrNotFound, "assets", "remove", "unknown asset "+id, nil)
	}

	for _, path := range []string{a.Path, a.ThumbnailPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to delete asset file", logging.String("path", path), logging.Error(err))
		}
	}
	return a, nil
}

// Persist writes the metadata snapshot. Absolute paths are intentionally
// excluded so the session tree stays relocatable.
func (s *Store) Persist() error {
	s.mu.Lock()
	entries := make(map[string]snapshotEntry, len(s.assets))
	for id, a := range s.assets {
		entries[id] = snapshotEntry{
			Type:       a.Type,
			FileName:   a.FileName,
			Duration:   a.Duration,
			Width:      a.Width,
			Height:     a.Height,
			CreatedAt:  a.CreatedAt,
			Provenance: a.Provenance,
		}
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal asset snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o644); err != nil {
		return fmt.Errorf("write asset snapshot: %w", err)
	}
	return nil
}

// Restore rebuilds the store from the assets directory and the persisted
// snapshot. The directory scan is authoritative: snapshot entries whose file
// vanished are dropped, and files without a snapshot entry are adopted with
// metadata recomputed from disk. Returns the number of usable assets.
func (s *Store) Restore() (int, error) {
	entries := map[string]snapshotEntry{}
	if data, err := os.ReadFile(s.snapshotPath); err == nil {
		if err := json.Unmarshal(data, &entries); err != nil {
			s.logger.Warn("asset snapshot unreadable; rebuilding from directory scan", logging.Error(err))
			entries = map[string]snapshotEntry{}
		}
	}

	dirEntries, err := os.ReadDir(s.assetsDir)
	if err != nil {
		return 0, fmt.Errorf("scan assets directory: %w", err)
	}

	byFileName := make(map[string]string, len(entries)) // filename -> id
	for id, entry := range entries {
		byFileName[entry.FileName] = id
	}

	restored := make(map[string]Asset)
	thumbs := map[string]string{} // asset id -> thumbnail path
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		name := dirEntry.Name()
		// Dot-prefixed files are in-flight rebuild temps left by a
		// crash; never adopt them as assets.
		if strings.HasPrefix(name, ".") {
			continue
		}
		if strings.HasPrefix(name, ThumbnailPrefix) {
			stem := strings.TrimSuffix(strings.TrimPrefix(name, ThumbnailPrefix), filepath.Ext(name))
			thumbs[stem] = filepath.Join(s.assetsDir, name)
			continue
		}
		mediaType, usable := TypeForPath(name)
		if !usable {
			continue
		}
		info, err := dirEntry.Info()
		if err != nil {
			continue
		}

		a := Asset{
			Type:      mediaType,
			FileName:  name,
			Path:      filepath.Join(s.assetsDir, name),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime(),
		}
		if id, ok := byFileName[name]; ok {
			entry := entries[id]
			a.ID = id
			a.Type = entry.Type
			a.Duration = entry.Duration
			a.Width = entry.Width
			a.Height = entry.Height
			a.Provenance = entry.Provenance
			if !entry.CreatedAt.IsZero() {
				a.CreatedAt = entry.CreatedAt
			}
		} else {
			a.ID = uuid.NewString()
		}
		restored[a.ID] = a
	}

	for id, a := range restored {
		if thumb, ok := thumbs[id]; ok {
			a.ThumbnailPath = thumb
			restored[id] = a
		}
	}

	s.mu.Lock()
	s.assets = restored
	s.mu.Unlock()
	return len(restored), nil
}
