package session

import (
	"path/filepath"
	"sync"
	"time"

	"vidstudio/internal/asset"
	"vidstudio/internal/timeline"
)

// State is the lifecycle state of a session.
type State string

const (
	// StateEmpty means the session exists but holds no assets yet.
	StateEmpty State = "empty"
	// StatePopulated means at least one asset has been ingested.
	StatePopulated State = "populated"
	// StateDestroyed marks a session whose directory tree has been removed.
	StateDestroyed State = "destroyed"
)

// AssetsDirName and RendersDirName are the fixed subdirectories of every
// session tree.
const (
	AssetsDirName  = "assets"
	RendersDirName = "renders"
)

// Session is one editing workspace backed by a directory tree. Mutating
// operations take opMu for their whole duration, subprocess included, so at
// most one mutation is in flight per session. In-memory metadata reads go
// through stateMu and stay responsive while a mutation runs.
type Session struct {
	ID        string
	Dir       string
	CreatedAt time.Time

	opMu sync.Mutex

	stateMu sync.RWMutex
	state   State
	project timeline.Project

	assets *asset.Store
}

// AssetsDir returns the directory holding ingested media.
func (s *Session) AssetsDir() string {
	return filepath.Join(s.Dir, AssetsDirName)
}

// RendersDir returns the directory holding render outputs.
func (s *Session) RendersDir() string {
	return filepath.Join(s.Dir, RendersDirName)
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.stateMu.Lock()
	s.state = state
	s.stateMu.Unlock()
}

// Project returns a copy of the current project snapshot. The clip and
// track slices are copied so callers cannot mutate shared state.
func (s *Session) Project() timeline.Project {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return copyProject(s.project)
}

func (s *Session) setProject(p timeline.Project) {
	s.stateMu.Lock()
	s.project = p
	s.stateMu.Unlock()
}

// Assets exposes the session's asset store. The store carries its own
// locking and is safe for concurrent reads.
func (s *Session) Assets() *asset.Store {
	return s.assets
}

// Age reports how long the session has existed.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.CreatedAt)
}

func copyProject(p timeline.Project) timeline.Project {
	out := p
	out.Tracks = append([]timeline.Track(nil), p.Tracks...)
	out.Clips = append([]timeline.Clip(nil), p.Clips...)
	if p.Transcripts != nil {
		out.Transcripts = make(map[string]string, len(p.Transcripts))
		for k, v := range p.Transcripts {
			out.Transcripts[k] = v
		}
	}
	return out
}
