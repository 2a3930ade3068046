package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vidstudio/internal/asset"
	"vidstudio/internal/config"
	"vidstudio/internal/fileutil"
	"vidstudio/internal/history"
	"vidstudio/internal/logging"
	"vidstudio/internal/media/ffmpeg"
	"vidstudio/internal/services"
	"vidstudio/internal/timeline"
)

// Registry owns every live session. It is the only globally reachable
// mutable structure; per-session state is guarded by the session's own
// locks.
type Registry struct {
	cfg     *config.Config
	baseLog *slog.Logger
	logger  *slog.Logger
	runner  *ffmpeg.Runner
	journal *history.Store
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry wires a registry over the configured tool binaries. journal
// may be nil when no durable operation record is wanted.
func NewRegistry(cfg *config.Config, journal *history.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		cfg:      cfg,
		baseLog:  logger,
		logger:   logging.NewComponentLogger(logger, "session"),
		runner:   ffmpeg.NewRunner(cfg.FFmpegBinary(), logger),
		journal:  journal,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// opRunner builds a runner whose progress observer reports the encode
// position to the journal, sampled so long encodes do not flood SQLite.
// total is the expected output length; zero disables percentage reporting.
func (r *Registry) opRunner(ctx context.Context, opID int64, total float64) *ffmpeg.Runner {
	if r.journal == nil || opID == 0 || total <= 0 {
		return r.runner
	}
	sampler := logging.NewProgressSampler(10)
	return ffmpeg.NewRunner(r.cfg.FFmpegBinary(), r.baseLog, ffmpeg.WithObserver(func(p ffmpeg.Progress) {
		percent := p.Seconds / total * 100
		if percent > 100 {
			percent = 100
		}
		if sampler.ShouldLog(percent, "encode") {
			r.journalProgress(ctx, opID, "encode", percent)
		}
	}))
}

func (r *Registry) settings() timeline.Settings {
	return timeline.Settings{
		Width:     r.cfg.Render.CanvasWidth,
		Height:    r.cfg.Render.CanvasHeight,
		FrameRate: r.cfg.Render.FrameRate,
	}
}

// Create provisions a new empty session directory tree.
func (r *Registry) Create() (*Session, error) {
	id := uuid.NewString()
	dir := filepath.Join(r.cfg.Paths.SessionsDir, id)

	sess := &Session{
		ID:        id,
		Dir:       dir,
		CreatedAt: r.now(),
		state:     StateEmpty,
		project:   timeline.NewProject(r.settings()),
	}
	if err := fileutil.EnsureDir(sess.AssetsDir()); err != nil {
		return nil, services.Wrap(services.ErrTransient, "session", "create", "creating assets dir", err)
	}
	if err := fileutil.EnsureDir(sess.RendersDir()); err != nil {
		return nil, services.Wrap(services.ErrTransient, "session", "create", "creating renders dir", err)
	}
	sess.assets = asset.NewStore(dir, r.logger)
	if err := timeline.SaveProject(dir, sess.project); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()

	r.logger.Info("session created", logging.String(logging.FieldSessionID, id))
	return sess, nil
}

// Get resolves a session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "session", "get", fmt.Sprintf("session %s", id), nil)
	}
	return sess, nil
}

// List returns all live sessions ordered by creation time.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Destroy deletes a session and its directory tree. A session with a
// mutation in flight is refused; the caller may retry once it is quiescent.
func (r *Registry) Destroy(id string) error {
	sess, err := r.Get(id)
	if err != nil {
		return err
	}
	if !sess.opMu.TryLock() {
		return services.Wrap(services.ErrTransient, "session", "destroy",
			fmt.Sprintf("session %s has an operation in flight", id), nil)
	}
	defer sess.opMu.Unlock()

	sess.setState(StateDestroyed)
	if err := os.RemoveAll(sess.Dir); err != nil {
		return services.Wrap(services.ErrTransient, "session", "destroy", fmt.Sprintf("removing %s", sess.Dir), err)
	}
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	r.logger.Info("session destroyed", logging.String(logging.FieldSessionID, id))
	return nil
}

// RestoreAll scans the sessions root and reconstructs each session from its
// directory. A session whose restoration yields no usable assets is dropped
// entirely, directory included. Returns the number of restored sessions.
func (r *Registry) RestoreAll() (int, error) {
	entries, err := os.ReadDir(r.cfg.Paths.SessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, services.Wrap(services.ErrTransient, "session", "restore", "reading sessions root", err)
	}

	restored := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		dir := filepath.Join(r.cfg.Paths.SessionsDir, id)

		store := asset.NewStore(dir, r.logger)
		count, err := store.Restore()
		if err != nil {
			r.logger.Warn("session restore failed",
				logging.String(logging.FieldSessionID, id),
				logging.Error(err),
			)
			continue
		}
		if count == 0 {
			r.logger.Info("dropping session with no usable assets", logging.String(logging.FieldSessionID, id))
			if err := os.RemoveAll(dir); err != nil {
				r.logger.Warn("removing empty session dir", logging.String(logging.FieldSessionID, id), logging.Error(err))
			}
			continue
		}

		project, _, err := timeline.LoadProject(dir, r.settings())
		if err != nil {
			r.logger.Warn("project snapshot unreadable, starting fresh",
				logging.String(logging.FieldSessionID, id),
				logging.Error(err),
			)
			project = timeline.NewProject(r.settings())
		}

		sess := &Session{
			ID:        id,
			Dir:       dir,
			CreatedAt: restoredCreationTime(store, entry),
			state:     StatePopulated,
			project:   project,
			assets:    store,
		}
		if err := fileutil.EnsureDir(sess.RendersDir()); err != nil {
			r.logger.Warn("ensuring renders dir", logging.String(logging.FieldSessionID, id), logging.Error(err))
		}

		r.mu.Lock()
		r.sessions[id] = sess
		r.mu.Unlock()
		restored++

		r.logger.Info("session restored",
			logging.String(logging.FieldSessionID, id),
			logging.Int("assets", count),
		)
	}
	return restored, nil
}

// restoredCreationTime approximates the original creation time of a
// restored session: the oldest asset timestamp when available, directory
// mtime otherwise.
func restoredCreationTime(store *asset.Store, entry os.DirEntry) time.Time {
	var oldest time.Time
	for _, a := range store.List() {
		if a.CreatedAt.IsZero() {
			continue
		}
		if oldest.IsZero() || a.CreatedAt.Before(oldest) {
			oldest = a.CreatedAt
		}
	}
	if !oldest.IsZero() {
		return oldest
	}
	if info, err := entry.Info(); err == nil {
		return info.ModTime()
	}
	return time.Now()
}
