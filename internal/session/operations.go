package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidstudio/internal/asset"
	"vidstudio/internal/fileutil"
	"vidstudio/internal/history"
	"vidstudio/internal/logging"
	"vidstudio/internal/media/ffprobe"
	"vidstudio/internal/render"
	"vidstudio/internal/services"
	"vidstudio/internal/silence"
	"vidstudio/internal/timeline"
)

// IngestOptions carries upload metadata alongside the file itself.
type IngestOptions struct {
	// FileName is the original upload name; the extension decides the
	// asset type.
	FileName        string
	AIGenerated     bool
	SourceKeyword   string
	SourceTimestamp float64
}

// Ingest moves an uploaded file into the session, probes its metadata, and
// registers it as an asset. Video assets get a best-effort thumbnail.
func (r *Registry) Ingest(ctx context.Context, sessionID, srcPath string, opts IngestOptions) (asset.Asset, error) {
	sess, err := r.Get(sessionID)
	if err != nil {
		return asset.Asset{}, err
	}
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	ctx = services.WithSessionID(services.WithOperation(ctx, string(history.KindUpload)), sessionID)

	name := opts.FileName
	if name == "" {
		name = filepath.Base(srcPath)
	}
	name = sanitizeFileName(name)
	kind, ok := asset.TypeForPath(name)
	if !ok {
		return asset.Asset{}, services.Wrap(services.ErrInvalidInput, "session", "ingest",
			fmt.Sprintf("unsupported media type for %s", name), nil)
	}

	id := uuid.NewString()
	opID := r.journalBegin(ctx, sessionID, history.KindUpload, name)

	dest := filepath.Join(sess.AssetsDir(), name)
	if _, err := os.Stat(dest); err == nil {
		name = id[:8] + "_" + name
		dest = filepath.Join(sess.AssetsDir(), name)
	}
	if err := fileutil.MoveFile(srcPath, dest); err != nil {
		wrapped := services.Wrap(services.ErrTransient, "session", "ingest", fmt.Sprintf("placing %s", name), err)
		r.journalFail(ctx, opID, wrapped)
		return asset.Asset{}, wrapped
	}

	a := asset.Asset{
		ID:        id,
		Type:      kind,
		FileName:  name,
		Path:      dest,
		CreatedAt: r.now(),
		Provenance: asset.Provenance{
			AIGenerated:     opts.AIGenerated,
			SourceKeyword:   opts.SourceKeyword,
			SourceTimestamp: opts.SourceTimestamp,
		},
	}
	if info, err := os.Stat(dest); err == nil {
		a.SizeBytes = info.Size()
	}

	// Probe failures degrade to zero values; duration is advisory here.
	if probe, err := ffprobe.Inspect(ctx, r.cfg.FFprobeBinary(), dest); err == nil {
		a.Duration = probe.DurationSeconds()
		a.Width, a.Height = probe.Dimensions()
	} else {
		logging.WithContext(services.WithAssetID(ctx, id), r.logger).Warn(
			"metadata probe failed", logging.Error(err))
	}
	if kind == asset.TypeImage {
		a.Duration = r.cfg.Sessions.ImageDurationSec
	}
	if kind == asset.TypeVideo {
		a.ThumbnailPath = r.extractThumbnail(ctx, sess, a)
	}

	if err := sess.assets.Put(a); err != nil {
		r.journalFail(ctx, opID, err)
		return asset.Asset{}, err
	}
	if err := sess.assets.Persist(); err != nil {
		r.journalFail(ctx, opID, err)
		return asset.Asset{}, err
	}
	project := sess.Project()
	project.EditCount++
	if err := timeline.SaveProject(sess.Dir, project); err != nil {
		r.journalFail(ctx, opID, err)
		return asset.Asset{}, err
	}
	sess.setProject(project)
	sess.setState(StatePopulated)
	r.journalComplete(ctx, opID, dest)

	logging.WithContext(services.WithAssetID(ctx, id), r.logger).Info("asset ingested",
		logging.String("type", string(kind)),
		logging.Float64("duration", a.Duration),
	)
	return a, nil
}

// extractThumbnail grabs a single frame near the start of the clip. Failure
// is logged and ignored; an asset without a thumbnail is still usable.
func (r *Registry) extractThumbnail(ctx context.Context, sess *Session, a asset.Asset) string {
	thumb := filepath.Join(sess.AssetsDir(), asset.ThumbnailPrefix+a.ID+".jpg")
	args := []string{
		"-ss", "0.5",
		"-i", a.Path,
		"-frames:v", "1",
		"-vf", "scale=320:-1",
		thumb,
	}
	if _, err := r.runner.Run(ctx, args, nil); err != nil {
		r.logger.Warn("thumbnail extraction failed",
			logging.String(logging.FieldAssetID, a.ID),
			logging.Error(err),
		)
		return ""
	}
	return thumb
}

// SaveProject validates and persists a new project snapshot for the
// session.
func (r *Registry) SaveProject(sessionID string, project timeline.Project) error {
	sess, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	if len(project.Tracks) == 0 {
		project.Tracks = timeline.CanonicalTracks()
	}
	if project.Settings == (timeline.Settings{}) {
		project.Settings = r.settings()
	}
	for _, clip := range project.Clips {
		if err := r.validateClip(sess, clip); err != nil {
			return err
		}
	}
	// The edit counter is owned by the session, not the caller's snapshot.
	project.EditCount = sess.Project().EditCount + 1
	if err := timeline.SaveProject(sess.Dir, project); err != nil {
		return err
	}
	sess.setProject(project)
	return nil
}

// AddClip validates a single clip and appends it to the project.
func (r *Registry) AddClip(sessionID string, clip timeline.Clip) (timeline.Project, error) {
	sess, err := r.Get(sessionID)
	if err != nil {
		return timeline.Project{}, err
	}
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	if err := r.validateClip(sess, clip); err != nil {
		return timeline.Project{}, err
	}
	project := sess.Project()
	project.Clips = append(project.Clips, clip)
	project.EditCount++
	if err := timeline.SaveProject(sess.Dir, project); err != nil {
		return timeline.Project{}, err
	}
	sess.setProject(project)
	return sess.Project(), nil
}

func (r *Registry) validateClip(sess *Session, clip timeline.Clip) error {
	a, ok := sess.assets.Get(clip.AssetID)
	if !ok {
		return services.Wrap(services.ErrNotFound, "session", "clip",
			fmt.Sprintf("clip %s references unknown asset %s", clip.ID, clip.AssetID), nil)
	}
	isImage := a.Type == asset.TypeImage
	return clip.Validate(a.Duration, isImage, isImage)
}

// RemoveAsset deletes an asset and prunes every clip referencing it from
// the project.
func (r *Registry) RemoveAsset(sessionID, assetID string) error {
	sess, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	if _, err := sess.assets.Remove(assetID); err != nil {
		return err
	}
	if err := sess.assets.Persist(); err != nil {
		return err
	}
	project := sess.Project()
	project.Clips = timeline.PruneForAsset(project.Clips, assetID)
	delete(project.Transcripts, assetID)
	project.EditCount++
	if err := timeline.SaveProject(sess.Dir, project); err != nil {
		return err
	}
	sess.setProject(project)

	r.logger.Info("asset removed",
		logging.String(logging.FieldSessionID, sessionID),
		logging.String(logging.FieldAssetID, assetID),
	)
	return nil
}

// SetTranscript caches a transcript for an asset in the project snapshot so
// repeated caption passes skip transcription.
func (r *Registry) SetTranscript(sessionID, assetID, transcript string) error {
	sess, err := r.Get(sessionID)
	if err != nil {
		return err
	}
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	if _, ok := sess.assets.Get(assetID); !ok {
		return services.Wrap(services.ErrNotFound, "session", "transcript", fmt.Sprintf("asset %s", assetID), nil)
	}
	project := sess.Project()
	if project.Transcripts == nil {
		project.Transcripts = make(map[string]string)
	}
	project.Transcripts[assetID] = transcript
	project.EditCount++
	if err := timeline.SaveProject(sess.Dir, project); err != nil {
		return err
	}
	sess.setProject(project)
	return nil
}

// RemoveSilence runs silence removal on one asset's file in place and
// refreshes the asset metadata afterwards.
func (r *Registry) RemoveSilence(ctx context.Context, sessionID, assetID string, opts silence.Options) (silence.Result, error) {
	sess, err := r.Get(sessionID)
	if err != nil {
		return silence.Result{}, err
	}
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	a, ok := sess.assets.Get(assetID)
	if !ok {
		return silence.Result{}, services.Wrap(services.ErrNotFound, "session", "silence", fmt.Sprintf("asset %s", assetID), nil)
	}
	if a.Type != asset.TypeVideo {
		return silence.Result{}, services.Wrap(services.ErrInvalidInput, "session", "silence",
			fmt.Sprintf("asset %s is %s, silence removal needs video", assetID, a.Type), nil)
	}

	ctx = services.WithSessionID(services.WithOperation(ctx, string(history.KindSilence)), sessionID)
	ctx = services.WithAssetID(ctx, assetID)
	opID := r.journalBegin(ctx, sessionID, history.KindSilence, a.FileName)
	engine := silence.NewEngine(
		r.opRunner(ctx, opID, a.Duration),
		r.cfg.FFprobeBinary(),
		logging.WithContext(ctx, logging.NewComponentLogger(r.baseLog, "silence")),
	)
	result, err := engine.Remove(ctx, a.Path, opts)
	if err != nil {
		r.journalFail(ctx, opID, err)
		return silence.Result{}, err
	}

	if result.Changed {
		a.Duration = result.NewDuration
		if info, statErr := os.Stat(a.Path); statErr == nil {
			a.SizeBytes = info.Size()
		}
		a.Provenance.EditCount++
		if err := sess.assets.Put(a); err != nil {
			r.journalFail(ctx, opID, err)
			return silence.Result{}, err
		}
		if err := sess.assets.Persist(); err != nil {
			r.journalFail(ctx, opID, err)
			return silence.Result{}, err
		}
		project := sess.Project()
		project.EditCount++
		if err := timeline.SaveProject(sess.Dir, project); err != nil {
			r.journalFail(ctx, opID, err)
			return silence.Result{}, err
		}
		sess.setProject(project)
	}
	r.journalComplete(ctx, opID, a.Path)
	return result, nil
}

// RenderOptions selects the encode mode and aspect override for a render.
type RenderOptions struct {
	Mode     render.Mode
	Vertical bool
}

// Render compiles the session's current timeline into one output file.
// Previews overwrite the session's fixed preview file; exports get a fresh
// timestamp-named file.
func (r *Registry) Render(ctx context.Context, sessionID string, opts RenderOptions) (render.Result, error) {
	sess, err := r.Get(sessionID)
	if err != nil {
		return render.Result{}, err
	}
	sess.opMu.Lock()
	defer sess.opMu.Unlock()

	project := sess.Project()
	assets := make(map[string]asset.Asset, sess.assets.Len())
	for _, a := range sess.assets.List() {
		assets[a.ID] = a
	}

	mode := opts.Mode
	if mode == "" {
		mode = render.ModePreview
	}
	output := filepath.Join(sess.RendersDir(), render.PreviewFileName)
	kind := history.KindPreview
	if mode == render.ModeExport {
		output = filepath.Join(sess.RendersDir(), render.ExportFileName(r.now()))
		kind = history.KindExport
	}

	ctx = services.WithSessionID(services.WithOperation(ctx, string(kind)), sessionID)
	opID := r.journalBegin(ctx, sessionID, kind, fmt.Sprintf("%d clips", len(project.Clips)))
	total := timeline.TotalDuration(project.Clips, 0)
	engine := render.NewEngine(
		r.opRunner(ctx, opID, total),
		r.cfg.FFprobeBinary(),
		r.cfg.Render,
		logging.WithContext(ctx, logging.NewComponentLogger(r.baseLog, "render")),
	)
	result, err := engine.Render(ctx, render.Request{
		Clips:      project.Clips,
		Tracks:     project.Tracks,
		Assets:     assets,
		Settings:   project.Settings,
		Mode:       mode,
		Vertical:   opts.Vertical,
		OutputPath: output,
	})
	if err != nil {
		r.journalFail(ctx, opID, err)
		return render.Result{}, err
	}
	r.journalComplete(ctx, opID, result.Path)
	return result, nil
}

// LatestExport returns the most recent export file in the session's renders
// directory.
func (r *Registry) LatestExport(sessionID string) (string, error) {
	sess, err := r.Get(sessionID)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(sess.RendersDir())
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "session", "export", "reading renders dir", err)
	}
	var latest string
	var latestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "export_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest = filepath.Join(sess.RendersDir(), entry.Name())
			latestTime = info.ModTime()
		}
	}
	if latest == "" {
		return "", services.Wrap(services.ErrNotFound, "session", "export", "no export renders", nil)
	}
	return latest, nil
}

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 || strings.HasPrefix(b.String(), ".") {
		return "upload" + b.String()
	}
	return b.String()
}

// Journal helpers tolerate a nil journal so library use does not require
// SQLite.

func (r *Registry) journalBegin(ctx context.Context, sessionID string, kind history.Kind, detail string) int64 {
	if r.journal == nil {
		return 0
	}
	id, err := r.journal.Begin(ctx, sessionID, kind, detail)
	if err != nil {
		r.logger.Warn("journal write failed", logging.Error(err))
		return 0
	}
	return id
}

func (r *Registry) journalComplete(ctx context.Context, id int64, output string) {
	if r.journal == nil || id == 0 {
		return
	}
	if err := r.journal.Complete(ctx, id, output); err != nil {
		r.logger.Warn("journal update failed", logging.Error(err))
	}
}

func (r *Registry) journalProgress(ctx context.Context, id int64, stage string, percent float64) {
	if r.journal == nil || id == 0 {
		return
	}
	if err := r.journal.UpdateProgress(ctx, id, stage, percent); err != nil {
		r.logger.Warn("journal update failed", logging.Error(err))
	}
}

func (r *Registry) journalFail(ctx context.Context, id int64, cause error) {
	if r.journal == nil || id == 0 {
		return
	}
	if err := r.journal.Fail(ctx, id, cause); err != nil {
		r.logger.Warn("journal update failed", logging.Error(err))
	}
}
