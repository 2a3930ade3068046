package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ProjectFileName is the per-session project snapshot.
const ProjectFileName = "project.json"

// Project is the persisted editing state of one session: the track list,
// clip placements, output settings, and the transcript cache keyed by
// asset id.
type Project struct {
	Tracks      []Track           `json:"tracks"`
	Clips       []Clip            `json:"clips"`
	Settings    Settings          `json:"settings"`
	Transcripts map[string]string `json:"transcripts,omitempty"`
	// EditCount counts mutations applied to the session since creation.
	EditCount int `json:"edit_count"`
}

// NewProject builds an empty project with the canonical track set.
func NewProject(settings Settings) Project {
	return Project{
		Tracks:      CanonicalTracks(),
		Clips:       nil,
		Settings:    settings,
		Transcripts: make(map[string]string),
	}
}

// SaveProject writes the project snapshot into dir.
func SaveProject(dir string, p Project) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ProjectFileName), data, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}

// LoadProject reads the project snapshot from dir. A missing file yields an
// empty project with canonical tracks and ok=false.
func LoadProject(dir string, settings Settings) (Project, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, ProjectFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewProject(settings), false, nil
		}
		return Project{}, false, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, false, fmt.Errorf("parse project: %w", err)
	}
	if len(p.Tracks) == 0 {
		p.Tracks = CanonicalTracks()
	}
	if p.Transcripts == nil {
		p.Transcripts = make(map[string]string)
	}
	if p.Settings.Width <= 0 || p.Settings.Height <= 0 {
		p.Settings = settings
	}
	if p.Settings.FrameRate <= 0 {
		p.Settings.FrameRate = settings.FrameRate
	}
	return p, true, nil
}
