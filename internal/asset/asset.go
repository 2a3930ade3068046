package asset

import (
	"path/filepath"
	"strings"
	"time"
)

// Type classifies an asset by its media kind.
type Type string

const (
	TypeVideo Type = "video"
	TypeImage Type = "image"
	TypeAudio Type = "audio"
)

// ThumbnailPrefix marks generated thumbnail files inside the assets
// directory so restore scans do not mistake them for assets.
const ThumbnailPrefix = "thumb_"

var extensionTypes = map[string]Type{
	".mp4":  TypeVideo,
	".mov":  TypeVideo,
	".mkv":  TypeVideo,
	".webm": TypeVideo,
	".avi":  TypeVideo,
	".mp3":  TypeAudio,
	".wav":  TypeAudio,
	".m4a":  TypeAudio,
	".aac":  TypeAudio,
	".ogg":  TypeAudio,
	".flac": TypeAudio,
	".png":  TypeImage,
	".jpg":  TypeImage,
	".jpeg": TypeImage,
	".webp": TypeImage,
	".gif":  TypeImage,
}

// TypeForPath derives the asset type from a filename extension.
func TypeForPath(path string) (Type, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	t, ok := extensionTypes[ext]
	return t, ok
}

// Provenance carries descriptive attribution flags. These fields filter and
// label assets; rendering logic never branches on them.
type Provenance struct {
	AIGenerated     bool    `json:"aiGenerated,omitempty"`
	SourceKeyword   string  `json:"sourceKeyword,omitempty"`
	SourceTimestamp float64 `json:"sourceTimestamp,omitempty"`
	EditCount       int     `json:"editCount,omitempty"`
}

// Asset is a single media file tracked within a session. Path and
// ThumbnailPath are resolved from the session layout at runtime and are not
// part of the persisted snapshot.
type Asset struct {
	ID            string
	Type          Type
	FileName      string
	Path          string
	ThumbnailPath string
	Duration      float64
	Width         int
	Height        int
	SizeBytes     int64
	CreatedAt     time.Time
	Provenance    Provenance
}

// snapshotEntry is the persisted shape of an Asset.
type snapshotEntry struct {
	Type       Type       `json:"type"`
	FileName   string     `json:"filename"`
	Duration   float64    `json:"duration"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	Provenance Provenance `json:"provenance,omitempty"`
}
