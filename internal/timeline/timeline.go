package timeline

import (
	"fmt"
	"math"
	"sort"

	"vidstudio/internal/services"
)

// TrackKind classifies a timeline track.
type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
	TrackText  TrackKind = "text"
)

// Track is an ordered compositing layer. Order determines the compositing
// sequence for video tracks; audio track order only affects display.
type Track struct {
	ID    string    `json:"id"`
	Kind  TrackKind `json:"kind"`
	Order int       `json:"order"`
	Label string    `json:"label"`
}

// CanonicalTracks returns the fixed track set every session starts with:
// one text layer, three video overlay layers, two audio layers.
func CanonicalTracks() []Track {
	return []Track{
		{ID: "text-1", Kind: TrackText, Order: 0, Label: "Captions"},
		{ID: "video-1", Kind: TrackVideo, Order: 1, Label: "Video 1"},
		{ID: "video-2", Kind: TrackVideo, Order: 2, Label: "Video 2"},
		{ID: "video-3", Kind: TrackVideo, Order: 3, Label: "Video 3"},
		{ID: "audio-1", Kind: TrackAudio, Order: 4, Label: "Audio 1"},
		{ID: "audio-2", Kind: TrackAudio, Order: 5, Label: "Audio 2"},
	}
}

// Transform positions and scales a clip on the canvas. Zero value means
// "no transform".
type Transform struct {
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Scale   float64 `json:"scale,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}

// Clip places an asset on a track. Start and Duration are timeline seconds;
// InPoint/OutPoint trim the source media. Assets are referenced weakly by
// id and resolved through the asset store at use time.
type Clip struct {
	ID        string     `json:"id"`
	AssetID   string     `json:"assetId"`
	TrackID   string     `json:"trackId"`
	Start     float64    `json:"start"`
	Duration  float64    `json:"duration"`
	InPoint   float64    `json:"inPoint"`
	OutPoint  float64    `json:"outPoint"`
	Transform *Transform `json:"transform,omitempty"`
}

// TrimmedDuration is the length of source media the clip consumes.
func (c Clip) TrimmedDuration() float64 {
	return c.OutPoint - c.InPoint
}

// Validate enforces the clip invariants against the referenced asset.
// assetDuration is ignored for image assets, whose nominal duration is a
// session setting. decoupled permits OutPoint-InPoint != Duration for
// callers that explicitly slip the trim window (freeze frames, retimes).
func (c Clip) Validate(assetDuration float64, isImage, decoupled bool) error {
	if c.Duration <= 0 {
		return services.Wrap(services.ErrInvalidInput, "timeline", "clip", fmt.Sprintf("clip %s duration must be positive", c.ID), nil)
	}
	if c.Start < 0 {
		return services.Wrap(services.ErrInvalidInput, "timeline", "clip", fmt.Sprintf("clip %s start must not be negative", c.ID), nil)
	}
	if c.InPoint < 0 {
		return services.Wrap(services.ErrInvalidInput, "timeline", "clip", fmt.Sprintf("clip %s inPoint must not be negative", c.ID), nil)
	}
	if c.OutPoint <= c.InPoint {
		return services.Wrap(services.ErrInvalidInput, "timeline", "clip", fmt.Sprintf("clip %s outPoint must exceed inPoint", c.ID), nil)
	}
	if !isImage && assetDuration > 0 && c.OutPoint > assetDuration+timeEpsilon {
		return services.Wrap(services.ErrInvalidInput, "timeline", "clip", fmt.Sprintf("clip %s outPoint %.3f exceeds asset duration %.3f", c.ID, c.OutPoint, assetDuration), nil)
	}
	if !decoupled && math.Abs(c.TrimmedDuration()-c.Duration) > timeEpsilon {
		return services.Wrap(services.ErrInvalidInput, "timeline", "clip", fmt.Sprintf("clip %s trim window %.3f does not match duration %.3f", c.ID, c.TrimmedDuration(), c.Duration), nil)
	}
	return nil
}

const timeEpsilon = 1e-6

// Settings describes the output canvas.
type Settings struct {
	Width     int `json:"width"`
	Height    int `json:"height"`
	FrameRate int `json:"frameRate"`
}

// TotalDuration computes the timeline length as max(start+duration) over
// all clips, floored at minimum to avoid zero-length outputs.
func TotalDuration(clips []Clip, minimum float64) float64 {
	total := 0.0
	for _, c := range clips {
		if end := c.Start + c.Duration; end > total {
			total = end
		}
	}
	if total < minimum {
		total = minimum
	}
	return total
}

// PruneForAsset drops every clip referencing the given asset id.
func PruneForAsset(clips []Clip, assetID string) []Clip {
	out := clips[:0]
	for _, c := range clips {
		if c.AssetID != assetID {
			out = append(out, c)
		}
	}
	return out
}

// SortByTrackOrder orders clips by their track's compositing order, using
// the clip start time as a stable tiebreaker within a track.
func SortByTrackOrder(clips []Clip, tracks []Track) []Clip {
	orders := make(map[string]int, len(tracks))
	for _, t := range tracks {
		orders[t.ID] = t.Order
	}
	sorted := append([]Clip(nil), clips...)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, oj := orders[sorted[i].TrackID], orders[sorted[j].TrackID]
		if oi != oj {
			return oi < oj
		}
		return sorted[i].Start < sorted[j].Start
	})
	return sorted
}
