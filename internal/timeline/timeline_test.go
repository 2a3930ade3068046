package timeline

import (
	"errors"
	"testing"

	"vidstudio/internal/services"
)

func TestCanonicalTracks(t *testing.T) {
	tracks := CanonicalTracks()
	counts := map[TrackKind]int{}
	for _, track := range tracks {
		counts[track.Kind]++
	}
	if counts[TrackText] != 1 || counts[TrackVideo] != 3 || counts[TrackAudio] != 2 {
		t.Fatalf("unexpected canonical set: %+v", counts)
	}
	for i := 1; i < len(tracks); i++ {
		if tracks[i].Order <= tracks[i-1].Order {
			t.Fatalf("track orders not strictly increasing: %+v", tracks)
		}
	}
}

func TestClipValidate(t *testing.T) {
	base := Clip{ID: "c1", AssetID: "a1", TrackID: "video-1", Start: 0, Duration: 5, InPoint: 0, OutPoint: 5}

	cases := []struct {
		name      string
		mutate    func(*Clip)
		assetDur  float64
		isImage   bool
		decoupled bool
		ok        bool
	}{
		{"valid", func(c *Clip) {}, 10, false, false, true},
		{"negative in point", func(c *Clip) { c.InPoint = -1 }, 10, false, false, false},
		{"out before in", func(c *Clip) { c.OutPoint = 0 }, 10, false, false, false},
		{"out past asset", func(c *Clip) { c.InPoint = 6; c.OutPoint = 11 }, 10, false, false, false},
		{"image ignores asset duration", func(c *Clip) {}, 0, true, false, true},
		{"trim mismatch", func(c *Clip) { c.OutPoint = 4 }, 10, false, false, false},
		{"trim mismatch decoupled", func(c *Clip) { c.OutPoint = 4 }, 10, false, true, true},
		{"zero duration", func(c *Clip) { c.Duration = 0 }, 10, false, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clip := base
			tc.mutate(&clip)
			err := clip.Validate(tc.assetDur, tc.isImage, tc.decoupled)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, services.ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
			}
		})
	}
}

func TestTotalDuration(t *testing.T) {
	clips := []Clip{
		{Start: 0, Duration: 5},
		{Start: 2, Duration: 2},
		{Start: 10, Duration: 3.5},
	}
	if got := TotalDuration(clips, 0.1); got != 13.5 {
		t.Fatalf("TotalDuration = %v, want 13.5", got)
	}
	if got := TotalDuration(nil, 0.1); got != 0.1 {
		t.Fatalf("empty timeline should floor at minimum, got %v", got)
	}
}

func TestPruneForAsset(t *testing.T) {
	clips := []Clip{
		{ID: "c1", AssetID: "a1"},
		{ID: "c2", AssetID: "a2"},
		{ID: "c3", AssetID: "a1"},
	}
	pruned := PruneForAsset(clips, "a1")
	if len(pruned) != 1 || pruned[0].ID != "c2" {
		t.Fatalf("unexpected pruned clips: %+v", pruned)
	}
}

func TestSortByTrackOrder(t *testing.T) {
	tracks := CanonicalTracks()
	clips := []Clip{
		{ID: "top", TrackID: "video-3", Start: 0},
		{ID: "late-base", TrackID: "video-1", Start: 9},
		{ID: "base", TrackID: "video-1", Start: 0},
	}
	sorted := SortByTrackOrder(clips, tracks)
	want := []string{"base", "late-base", "top"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d = %s, want %s (%+v)", i, sorted[i].ID, id, sorted)
		}
	}
}
