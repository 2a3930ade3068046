package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"vidstudio/internal/asset"
	"vidstudio/internal/services"
	"vidstudio/internal/timeline"
)

func testSettings() timeline.Settings {
	return timeline.Settings{Width: 1920, Height: 1080, FrameRate: 30}
}

func testRequest(clips []timeline.Clip, assets map[string]asset.Asset) Request {
	return Request{
		Clips:      clips,
		Tracks:     timeline.CanonicalTracks(),
		Assets:     assets,
		Settings:   testSettings(),
		Mode:       ModePreview,
		OutputPath: "/tmp/out.mp4",
	}
}

func videoAsset(id string) asset.Asset {
	return asset.Asset{ID: id, Type: asset.TypeVideo, Path: "/media/" + id + ".mp4", Duration: 60}
}

func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s not found in %v", flag, args)
	return ""
}

func TestCompileRejectsEmptyTimeline(t *testing.T) {
	_, _, err := compile(testRequest(nil, nil), encoding{preset: "ultrafast", crf: 28})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCompileRejectsUnknownAsset(t *testing.T) {
	clips := []timeline.Clip{{ID: "c1", AssetID: "missing", TrackID: "video-1", Duration: 5, OutPoint: 5}}
	_, _, err := compile(testRequest(clips, map[string]asset.Asset{}), encoding{preset: "ultrafast", crf: 28})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCompileOverlayOrderFollowsTrackOrder(t *testing.T) {
	assets := map[string]asset.Asset{"a": videoAsset("a"), "b": videoAsset("b")}
	// Insert the top-track clip first: compositing order must still put it
	// on top (later in the overlay chain).
	clips := []timeline.Clip{
		{ID: "top", AssetID: "b", TrackID: "video-2", Start: 2, Duration: 2, InPoint: 0, OutPoint: 2},
		{ID: "bottom", AssetID: "a", TrackID: "video-1", Start: 0, Duration: 5, InPoint: 0, OutPoint: 5},
	}
	args, total, err := compile(testRequest(clips, assets), encoding{preset: "ultrafast", crf: 28})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %v", total)
	}
	graph := argValue(t, args, "-filter_complex")
	// Input 0 must be the bottom clip after sorting, so its overlay window
	// [0,5] appears before the top clip's [2,4].
	first := strings.Index(graph, "between(t,0.000,5.000)")
	second := strings.Index(graph, "between(t,2.000,4.000)")
	if first == -1 || second == -1 {
		t.Fatalf("missing enable windows in graph: %s", graph)
	}
	if first > second {
		t.Fatalf("bottom track composited after top track: %s", graph)
	}
	if !strings.Contains(graph, "[ov0][v1]") {
		t.Fatalf("top clip should overlay onto the first composite: %s", graph)
	}
}

func TestCompileDurationCapsOutput(t *testing.T) {
	assets := map[string]asset.Asset{"a": videoAsset("a")}
	clips := []timeline.Clip{
		{ID: "c1", AssetID: "a", TrackID: "video-1", Start: 10, Duration: 7, InPoint: 0, OutPoint: 7},
	}
	args, total, err := compile(testRequest(clips, assets), encoding{preset: "medium", crf: 18})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if total != 17 {
		t.Fatalf("expected total 17, got %v", total)
	}
	if got := argValue(t, args, "-t"); got != "17.000" {
		t.Fatalf("expected -t 17.000, got %s", got)
	}
}

func TestCompileNoAudioMeansNoAudioMap(t *testing.T) {
	assets := map[string]asset.Asset{"a": videoAsset("a")}
	clips := []timeline.Clip{
		{ID: "c1", AssetID: "a", TrackID: "video-1", Start: 0, Duration: 5, InPoint: 0, OutPoint: 5},
	}
	args, _, err := compile(testRequest(clips, assets), encoding{preset: "ultrafast", crf: 28})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "[aout]") || strings.Contains(joined, "-c:a") {
		t.Fatalf("audio output mapped without audio clips: %s", joined)
	}
	if !strings.Contains(joined, "-map [vout]") {
		t.Fatalf("video output not mapped: %s", joined)
	}
}

func TestCompileAudioClipsDelayedAndMixed(t *testing.T) {
	assets := map[string]asset.Asset{
		"v": videoAsset("v"),
		"m": {ID: "m", Type: asset.TypeAudio, Path: "/media/m.mp3", Duration: 30},
		"n": {ID: "n", Type: asset.TypeAudio, Path: "/media/n.mp3", Duration: 30},
	}
	clips := []timeline.Clip{
		{ID: "c1", AssetID: "v", TrackID: "video-1", Start: 0, Duration: 10, InPoint: 0, OutPoint: 10},
		{ID: "c2", AssetID: "m", TrackID: "audio-1", Start: 1.5, Duration: 4, InPoint: 0, OutPoint: 4},
		{ID: "c3", AssetID: "n", TrackID: "audio-2", Start: 0, Duration: 8, InPoint: 2, OutPoint: 10},
	}
	args, _, err := compile(testRequest(clips, assets), encoding{preset: "ultrafast", crf: 28})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	graph := argValue(t, args, "-filter_complex")
	if !strings.Contains(graph, "adelay=delays=1500:all=1") {
		t.Fatalf("expected 1500ms delay for the shifted clip: %s", graph)
	}
	if !strings.Contains(graph, "amix=inputs=2:duration=longest:normalize=0") {
		t.Fatalf("expected two-input mix: %s", graph)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-map [aout]") {
		t.Fatalf("audio output not mapped: %s", joined)
	}
}

func TestCompileVerticalOverrideAppendsCoverCrop(t *testing.T) {
	assets := map[string]asset.Asset{"a": videoAsset("a")}
	clips := []timeline.Clip{
		{ID: "c1", AssetID: "a", TrackID: "video-1", Start: 0, Duration: 5, InPoint: 0, OutPoint: 5},
	}
	req := testRequest(clips, assets)
	req.Vertical = true
	args, _, err := compile(req, encoding{preset: "medium", crf: 18})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	graph := argValue(t, args, "-filter_complex")
	if !strings.Contains(graph, "scale=1080:1920:force_original_aspect_ratio=increase") {
		t.Fatalf("expected cover scale to swapped canvas: %s", graph)
	}
	if !strings.Contains(graph, "crop=1080:1920") {
		t.Fatalf("expected center crop to swapped canvas: %s", graph)
	}
}

func TestCompileImageClipLoopsInput(t *testing.T) {
	assets := map[string]asset.Asset{
		"img": {ID: "img", Type: asset.TypeImage, Path: "/media/img.png", Width: 800, Height: 600},
	}
	clips := []timeline.Clip{
		{ID: "c1", AssetID: "img", TrackID: "video-1", Start: 0, Duration: 5},
	}
	args, _, err := compile(testRequest(clips, assets), encoding{preset: "ultrafast", crf: 28})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-loop 1 -t 5.000 -i /media/img.png") {
		t.Fatalf("image input not looped: %s", joined)
	}
	graph := argValue(t, args, "-filter_complex")
	if strings.Contains(graph, "trim=") {
		t.Fatalf("image clip should not carry a trim stage: %s", graph)
	}
}

func TestCompileTransformPlacesClip(t *testing.T) {
	assets := map[string]asset.Asset{"a": videoAsset("a")}
	clips := []timeline.Clip{
		{
			ID: "c1", AssetID: "a", TrackID: "video-1",
			Start: 0, Duration: 5, InPoint: 0, OutPoint: 5,
			Transform: &timeline.Transform{X: 100, Y: 50, Scale: 0.5, Opacity: 0.8},
		},
	}
	args, _, err := compile(testRequest(clips, assets), encoding{preset: "ultrafast", crf: 28})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	graph := argValue(t, args, "-filter_complex")
	if !strings.Contains(graph, "scale=iw*0.500:ih*0.500") {
		t.Fatalf("expected scale factor stage: %s", graph)
	}
	if !strings.Contains(graph, "colorchannelmixer=aa=0.800") {
		t.Fatalf("expected opacity stage: %s", graph)
	}
	if !strings.Contains(graph, "x=100.000:y=50.000") {
		t.Fatalf("expected transform placement: %s", graph)
	}
	if strings.Contains(graph, "pad=") {
		t.Fatalf("transformed clip should not be letterboxed: %s", graph)
	}
}

func TestGraphSerializationQuotesExpressions(t *testing.T) {
	var g Graph
	g.Append(Chain{
		Inputs:  []string{"base", "v0"},
		Filters: []Filter{overlayWindow("0", "0", 2, 4)},
		Outputs: []string{"out"},
	})
	got := g.String()
	want := "[base][v0]overlay=x=0:y=0:enable='between(t,2.000,4.000)'[out]"
	if got != want {
		t.Fatalf("graph mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestExportFileNameIsTimestamped(t *testing.T) {
	ts, err := time.Parse(time.RFC3339, "2026-03-01T12:30:45Z")
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	if name := ExportFileName(ts); name != "export_20260301_123045.mp4" {
		t.Fatalf("unexpected export name %s", name)
	}
}
