package silence

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidstudio/internal/logging"
	"vidstudio/internal/media/ffmpeg"
	"vidstudio/internal/services"
	"vidstudio/internal/testsupport"
)

func TestMarkerParserPairsStartAndEnd(t *testing.T) {
	parser := &markerParser{}
	lines := []string{
		"[silencedetect @ 0x5596] silence_start: 10.2",
		"frame=  120 fps= 30 q=-1.0 size=    1024kB time=00:00:04.00 bitrate=2097.2kbits/s speed=1.2x",
		"[silencedetect @ 0x5596] silence_end: 12.5 | silence_duration: 2.3",
		"[silencedetect @ 0x5596] silence_start: 50.0",
		"[silencedetect @ 0x5596] silence_end: 53.0 | silence_duration: 3.0",
	}
	for _, line := range lines {
		parser.feed(line)
	}
	periods := parser.finish()
	if len(periods) != 2 {
		t.Fatalf("expected 2 periods, got %d: %+v", len(periods), periods)
	}
	if periods[0].Start != 10.2 || periods[0].End != 12.5 {
		t.Fatalf("unexpected first period: %+v", periods[0])
	}
	if periods[1].Start != 50.0 || periods[1].End != 53.0 {
		t.Fatalf("unexpected second period: %+v", periods[1])
	}
}

func TestMarkerParserDropsUnterminatedStart(t *testing.T) {
	parser := &markerParser{}
	parser.feed("silence_start: 5.0")
	parser.feed("silence_end: 6.0")
	parser.feed("silence_start: 110.0")
	periods := parser.finish()
	if len(periods) != 1 {
		t.Fatalf("expected trailing open marker to be dropped, got %+v", periods)
	}
}

func TestMarkerParserIgnoresEndWithoutStart(t *testing.T) {
	parser := &markerParser{}
	parser.feed("silence_end: 3.0 | silence_duration: 3.0")
	if periods := parser.finish(); len(periods) != 0 {
		t.Fatalf("expected no periods, got %+v", periods)
	}
}

func TestMarkerParserClampsNegativeStart(t *testing.T) {
	parser := &markerParser{}
	parser.feed("silence_start: -0.013")
	parser.feed("silence_end: 1.5 | silence_duration: 1.513")
	periods := parser.finish()
	if len(periods) != 1 || periods[0].Start != 0 {
		t.Fatalf("expected start clamped to zero, got %+v", periods)
	}
}

func TestKeepSegmentsComplement(t *testing.T) {
	periods := []Period{{Start: 10, End: 12}, {Start: 50, End: 53}}
	segments := KeepSegments(periods, 120, 0.1)
	want := []Segment{{0, 10}, {12, 50}, {53, 120}}
	if len(segments) != len(want) {
		t.Fatalf("expected %d segments, got %+v", len(want), segments)
	}
	for i, segment := range segments {
		if segment != want[i] {
			t.Fatalf("segment %d: want %+v, got %+v", i, want[i], segment)
		}
	}
}

func TestKeepSegmentsDropsSlivers(t *testing.T) {
	periods := []Period{{Start: 0.05, End: 10}, {Start: 10.02, End: 20}}
	segments := KeepSegments(periods, 30, 0.1)
	if len(segments) != 1 {
		t.Fatalf("expected only the trailing segment, got %+v", segments)
	}
	if segments[0] != (Segment{20, 30}) {
		t.Fatalf("unexpected segment: %+v", segments[0])
	}
}

func TestKeepSegmentsSilenceAtEdges(t *testing.T) {
	periods := []Period{{Start: 0, End: 2}, {Start: 58, End: 60}}
	segments := KeepSegments(periods, 60, 0.1)
	if len(segments) != 1 || segments[0] != (Segment{2, 58}) {
		t.Fatalf("unexpected segments: %+v", segments)
	}
}

func TestKeepSegmentsNoSilence(t *testing.T) {
	segments := KeepSegments(nil, 42, 0.1)
	if len(segments) != 1 || segments[0] != (Segment{0, 42}) {
		t.Fatalf("unexpected segments: %+v", segments)
	}
}

func TestCutGraphSerialization(t *testing.T) {
	graph := cutGraph([]Segment{{0, 10}, {12, 50}})
	want := "[0:v]trim=start=0.000:end=10.000,setpts=PTS-STARTPTS[v0];" +
		"[0:a]atrim=start=0.000:end=10.000,asetpts=PTS-STARTPTS[a0];" +
		"[0:v]trim=start=12.000:end=50.000,setpts=PTS-STARTPTS[v1];" +
		"[0:a]atrim=start=12.000:end=50.000,asetpts=PTS-STARTPTS[a1];" +
		"[v0][a0][v1][a1]concat=n=2:v=1:a=1[outv][outa]"
	if graph != want {
		t.Fatalf("graph mismatch:\n got %s\nwant %s", graph, want)
	}
}

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "width": 1920, "height": 1080},
    {"index": 1, "codec_type": "audio"}
  ],
  "format": {"duration": "120.0", "size": "1048576"}
}`

func TestDetectParsesStubOutput(t *testing.T) {
	probe := testsupport.StubBinary(t, "fake-ffprobe", "printf '%s' '"+strings.ReplaceAll(probeJSON, "\n", " ")+"'\n")
	stub := testsupport.StubBinary(t, "fake-ffmpeg", `
echo "[silencedetect @ 0x1] silence_start: 10" >&2
echo "[silencedetect @ 0x1] silence_end: 12 | silence_duration: 2" >&2
`)

	media := filepath.Join(t.TempDir(), "input.mp4")
	testsupport.WriteFile(t, media, 64)

	runner := ffmpeg.NewRunner(stub, logging.NewNop())
	engine := NewEngine(runner, probe, logging.NewNop())

	periods, total, err := engine.Detect(context.Background(), media, Options{ThresholdDB: -30, MinSilence: 0.3})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if math.Abs(total-120) > 1e-9 {
		t.Fatalf("expected total 120, got %v", total)
	}
	if len(periods) != 1 || periods[0].Start != 10 || periods[0].End != 12 {
		t.Fatalf("unexpected periods: %+v", periods)
	}
}

func TestRemoveNoopWhenNoSilence(t *testing.T) {
	probe := testsupport.StubBinary(t, "fake-ffprobe", "printf '%s' '"+strings.ReplaceAll(probeJSON, "\n", " ")+"'\n")
	stub := testsupport.StubBinary(t, "fake-ffmpeg", "exit 0\n")

	media := filepath.Join(t.TempDir(), "input.mp4")
	testsupport.WriteFile(t, media, 64)
	before, err := os.Stat(media)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	engine := NewEngine(ffmpeg.NewRunner(stub, logging.NewNop()), probe, logging.NewNop())
	result, err := engine.Remove(context.Background(), media, Options{ThresholdDB: -30, MinSilence: 0.3, MinSegment: 0.1})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if result.Changed {
		t.Fatal("expected no-op result when nothing was detected")
	}
	if result.NewDuration != result.OriginalDuration || result.RemovedDuration != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	after, err := os.Stat(media)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size() {
		t.Fatal("file was modified despite no detected silence")
	}
}

func TestDetectRejectsAudioLessFile(t *testing.T) {
	const videoOnly = `{"streams": [{"index": 0, "codec_type": "video", "width": 1280, "height": 720}], "format": {"duration": "10.0"}}`
	probe := testsupport.StubBinary(t, "fake-ffprobe", "printf '%s' '"+videoOnly+"'\n")
	stub := testsupport.StubBinary(t, "fake-ffmpeg", "exit 0\n")

	media := filepath.Join(t.TempDir(), "input.mp4")
	testsupport.WriteFile(t, media, 64)

	engine := NewEngine(ffmpeg.NewRunner(stub, logging.NewNop()), probe, logging.NewNop())
	_, _, err := engine.Detect(context.Background(), media, Options{ThresholdDB: -30, MinSilence: 0.3})
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
