package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"

	"vidstudio/internal/logging"
	"vidstudio/internal/services"
	"vidstudio/internal/testsupport"
)

func TestParseProgressLine(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		ok      bool
		seconds float64
		frame   int64
	}{
		{
			name:    "full stats line",
			line:    "frame=  120 fps= 30 q=28.0 size=     512KiB time=00:00:04.00 bitrate=1048.6kbits/s speed=1.2x",
			ok:      true,
			seconds: 4,
			frame:   120,
		},
		{
			name:    "audio only",
			line:    "size=     256KiB time=00:01:30.50 bitrate= 23.2kbits/s speed=60x",
			ok:      true,
			seconds: 90.5,
		},
		{
			name: "ordinary diagnostic",
			line: "Stream mapping:",
			ok:   false,
		},
		{
			name: "silencedetect marker",
			line: "[silencedetect @ 0x5555] silence_start: 10.2",
			ok:   false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			progress, ok := ParseProgressLine(tc.line)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if progress.Seconds != tc.seconds {
				t.Fatalf("seconds = %v, want %v", progress.Seconds, tc.seconds)
			}
			if tc.frame != 0 && progress.Frame != tc.frame {
				t.Fatalf("frame = %d, want %d", progress.Frame, tc.frame)
			}
		})
	}
}

func TestRunStreamsLinesAndSucceeds(t *testing.T) {
	testsupport.StubBinary(t, "fake-ffmpeg", `
echo "Stream mapping:" >&2
echo "[silencedetect @ 0x1] silence_start: 1.5" >&2
echo "frame=   10 fps= 30 q=28.0 size=   1KiB time=00:00:02.00 bitrate=4.1kbits/s speed=2x" >&2
exit 0`)

	var observed []Progress
	runner := NewRunner("fake-ffmpeg", logging.NewNop(), WithObserver(func(p Progress) {
		observed = append(observed, p)
	}))

	var lines []string
	diagnostics, err := runner.Run(context.Background(), []string{"-i", "in.mp4", "out.mp4"}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(diagnostics, "silence_start: 1.5") {
		t.Fatalf("diagnostics missing filter line: %q", diagnostics)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 callback lines, got %d", len(lines))
	}
	if len(observed) != 1 || observed[0].Seconds != 2 {
		t.Fatalf("unexpected progress observations: %+v", observed)
	}
}

func TestScanDiagnosticsTerminators(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("one\rtwo\nthree\r\nfour"))
	scanner.Split(scanDiagnostics)
	var tokens []string
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{"one", "two", "three", "four"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestRunStreamsCarriageReturnUpdates(t *testing.T) {
	// ffmpeg rewrites its stats line in place with bare \r; every rewrite
	// must reach the observer as its own event.
	testsupport.StubBinary(t, "fake-ffmpeg", `
printf 'frame=   10 fps=30 q=28.0 size=1KiB time=00:00:01.00 bitrate=4.1kbits/s speed=1x\rframe=   20 fps=30 q=28.0 size=2KiB time=00:00:02.00 bitrate=4.1kbits/s speed=1x\rframe=   30 fps=30 q=28.0 size=3KiB time=00:00:03.00 bitrate=4.1kbits/s speed=1x\r' >&2
printf 'video:3KiB audio:0KiB subtitle:0KiB\n' >&2
exit 0`)

	var observed []Progress
	runner := NewRunner("fake-ffmpeg", logging.NewNop(), WithObserver(func(p Progress) {
		observed = append(observed, p)
	}))
	if _, err := runner.Run(context.Background(), []string{"-i", "in.mp4", "out.mp4"}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(observed) != 3 {
		t.Fatalf("expected 3 progress events, got %d: %+v", len(observed), observed)
	}
	if observed[2].Seconds != 3 || observed[2].Frame != 30 {
		t.Fatalf("unexpected final event: %+v", observed[2])
	}
}

func TestRunSurvivesLongStatsStream(t *testing.T) {
	// Hours of encode stats arrive as one \r-delimited run; it must never
	// overflow the scanner and wedge the subprocess on a full pipe.
	testsupport.StubBinary(t, "fake-ffmpeg", `
awk 'BEGIN { for (i = 1; i <= 30000; i++) printf "frame=  100 fps=30 q=28.0 size=1024KiB time=00:00:02.00 bitrate=4.1kbits/s speed=2x\r" }' >&2
exit 0`)

	events := 0
	runner := NewRunner("fake-ffmpeg", logging.NewNop(), WithObserver(func(Progress) {
		events++
	}))
	if _, err := runner.Run(context.Background(), []string{"-i", "in.mp4", "out.mp4"}, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if events != 30000 {
		t.Fatalf("expected 30000 progress events, got %d", events)
	}
}

func TestRunFailureCarriesDiagnosticTail(t *testing.T) {
	testsupport.StubBinary(t, "fake-ffmpeg", `
echo "Input #0, mov, from 'in.mp4':" >&2
echo "in.mp4: No such file or directory" >&2
exit 1`)

	runner := NewRunner("fake-ffmpeg", logging.NewNop())
	_, err := runner.Run(context.Background(), []string{"-i", "in.mp4", "out.mp4"}, nil)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "No such file or directory") {
		t.Fatalf("tail missing from error: %v", err)
	}
}

func TestCommandQuotesArguments(t *testing.T) {
	runner := NewRunner("ffmpeg", logging.NewNop())
	got := runner.Command([]string{"-i", "my file.mp4"})
	if !strings.Contains(got, `"my file.mp4"`) {
		t.Fatalf("argument not quoted: %q", got)
	}
}
