package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"vidstudio/internal/logging"
	"vidstudio/internal/services"
)

// diagnosticTailLines bounds the stderr tail attached to failures.
const diagnosticTailLines = 20

var commandContext = exec.CommandContext

// Progress captures one parsed ffmpeg stats line.
type Progress struct {
	Seconds float64
	Frame   int64
	Speed   string
}

// Observer receives parsed progress events during a Run.
type Observer func(Progress)

// Option configures the runner.
type Option func(*Runner)

// WithObserver installs a progress observer.
func WithObserver(observer Observer) Option {
	return func(r *Runner) {
		r.observer = observer
	}
}

// Runner invokes the ffmpeg binary.
type Runner struct {
	binary   string
	logger   *slog.Logger
	observer Observer
}

// NewRunner constructs a runner for the given binary name or path.
func NewRunner(binary string, logger *slog.Logger, opts ...Option) *Runner {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	r := &Runner{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes ffmpeg with -y prepended to args and returns the full
// diagnostic (stderr) text. Every diagnostic line is offered to onLine when
// non-nil. A non-zero exit yields a services.ErrExternalTool error carrying
// the tail of the diagnostics.
func (r *Runner) Run(ctx context.Context, args []string, onLine func(string)) (string, error) {
	full := append([]string{"-hide_banner", "-y"}, args...)
	cmd := commandContext(ctx, r.binary, full...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ffmpeg", "pipe", "stderr unavailable", err)
	}
	cmd.Stdout = nil

	if err := cmd.Start(); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "ffmpeg", "start", "could not launch binary "+r.binary, err)
	}
	r.logger.Debug("invoking", logging.String("command", r.Command(args)))

	sampler := logging.NewProgressSampler(10)
	var diagnostics strings.Builder
	tail := make([]string, 0, diagnosticTailLines)

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanDiagnostics)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		diagnostics.WriteString(line)
		diagnostics.WriteByte('\n')
		if len(tail) == diagnosticTailLines {
			copy(tail, tail[1:])
			tail = tail[:diagnosticTailLines-1]
		}
		tail = append(tail, line)

		if progress, ok := ParseProgressLine(line); ok {
			if r.observer != nil {
				r.observer(progress)
			}
			// Sampled on the output position so long encodes stay quiet.
			if sampler.ShouldLog(progress.Seconds, "") {
				r.logger.Debug("progress",
					logging.Float64("position_sec", progress.Seconds),
					logging.Int64("frame", progress.Frame),
					logging.String("speed", progress.Speed),
				)
			}
		}
		if onLine != nil {
			onLine(line)
		}
	}
	if err := scanner.Err(); err != nil {
		// Keep draining so the subprocess cannot block on a full pipe
		// before Wait reaps it.
		_, _ = io.Copy(io.Discard, stderr)
		_ = cmd.Wait()
		return "", services.Wrap(services.ErrExternalTool, "ffmpeg", "stream", "reading diagnostics failed", err)
	}

	if err := cmd.Wait(); err != nil {
		detail := strings.Join(tail, "\n")
		return "", services.Wrap(services.ErrExternalTool, "ffmpeg", "run", detail, err)
	}
	return diagnostics.String(), nil
}

// scanDiagnostics splits ffmpeg's stderr stream. ffmpeg rewrites its
// periodic stats line in place using bare carriage returns, so tokens end
// at \r, \n, or \r\n. A \r emitted at a read boundary yields an empty
// follow-up token; callers skip empties.
func scanDiagnostics(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance := i + 1
		if data[i] == '\r' && advance < len(data) && data[advance] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Command renders the invocation the way Run executes it, for logging.
func (r *Runner) Command(args []string) string {
	parts := make([]string, 0, len(args)+3)
	parts = append(parts, r.binary, "-hide_banner", "-y")
	for _, arg := range args {
		if strings.ContainsAny(arg, " \t") {
			parts = append(parts, strconv.Quote(arg))
		} else {
			parts = append(parts, arg)
		}
	}
	return strings.Join(parts, " ")
}

// statsPattern matches the periodic encoder stats line ffmpeg emits, e.g.
// "frame=  120 fps= 30 q=28.0 size=512KiB time=00:00:04.00 bitrate=... speed=1.2x".
var statsPattern = regexp.MustCompile(`frame=\s*(\d+).*?time=\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?).*?speed=\s*(\S+)`)

// timeOnlyPattern matches audio-only stats lines that omit the frame counter.
var timeOnlyPattern = regexp.MustCompile(`size=.*?time=\s*(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// ParseProgressLine extracts a Progress from one diagnostic line. The second
// return is false for non-progress lines.
func ParseProgressLine(line string) (Progress, bool) {
	if m := statsPattern.FindStringSubmatch(line); m != nil {
		frame, _ := strconv.ParseInt(m[1], 10, 64)
		return Progress{
			Seconds: clockToSeconds(m[2], m[3], m[4]),
			Frame:   frame,
			Speed:   strings.TrimSpace(m[5]),
		}, true
	}
	if m := timeOnlyPattern.FindStringSubmatch(line); m != nil {
		return Progress{Seconds: clockToSeconds(m[1], m[2], m[3])}, true
	}
	return Progress{}, false
}

func clockToSeconds(h, m, s string) float64 {
	hours, _ := strconv.ParseFloat(h, 64)
	minutes, _ := strconv.ParseFloat(m, 64)
	seconds, _ := strconv.ParseFloat(s, 64)
	return hours*3600 + minutes*60 + seconds
}

// FormatSeconds renders a float seconds value the way ffmpeg arguments
// expect it.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}
