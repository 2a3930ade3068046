package render

import (
	"fmt"

	"vidstudio/internal/asset"
	"vidstudio/internal/media/ffmpeg"
	"vidstudio/internal/services"
	"vidstudio/internal/timeline"
)

// Mode selects the encoder tradeoff for a render.
type Mode string

const (
	// ModePreview favors speed over quality; output overwrites the
	// session's fixed preview file.
	ModePreview Mode = "preview"
	// ModeExport favors quality; outputs are timestamp-named and kept.
	ModeExport Mode = "export"
)

// minTimelineDuration floors the computed output length so a degenerate
// timeline never asks the encoder for a zero-length file.
const minTimelineDuration = 0.1

// Request is one render job: a timeline snapshot plus resolved assets and
// the destination path.
type Request struct {
	Clips    []timeline.Clip
	Tracks   []timeline.Track
	Assets   map[string]asset.Asset
	Settings timeline.Settings
	Mode     Mode
	// Vertical appends a scale-to-cover and center-crop stage producing a
	// 9:16 output on a swapped canvas.
	Vertical   bool
	OutputPath string
}

type encoding struct {
	preset string
	crf    int
}

type inputSpec struct {
	path     string
	image    bool
	duration float64
}

func (s inputSpec) args() []string {
	if s.image {
		return []string{"-loop", "1", "-t", ffmpeg.FormatSeconds(s.duration), "-i", s.path}
	}
	return []string{"-i", s.path}
}

// compile lowers the request to a full ffmpeg argument vector. The returned
// duration is the computed timeline length used as the output cap.
func compile(req Request, enc encoding) ([]string, float64, error) {
	if len(req.Clips) == 0 {
		return nil, 0, services.Wrap(services.ErrInvalidInput, "render", "compile", "timeline has no clips", nil)
	}

	var videoClips, audioClips []timeline.Clip
	for _, clip := range req.Clips {
		a, ok := req.Assets[clip.AssetID]
		if !ok {
			return nil, 0, services.Wrap(services.ErrNotFound, "render", "compile",
				fmt.Sprintf("clip %s references unknown asset %s", clip.ID, clip.AssetID), nil)
		}
		if a.Type == asset.TypeAudio {
			audioClips = append(audioClips, clip)
		} else {
			videoClips = append(videoClips, clip)
		}
	}
	videoClips = timeline.SortByTrackOrder(videoClips, req.Tracks)

	total := timeline.TotalDuration(req.Clips, minTimelineDuration)
	width, height := req.Settings.Width, req.Settings.Height
	frameRate := req.Settings.FrameRate

	var inputs []inputSpec
	inputIndex := make(map[string]int) // clip id -> input index
	addInput := func(clip timeline.Clip, a asset.Asset) {
		inputIndex[clip.ID] = len(inputs)
		inputs = append(inputs, inputSpec{
			path:     a.Path,
			image:    a.Type == asset.TypeImage,
			duration: clip.Duration,
		})
	}
	for _, clip := range videoClips {
		addInput(clip, req.Assets[clip.AssetID])
	}
	for _, clip := range audioClips {
		addInput(clip, req.Assets[clip.AssetID])
	}

	var graph Graph
	graph.Append(Chain{
		Filters: []Filter{colorSource("black", width, height, frameRate, total)},
		Outputs: []string{"base"},
	})

	composite := "base"
	for i, clip := range videoClips {
		a := req.Assets[clip.AssetID]
		label := fmt.Sprintf("v%d", i)

		var stages []Filter
		if a.Type != asset.TypeImage {
			stages = append(stages, trim(clip.InPoint, clip.OutPoint))
		}
		stages = append(stages, setPTSShift(clip.Start), scaleFit(width, height))

		x, y := "(W-w)/2", "(H-h)/2"
		if t := clip.Transform; t != nil {
			if t.Scale > 0 && t.Scale != 1 {
				stages = append(stages, scaleFactor(t.Scale))
			}
			if t.Opacity > 0 && t.Opacity < 1 {
				stages = append(stages, pixelFormat("yuva420p"), opacity(t.Opacity))
			}
			x = ffmpeg.FormatSeconds(t.X)
			y = ffmpeg.FormatSeconds(t.Y)
		} else {
			stages = append(stages, padCenter(width, height))
			x, y = "0", "0"
		}

		graph.Append(Chain{
			Inputs:  []string{fmt.Sprintf("%d:v", inputIndex[clip.ID])},
			Filters: stages,
			Outputs: []string{label},
		})

		end := clip.Start + clip.TrimmedDuration()
		if a.Type == asset.TypeImage {
			end = clip.Start + clip.Duration
		}
		out := fmt.Sprintf("ov%d", i)
		graph.Append(Chain{
			Inputs:  []string{composite, label},
			Filters: []Filter{overlayWindow(x, y, clip.Start, end)},
			Outputs: []string{out},
		})
		composite = out
	}

	final := []Filter{}
	if req.Vertical {
		// 9:16 portrait on the swapped canvas.
		final = append(final, scaleCover(height, width), cropCenter(height, width))
	}
	final = append(final, pixelFormat("yuv420p"))
	graph.Append(Chain{
		Inputs:  []string{composite},
		Filters: final,
		Outputs: []string{"vout"},
	})

	for i, clip := range audioClips {
		graph.Append(Chain{
			Inputs: []string{fmt.Sprintf("%d:a", inputIndex[clip.ID])},
			Filters: []Filter{
				atrim(clip.InPoint, clip.OutPoint),
				asetPTS(),
				adelay(clip.Start),
			},
			Outputs: []string{fmt.Sprintf("a%d", i)},
		})
	}
	hasAudio := len(audioClips) > 0
	if hasAudio {
		mixInputs := make([]string, len(audioClips))
		for i := range audioClips {
			mixInputs[i] = fmt.Sprintf("a%d", i)
		}
		graph.Append(Chain{
			Inputs:  mixInputs,
			Filters: []Filter{amix(len(audioClips))},
			Outputs: []string{"aout"},
		})
	}

	args := make([]string, 0, 32)
	for _, in := range inputs {
		args = append(args, in.args()...)
	}
	args = append(args, "-filter_complex", graph.String())
	args = append(args, "-map", "[vout]")
	if hasAudio {
		args = append(args, "-map", "[aout]", "-c:a", "aac", "-b:a", "192k")
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", enc.preset,
		"-crf", fmt.Sprintf("%d", enc.crf),
		"-r", fmt.Sprintf("%d", frameRate),
		"-t", ffmpeg.FormatSeconds(total),
		req.OutputPath,
	)
	return args, total, nil
}
