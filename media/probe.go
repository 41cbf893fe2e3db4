package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Info is the metadata of a media file.
type Info struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
	HasAudio bool
}

// FrameCount estimates the number of frames at the source rate.
func (i Info) FrameCount() int {
	if i.FPS <= 0 || i.Duration <= 0 {
		return 0
	}

	return int(i.FPS*i.Duration + 0.5)
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		RFrameRate string `json:"r_frame_rate"`
		Duration   string `json:"duration"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
	} `json:"streams"`
}

// Probe reads width, height, frame rate, duration and audio presence of
// path with ffprobe.
func (t Tools) Probe(ctx context.Context, path string) (Info, error) {
	bin, err := lookPath(t.FFprobe)
	if err != nil {
		return Info{}, err
	}

	//nolint:gosec // path is a user-provided CLI argument.
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height,r_frame_rate,duration:format=duration",
		"-of", "json",
		path,
	)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s: %w: %s", ErrProbe, path, err, strings.TrimSpace(stderr.String()))
	}

	return ParseProbe(out)
}

// ParseProbe decodes ffprobe JSON output. The first video stream supplies
// the geometry and rate; stream duration falls back to container duration.
func ParseProbe(data []byte) (Info, error) {
	var po probeOutput

	err := json.Unmarshal(data, &po)
	if err != nil {
		return Info{}, fmt.Errorf("%w: decoding ffprobe output: %w", ErrProbe, err)
	}

	var (
		info  Info
		found bool
	)

	for _, s := range po.Streams {
		switch s.CodecType {
		case "audio":
			info.HasAudio = true
		case "video":
			if found {
				continue
			}

			found = true
			info.Width = s.Width
			info.Height = s.Height
			info.FPS = ParseRate(s.RFrameRate)
			info.Duration = parseSeconds(s.Duration)
		}
	}

	if !found || info.Width <= 0 || info.Height <= 0 {
		return Info{}, fmt.Errorf("%w: no video stream", ErrProbe)
	}

	if info.Duration <= 0 {
		info.Duration = parseSeconds(po.Format.Duration)
	}

	return info, nil
}

// ParseRate parses an ffprobe rate such as "30000/1001" or "25". Invalid
// rates give 0.
func ParseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}

	if !ok {
		return n
	}

	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}

	return n / d
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}

	return v
}
