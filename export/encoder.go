package export

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// SoftwareEncoder is the H.264 encoder used when no hardware encoder is
// available or allowed.
const SoftwareEncoder = "libx264"

// HardwareEncoders lists the hardware H.264 encoders in order of
// preference.
var HardwareEncoders = []string{
	"h264_nvenc",
	"h264_qsv",
	"h264_vaapi",
	"h264_videotoolbox",
}

const (
	framePattern  = "frame_%05d.png"
	outputPattern = "ascii_%05d.png"
	evenScale     = "scale=trunc(iw/2)*2:trunc(ih/2)*2"
	vaapiDevice   = "/dev/dri/renderD128"
)

// ParseEncoders returns the encoder names listed by `ffmpeg -encoders`.
func ParseEncoders(out []byte) map[string]bool {
	names := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		// Entries start with a six character capability column such as
		// "V....D"; the legend above them does not.
		if len(fields) < 2 || len(fields[0]) != 6 || strings.Contains(fields[1], "=") {
			continue
		}

		names[fields[1]] = true
	}

	return names
}

// PickEncoder returns the first hardware encoder in available, or
// [SoftwareEncoder].
func PickEncoder(available map[string]bool) string {
	for _, name := range HardwareEncoders {
		if available[name] {
			return name
		}
	}

	return SoftwareEncoder
}

// probeEncoders lists the encoders compiled into ffmpeg.
func probeEncoders(ctx context.Context, bin string) (map[string]bool, error) {
	out, err := exec.CommandContext(ctx, bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("listing encoders: %w", err)
	}

	return ParseEncoders(out), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ExtractArgs returns the ffmpeg arguments that write the frames of input
// at fps into dir.
func ExtractArgs(input, dir string, fps float64, trim []string) []string {
	args := []string{"-nostdin", "-v", "error", "-y"}
	args = append(args, trim...)
	args = append(args,
		"-i", input,
		"-an",
		"-vf", "fps="+formatFloat(fps),
		"-start_number", "1",
		filepath.Join(dir, framePattern),
	)

	return args
}

// EncodeOptions configure [EncodeArgs].
type EncodeOptions struct {
	// Dir holds the ascii_%05d.png frames.
	Dir   string
	FPS   float64
	Codec string
	// AudioInput, when set, is muxed as the audio track. AudioTrim selects
	// the same clip as the video.
	AudioInput string
	AudioTrim  []string
	Output     string
}

// EncodeArgs returns the ffmpeg arguments that encode the rendered frames.
func EncodeArgs(o EncodeOptions) []string {
	args := []string{"-nostdin", "-v", "error", "-y"}

	if o.Codec == "h264_vaapi" {
		args = append(args, "-vaapi_device", vaapiDevice)
	}

	args = append(args,
		"-framerate", formatFloat(o.FPS),
		"-i", filepath.Join(o.Dir, outputPattern),
	)

	if o.AudioInput != "" {
		args = append(args, o.AudioTrim...)
		args = append(args, "-i", o.AudioInput, "-map", "0:v:0", "-map", "1:a:0?")
	}

	switch o.Codec {
	case "h264_vaapi":
		args = append(args, "-vf", evenScale+",format=nv12,hwupload", "-c:v", o.Codec)
	default:
		args = append(args, "-vf", evenScale, "-c:v", o.Codec, "-pix_fmt", "yuv420p")
	}

	if o.AudioInput != "" {
		args = append(args, "-c:a", "aac", "-shortest")
	}

	return append(args, o.Output)
}
