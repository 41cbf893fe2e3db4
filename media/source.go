package media

import (
	"fmt"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"
)

// Kind is the routing class of a source string.
type Kind int

const (
	// KindUnknown is a source with no recognised extension.
	KindUnknown Kind = iota
	// KindImage is a still image file.
	KindImage
	// KindVideo is a video file.
	KindVideo
	// KindWebcam is a live camera.
	KindWebcam
)

// String implements [fmt.Stringer].
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindWebcam:
		return "webcam"
	}

	return "unknown"
}

// Container extensions.
const (
	ImageContainerExt = ".pi"
	VideoContainerExt = ".pv"
)

var (
	videoExts = []string{".mp4", ".avi", ".mkv", ".mov", ".webm", ".flv", ".wmv", ".m4v", ".gif", VideoContainerExt}
	imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ppm", ".pgm", ".pbm", ImageContainerExt}

	webcamRe = regexp.MustCompile(`(?i)^(?:(\d+)|/dev/video(\d+)|(?:webcam|camera)(?::(\d+))?)$`)
)

// IsVideoExt reports whether path has a video extension.
func IsVideoExt(path string) bool {
	return slices.Contains(videoExts, strings.ToLower(filepath.Ext(path)))
}

// IsImageExt reports whether path has an image extension.
func IsImageExt(path string) bool {
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(path)))
}

// ParseWebcam reports whether s names a camera and returns its index. It
// accepts a bare decimal, /dev/videoN, and webcam[:N] or camera[:N] in any
// case. The default index is 0.
func ParseWebcam(s string) (int, bool) {
	m := webcamRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}

	for _, g := range m[1:] {
		if g == "" {
			continue
		}

		n, err := strconv.Atoi(g)
		if err != nil {
			return 0, false
		}

		return n, true
	}

	return 0, true
}

// Classify routes a source string. Webcam names take precedence; .gif
// counts as video.
func Classify(s string) Kind {
	if _, ok := ParseWebcam(s); ok {
		return KindWebcam
	}

	switch {
	case IsVideoExt(s):
		return KindVideo
	case IsImageExt(s):
		return KindImage
	}

	return KindUnknown
}

// Source is a decodable input: either a file path or a camera index.
type Source struct {
	Path   string
	Camera int
	Live   bool
}

// FileSource returns a Source for a media file.
func FileSource(path string) Source {
	return Source{Path: path}
}

// CameraSource returns a Source for camera n.
func CameraSource(n int) Source {
	return Source{Camera: n, Live: true}
}

// String implements [fmt.Stringer].
func (s Source) String() string {
	if s.Live {
		return fmt.Sprintf("camera %d", s.Camera)
	}

	return s.Path
}

// inputArgs returns the ffmpeg input arguments for s.
func (s Source) inputArgs() []string {
	if !s.Live {
		return []string{"-i", s.Path}
	}

	switch runtime.GOOS {
	case "darwin":
		return []string{"-f", "avfoundation", "-framerate", "30", "-i", strconv.Itoa(s.Camera)}
	case "windows":
		return []string{"-f", "dshow", "-i", "video=" + strconv.Itoa(s.Camera)}
	}

	return []string{"-f", "v4l2", "-i", "/dev/video" + strconv.Itoa(s.Camera)}
}
