// Package config holds the render configuration shared by every command.
//
// A [RenderConfig] starts from [New], is overlaid by a YAML file and then
// by command-line flags that were explicitly set (see [Config.Load]), and
// is clamped into range by [RenderConfig.Normalize]. Players receive it by
// value, so it never changes under a running renderer.
package config

import (
	"errors"
	"fmt"
	"slices"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/export"
	"go.jacobcolvin.com/glyphcast/keyboard"
	"go.jacobcolvin.com/glyphcast/still"
)

var (
	// ErrInvalidValue indicates a flag or file value outside its allowed
	// set.
	ErrInvalidValue = errors.New("invalid value")
	// ErrConfigFile indicates an unreadable or malformed config file.
	ErrConfigFile = errors.New("loading config file")
)

// Source types.
const (
	TypeAutoDetect = "auto_detect"
	TypeImage      = "image"
	TypeVideo      = "video"
	TypeWebcam     = "webcam"
	TypeVideoInfo  = "video_info"
	TypeText       = "text"
)

// Switch values.
const (
	On   = "on"
	Off  = "off"
	Auto = "auto"

	ShellInteractive    = "interactive"
	ShellNoninteractive = "noninteractive"
)

// Range limits.
const (
	MaxFPS       = 60
	MinBuffer    = 10
	MaxVolume    = 100
	MaxThreshold = 255
)

// Types returns every source type.
func Types() []string {
	return []string{TypeAutoDetect, TypeImage, TypeVideo, TypeWebcam, TypeVideoInfo, TypeText}
}

// RenderConfig is the complete set of rendering, playback and export
// settings.
type RenderConfig struct {
	Type      string  `json:"type,omitempty"      yaml:"type"      jsonschema:"how the source argument is routed"`
	Mode      string  `json:"mode,omitempty"      yaml:"mode"      jsonschema:"canvas and kernel"`
	Parser    string  `json:"parser,omitempty"    yaml:"parser"    jsonschema:"still image backend"`
	Format    string  `json:"format,omitempty"    yaml:"format"    jsonschema:"export output kind"`
	Dithering string  `json:"dithering,omitempty" yaml:"dithering" jsonschema:"kernel override for the dithered modes"`
	Threshold int     `json:"threshold,omitempty" yaml:"threshold" jsonschema:"lit level for thresholding kernels"`
	MaxWidth  int     `json:"max_width,omitempty" yaml:"max_width" jsonschema:"output width in terminal cells"`
	Invert    bool    `json:"invert,omitempty"    yaml:"invert"    jsonschema:"invert gray levels before dot decisions"`
	FPS       float64 `json:"fps,omitempty"       yaml:"fps"       jsonschema:"frame rate; 0 keeps the source rate"`

	StartTime float64 `json:"start_time,omitempty" yaml:"start_time" jsonschema:"clip start in seconds; -1 for the beginning"`
	EndTime   float64 `json:"end_time,omitempty"   yaml:"end_time"   jsonschema:"clip end in seconds; -1 for the end"`

	Audio string `json:"audio,omitempty" yaml:"audio" jsonschema:"play or export the audio track"`
	Shell string `json:"shell,omitempty" yaml:"shell" jsonschema:"read playback keys from the terminal"`

	PauseKey        string `json:"pause_key,omitempty"         yaml:"pause_key"         jsonschema:"key that toggles pause"`
	StopKey         string `json:"stop_key,omitempty"          yaml:"stop_key"          jsonschema:"key that stops playback"`
	VolUpKey        string `json:"vol_up_key,omitempty"        yaml:"vol_up_key"        jsonschema:"key that raises the volume"`
	VolDownKey      string `json:"vol_down_key,omitempty"      yaml:"vol_down_key"      jsonschema:"key that lowers the volume"`
	SeekBackwardKey string `json:"seek_backward_key,omitempty" yaml:"seek_backward_key" jsonschema:"key that seeks backward"`
	SeekForwardKey  string `json:"seek_forward_key,omitempty"  yaml:"seek_forward_key"  jsonschema:"key that seeks forward"`

	SeekFrames         int `json:"seek_frames,omitempty"          yaml:"seek_frames"          jsonschema:"seek step in frames"`
	Volume             int `json:"volume,omitempty"               yaml:"volume"               jsonschema:"initial volume in percent"`
	VolumeStep         int `json:"volume_step,omitempty"          yaml:"volume_step"          jsonschema:"volume change per key press"`
	BufferAheadFrames  int `json:"buffer_ahead_frames,omitempty"  yaml:"buffer_ahead_frames"  jsonschema:"decoded frames kept ahead of playback"`
	BufferBehindFrames int `json:"buffer_behind_frames,omitempty" yaml:"buffer_behind_frames" jsonschema:"played frames kept for seeking back"`

	UseGPU     bool   `json:"use_gpu,omitempty"     yaml:"use_gpu"     jsonschema:"allow hardware video encoders"`
	DotSize    int    `json:"dot_size,omitempty"    yaml:"dot_size"    jsonschema:"exported Braille dot radius in pixels"`
	DotDensity int    `json:"dot_density,omitempty" yaml:"dot_density" jsonschema:"exported dot spacing as a multiple of dot_size"`
	Output     string `json:"output,omitempty"      yaml:"output"      jsonschema:"export output path"`
	Truecolor  string `json:"truecolor,omitempty"   yaml:"truecolor"   jsonschema:"24-bit gray output: auto, on or off"`
}

// New returns the default configuration.
func New() RenderConfig {
	keys := keyboard.DefaultKeyMap()

	return RenderConfig{
		Type:      TypeAutoDetect,
		Mode:      string(canvas.ModeBWDot),
		Parser:    string(still.ParserDefault),
		Format:    string(export.FormatText),
		Dithering: string(canvas.DitherOrdered),
		Threshold: 128,
		MaxWidth:  80,
		StartTime: -1,
		EndTime:   -1,
		Audio:     Off,
		Shell:     ShellInteractive,

		PauseKey:        keys.Pause.String(),
		StopKey:         keys.Stop.String(),
		VolUpKey:        keys.VolumeUp.String(),
		VolDownKey:      keys.VolumeDown.String(),
		SeekBackwardKey: keys.SeekBackward.String(),
		SeekForwardKey:  keys.SeekForward.String(),

		SeekFrames:         150,
		Volume:             100,
		VolumeStep:         10,
		BufferAheadFrames:  60,
		BufferBehindFrames: 30,

		DotSize:    2,
		DotDensity: 3,
		Truecolor:  Auto,
	}
}

// Normalize clamps numeric fields into range and replaces unknown enum
// values and keys with their defaults. It returns one warning per change.
func (r *RenderConfig) Normalize() []string {
	def := New()

	var warns []string

	clampInt := func(name string, v *int, lo, hi int) {
		c := min(max(*v, lo), hi)
		if c != *v {
			warns = append(warns, fmt.Sprintf("%s %d out of range, using %d", name, *v, c))
			*v = c
		}
	}

	enum := func(name string, v *string, allowed []string, fallback string) {
		if !slices.Contains(allowed, *v) {
			warns = append(warns, fmt.Sprintf("unknown %s %q, using %q", name, *v, fallback))
			*v = fallback
		}
	}

	key := func(name string, v *string, fallback string) {
		if _, err := keyboard.ParseKey(*v); err != nil {
			warns = append(warns, fmt.Sprintf("unknown %s %q, using %q", name, *v, fallback))
			*v = fallback
		}
	}

	enum("type", &r.Type, Types(), def.Type)
	enum("mode", &r.Mode, canvas.Modes(), def.Mode)
	enum("parser", &r.Parser, still.Parsers(), def.Parser)
	enum("format", &r.Format, export.Formats(), def.Format)
	enum("dithering", &r.Dithering, canvas.Ditherings(), def.Dithering)
	enum("audio", &r.Audio, []string{On, Off}, def.Audio)
	enum("shell", &r.Shell, []string{ShellInteractive, ShellNoninteractive}, def.Shell)
	enum("truecolor", &r.Truecolor, []string{Auto, On, Off}, def.Truecolor)

	key("pause_key", &r.PauseKey, def.PauseKey)
	key("stop_key", &r.StopKey, def.StopKey)
	key("vol_up_key", &r.VolUpKey, def.VolUpKey)
	key("vol_down_key", &r.VolDownKey, def.VolDownKey)
	key("seek_backward_key", &r.SeekBackwardKey, def.SeekBackwardKey)
	key("seek_forward_key", &r.SeekForwardKey, def.SeekForwardKey)

	clampInt("threshold", &r.Threshold, 0, MaxThreshold)
	clampInt("max_width", &r.MaxWidth, 1, 1<<14)
	clampInt("seek_frames", &r.SeekFrames, 1, 1<<20)
	clampInt("volume", &r.Volume, 0, MaxVolume)
	clampInt("volume_step", &r.VolumeStep, 1, MaxVolume)
	clampInt("buffer_ahead_frames", &r.BufferAheadFrames, MinBuffer, 1<<12)
	clampInt("buffer_behind_frames", &r.BufferBehindFrames, MinBuffer, 1<<12)
	clampInt("dot_size", &r.DotSize, 1, 64)
	clampInt("dot_density", &r.DotDensity, 1, 64)

	if r.FPS < 0 || r.FPS > MaxFPS {
		c := min(max(r.FPS, 0), MaxFPS)
		warns = append(warns, fmt.Sprintf("fps %g out of range, using %g", r.FPS, c))
		r.FPS = c
	} else if r.FPS > 0 && r.FPS < 1 {
		warns = append(warns, fmt.Sprintf("fps %g out of range, using 1", r.FPS))
		r.FPS = 1
	}

	if r.StartTime < 0 && r.StartTime != -1 {
		r.StartTime = -1
	}

	if r.EndTime < 0 && r.EndTime != -1 {
		r.EndTime = -1
	}

	if r.EndTime >= 0 && r.StartTime >= 0 && r.EndTime <= r.StartTime {
		warns = append(warns, fmt.Sprintf("end_time %g not after start_time %g, ignoring it", r.EndTime, r.StartTime))
		r.EndTime = -1
	}

	return warns
}

// CanvasMode returns the render mode.
func (r RenderConfig) CanvasMode() canvas.Mode {
	m, err := canvas.ParseMode(r.Mode)
	if err != nil {
		return canvas.ModeBWDot
	}

	return m
}

// Params returns the kernel parameters.
func (r RenderConfig) Params() canvas.Params {
	p := canvas.DefaultParams()
	p.Threshold = uint8(min(max(r.Threshold, 0), MaxThreshold))
	p.Invert = r.Invert

	if d, err := canvas.ParseDithering(r.Dithering); err == nil {
		p.Dithering = d
	}

	return p
}

// KeyMap returns the playback key bindings. Normalized configs always
// parse.
func (r RenderConfig) KeyMap() (keyboard.KeyMap, error) {
	var (
		m    keyboard.KeyMap
		errs []error
	)

	for _, k := range []struct {
		dst *keyboard.Key
		src string
	}{
		{&m.Pause, r.PauseKey},
		{&m.Stop, r.StopKey},
		{&m.VolumeUp, r.VolUpKey},
		{&m.VolumeDown, r.VolDownKey},
		{&m.SeekBackward, r.SeekBackwardKey},
		{&m.SeekForward, r.SeekForwardKey},
	} {
		key, err := keyboard.ParseKey(k.src)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		*k.dst = key
	}

	return m, errors.Join(errs...)
}

// AudioEnabled reports whether audio is on.
func (r RenderConfig) AudioEnabled() bool {
	return r.Audio == On
}

// Interactive reports whether playback reads keys.
func (r RenderConfig) Interactive() bool {
	return r.Shell == ShellInteractive
}

// UseTruecolor resolves the truecolor switch, consulting getenv in auto
// mode.
func (r RenderConfig) UseTruecolor(getenv func(string) string) bool {
	switch r.Truecolor {
	case On:
		return true
	case Off:
		return false
	}

	return DetectTruecolor(getenv)
}

// ExportJob returns an export job for input with the configured settings.
func (r RenderConfig) ExportJob(input string, truecolor bool) export.Job {
	f, err := export.ParseFormat(r.Format)
	if err != nil {
		f = export.FormatText
	}

	return export.Job{
		Input:     input,
		Output:    r.Output,
		Format:    f,
		Mode:      r.CanvasMode(),
		Params:    r.Params(),
		MaxWidth:  r.MaxWidth,
		FPS:       r.FPS,
		Start:     r.StartTime,
		End:       r.EndTime,
		Audio:     r.AudioEnabled(),
		UseGPU:    r.UseGPU,
		DotSize:   r.DotSize,
		Density:   r.DotDensity,
		Truecolor: truecolor,
	}
}
