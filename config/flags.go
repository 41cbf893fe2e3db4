package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/export"
	"go.jacobcolvin.com/glyphcast/still"
)

// Flags holds CLI flag names for the render configuration.
type Flags struct {
	File      string
	Type      string
	Mode      string
	Parser    string
	Format    string
	Dithering string
	Threshold string
	MaxWidth  string
	Invert    string
	FPS       string
	StartTime string
	EndTime   string
	Audio     string
	Shell     string

	PauseKey        string
	StopKey         string
	VolUpKey        string
	VolDownKey      string
	SeekBackwardKey string
	SeekForwardKey  string

	SeekFrames         string
	Volume             string
	VolumeStep         string
	BufferAheadFrames  string
	BufferBehindFrames string

	UseGPU     string
	DotSize    string
	DotDensity string
	Output     string
	Truecolor  string
}

// NewConfig creates a [Config] using these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:  f,
		Render: New(),
		apply:  map[string]func(*RenderConfig){},
	}
}

// Config binds a [RenderConfig] to command-line flags and an optional YAML
// file.
//
// Create instances with [NewConfig], register flags with
// [Config.RegisterFlags] and resolve the final configuration with
// [Config.Load] after parsing.
type Config struct {
	flags *pflag.FlagSet
	apply map[string]func(*RenderConfig)
	Flags Flags
	// File is the YAML config path; empty for none.
	File string
	// Render receives flag values.
	Render RenderConfig
}

// NewConfig returns a [Config] with the default flag names: the snake
// case field names with dashes.
func NewConfig() *Config {
	f := Flags{
		File:      "config",
		Type:      "type",
		Mode:      "mode",
		Parser:    "parser",
		Format:    "format",
		Dithering: "dithering",
		Threshold: "threshold",
		MaxWidth:  "max-width",
		Invert:    "invert",
		FPS:       "fps",
		StartTime: "start-time",
		EndTime:   "end-time",
		Audio:     "audio",
		Shell:     "shell",

		PauseKey:        "pause-key",
		StopKey:         "stop-key",
		VolUpKey:        "vol-up-key",
		VolDownKey:      "vol-down-key",
		SeekBackwardKey: "seek-backward-key",
		SeekForwardKey:  "seek-forward-key",

		SeekFrames:         "seek-frames",
		Volume:             "volume",
		VolumeStep:         "volume-step",
		BufferAheadFrames:  "buffer-ahead-frames",
		BufferBehindFrames: "buffer-behind-frames",

		UseGPU:     "use-gpu",
		DotSize:    "dot-size",
		DotDensity: "dot-density",
		Output:     "output",
		Truecolor:  "truecolor",
	}

	return f.NewConfig()
}

// enumValue is a string flag restricted to a fixed set of values.
type enumValue struct {
	p       *string
	allowed []string
}

func (e *enumValue) String() string { return *e.p }

func (e *enumValue) Type() string { return "string" }

func (e *enumValue) Set(s string) error {
	s = strings.ToLower(s)
	for _, a := range e.allowed {
		if s == a {
			*e.p = s

			return nil
		}
	}

	return fmt.Errorf("%w: %q, want one of: %s", ErrInvalidValue, s, strings.Join(e.allowed, ", "))
}

// bind records how to copy a flag's field from the flag-bound config onto
// a resolved one.
func bind[T any](c *Config, name string, field func(*RenderConfig) *T) {
	c.apply[name] = func(dst *RenderConfig) {
		*field(dst) = *field(&c.Render)
	}
}

func (c *Config) enum(fs *pflag.FlagSet, name string, field func(*RenderConfig) *string, allowed []string, usage string) {
	fs.Var(&enumValue{p: field(&c.Render), allowed: allowed}, name,
		usage+", one of: "+strings.Join(allowed, ", "))
	bind(c, name, field)
}

func (c *Config) str(fs *pflag.FlagSet, name string, field func(*RenderConfig) *string, usage string) {
	fs.StringVar(field(&c.Render), name, *field(&c.Render), usage)
	bind(c, name, field)
}

func (c *Config) integer(fs *pflag.FlagSet, name string, field func(*RenderConfig) *int, usage string) {
	fs.IntVar(field(&c.Render), name, *field(&c.Render), usage)
	bind(c, name, field)
}

func (c *Config) float(fs *pflag.FlagSet, name string, field func(*RenderConfig) *float64, usage string) {
	fs.Float64Var(field(&c.Render), name, *field(&c.Render), usage)
	bind(c, name, field)
}

func (c *Config) boolean(fs *pflag.FlagSet, name string, field func(*RenderConfig) *bool, usage string) {
	fs.BoolVar(field(&c.Render), name, *field(&c.Render), usage)
	bind(c, name, field)
}

// RegisterFlags adds the configuration flags to fs.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	c.flags = fs
	f := c.Flags

	fs.StringVar(&c.File, f.File, "", "YAML config file; explicitly set flags override it")

	c.enum(fs, f.Type, func(r *RenderConfig) *string { return &r.Type }, Types(), "source type")
	c.enum(fs, f.Mode, func(r *RenderConfig) *string { return &r.Mode }, canvas.Modes(), "render mode")
	c.enum(fs, f.Parser, func(r *RenderConfig) *string { return &r.Parser }, still.Parsers(), "still image backend")
	c.enum(fs, f.Format, func(r *RenderConfig) *string { return &r.Format }, export.Formats(), "export format")
	c.enum(fs, f.Dithering, func(r *RenderConfig) *string { return &r.Dithering },
		canvas.Ditherings(), "dithering for the dithered modes")
	c.integer(fs, f.Threshold, func(r *RenderConfig) *int { return &r.Threshold }, "threshold, 0-255")
	c.integer(fs, f.MaxWidth, func(r *RenderConfig) *int { return &r.MaxWidth }, "output width in cells")
	c.boolean(fs, f.Invert, func(r *RenderConfig) *bool { return &r.Invert }, "invert gray levels")
	c.float(fs, f.FPS, func(r *RenderConfig) *float64 { return &r.FPS }, "frame rate, 0 for the source rate")
	c.float(fs, f.StartTime, func(r *RenderConfig) *float64 { return &r.StartTime }, "clip start in seconds, -1 for none")
	c.float(fs, f.EndTime, func(r *RenderConfig) *float64 { return &r.EndTime }, "clip end in seconds, -1 for none")
	c.enum(fs, f.Audio, func(r *RenderConfig) *string { return &r.Audio }, []string{On, Off}, "audio")
	c.enum(fs, f.Shell, func(r *RenderConfig) *string { return &r.Shell },
		[]string{ShellInteractive, ShellNoninteractive}, "keyboard control")

	c.str(fs, f.PauseKey, func(r *RenderConfig) *string { return &r.PauseKey }, "pause key")
	c.str(fs, f.StopKey, func(r *RenderConfig) *string { return &r.StopKey }, "stop key")
	c.str(fs, f.VolUpKey, func(r *RenderConfig) *string { return &r.VolUpKey }, "volume up key")
	c.str(fs, f.VolDownKey, func(r *RenderConfig) *string { return &r.VolDownKey }, "volume down key")
	c.str(fs, f.SeekBackwardKey, func(r *RenderConfig) *string { return &r.SeekBackwardKey }, "seek backward key")
	c.str(fs, f.SeekForwardKey, func(r *RenderConfig) *string { return &r.SeekForwardKey }, "seek forward key")

	c.integer(fs, f.SeekFrames, func(r *RenderConfig) *int { return &r.SeekFrames }, "seek step in frames")
	c.integer(fs, f.Volume, func(r *RenderConfig) *int { return &r.Volume }, "initial volume, 0-100")
	c.integer(fs, f.VolumeStep, func(r *RenderConfig) *int { return &r.VolumeStep }, "volume step, 1-100")
	c.integer(fs, f.BufferAheadFrames, func(r *RenderConfig) *int { return &r.BufferAheadFrames },
		"frames decoded ahead of playback")
	c.integer(fs, f.BufferBehindFrames, func(r *RenderConfig) *int { return &r.BufferBehindFrames },
		"frames kept behind playback")

	c.boolean(fs, f.UseGPU, func(r *RenderConfig) *bool { return &r.UseGPU }, "allow hardware encoders")
	c.integer(fs, f.DotSize, func(r *RenderConfig) *int { return &r.DotSize }, "exported dot radius in pixels")
	c.integer(fs, f.DotDensity, func(r *RenderConfig) *int { return &r.DotDensity }, "exported dot spacing factor")
	c.str(fs, f.Output, func(r *RenderConfig) *string { return &r.Output }, "export output path")
	c.enum(fs, f.Truecolor, func(r *RenderConfig) *string { return &r.Truecolor },
		[]string{Auto, On, Off}, "24-bit gray output")
}

// RegisterCompletions registers shell completions for the enum flags on
// cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	f := c.Flags

	enums := []struct {
		name   string
		values []string
	}{
		{f.Type, Types()},
		{f.Mode, canvas.Modes()},
		{f.Parser, still.Parsers()},
		{f.Format, export.Formats()},
		{f.Dithering, canvas.Ditherings()},
		{f.Audio, []string{On, Off}},
		{f.Shell, []string{ShellInteractive, ShellNoninteractive}},
		{f.Truecolor, []string{Auto, On, Off}},
	}

	for _, e := range enums {
		err := cmd.RegisterFlagCompletionFunc(e.name,
			cobra.FixedCompletions(e.values, cobra.ShellCompDirectiveNoFileComp))
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", e.name, err)
		}
	}

	err := cmd.RegisterFlagCompletionFunc(f.File, func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", f.File, err)
	}

	return nil
}

// Load resolves the configuration: defaults, then the YAML file, then
// every flag set on the command line. The result is normalized; the
// returned warnings describe values that were clamped or replaced.
func (c *Config) Load() (RenderConfig, []string, error) {
	r := New()

	if c.File != "" {
		data, err := os.ReadFile(c.File)
		if err != nil {
			return RenderConfig{}, nil, fmt.Errorf("%w: %w", ErrConfigFile, err)
		}

		r, err = Decode(data, r)
		if err != nil {
			return RenderConfig{}, nil, fmt.Errorf("%w: %s: %w", ErrConfigFile, c.File, err)
		}
	}

	if c.flags != nil {
		// Changed lives on the shared *pflag.Flag, so this also sees flags
		// parsed through a subcommand's merged flag set.
		c.flags.VisitAll(func(fl *pflag.Flag) {
			if apply, ok := c.apply[fl.Name]; ok && fl.Changed {
				apply(&r)
			}
		})
	}

	warns := r.Normalize()

	return r, warns, nil
}

// Decode overlays the YAML document data onto base. Unknown keys are
// rejected.
func Decode(data []byte, base RenderConfig) (RenderConfig, error) {
	err := yaml.UnmarshalWithOptions(data, &base, yaml.DisallowUnknownField())
	if err != nil {
		return RenderConfig{}, err
	}

	return base, nil
}
