package profile

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for profiling configuration.
type Flags struct {
	CPUProfile       string
	Trace            string
	HeapProfile      string
	AllocsProfile    string
	GoroutineProfile string
	BlockProfile     string
	MutexProfile     string

	MemProfileRate       string
	BlockProfileRate     string
	MutexProfileFraction string
}

// NewConfig creates a [Config] using these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags: f,
	}
}

// Config holds output paths and sampling rates. Empty paths disable the
// corresponding profile, so a zero Config profiles nothing.
type Config struct {
	Flags Flags

	CPUProfile       string
	Trace            string
	HeapProfile      string
	AllocsProfile    string
	GoroutineProfile string
	BlockProfile     string
	MutexProfile     string

	MemProfileRate       int
	BlockProfileRate     int
	MutexProfileFraction int
}

// NewConfig creates a [Config] with the default flag names and all
// profiles disabled.
func NewConfig() *Config {
	f := Flags{
		CPUProfile:           "cpu-profile",
		Trace:                "trace",
		HeapProfile:          "heap-profile",
		AllocsProfile:        "allocs-profile",
		GoroutineProfile:     "goroutine-profile",
		BlockProfile:         "block-profile",
		MutexProfile:         "mutex-profile",
		MemProfileRate:       "mem-profile-rate",
		BlockProfileRate:     "block-profile-rate",
		MutexProfileFraction: "mutex-profile-fraction",
	}

	return f.NewConfig()
}

// RegisterFlags adds profiling flags to flags.
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.CPUProfile, c.Flags.CPUProfile, "", "write CPU profile to file")
	flags.StringVar(&c.Trace, c.Flags.Trace, "", "write execution trace to file")
	flags.StringVar(&c.HeapProfile, c.Flags.HeapProfile, "", "write heap profile to file")
	flags.StringVar(&c.AllocsProfile, c.Flags.AllocsProfile, "", "write allocs profile to file")
	flags.StringVar(&c.GoroutineProfile, c.Flags.GoroutineProfile, "", "write goroutine profile to file")
	flags.StringVar(&c.BlockProfile, c.Flags.BlockProfile, "", "write block profile to file")
	flags.StringVar(&c.MutexProfile, c.Flags.MutexProfile, "", "write mutex profile to file")

	flags.IntVar(&c.MemProfileRate, c.Flags.MemProfileRate, 512*1024, "memory profile rate (bytes per sample)")
	flags.IntVar(&c.BlockProfileRate, c.Flags.BlockProfileRate, 0, "block profile rate in nanoseconds (0 disables)")
	flags.IntVar(&c.MutexProfileFraction, c.Flags.MutexProfileFraction, 0, "mutex profile fraction, 1/N sampling (0 disables)")

	for _, name := range []string{c.Flags.MemProfileRate, c.Flags.BlockProfileRate, c.Flags.MutexProfileFraction} {
		flags.Lookup(name).Hidden = true
	}
}

// RegisterCompletions registers shell completions for profile flags on cmd.
// Rate flags disable file completion; path flags keep the default.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	for _, name := range []string{c.Flags.MemProfileRate, c.Flags.BlockProfileRate, c.Flags.MutexProfileFraction} {
		err := cmd.RegisterFlagCompletionFunc(name, noFileComp)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", name, err)
		}
	}

	return nil
}

// NewProfiler creates a [Profiler] from a copy of c.
func (c *Config) NewProfiler() *Profiler {
	return &Profiler{
		Config: *c,
	}
}
