package profile

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Profiler runs one profiling session. Call [Profiler.Start] before the
// command and [Profiler.Stop] after it.
//
// Create instances with [Config.NewProfiler].
type Profiler struct {
	cpuFile   *os.File
	traceFile *os.File
	Config
}

// Start applies the sampling rates and starts the CPU profile and the
// execution trace when enabled.
func (p *Profiler) Start() error {
	if p.MemProfileRate > 0 {
		runtime.MemProfileRate = p.MemProfileRate
	}

	runtime.SetBlockProfileRate(p.BlockProfileRate)
	runtime.SetMutexProfileFraction(p.MutexProfileFraction)

	if p.CPUProfile != "" {
		f, err := create("CPU profile", p.CPUProfile)
		if err != nil {
			return err
		}

		err = pprof.StartCPUProfile(f)
		if err != nil {
			return errors.Join(fmt.Errorf("starting CPU profile: %w", err), f.Close())
		}

		p.cpuFile = f
	}

	if p.Trace != "" {
		f, err := create("trace", p.Trace)
		if err != nil {
			return errors.Join(err, p.stopCPU())
		}

		err = trace.Start(f)
		if err != nil {
			return errors.Join(fmt.Errorf("starting trace: %w", err), f.Close(), p.stopCPU())
		}

		p.traceFile = f
	}

	return nil
}

// Stop ends the CPU profile and trace and writes the snapshot profiles.
// Every step runs even if an earlier one fails.
func (p *Profiler) Stop() error {
	var errs []error

	if p.traceFile != nil {
		trace.Stop()

		errs = append(errs, closeFile("trace", p.traceFile))
		p.traceFile = nil
	}

	errs = append(errs, p.stopCPU())

	snapshots := []struct {
		name string
		path string
	}{
		{"heap", p.HeapProfile},
		{"allocs", p.AllocsProfile},
		{"goroutine", p.GoroutineProfile},
		{"block", p.BlockProfile},
		{"mutex", p.MutexProfile},
	}

	for _, s := range snapshots {
		if s.path != "" {
			errs = append(errs, writeProfile(s.name, s.path))
		}
	}

	return errors.Join(errs...)
}

func (p *Profiler) stopCPU() error {
	if p.cpuFile == nil {
		return nil
	}

	pprof.StopCPUProfile()

	err := closeFile("CPU profile", p.cpuFile)
	p.cpuFile = nil

	return err
}

func create(what, path string) (*os.File, error) {
	f, err := os.Create(path) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", what, err)
	}

	return f, nil
}

func closeFile(what string, f *os.File) error {
	err := f.Close()
	if err != nil {
		return fmt.Errorf("closing %s: %w", what, err)
	}

	return nil
}

func writeProfile(name, path string) error {
	prof := pprof.Lookup(name)
	if prof == nil {
		return fmt.Errorf("unknown profile: %s", name)
	}

	f, err := create(name+" profile", path)
	if err != nil {
		return err
	}

	err = prof.WriteTo(f, 0)
	if err != nil {
		return errors.Join(fmt.Errorf("writing %s profile: %w", name, err), f.Close())
	}

	return closeFile(name+" profile", f)
}
