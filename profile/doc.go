// Package profile wraps command execution with runtime profiling.
//
// CPU profiles and execution traces run for the life of the command; heap,
// allocs, goroutine, block and mutex profiles are snapshots written when it
// ends. Each is enabled by giving its output path on the command line, for
// example --cpu-profile=cpu.prof or --trace=play.trace. Traces are the
// useful view of playback: they show the decode, audio and render
// goroutines against the frame deadlines.
package profile
