// Package log builds [log/slog] handlers from CLI flags and routes log
// output around a terminal that is temporarily owned by a renderer.
//
// Handlers come in three formats: [FormatJSON] and [FormatLogfmt] use the
// standard slog handlers, [FormatText] uses [charm.land/log/v2]. A
// [Config] registers --log-level and --log-format on a flag set:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(root.PersistentFlags())
//
//	handler, err := cfg.NewHandler(pub)
//	slog.SetDefault(slog.New(handler))
//
// While a player draws on the alternate screen, nothing may write to the
// terminal. Logging to a [Publisher] and draining it with a [Forwarder]
// lets the caller hold entries for the lifetime of the screen and release
// them once the terminal is restored:
//
//	pub := log.NewPublisher()
//	fwd := log.NewForwarder(pub, os.Stderr)
//	defer fwd.Close()
//
//	fwd.Hold()
//	// ... draw ...
//	fwd.Release()
package log
