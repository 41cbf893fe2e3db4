package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/glyphcast/log"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in      string
		want    log.Level
		wantErr error
	}{
		"error":        {in: "error", want: log.LevelError},
		"warn":         {in: "warn", want: log.LevelWarn},
		"warning":      {in: "Warning", want: log.LevelWarn},
		"info":         {in: "INFO", want: log.LevelInfo},
		"debug":        {in: "debug", want: log.LevelDebug},
		"trace":        {in: "trace", wantErr: log.ErrUnknownLogLevel},
		"empty string": {in: "", wantErr: log.ErrUnknownLogLevel},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := log.ParseLevel(tc.in)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in      string
		want    log.Format
		wantErr error
	}{
		"json":   {in: "json", want: log.FormatJSON},
		"logfmt": {in: "LOGFMT", want: log.FormatLogfmt},
		"text":   {in: "text", want: log.FormatText},
		"yaml":   {in: "yaml", wantErr: log.ErrUnknownLogFormat},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := log.ParseFormat(tc.in)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		format log.Format
		check  func(*testing.T, string)
	}{
		"json": {
			format: log.FormatJSON,
			check: func(t *testing.T, out string) {
				t.Helper()

				var entry map[string]any

				require.NoError(t, json.Unmarshal([]byte(out), &entry))
				assert.Equal(t, "export finished", entry["msg"])
				assert.Equal(t, "INFO", entry["level"])
				assert.Equal(t, "clip.mp4", entry["output"])
				assert.Contains(t, entry, "source")
			},
		},
		"logfmt": {
			format: log.FormatLogfmt,
			check: func(t *testing.T, out string) {
				t.Helper()

				assert.Contains(t, out, "level=INFO")
				assert.Contains(t, out, `msg="export finished"`)
				assert.Contains(t, out, "output=clip.mp4")
			},
		},
		"text": {
			format: log.FormatText,
			check: func(t *testing.T, out string) {
				t.Helper()

				assert.Contains(t, out, "INFO")
				assert.Contains(t, out, "export finished")
				assert.Contains(t, out, "output=clip.mp4")
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			slog.New(log.NewHandler(&buf, log.LevelInfo, tc.format)).
				Info("export finished", slog.String("output", "clip.mp4"))

			tc.check(t, buf.String())
		})
	}
}

func TestHandlerLevels(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level log.Level
		emit  slog.Level
		want  bool
	}{
		"info keeps info":   {level: log.LevelInfo, emit: slog.LevelInfo, want: true},
		"info drops debug":  {level: log.LevelInfo, emit: slog.LevelDebug},
		"warn keeps error":  {level: log.LevelWarn, emit: slog.LevelError, want: true},
		"error drops warn":  {level: log.LevelError, emit: slog.LevelWarn},
		"debug keeps debug": {level: log.LevelDebug, emit: slog.LevelDebug, want: true},
	}

	for name, tc := range tcs {
		for _, format := range []log.Format{log.FormatJSON, log.FormatText} {
			t.Run(name+"/"+string(format), func(t *testing.T) {
				t.Parallel()

				var buf bytes.Buffer

				slog.New(log.NewHandler(&buf, tc.level, format)).Log(t.Context(), tc.emit, "frame dropped")

				if tc.want {
					assert.Contains(t, buf.String(), "frame dropped")
				} else {
					assert.Empty(t, buf.String())
				}
			})
		}
	}
}

func TestNewHandlerFromStrings(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		level   string
		format  string
		wantErr error
	}{
		"valid":          {level: "debug", format: "json"},
		"bad level":      {level: "loud", format: "json", wantErr: log.ErrUnknownLogLevel},
		"bad format":     {level: "info", format: "xml", wantErr: log.ErrUnknownLogFormat},
		"level reported": {level: "", format: "", wantErr: log.ErrUnknownLogLevel},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			h, err := log.NewHandlerFromStrings(&buf, tc.level, tc.format)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, log.ErrInvalidArgument)
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			slog.New(h).Debug("decoder started")
			assert.Contains(t, buf.String(), `"msg":"decoder started"`)
		})
	}
}

func TestRegisterCompletions(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	cmd := &cobra.Command{Use: "glyphcast"}
	cfg.RegisterFlags(cmd.PersistentFlags())
	require.NoError(t, cfg.RegisterCompletions(cmd))

	tcs := map[string][]string{
		"log-level":  log.GetAllLevelStrings(),
		"log-format": log.GetAllFormatStrings(),
	}

	for flag, want := range tcs {
		t.Run(flag, func(t *testing.T) {
			t.Parallel()

			fn, ok := cmd.GetFlagCompletionFunc(flag)
			require.True(t, ok)

			got, directive := fn(cmd, nil, "")
			assert.Equal(t, want, got)
			assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
		})
	}
}

func TestConfigFlags(t *testing.T) {
	t.Parallel()

	cfg := log.NewConfig()
	fs := pflag.NewFlagSet("glyphcast", pflag.ContinueOnError)
	cfg.RegisterFlags(fs)

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)

	require.NoError(t, fs.Parse([]string{"--log-level=debug", "--log-format=json"}))

	var buf bytes.Buffer

	handler, err := cfg.NewHandler(&buf)
	require.NoError(t, err)

	slog.New(handler).Debug("visible")
	assert.Contains(t, buf.String(), `"msg":"visible"`)
}

func TestLevelSlog(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.LevelError, log.LevelError.Slog())
	assert.Equal(t, slog.LevelWarn, log.LevelWarn.Slog())
	assert.Equal(t, slog.LevelDebug, log.LevelDebug.Slog())
	assert.Equal(t, slog.LevelInfo, log.Level("other").Slog())
}
