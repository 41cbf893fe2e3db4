package log_test

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/glyphcast/log"
)

type lockedBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestForwarder(t *testing.T) {
	t.Parallel()

	pub := log.NewPublisher()
	out := &lockedBuffer{}
	fwd := log.NewForwarder(pub, out)

	logger := slog.New(log.NewHandler(pub, log.LevelInfo, log.FormatLogfmt))

	logger.Info("before")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "msg=before")
	}, time.Second, time.Millisecond)

	fwd.Hold()
	logger.Info("during")
	require.Eventually(t, func() bool { return fwd.Held() == 1 }, time.Second, time.Millisecond)
	assert.NotContains(t, out.String(), "msg=during")

	fwd.Release()
	assert.Contains(t, out.String(), "msg=during")
	assert.Less(t, strings.Index(out.String(), "msg=before"), strings.Index(out.String(), "msg=during"))

	logger.Info("after")
	fwd.Close()
	assert.Contains(t, out.String(), "msg=after")
}

func TestForwarderCloseWhileHeld(t *testing.T) {
	t.Parallel()

	pub := log.NewPublisher()
	out := &lockedBuffer{}
	fwd := log.NewForwarder(pub, out)

	fwd.Hold()

	_, err := pub.Write([]byte("held\n"))
	require.NoError(t, err)

	fwd.Close()
	assert.Equal(t, "held\n", out.String())

	// Writes after close are discarded.
	_, err = pub.Write([]byte("late\n"))
	require.NoError(t, err)
	assert.Equal(t, "held\n", out.String())
}
