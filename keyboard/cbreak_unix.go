//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package keyboard

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// termReader reads the terminal with raw syscalls. An empty read is not
// end of input in non-blocking mode.
type termReader int

func (r termReader) Read(b []byte) (int, error) {
	n, err := unix.Read(int(r), b)

	return max(n, 0), err
}

// makeCbreak disables canonical mode and echo with VMIN=0 and VTIME=0, so
// reads return immediately. It returns a reader for the terminal and a
// func restoring the old attributes.
func makeCbreak(fd int) (io.Reader, func(), error) {
	old, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrNotTerminal, err)
	}

	raw := *old
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0

	err = unix.IoctlSetTermios(fd, ioctlSetTermios, &raw)
	if err != nil {
		return nil, nil, fmt.Errorf("setting terminal attributes: %w", err)
	}

	return termReader(fd), func() {
		//nolint:errcheck // Nothing more can be done on failure.
		unix.IoctlSetTermios(fd, ioctlSetTermios, old)
	}, nil
}

func isAgain(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR)
}
