//go:build unix

package termstate

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

func reraise(sig os.Signal) {
	signal.Reset(sig)

	if s, ok := sig.(syscall.Signal); ok {
		//nolint:errcheck // The process is terminating.
		unix.Kill(unix.Getpid(), s)
	}
}

func rawWrite(fd int, b []byte) {
	//nolint:errcheck // A failed restore write cannot be reported.
	unix.Write(fd, b)
}
