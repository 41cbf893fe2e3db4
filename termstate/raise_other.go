//go:build !unix

package termstate

import (
	"os"
	"os/signal"
)

func reraise(sig os.Signal) {
	signal.Reset(sig)
	os.Exit(1)
}

func rawWrite(fd int, b []byte) {
	//nolint:errcheck // A failed restore write cannot be reported.
	os.NewFile(uintptr(fd), "terminal").Write(b)
}
