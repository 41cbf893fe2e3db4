//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package keyboard

import "io"

func makeCbreak(int) (io.Reader, func(), error) {
	return nil, nil, ErrNotTerminal
}

func isAgain(error) bool {
	return false
}
