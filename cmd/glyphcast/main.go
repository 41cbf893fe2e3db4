// Package main provides the CLI entry point for glyphcast, a terminal
// renderer for images, videos and webcams.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	root := a.command()

	err := root.Execute()

	stopErr := a.shutdown()
	if stopErr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", stopErr)
	}

	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}

		os.Exit(1)
	}

	if stopErr != nil {
		os.Exit(1)
	}
}

// reportedError is an error that was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }
