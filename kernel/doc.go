// Package kernel implements the per-cell quantizers that turn a 2x4 pixel
// block into a Braille dot pattern and, for colored modes, a foreground
// color.
//
// Every kernel is a pure function of its [Block] and parameters. The one
// exception to cell locality is [FloydSteinberg], which diffuses error over a
// whole frame and is therefore applied before blocks are formed.
package kernel
