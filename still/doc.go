// Package still renders still images to terminal text.
//
// A [Renderer] loads an image through a [Loader] at the pixel width that
// fills the configured number of terminal cells, quantizes it on the
// canvas for its mode, and returns the rendered bytes. Two loaders are
// provided: [ConvertLoader] normalizes any input with ImageMagick, and
// [NativeLoader] decodes in process.
package still
