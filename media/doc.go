// Package media talks to the external ffmpeg and ffprobe tools and
// classifies input sources.
//
// Video frames are decoded by an ffmpeg child process writing raw gray or
// rgb24 frames to a pipe; [FrameStream] reads them back one fixed-size frame
// at a time. Audio is decoded the same way into interleaved signed 16-bit
// PCM by [PCMStream]. A short read from either pipe is end of stream.
//
// The package also reads and writes the obfuscated .pi/.pv container, which
// wraps an ordinary image or video file so it can be fed to the normal
// decode path after extraction.
package media
