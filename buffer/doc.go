// Package buffer holds the queues between decoders and consumers during
// playback.
//
// [ReadAhead] is a fixed ring of frame slots filled by one producer
// goroutine. [FrameBuffer] is the seekable window of decoded frames used by
// the interactive player, and [AudioBuffer] queues PCM for the audio
// device. All three use one mutex with condition variables; frame bytes
// are copied outside the lock wherever the protocol allows it.
//
// The seek protocol is shared by [FrameBuffer] and [AudioBuffer]: any
// goroutine calls RequestSeek, the decoder goroutine notices it with
// TakeSeek, repositions its decoder, then calls CompleteSeek. Between the
// request and the completion, producers drop what they push and consumers
// wait.
package buffer
