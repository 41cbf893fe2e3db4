package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
)

// ErrBadContainer indicates a malformed .pi or .pv file.
var ErrBadContainer = errors.New("invalid container")

// HeaderSize is the fixed size of a container header.
const HeaderSize = 64

const (
	containerVersion = 1
	maxExtLen        = 15

	offVersion = 8
	offExtLen  = 9
	offExt     = 10
	offSalt    = 26
	offSize    = 34
)

var (
	imageMagic = [8]byte{'P', 'Y', 'T', 'H', 'I', 'M', 'G', 0x01}
	videoMagic = [8]byte{'P', 'Y', 'T', 'H', 'V', 'I', 'D', 0x01}

	baseKey = [32]byte{
		0x50, 0x79, 0x74, 0x68, 0x6F, 0x6E, 0x69, 0x63,
		0xDE, 0xAD, 0xBE, 0xEF, 0xCA, 0xFE, 0xBA, 0xBE,
		0x13, 0x37, 0x42, 0x69, 0x88, 0x99, 0xAA, 0xBB,
		0xCC, 0xDD, 0xEE, 0xFF, 0x11, 0x22, 0x33, 0x44,
	}
)

// Container is a decoded .pi or .pv payload.
type Container struct {
	// Ext is the original file extension including the dot.
	Ext   string
	Data  []byte
	Video bool
}

func fileKey(salt uint32) [32]byte {
	k := baseKey
	for i := range k {
		k[i] ^= byte(salt >> (uint(i%4) * 8))
	}

	return k
}

func keyIndex(i int) int {
	return (i + i/32) % 32
}

func obfuscate(data []byte, salt uint32) {
	k := fileKey(salt)
	for i := range data {
		data[i] = bits.RotateLeft8(data[i]^k[keyIndex(i)], 3)
	}
}

func deobfuscate(data []byte, salt uint32) {
	k := fileKey(salt)
	for i := range data {
		data[i] = bits.RotateLeft8(data[i], -3) ^ k[keyIndex(i)]
	}
}

// EncodeContainer writes c to w with the given salt.
func EncodeContainer(w io.Writer, c Container, salt uint32) error {
	if len(c.Ext) > maxExtLen {
		return fmt.Errorf("%w: extension %q longer than %d bytes", ErrBadContainer, c.Ext, maxExtLen)
	}

	var h [HeaderSize]byte
	if c.Video {
		copy(h[:], videoMagic[:])
	} else {
		copy(h[:], imageMagic[:])
	}

	h[offVersion] = containerVersion
	h[offExtLen] = byte(len(c.Ext))
	copy(h[offExt:offSalt], c.Ext)
	binary.LittleEndian.PutUint32(h[offSalt:], salt)
	binary.LittleEndian.PutUint64(h[offSize:], uint64(len(c.Data)))

	payload := bytes.Clone(c.Data)
	obfuscate(payload, salt)

	_, err := w.Write(h[:])
	if err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	_, err = w.Write(payload)
	if err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}

	return nil
}

// DecodeContainer parses a complete container file.
func DecodeContainer(data []byte) (Container, error) {
	if len(data) < HeaderSize {
		return Container{}, fmt.Errorf("%w: %d bytes is shorter than the header", ErrBadContainer, len(data))
	}

	var c Container

	switch [8]byte(data[:8]) {
	case imageMagic:
	case videoMagic:
		c.Video = true
	default:
		return Container{}, fmt.Errorf("%w: bad magic", ErrBadContainer)
	}

	if data[offVersion] != containerVersion {
		return Container{}, fmt.Errorf("%w: unsupported version %d", ErrBadContainer, data[offVersion])
	}

	extLen := int(data[offExtLen])
	if extLen > maxExtLen {
		return Container{}, fmt.Errorf("%w: extension length %d", ErrBadContainer, extLen)
	}

	c.Ext = string(data[offExt : offExt+extLen])

	salt := binary.LittleEndian.Uint32(data[offSalt:])
	size := binary.LittleEndian.Uint64(data[offSize:])

	payload := data[HeaderSize:]
	if uint64(len(payload)) != size {
		return Container{}, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrBadContainer, len(payload), size)
	}

	c.Data = bytes.Clone(payload)
	deobfuscate(c.Data, salt)

	return c, nil
}

// IsContainer reports whether path has a container extension.
func IsContainer(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))

	return ext == ImageContainerExt || ext == VideoContainerExt
}

// Extract decodes the container at path into a temporary file carrying the
// original extension. The returned func removes it.
func Extract(path string) (string, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading container: %w", err)
	}

	c, err := DecodeContainer(data)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}

	f, err := os.CreateTemp("", "glyphcast-*"+c.Ext)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	cleanup := func() {
		//nolint:errcheck // Best-effort temp file removal.
		os.Remove(f.Name())
	}

	_, err = f.Write(c.Data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		cleanup()

		return "", nil, fmt.Errorf("writing extracted payload: %w", err)
	}

	return f.Name(), cleanup, nil
}

// Resolve returns a path the decoders can read: containers are extracted,
// other paths are returned as-is with a no-op cleanup.
func Resolve(path string) (string, func(), error) {
	if !IsContainer(path) {
		return path, func() {}, nil
	}

	return Extract(path)
}

// Pack wraps the file at src into a container at dst. The container kind
// follows the extension of src.
func Pack(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}

	c := Container{
		Ext:   strings.ToLower(filepath.Ext(src)),
		Data:  data,
		Video: IsVideoExt(src) && !strings.EqualFold(filepath.Ext(src), ".gif"),
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	err = EncodeContainer(f, c, rand.Uint32())
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("packing %s: %w", src, err)
	}

	return nil
}

// ContainerExt returns the container extension for a source path.
func ContainerExt(src string) string {
	if IsVideoExt(src) && !strings.EqualFold(filepath.Ext(src), ".gif") {
		return VideoContainerExt
	}

	return ImageContainerExt
}
