// Package keyboard turns terminal key presses into player commands.
//
// A [Manager] puts the terminal into non-canonical, no-echo mode, polls it
// from one goroutine, decodes arrow escape sequences and single code
// points, maps them through [Bindings] and queues the resulting
// [Command]s.
package keyboard

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrNotTerminal indicates that input is not an interactive terminal.
	ErrNotTerminal = errors.New("input is not a terminal")
	// ErrUnknownKey indicates an unparseable key name.
	ErrUnknownKey = errors.New("unknown key")
)

// Command is an abstract player action.
type Command int

const (
	// CommandPause toggles pause.
	CommandPause Command = iota + 1
	// CommandStop ends playback.
	CommandStop
	// CommandVolumeUp raises the volume by one step.
	CommandVolumeUp
	// CommandVolumeDown lowers the volume by one step.
	CommandVolumeDown
	// CommandSeekBackward jumps back by the seek step.
	CommandSeekBackward
	// CommandSeekForward jumps forward by the seek step.
	CommandSeekForward
)

// String implements [fmt.Stringer].
func (c Command) String() string {
	switch c {
	case CommandPause:
		return "pause"
	case CommandStop:
		return "stop"
	case CommandVolumeUp:
		return "volume_up"
	case CommandVolumeDown:
		return "volume_down"
	case CommandSeekBackward:
		return "seek_backward"
	case CommandSeekForward:
		return "seek_forward"
	}

	return fmt.Sprintf("command(%d)", int(c))
}

// Key is a decoded key press: a Unicode code point or one of the arrow
// keys, which sit above the Unicode range.
type Key rune

// Arrow keys.
const (
	KeyUp Key = utf8.MaxRune + 1 + iota
	KeyDown
	KeyRight
	KeyLeft
)

// KeyNone disables a binding.
const KeyNone Key = 0

var keyNames = map[string]Key{
	"up":     KeyUp,
	"down":   KeyDown,
	"left":   KeyLeft,
	"right":  KeyRight,
	"space":  ' ',
	"enter":  '\r',
	"tab":    '\t',
	"escape": 0x1b,
	"esc":    0x1b,
	"none":   KeyNone,
	"":       KeyNone,
}

// ParseKey parses a key name ("space", "up", "q", "none", ...). A single
// character names itself.
func ParseKey(s string) (Key, error) {
	if k, ok := keyNames[strings.ToLower(s)]; ok {
		return k, nil
	}

	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)

		return Key(r), nil
	}

	return KeyNone, fmt.Errorf("%w: %q", ErrUnknownKey, s)
}

// String returns the name of k as accepted by [ParseKey].
func (k Key) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case ' ':
		return "space"
	case '\r':
		return "enter"
	case '\t':
		return "tab"
	case 0x1b:
		return "escape"
	}

	return string(rune(k))
}

// Decode splits raw terminal input into keys. "ESC [ A" through "ESC [ D"
// are the arrow keys; anything else decodes as UTF-8, one key per code
// point.
func Decode(b []byte) []Key {
	var keys []Key

	for len(b) > 0 {
		if len(b) >= 3 && b[0] == 0x1b && b[1] == '[' && b[2] >= 'A' && b[2] <= 'D' {
			keys = append(keys, [...]Key{KeyUp, KeyDown, KeyRight, KeyLeft}[b[2]-'A'])
			b = b[3:]

			continue
		}

		r, n := utf8.DecodeRune(b)
		keys = append(keys, Key(r))
		b = b[n:]
	}

	return keys
}

// Bindings maps keys to commands.
type Bindings map[Key]Command

// KeyMap names the key of every command.
type KeyMap struct {
	Pause        Key
	Stop         Key
	VolumeUp     Key
	VolumeDown   Key
	SeekBackward Key
	SeekForward  Key
}

// DefaultKeyMap returns space to pause, q to stop, and the arrow keys for
// volume and seeking.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Pause:        ' ',
		Stop:         'q',
		VolumeUp:     KeyUp,
		VolumeDown:   KeyDown,
		SeekBackward: KeyLeft,
		SeekForward:  KeyRight,
	}
}

// Bindings returns the lookup table for m. Keys set to [KeyNone] are left
// unbound; when two commands share a key, the earlier one in the order
// pause, stop, volume up, volume down, seek backward, seek forward wins.
func (m KeyMap) Bindings() Bindings {
	b := Bindings{}

	pairs := []struct {
		key Key
		cmd Command
	}{
		{m.Pause, CommandPause},
		{m.Stop, CommandStop},
		{m.VolumeUp, CommandVolumeUp},
		{m.VolumeDown, CommandVolumeDown},
		{m.SeekBackward, CommandSeekBackward},
		{m.SeekForward, CommandSeekForward},
	}

	for _, p := range pairs {
		if _, taken := b[p.key]; p.key != KeyNone && !taken {
			b[p.key] = p.cmd
		}
	}

	return b
}
