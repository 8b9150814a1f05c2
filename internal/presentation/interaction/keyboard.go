package interaction

import (
	"os"

	"golang.org/x/sys/unix"
)

// KeyboardReader handles keyboard input in raw mode
type KeyboardReader struct {
	oldState *unix.Termios
	input    chan KeyEvent
	stop     chan struct{}
}

// KeyEvent represents a keyboard event
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// KeyType represents the type of key pressed
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyEnter
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
)

// IsQuit reports whether the event asks to leave the program
func (e KeyEvent) IsQuit() bool {
	if e.Type == KeyEscape {
		return true
	}
	return e.Type == KeyChar && (e.Key == 'q' || e.Key == 'Q' || e.Key == 3)
}

// NewKeyboardReader creates a new keyboard reader
func NewKeyboardReader() (*KeyboardReader, error) {
	kr := &KeyboardReader{
		input: make(chan KeyEvent, 10),
		stop:  make(chan struct{}),
	}

	// Set terminal to raw mode
	if err := kr.enableRawMode(); err != nil {
		return nil, err
	}

	go kr.readInput()

	return kr, nil
}

// readInput reads keyboard input in a goroutine
func (kr *KeyboardReader) readInput() {
	buf := make([]byte, 8)

	for {
		select {
		case <-kr.stop:
			return
		default:
			n, err := os.Stdin.Read(buf)
			if err != nil || n == 0 {
				continue
			}

			event := parseInput(buf[:n])
			if event != nil {
				select {
				case kr.input <- *event:
				case <-kr.stop:
					return
				}
			}
		}
	}
}

// parseInput parses raw keyboard input
func parseInput(buf []byte) *KeyEvent {
	if len(buf) == 0 {
		return nil
	}

	switch buf[0] {
	case 3: // Ctrl+C
		return &KeyEvent{Key: 3, Type: KeyChar}
	case '\r', '\n':
		return &KeyEvent{Key: '\r', Type: KeyEnter}
	case 27: // ESC
		if len(buf) == 1 {
			return &KeyEvent{Key: 27, Type: KeyEscape}
		}
		return parseEscapeSequence(buf[1:])
	}

	// Handle regular characters
	return &KeyEvent{Key: rune(buf[0]), Type: KeyChar}
}

// parseEscapeSequence handles CSI and SS3 arrow/home/end sequences
func parseEscapeSequence(seq []byte) *KeyEvent {
	if len(seq) < 2 || (seq[0] != '[' && seq[0] != 'O') {
		return nil
	}

	switch seq[1] {
	case 'A':
		return &KeyEvent{Type: KeyUp}
	case 'B':
		return &KeyEvent{Type: KeyDown}
	case 'C':
		return &KeyEvent{Type: KeyRight}
	case 'D':
		return &KeyEvent{Type: KeyLeft}
	case 'H':
		return &KeyEvent{Type: KeyHome}
	case 'F':
		return &KeyEvent{Type: KeyEnd}
	}
	return nil
}

// Events returns the keyboard event channel
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops the keyboard reader and restores terminal
func (kr *KeyboardReader) Close() error {
	close(kr.stop)
	return kr.disableRawMode()
}
