package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected *KeyEvent
	}{
		{name: "Regular char", input: []byte{'a'}, expected: &KeyEvent{Key: 'a', Type: KeyChar}},
		{name: "Space", input: []byte{' '}, expected: &KeyEvent{Key: ' ', Type: KeyChar}},
		{name: "Ctrl+C", input: []byte{3}, expected: &KeyEvent{Key: 3, Type: KeyChar}},
		{name: "Enter CR", input: []byte{'\r'}, expected: &KeyEvent{Key: '\r', Type: KeyEnter}},
		{name: "Enter LF", input: []byte{'\n'}, expected: &KeyEvent{Key: '\r', Type: KeyEnter}},
		{name: "Escape", input: []byte{27}, expected: &KeyEvent{Key: 27, Type: KeyEscape}},
		{name: "Left arrow", input: []byte{27, '[', 'D'}, expected: &KeyEvent{Type: KeyLeft}},
		{name: "Right arrow", input: []byte{27, '[', 'C'}, expected: &KeyEvent{Type: KeyRight}},
		{name: "Up arrow", input: []byte{27, '[', 'A'}, expected: &KeyEvent{Type: KeyUp}},
		{name: "Down arrow SS3", input: []byte{27, 'O', 'B'}, expected: &KeyEvent{Type: KeyDown}},
		{name: "Home", input: []byte{27, '[', 'H'}, expected: &KeyEvent{Type: KeyHome}},
		{name: "End", input: []byte{27, '[', 'F'}, expected: &KeyEvent{Type: KeyEnd}},
		{name: "Unknown sequence", input: []byte{27, '[', 'Z'}, expected: nil},
		{name: "Truncated sequence", input: []byte{27, '['}, expected: nil},
		{name: "Empty", input: []byte{}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseInput(tt.input))
		})
	}
}

func TestKeyEventIsQuit(t *testing.T) {
	tests := []struct {
		event    KeyEvent
		expected bool
	}{
		{KeyEvent{Key: 'q', Type: KeyChar}, true},
		{KeyEvent{Key: 'Q', Type: KeyChar}, true},
		{KeyEvent{Key: 3, Type: KeyChar}, true},
		{KeyEvent{Key: 27, Type: KeyEscape}, true},
		{KeyEvent{Key: 'r', Type: KeyChar}, false},
		{KeyEvent{Type: KeyLeft}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.event.IsQuit(), "%+v", tt.event)
	}
}

func TestKeyboardReaderEventsChannel(t *testing.T) {
	kr := &KeyboardReader{
		input: make(chan KeyEvent, 1),
		stop:  make(chan struct{}),
	}
	kr.input <- KeyEvent{Key: 'x', Type: KeyChar}

	ev := <-kr.Events()
	assert.Equal(t, 'x', ev.Key)

	// No terminal state was captured, so restoring is a no-op
	assert.NoError(t, kr.Close())
}
