package display

import "sync"

var loadingChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Chrome tracks the loading indicator drawn around the chart
type Chrome struct {
	mu      sync.Mutex
	loading bool
	frame   int
}

func NewChrome() *Chrome {
	return &Chrome{}
}

// SetLoading shows or hides the loading indicator
func (c *Chrome) SetLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if loading && !c.loading {
		c.frame = 0
	}
	c.loading = loading
}

// Loading reports whether the indicator is shown
func (c *Chrome) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Indicator returns the next spinner frame, or "" when not loading
func (c *Chrome) Indicator() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loading {
		return ""
	}
	frame := loadingChars[c.frame%len(loadingChars)]
	c.frame++
	return frame
}
