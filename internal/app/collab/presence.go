/*
Package collab contains the real-time collaboration core.

This file implements presence color assignment: each connection gets a stable
color from the product's fixed palette, assigned round-robin from a per-process
table. Colors distinguish cursors within a room; reuse across rooms (or across
palette wrap-around) is acceptable.
*/
package collab

import "sync"

// Palette is the product's fixed cursor color palette.
var Palette = []string{
	"#6366f1", // indigo
	"#ec4899", // pink
	"#14b8a6", // teal
	"#f59e0b", // amber
	"#8b5cf6", // violet
	"#22c55e", // green
}

// ColorAssigner hands out presence colors, one per connection id, stable for
// the connection's lifetime.
type ColorAssigner struct {
	mu       sync.Mutex
	palette  []string
	next     int
	assigned map[string]string
}

// NewColorAssigner constructs a ColorAssigner over the given palette.
// An empty palette falls back to the product default.
func NewColorAssigner(palette []string) *ColorAssigner {
	if len(palette) == 0 {
		palette = Palette
	}

	return &ColorAssigner{
		palette:  palette,
		assigned: make(map[string]string),
	}
}

// ColorFor returns the color assigned to the given connection id, assigning
// the next palette slot on first use.
func (a *ColorAssigner) ColorFor(connectionID string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if color, ok := a.assigned[connectionID]; ok {
		return color
	}

	color := a.palette[a.next%len(a.palette)]
	a.next++
	a.assigned[connectionID] = color

	return color
}

// Release forgets the assignment for a closed connection, keeping the table
// bounded by the number of live connections.
func (a *ColorAssigner) Release(connectionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.assigned, connectionID)
}
