package formatter

import (
	"github.com/fatih/color"

	"github.com/tordrt/sqldiff/internal/schema"
)

// Colorizer paints statements by kind: green for ADD, yellow for CHANGE and
// red for DELETE. A disabled Colorizer returns statements unchanged.
type Colorizer struct {
	enabled bool
	paints  map[schema.ChangeKind]*color.Color
}

// NewColorizer creates a Colorizer. When enabled, colours are emitted even if
// the output is not a terminal.
func NewColorizer(enabled bool) *Colorizer {
	c := &Colorizer{
		enabled: enabled,
		paints: map[schema.ChangeKind]*color.Color{
			schema.ChangeAdd:    color.New(color.FgGreen),
			schema.ChangeChange: color.New(color.FgYellow),
			schema.ChangeDelete: color.New(color.FgRed),
		},
	}
	if enabled {
		for _, p := range c.paints {
			p.EnableColor()
		}
	}
	return c
}

// Enabled reports whether output is colorized
func (c *Colorizer) Enabled() bool {
	return c != nil && c.enabled
}

// Format returns the SQL of ch, coloured when enabled.
func (c *Colorizer) Format(ch schema.Change) string {
	if !c.Enabled() {
		return ch.SQL
	}
	p, ok := c.paints[ch.Kind]
	if !ok {
		return ch.SQL
	}
	return p.Sprint(ch.SQL)
}
