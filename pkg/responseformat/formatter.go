package responseformat

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	JSON    = "json"
	Msgpack = "msgpack"
	Text    = "text"
)

// Palette holds the colours used by text output
type Palette struct {
	Header *color.Color
	Warn   *color.Color
	Good   *color.Color
	Muted  *color.Color
}

// DefaultPalette returns the console colours. fatih/color disables them on
// non-terminal writers.
func DefaultPalette() *Palette {
	return &Palette{
		Header: color.New(color.FgCyan, color.Bold),
		Warn:   color.New(color.FgYellow),
		Good:   color.New(color.FgGreen),
		Muted:  color.New(color.Faint),
	}
}

// TextWriter is implemented by results that render as a console table
type TextWriter interface {
	WriteText(w io.Writer, p *Palette) error
}

// Formatter handles encoding and writing results in JSON, MessagePack or text
type Formatter struct {
	format  string
	palette *Palette
}

// NewFormatter creates a new result formatter. An empty format means JSON.
func NewFormatter(format string) (*Formatter, error) {
	switch format {
	case "":
		format = JSON
	case JSON, Msgpack, Text:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return &Formatter{format: format, palette: DefaultPalette()}, nil
}

// Format returns the selected output format
func (f *Formatter) Format() string {
	return f.format
}

// Write encodes data to w. Text output uses data's TextWriter implementation
// and falls back to indented JSON for values without one.
func (f *Formatter) Write(w io.Writer, data any) error {
	switch f.format {
	case Msgpack:
		return f.writeMsgPack(w, data)
	case Text:
		if tw, ok := data.(TextWriter); ok {
			return tw.WriteText(w, f.palette)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	default:
		return f.writeJSON(w, data)
	}
}

func (f *Formatter) writeJSON(w io.Writer, data any) error {
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w io.Writer, data any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}
