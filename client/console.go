package client

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"
)

// Console serialises everything the client prints. Colours are optional so
// output stays readable when piped.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	colors bool
}

func NewConsole(out io.Writer, colors bool) *Console {
	return &Console{out: out, colors: colors}
}

func (c *Console) Writer() io.Writer {
	return c.out
}

// Line prints a chat delivery or a server notice as received.
func (c *Console) Line(line string) {
	c.print(line, nil)
}

func (c *Console) Info(format string, args ...any) {
	c.print(fmt.Sprintf(format, args...), color.New(color.FgCyan))
}

func (c *Console) Success(format string, args ...any) {
	c.print(fmt.Sprintf(format, args...), color.New(color.BgBlack, color.FgGreen))
}

func (c *Console) Error(format string, args ...any) {
	c.print(fmt.Sprintf(format, args...), color.New(color.FgRed, color.OpBold))
}

func (c *Console) print(text string, style color.Style) {
	if c.colors && style != nil {
		text = style.Render(text)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, text)
}
