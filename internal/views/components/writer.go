package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Writer accumulates HTML for page bodies whose shape follows loosely typed
// CMS data, and keeps the first write error. Reusable pieces live in .templ
// files.
type Writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

// NewWriter wraps w for rendering within ctx.
func NewWriter(ctx context.Context, w io.Writer) *Writer {
	return &Writer{ctx: ctx, w: w}
}

// Raw writes trusted markup.
func (w *Writer) Raw(markup string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, markup)
}

// Text writes escaped text.
func (w *Writer) Text(value string) {
	w.Raw(templ.EscapeString(value))
}

// Attr writes name="value" with the value escaped, preceded by a space.
func (w *Writer) Attr(name, value string) {
	w.Raw(" " + name + "=\"" + templ.EscapeString(value) + "\"")
}

// Component renders a nested component.
func (w *Writer) Component(component templ.Component) {
	if w.err != nil || component == nil {
		return
	}
	w.err = component.Render(w.ctx, w.w)
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

// Render builds a templ.Component from a function writing through a Writer.
func Render(fn func(w *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := NewWriter(ctx, out)
		fn(w)
		return w.Err()
	})
}
