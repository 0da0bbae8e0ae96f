// Package components renders the admin UI. Each view is a templ.Component so
// handlers render them the same way as generated templ code.
package components

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// htmlWriter accumulates the first write error so views can emit markup
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

// raw writes trusted markup.
func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// text writes escaped text.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

// textf writes escaped formatted text.
func (h *htmlWriter) textf(format string, args ...interface{}) {
	h.text(fmt.Sprintf(format, args...))
}

// attrURL writes a sanitised, escaped URL for use inside a quoted attribute.
func (h *htmlWriter) attrURL(u string) {
	h.raw(templ.EscapeString(string(templ.URL(u))))
}

// render writes a child component.
func (h *htmlWriter) render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func component(fn func(ctx context.Context, h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		fn(ctx, h)
		return h.err
	})
}
