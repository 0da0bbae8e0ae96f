package content

import (
	"testing"

	panelerrors "github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/validation"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Home", want: "home"},
		{title: "About Us", want: "about-us"},
		{title: "  Opening   Hours!  ", want: "opening-hours"},
		{title: "Café Médical", want: "cafe-medical"},
		{title: "Page 2: The Sequel", want: "page-2-the-sequel"},
		{title: "---", want: "page"},
		{title: "", want: "page"},
		{title: "日本語", want: "page"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			got := Slugify(tt.title)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, validation.ValidateSlug(got))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "St Thomas Hospital", DisplayName("st thomas hospital"))
	assert.Equal(t, "Medicine", DisplayName("  medicine "))
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		max      int
		want     string
	}{
		{name: "plain text", fragment: "Hello world", max: 50, want: "Hello world"},
		{name: "tags stripped", fragment: "<h1>Title</h1><p>First <b>bold</b> line</p>", max: 50, want: "Title First bold line"},
		{name: "script hidden", fragment: "<p>a</p><script>alert(1)</script><p>b</p>", max: 50, want: "a b"},
		{name: "truncated", fragment: "<p>one two three four</p>", max: 8, want: "one two…"},
		{name: "unicode boundary", fragment: "héllo wörld", max: 5, want: "héllo…"},
		{name: "zero max", fragment: "text", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excerpt(tt.fragment, tt.max))
		})
	}
}

func TestValidate(t *testing.T) {
	safe := []string{
		"",
		"plain text",
		`<h1>Title</h1><p>Body with <a href="https://example.com">link</a></p>`,
		`<img src="/images/logo.png" alt="logo">`,
		`<meta charset="utf-8">`,
		`<svg><a xlink:href="#section"><text>x</text></a></svg>`,
	}
	for _, s := range safe {
		assert.NoError(t, Validate(s), s)
	}

	unsafe := []string{
		"<script>alert(1)</script>",
		"<SCRIPT src=x></SCRIPT>",
		`<iframe src="https://evil.example.com"></iframe>`,
		`<img src=x onerror="alert(1)">`,
		`<a href="javascript:alert(1)">x</a>`,
		`<a href=" JaVaScRiPt:alert(1)">x</a>`,
		`<embed src="x.swf"/>`,
		`<svg><a xlink:href="javascript:alert(1)"><text>x</text></a></svg>`,
		`<base href="javascript:alert(1)//">`,
		`<meta http-equiv="refresh" content="0;url=javascript:alert(1)">`,
		`<META HTTP-EQUIV=Refresh CONTENT="0;url=https://evil.example.com">`,
		`<svg><animate attributeName="href" values="javascript:alert(1)"/></svg>`,
		`<form><button formaction="vbscript:msgbox(1)">x</button></form>`,
		`<video poster="javascript:alert(1)"></video>`,
	}
	for _, s := range unsafe {
		err := Validate(s)
		assert.Error(t, err, s)
		assert.Equal(t, panelerrors.ErrorTypeValidation, panelerrors.TypeOf(err), s)
	}
}
