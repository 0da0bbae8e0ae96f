// Package content holds helpers for page content edited in the admin UI:
// slug generation from titles, display names for sites, plain-text excerpts of
// HTML page bodies and a safety check run before content is saved.
package content

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/conneroisu/sitepanel/internal/errors"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify turns a page title into a URL slug: accents are stripped, letters
// lower-cased and every run of other characters becomes a single dash.
func Slugify(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}

	if b.Len() == 0 {
		return "page"
	}
	return b.String()
}

// DisplayName title-cases a site name for headings.
func DisplayName(name string) string {
	return cases.Title(language.English).String(strings.TrimSpace(name))
}

// Excerpt returns the text of an HTML fragment with whitespace collapsed,
// cut to at most max runes. Truncated text ends with an ellipsis.
func Excerpt(fragment string, max int) string {
	if max <= 0 {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenText(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenText(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}

	text := strings.Join(strings.Fields(b.String()), " ")
	if utf8.RuneCountInString(text) <= max {
		return text
	}

	cut := []rune(text)[:max]
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + "…"
}

func isHiddenText(tag string) bool {
	return tag == "script" || tag == "style"
}

var forbiddenElements = map[string]bool{
	"script":  true,
	"iframe":  true,
	"object":  true,
	"embed":   true,
	"applet":  true,
	"frame":   true,
	"base":    true,
	"animate": true,
	"set":     true,
}

// urlAttrs hold URLs a browser may navigate to or load.
var urlAttrs = map[string]bool{
	"href":       true,
	"xlink:href": true,
	"src":        true,
	"action":     true,
	"formaction": true,
	"poster":     true,
	"background": true,
	"cite":       true,
	"data":       true,
}

// Validate rejects page content that could run script in a visitor's
// browser: script-capable elements, inline event handlers and javascript:
// URLs.
func Validate(fragment string) error {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return nil
			}
			return errors.WrapValidation(z.Err(), errors.ErrCodeUnsafeContent, "content is not valid HTML")
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if forbiddenElements[tok.Data] {
				return unsafeContent("element <"+tok.Data+"> is not allowed", tok.Data)
			}
			for _, attr := range tok.Attr {
				key := strings.ToLower(attr.Key)
				if strings.HasPrefix(key, "on") {
					return unsafeContent("event handler attribute "+key+" is not allowed", tok.Data)
				}
				if isURLAttr(key) && isScriptURL(attr.Val) {
					return unsafeContent("script URL in "+key+" is not allowed", tok.Data)
				}
			}
			if tok.Data == "meta" && isRefresh(tok.Attr) {
				return unsafeContent("meta refresh is not allowed", tok.Data)
			}
		}
	}
}

func isURLAttr(key string) bool {
	return urlAttrs[key]
}

// isRefresh reports whether a meta element redirects the page.
func isRefresh(attrs []html.Attribute) bool {
	for _, attr := range attrs {
		if strings.ToLower(attr.Key) == "http-equiv" && strings.EqualFold(strings.TrimSpace(attr.Val), "refresh") {
			return true
		}
	}
	return false
}

func isScriptURL(val string) bool {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, val)
	cleaned = strings.ToLower(cleaned)
	return strings.HasPrefix(cleaned, "javascript:") || strings.HasPrefix(cleaned, "vbscript:")
}

func unsafeContent(msg, element string) error {
	return errors.NewValidationError(errors.ErrCodeUnsafeContent, msg).
		WithComponent("content").
		WithContext("element", element)
}
