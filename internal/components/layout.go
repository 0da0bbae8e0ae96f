package components

import (
	"context"
	"net/url"

	"github.com/a-h/templ"
	"github.com/conneroisu/sitepanel/internal/content"
)

const styles = `body{font-family:system-ui,sans-serif;margin:0;color:#222}
header{background:#1f2937;color:#fff;padding:.75rem 1.5rem}
header a{color:#fff;margin-right:1rem;text-decoration:none}
main{padding:1.5rem;max-width:60rem}
table{border-collapse:collapse;width:100%}
td,th{border-bottom:1px solid #ddd;padding:.4rem;text-align:left}
.error{background:#fee2e2;border:1px solid #f87171;padding:.5rem;margin-bottom:1rem}
.pager{margin-top:1rem}
.pager a,.pager span{margin-right:.75rem}
form.inline{display:inline}`

// liveReloadScript reloads the page whenever the server reports a change.
const liveReloadScript = `<script>
(function(){
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  function connect(){
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function(){ location.reload(); };
    ws.onclose = function(){ setTimeout(connect, 2000); };
  }
  connect();
})();
</script>`

func document(ctx context.Context, h *htmlWriter, title string, liveReload bool, header, body templ.Component) {
	h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
	h.text(title)
	h.raw(`</title><style>`)
	h.raw(styles)
	h.raw(`</style></head><body>`)
	h.render(ctx, header)
	h.raw(`<main>`)
	h.render(ctx, body)
	h.raw(`</main>`)
	if liveReload {
		h.raw(liveReloadScript)
	}
	h.raw(`</body></html>`)
}

// Home is the public landing page.
func Home() templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		document(ctx, h, "sitepanel", false, nil, component(func(_ context.Context, h *htmlWriter) {
			h.raw(`<h1>sitepanel</h1><p>Content administration for your sites.</p><p><a href="/admin">Open the admin panel</a></p>`)
		}))
	})
}

// AdminLayout wraps every admin view with navigation and, in development,
// the live reload client.
func AdminLayout(title string, liveReload bool, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		nav := component(func(_ context.Context, h *htmlWriter) {
			h.raw(`<header><nav><a href="/admin">Admin</a><a href="/admin/sites">Sites</a><a href="/admin/sites/new">New site</a></nav></header>`)
		})
		document(ctx, h, title+" | sitepanel", liveReload, nav, body)
	})
}

// AdminHome is the dashboard.
func AdminHome(siteCount int) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<h1>Dashboard</h1><p>`)
		switch siteCount {
		case 0:
			h.raw(`No sites yet. <a href="/admin/sites/new">Create the first one</a>.`)
		case 1:
			h.raw(`1 site. <a href="/admin/sites">Manage it</a>.`)
		default:
			h.textf("%d sites. ", siteCount)
			h.raw(`<a href="/admin/sites">Manage them</a>.`)
		}
		h.raw(`</p>`)
	})
}

// SiteLayout frames every view of a single site.
func SiteLayout(site string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="site"><h1>`)
		h.text(content.DisplayName(site))
		h.raw(`</h1><p><a href="`)
		h.attrURL(sitePath(site) + "/pages")
		h.raw(`">Pages</a></p>`)
		h.render(ctx, body)
		h.raw(`</section>`)
	})
}

// ErrorView reports a failed request.
func ErrorView(status int, message string) templ.Component {
	return component(func(_ context.Context, h *htmlWriter) {
		h.raw(`<div class="error" role="alert"><strong>`)
		h.textf("Error %d", status)
		h.raw(`</strong><p>`)
		h.text(message)
		h.raw(`</p></div>`)
	})
}

func sitePath(site string) string {
	return "/admin/sites/" + url.PathEscape(site)
}

func pagePath(site, slug string) string {
	return sitePath(site) + "/pages/" + url.PathEscape(slug)
}

func formError(h *htmlWriter, msg string) {
	if msg == "" {
		return
	}
	h.raw(`<div class="error" role="alert">`)
	h.text(msg)
	h.raw(`</div>`)
}
